package repository

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// MemoryStore keeps interactions in process memory. Ids come from an atomic
// counter and every record has its own lock, so unrelated interactions never
// contend.
type MemoryStore struct {
	nextID  atomic.Uint64
	count   atomic.Int64
	records sync.Map // uint64 -> *memRecord

	byAgent  sync.Map // uint32 -> *idList
	byCaller sync.Map // string -> *idList
}

type memRecord struct {
	mu sync.Mutex
	in domain.Interaction
}

type idList struct {
	mu  sync.Mutex
	ids []uint64
}

func (l *idList) add(id uint64) {
	l.mu.Lock()
	l.ids = append(l.ids, id)
	l.mu.Unlock()
}

func (l *idList) remove(drop map[uint64]bool) {
	l.mu.Lock()
	kept := l.ids[:0]
	for _, id := range l.ids {
		if !drop[id] {
			kept = append(kept, id)
		}
	}
	l.ids = kept
	l.mu.Unlock()
}

func (l *idList) snapshot() []uint64 {
	l.mu.Lock()
	out := make([]uint64, len(l.ids))
	copy(out, l.ids)
	l.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NewMemoryStore creates an empty store. The first id issued is 1.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) CreateInteraction(ctx context.Context, in *domain.Interaction) (uint64, error) {
	id := s.nextID.Add(1)

	rec := &memRecord{in: copyInteraction(in)}
	rec.in.InteractionID = id
	s.records.Store(id, rec)
	s.count.Add(1)

	agentList, _ := s.byAgent.LoadOrStore(in.AgentID, &idList{})
	agentList.(*idList).add(id)
	callerList, _ := s.byCaller.LoadOrStore(in.Caller, &idList{})
	callerList.(*idList).add(id)

	return id, nil
}

func (s *MemoryStore) GetInteraction(ctx context.Context, id uint64) (*domain.Interaction, error) {
	v, ok := s.records.Load(id)
	if !ok {
		return nil, nil
	}
	rec := v.(*memRecord)

	rec.mu.Lock()
	in := copyInteraction(&rec.in)
	rec.mu.Unlock()
	return &in, nil
}

func (s *MemoryStore) FinishInteraction(ctx context.Context, id uint64, status domain.InteractionStatus, text string, completedAt int64) (bool, error) {
	v, ok := s.records.Load(id)
	if !ok {
		return false, nil
	}
	rec := v.(*memRecord)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.in.Status != domain.InteractionStatusPending {
		return false, nil
	}
	rec.in.Status = status
	if status == domain.InteractionStatusCompleted {
		rec.in.Response = &text
	} else {
		rec.in.Message = &text
	}
	rec.in.CompletedAt = &completedAt
	return true, nil
}

func (s *MemoryStore) ListInteractionsByAgent(ctx context.Context, agentID uint32) ([]domain.Interaction, error) {
	v, ok := s.byAgent.Load(agentID)
	if !ok {
		return []domain.Interaction{}, nil
	}
	return s.collect(v.(*idList).snapshot()), nil
}

func (s *MemoryStore) ListInteractionsByCaller(ctx context.Context, caller string) ([]domain.Interaction, error) {
	v, ok := s.byCaller.Load(caller)
	if !ok {
		return []domain.Interaction{}, nil
	}
	return s.collect(v.(*idList).snapshot()), nil
}

func (s *MemoryStore) collect(ids []uint64) []domain.Interaction {
	out := make([]domain.Interaction, 0, len(ids))
	for _, id := range ids {
		in, _ := s.GetInteraction(context.Background(), id)
		if in != nil {
			out = append(out, *in)
		}
	}
	return out
}

func (s *MemoryStore) CountInteractions(ctx context.Context) (int, error) {
	return int(s.count.Load()), nil
}

func (s *MemoryStore) DeleteFinishedBefore(ctx context.Context, cutoff int64) (int, error) {
	drop := make(map[uint64]bool)
	agents := make(map[uint32]bool)
	callers := make(map[string]bool)

	s.records.Range(func(key, value any) bool {
		rec := value.(*memRecord)
		rec.mu.Lock()
		expired := rec.in.Status.Terminal() && rec.in.CompletedAt != nil && *rec.in.CompletedAt < cutoff
		agentID, caller := rec.in.AgentID, rec.in.Caller
		rec.mu.Unlock()

		if expired {
			id := key.(uint64)
			s.records.Delete(id)
			s.count.Add(-1)
			drop[id] = true
			agents[agentID] = true
			callers[caller] = true
		}
		return true
	})

	for agentID := range agents {
		if v, ok := s.byAgent.Load(agentID); ok {
			v.(*idList).remove(drop)
		}
	}
	for caller := range callers {
		if v, ok := s.byCaller.Load(caller); ok {
			v.(*idList).remove(drop)
		}
	}
	return len(drop), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func copyInteraction(in *domain.Interaction) domain.Interaction {
	out := *in
	if in.Response != nil {
		v := *in.Response
		out.Response = &v
	}
	if in.Message != nil {
		v := *in.Message
		out.Message = &v
	}
	if in.CompletedAt != nil {
		v := *in.CompletedAt
		out.CompletedAt = &v
	}
	return out
}
