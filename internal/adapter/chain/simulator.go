// Package chain simulates the marketplace contract that records queries and
// responses on a distributed ledger.
package chain

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// EventType is the kind of contract event.
type EventType string

const (
	EventQuerySubmitted    EventType = "query_submitted"
	EventResponseSubmitted EventType = "response_submitted"
)

// Event is one simulated contract event.
type Event struct {
	TxHash        string                   `json:"tx_hash"`
	Type          EventType                `json:"type"`
	InteractionID uint64                   `json:"interaction_id"`
	AgentID       uint32                   `json:"agent_id"`
	Caller        string                   `json:"caller"`
	Status        domain.InteractionStatus `json:"status"`
	FeePaid       uint64                   `json:"fee_paid"`
	PlatformFee   uint64                   `json:"platform_fee"`
	AgentFee      uint64                   `json:"agent_fee"`
	Timestamp     int64                    `json:"timestamp"`
}

// DefaultMaxEvents is how many recent events a Simulator keeps.
const DefaultMaxEvents = 1000

// Simulator records contract events in memory instead of submitting them.
// Only the most recent maxEvents are kept.
type Simulator struct {
	node       string
	contract   string
	feePercent uint64
	maxEvents  int

	mu     sync.Mutex
	events []Event
}

// NewSimulator creates a simulator for the contract at contractAddress.
// feePercent is clamped to [0, 100].
func NewSimulator(nodeURL, contractAddress string, feePercent int) *Simulator {
	if feePercent < 0 {
		feePercent = 0
	}
	if feePercent > 100 {
		feePercent = 100
	}
	log.Printf("INFO: chain simulator node=%s contract=%s fee=%d%%", nodeHost(nodeURL), contractAddress, feePercent)
	return &Simulator{
		node:       nodeHost(nodeURL),
		contract:   contractAddress,
		feePercent: uint64(feePercent),
		maxEvents:  DefaultMaxEvents,
	}
}

// SetMaxEvents changes how many recent events are kept. n <= 0 keeps the default.
func (s *Simulator) SetMaxEvents(n int) {
	if n <= 0 {
		n = DefaultMaxEvents
	}
	s.mu.Lock()
	s.maxEvents = n
	s.trim()
	s.mu.Unlock()
}

// Split divides a payment into the platform fee and the agent owner's share.
func (s *Simulator) Split(payment uint64) (platformFee, agentFee uint64) {
	platformFee = payment/100*s.feePercent + payment%100*s.feePercent/100
	return platformFee, payment - platformFee
}

// RecordQuery emits a query_submitted event.
func (s *Simulator) RecordQuery(ctx context.Context, in *domain.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	platformFee, agentFee := s.Split(in.FeePaid)
	ev := s.append(Event{
		Type:          EventQuerySubmitted,
		InteractionID: in.InteractionID,
		AgentID:       in.AgentID,
		Caller:        in.Caller,
		Status:        in.Status,
		FeePaid:       in.FeePaid,
		PlatformFee:   platformFee,
		AgentFee:      agentFee,
	})
	log.Printf("INFO: chain tx=%s event=%s interaction=%d agent=%d fee=%s query=%q",
		ev.TxHash, ev.Type, ev.InteractionID, ev.AgentID, FormatPrice(ev.FeePaid), Truncate(in.Query, 100))
	return nil
}

// RecordResponse emits a response_submitted event.
func (s *Simulator) RecordResponse(ctx context.Context, in *domain.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ev := s.append(Event{
		Type:          EventResponseSubmitted,
		InteractionID: in.InteractionID,
		AgentID:       in.AgentID,
		Caller:        in.Caller,
		Status:        in.Status,
		FeePaid:       in.FeePaid,
	})
	log.Printf("INFO: chain tx=%s event=%s interaction=%d status=%s response=%q",
		ev.TxHash, ev.Type, ev.InteractionID, ev.Status, Truncate(in.DisplayText(), 100))
	return nil
}

func (s *Simulator) append(ev Event) Event {
	ev.TxHash = "0x" + strings.ReplaceAll(uuid.New().String(), "-", "")
	ev.Timestamp = time.Now().Unix()

	s.mu.Lock()
	s.events = append(s.events, ev)
	s.trim()
	s.mu.Unlock()
	return ev
}

func (s *Simulator) trim() {
	if over := len(s.events) - s.maxEvents; over > 0 {
		s.events = append(s.events[:0:0], s.events[over:]...)
	}
}

// Events returns the retained events in order.
func (s *Simulator) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// FormatPrice renders an amount with 10 decimals as DOT.
func FormatPrice(amount uint64) string {
	return fmt.Sprintf("%.4f DOT", float64(amount)/1e10)
}

// Truncate shortens s to at most maxLen runes plus an ellipsis.
func Truncate(s string, maxLen int) string {
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}

func nodeHost(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "://") {
		if parsed, err := url.Parse(raw); err == nil && parsed.Host != "" {
			return parsed.Host
		}
	}
	return raw
}
