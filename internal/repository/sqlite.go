package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS interactions (
			interaction_id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_id INTEGER NOT NULL,
			caller TEXT NOT NULL,
			query TEXT NOT NULL,
			response TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			fee_paid INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			completed_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_agent ON interactions(agent_id, interaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_caller ON interactions(caller, interaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_status_completed ON interactions(status, completed_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}

	// Failure messages are kept apart from responses.
	if err := s.ensureColumn("interactions", "message", `ALTER TABLE interactions ADD COLUMN message TEXT`); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateInteraction inserts a new interaction and returns its id.
func (s *SQLiteStore) CreateInteraction(ctx context.Context, in *domain.Interaction) (uint64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (agent_id, caller, query, status, fee_paid, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.AgentID, in.Caller, in.Query, in.Status, int64(in.FeePaid), in.CreatedAt)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const interactionColumns = `interaction_id, agent_id, caller, query, response, message, status, fee_paid, created_at, completed_at`

// GetInteraction retrieves an interaction by ID.
func (s *SQLiteStore) GetInteraction(ctx context.Context, id uint64) (*domain.Interaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE interaction_id = ?`, int64(id))

	in, err := scanInteraction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// FinishInteraction sets the terminal status of a pending interaction.
func (s *SQLiteStore) FinishInteraction(ctx context.Context, id uint64, status domain.InteractionStatus, text string, completedAt int64) (bool, error) {
	column := "message"
	if status == domain.InteractionStatusCompleted {
		column = "response"
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE interactions SET status = ?, `+column+` = ?, completed_at = ? WHERE interaction_id = ? AND status = 'pending'`,
		status, text, completedAt, int64(id))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ListInteractionsByAgent lists an agent's interactions.
func (s *SQLiteStore) ListInteractionsByAgent(ctx context.Context, agentID uint32) ([]domain.Interaction, error) {
	return s.list(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE agent_id = ? ORDER BY interaction_id ASC`, agentID)
}

// ListInteractionsByCaller lists a caller's interactions.
func (s *SQLiteStore) ListInteractionsByCaller(ctx context.Context, caller string) ([]domain.Interaction, error) {
	return s.list(ctx, `SELECT `+interactionColumns+` FROM interactions WHERE caller = ? ORDER BY interaction_id ASC`, caller)
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...interface{}) ([]domain.Interaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Interaction{}
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CountInteractions counts stored interactions.
func (s *SQLiteStore) CountInteractions(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM interactions`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteFinishedBefore removes terminal interactions completed before cutoff.
func (s *SQLiteStore) DeleteFinishedBefore(ctx context.Context, cutoff int64) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM interactions WHERE status IN ('completed', 'failed') AND completed_at IS NOT NULL AND completed_at < ?`,
		cutoff)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInteraction(row rowScanner) (*domain.Interaction, error) {
	var in domain.Interaction
	var response, message sql.NullString
	var completedAt sql.NullInt64
	var feePaid int64
	if err := row.Scan(&in.InteractionID, &in.AgentID, &in.Caller, &in.Query, &response, &message,
		&in.Status, &feePaid, &in.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	in.FeePaid = uint64(feePaid)
	if response.Valid {
		in.Response = &response.String
	}
	if message.Valid {
		in.Message = &message.String
	}
	if completedAt.Valid {
		in.CompletedAt = &completedAt.Int64
	}
	return &in, nil
}
