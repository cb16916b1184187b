package record

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// Repository persists finished battle records to postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository opens a postgres connection from databaseURL.
func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("record: DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// SaveResult upserts one finished battle.
func (r *Repository) SaveResult(ctx context.Context, b *Battle) error {
	if r == nil || r.db == nil || b == nil {
		return nil
	}

	duration := b.EndedAt.Sub(b.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	q := `INSERT INTO battles (
	    battle_id, room_id, format, opponent,
	    outcome, turns, started_at, ended_at, duration_ms
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9
	  ) ON CONFLICT (battle_id) DO UPDATE SET
	    room_id=EXCLUDED.room_id,
	    format=EXCLUDED.format,
	    opponent=EXCLUDED.opponent,
	    outcome=EXCLUDED.outcome,
	    turns=EXCLUDED.turns,
	    started_at=EXCLUDED.started_at,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.RoomID, b.Format, b.Opponent,
		string(b.Outcome), b.Turns, b.StartedAt, b.EndedAt, duration,
	)
	if err != nil {
		return fmt.Errorf("record: save result: %w", err)
	}
	return nil
}
