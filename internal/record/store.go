// Package record keeps battle records: live battles in redis, final results
// in the database.
package record

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Outcome is the terminal result of a battle, from the client's view.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeTie  Outcome = "tie"
)

// Battle is one battle record. Live battles sit in redis until finished.
type Battle struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Format    string    `json:"format"`
	Opponent  string    `json:"opponent"`
	Outcome   Outcome   `json:"outcome,omitempty"`
	Turns     int       `json:"turns"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at,omitempty"`
}

// Store keeps live battle records and per-format ladder tallies in redis.
type Store struct {
	rdb  *redis.Client
	repo *Repository
	ttl  time.Duration
}

// NewStore connects to redis at redisURL.
func NewStore(redisURL string) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("record: REDIS_URL required")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("record: redis ping: %w", err)
	}
	return &Store{rdb: rdb, ttl: 7 * 24 * time.Hour}, nil
}

// NewStoreWithClient wraps an existing client; tests use this with a fake
// redis.
func NewStoreWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: 7 * 24 * time.Hour}
}

// AttachRepository wires a database repository for persisting final results.
func (s *Store) AttachRepository(r *Repository) {
	if s != nil {
		s.repo = r
	}
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Start records a new live battle and returns it.
func (s *Store) Start(ctx context.Context, roomID, format, opponent string) (*Battle, error) {
	b := &Battle{
		ID:        uuid.NewString(),
		RoomID:    roomID,
		Format:    format,
		Opponent:  opponent,
		StartedAt: time.Now().UTC(),
	}
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	if err := s.rdb.Set(ctx, roomKey(roomID), b.ID, s.ttl).Err(); err != nil {
		return nil, err
	}
	return b, nil
}

// Turn bumps the recorded turn count of a live battle.
func (s *Store) Turn(ctx context.Context, roomID string) error {
	b, err := s.ByRoom(ctx, roomID)
	if err != nil || b == nil {
		return err
	}
	b.Turns++
	return s.save(ctx, b)
}

// Finish closes a live battle with its outcome, bumps the ladder tally and,
// when a repository is attached, persists the final record.
func (s *Store) Finish(ctx context.Context, roomID string, outcome Outcome) (*Battle, error) {
	b, err := s.ByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("record: no live battle for room %q", roomID)
	}
	b.Outcome = outcome
	b.EndedAt = time.Now().UTC()
	if err := s.save(ctx, b); err != nil {
		return nil, err
	}
	if err := s.rdb.Incr(ctx, tallyKey(b.Format, outcome)).Err(); err != nil {
		return nil, err
	}
	if s.repo != nil {
		if err := s.repo.SaveResult(ctx, b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// ByRoom looks up the live battle of a room, nil when none exists.
func (s *Store) ByRoom(ctx context.Context, roomID string) (*Battle, error) {
	id, err := s.rdb.Get(ctx, roomKey(roomID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.get(ctx, id)
}

// Tally returns the win/loss/tie counters of a format.
func (s *Store) Tally(ctx context.Context, format string) (wins, losses, ties int64, err error) {
	for _, o := range []Outcome{OutcomeWin, OutcomeLoss, OutcomeTie} {
		n, err := s.rdb.Get(ctx, tallyKey(format, o)).Int64()
		if err != nil && err != redis.Nil {
			return 0, 0, 0, err
		}
		switch o {
		case OutcomeWin:
			wins = n
		case OutcomeLoss:
			losses = n
		case OutcomeTie:
			ties = n
		}
	}
	return wins, losses, ties, nil
}

func (s *Store) save(ctx context.Context, b *Battle) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, battleKey(b.ID), raw, s.ttl).Err()
}

func (s *Store) get(ctx context.Context, id string) (*Battle, error) {
	raw, err := s.rdb.Get(ctx, battleKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var b Battle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func battleKey(id string) string { return "battle:record:" + strings.TrimSpace(id) }
func roomKey(room string) string { return "battle:room:" + strings.TrimSpace(room) }
func tallyKey(format string, o Outcome) string {
	return "battle:tally:" + format + ":" + string(o)
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("record: unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
