package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"workforce/internal/requestctx"
)

const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "soft_delete"
	ActionRestore  = "restore"
	ActionAssign   = "assign"
	ActionUnassign = "unassign"
)

type Event struct {
	ID         int64           `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
}

// Recorder is what the lifecycle services write to. Actor and request id come from ctx.
type Recorder interface {
	Record(ctx context.Context, action, entityType, entityID string, before, after any) error
}

type Lister interface {
	List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error)
}

func newEvent(ctx context.Context, action, entityType, entityID string, before, after any) (Event, error) {
	evt := Event{
		ActorID:    requestctx.GetActor(ctx),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestctx.GetRequestID(ctx),
	}
	if before != nil {
		payload, err := json.Marshal(before)
		if err != nil {
			return Event{}, err
		}
		evt.Before = payload
	}
	if after != nil {
		payload, err := json.Marshal(after)
		if err != nil {
			return Event{}, err
		}
		evt.After = payload
	}
	return evt, nil
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, action, entityType, entityID string, before, after any) error {
	evt, err := newEvent(ctx, action, entityType, entityID, before, after)
	if err != nil {
		return err
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_id, action, entity_type, entity_id, before_json, after_json, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
  `, evt.ActorID, evt.Action, evt.EntityType, evt.EntityID, nullJSON(evt.Before), nullJSON(evt.After), evt.RequestID)
	return err
}

func nullJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Event, error) {
	query, args := buildQuery(filter)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		if err := rows.Scan(&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID,
			&evt.CreatedAt, &evt.Before, &evt.After); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildQuery(filter Filter) (string, []any) {
	query := `SELECT id, actor_id, action, entity_type, entity_id, request_id, created_at, before_json, after_json
    FROM audit_events WHERE true`
	var args []any
	if filter.Action != "" {
		args = append(args, filter.Action)
		query += fmt.Sprintf(" AND action = $%d", len(args))
	}
	if filter.EntityType != "" {
		args = append(args, filter.EntityType)
		query += fmt.Sprintf(" AND entity_type = $%d", len(args))
	}
	if filter.EntityID != "" {
		args = append(args, filter.EntityID)
		query += fmt.Sprintf(" AND entity_id = $%d", len(args))
	}
	return query, args
}

// Memory keeps events in process. Used with the in-memory store driver and in tests.
type Memory struct {
	mu     sync.Mutex
	events []Event
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: func() time.Time { return time.Now().UTC() }}
}

func (m *Memory) Record(ctx context.Context, action, entityType, entityID string, before, after any) error {
	evt, err := newEvent(ctx, action, entityType, entityID, before, after)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	evt.ID = int64(len(m.events) + 1)
	evt.CreatedAt = m.now()
	m.events = append(m.events, evt)
	return nil
}

func (m *Memory) List(_ context.Context, filter Filter, limit, offset int) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Event{}
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if filter.Action != "" && evt.Action != filter.Action {
			continue
		}
		if filter.EntityType != "" && evt.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && evt.EntityID != filter.EntityID {
			continue
		}
		out = append(out, evt)
	}
	if offset >= len(out) {
		return []Event{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
