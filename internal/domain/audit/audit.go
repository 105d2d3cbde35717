package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"solarops/internal/platform/querier"
	"solarops/internal/requestctx"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Entry is one mutation to record. Before and After are marshalled as JSON when non-nil.
type Entry struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	RequestID  string
	IP         string
	Before     any
	After      any
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
}

type Service struct {
	DB querier.Querier
}

func New(db querier.Querier) *Service {
	return &Service{DB: db}
}

func marshalOptional(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	if e.RequestID == "" {
		e.RequestID = requestctx.GetRequestID(ctx)
	}
	if e.IP == "" {
		e.IP = requestctx.GetClientIP(ctx)
	}
	beforeJSON, err := marshalOptional(e.Before)
	if err != nil {
		return fmt.Errorf("marshal before: %w", err)
	}
	afterJSON, err := marshalOptional(e.After)
	if err != nil {
		return fmt.Errorf("marshal after: %w", err)
	}
	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES (NULLIF($1,'')::uuid,$2,$3,$4,$5,$6,$7,$8)
  `, e.ActorID, e.Action, e.EntityType, e.EntityID, beforeJSON, afterJSON, e.RequestID, e.IP)
	return err
}

func (s *Service) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildWhere(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Service) List(ctx context.Context, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	cols := "id, COALESCE(actor_user_id::text, ''), action, entity_type, entity_id, COALESCE(request_id, ''), COALESCE(ip, ''), created_at"
	if includeDetails {
		cols += ", before_json, after_json"
	}
	where, args := buildWhere(filter)
	query := fmt.Sprintf("SELECT %s FROM audit_events%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d", cols, where, len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func buildWhere(filter Filter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	add("action = $%d", filter.Action)
	add("entity_type = $%d", filter.EntityType)
	add("entity_id = $%d", filter.EntityID)
	add("actor_user_id::text = $%d", filter.ActorUser)
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
