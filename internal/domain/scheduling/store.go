package scheduling

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"solarops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const ticketColumns = `
    s.id, s.customer_id, COALESCE(c.name, ''),
    concat_ws(', ', NULLIF(c.address, ''), NULLIF(c.city, ''), NULLIF(concat_ws(' ', NULLIF(c.state, ''), NULLIF(c.zip, '')), '')),
    s.ticket_type, COALESCE(s.problem_code, ''), s.ticket_status, s.priority,
    COALESCE(to_char(s.scheduled_date, 'YYYY-MM-DD'), ''),
    COALESCE(left(s.window_start::text, 5), ''), COALESCE(left(s.window_end::text, 5), ''),
    COALESCE((SELECT array_agg(st.employee_id::text ORDER BY st.created_at) FROM scheduling_technicians st WHERE st.ticket_id = s.id), '{}'),
    COALESCE(s.pv_installer_id::text, ''),
    s.in_transit_at, s.arrived_at, s.begin_ticket_at, s.departing_at, s.closed_at,
    COALESCE(s.work_performed, ''), COALESCE(s.close_reason, ''), COALESCE(s.notes, ''),
    s.created_at, s.updated_at
  `

const ticketFrom = `
    FROM scheduling s
    JOIN customers c ON c.id = s.customer_id
  `

func scanTicket(row pgx.Row) (Ticket, error) {
	var t Ticket
	err := row.Scan(
		&t.ID, &t.CustomerID, &t.CustomerName, &t.CustomerAddress,
		&t.TicketType, &t.ProblemCode, &t.Status, &t.Priority,
		&t.ScheduledDate, &t.WindowStart, &t.WindowEnd,
		&t.TechnicianIDs, &t.PVInstallerID,
		&t.InTransitAt, &t.ArrivedAt, &t.BeginTicketAt, &t.DepartingAt, &t.ClosedAt,
		&t.WorkPerformed, &t.CloseReason, &t.Notes,
		&t.CreatedAt, &t.UpdatedAt,
	)
	return t, err
}

// CreateTicket writes the ticket and its technician rows in one statement.
func (s *Store) CreateTicket(ctx context.Context, t Ticket) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    WITH t AS (
      INSERT INTO scheduling (customer_id, ticket_type, problem_code, ticket_status, priority,
        scheduled_date, window_start, window_end, pv_installer_id, notes)
      VALUES ($1,$2,NULLIF($3,''),$4,$5,NULLIF($6,'')::date,NULLIF($7,'')::time,NULLIF($8,'')::time,NULLIF($9,'')::uuid,NULLIF($10,''))
      RETURNING id
    ), techs AS (
      INSERT INTO scheduling_technicians (ticket_id, employee_id)
      SELECT t.id, tech::uuid FROM t, unnest($11::text[]) AS tech
    )
    SELECT id FROM t
  `, t.CustomerID, t.TicketType, t.ProblemCode, t.Status, t.Priority,
		t.ScheduledDate, t.WindowStart, t.WindowEnd, t.PVInstallerID, t.Notes, t.TechnicianIDs).Scan(&id)
	return id, err
}

func (s *Store) GetTicket(ctx context.Context, ticketID string) (Ticket, error) {
	t, err := scanTicket(s.DB.QueryRow(ctx, `SELECT `+ticketColumns+ticketFrom+` WHERE s.id = $1`, ticketID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Ticket{}, ErrTicketNotFound
	}
	return t, err
}

func (s *Store) ListTickets(ctx context.Context, filter ListFilter) ([]Ticket, int, error) {
	where := []string{"1=1"}
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(args))))
	}
	if filter.CustomerID != "" {
		add("s.customer_id = ?", filter.CustomerID)
	}
	if filter.TechnicianID != "" {
		add("(s.pv_installer_id::text = ? OR EXISTS (SELECT 1 FROM scheduling_technicians st WHERE st.ticket_id = s.id AND st.employee_id::text = ?))", filter.TechnicianID)
	}
	if filter.TicketType != "" {
		add("s.ticket_type = ?", filter.TicketType)
	}
	if filter.Status != "" {
		add("s.ticket_status = ?", filter.Status)
	}
	if filter.From != "" {
		add("s.scheduled_date >= ?::date", filter.From)
	}
	if filter.To != "" {
		add("s.scheduled_date <= ?::date", filter.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1)`+ticketFrom+` WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	rows, err := s.DB.Query(ctx, `SELECT `+ticketColumns+ticketFrom+` WHERE `+cond+`
    ORDER BY s.scheduled_date NULLS LAST, s.window_start NULLS LAST, s.created_at
    LIMIT $`+strconv.Itoa(len(args)-1)+` OFFSET $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

// UpdateTicket replaces the editable fields and reconciles the technician rows.
func (s *Store) UpdateTicket(ctx context.Context, t Ticket) error {
	var updated int
	err := s.DB.QueryRow(ctx, `
    WITH u AS (
      UPDATE scheduling
      SET customer_id = $2, ticket_type = $3, problem_code = NULLIF($4,''), priority = $5,
          scheduled_date = NULLIF($6,'')::date, window_start = NULLIF($7,'')::time, window_end = NULLIF($8,'')::time,
          pv_installer_id = NULLIF($9,'')::uuid, notes = NULLIF($10,''), updated_at = now()
      WHERE id = $1
      RETURNING id
    ), removed AS (
      DELETE FROM scheduling_technicians
      WHERE ticket_id IN (SELECT id FROM u) AND NOT (employee_id::text = ANY($11::text[]))
    ), added AS (
      INSERT INTO scheduling_technicians (ticket_id, employee_id)
      SELECT u.id, tech::uuid FROM u, unnest($11::text[]) AS tech
      ON CONFLICT (ticket_id, employee_id) DO NOTHING
    )
    SELECT COUNT(1) FROM u
  `, t.ID, t.CustomerID, t.TicketType, t.ProblemCode, t.Priority,
		t.ScheduledDate, t.WindowStart, t.WindowEnd, t.PVInstallerID, t.Notes, t.TechnicianIDs).Scan(&updated)
	if err != nil {
		return err
	}
	if updated == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (s *Store) UpdateProgress(ctx context.Context, t Ticket) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE scheduling
    SET in_transit_at = $2, arrived_at = $3, begin_ticket_at = $4, departing_at = $5, closed_at = $6,
        close_reason = NULLIF($7,''), ticket_status = $8, updated_at = now()
    WHERE id = $1
  `, t.ID, t.InTransitAt, t.ArrivedAt, t.BeginTicketAt, t.DepartingAt, t.ClosedAt, t.CloseReason, t.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (s *Store) UpdateWorkPerformed(ctx context.Context, ticketID, text string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE scheduling SET work_performed = NULLIF($2,''), updated_at = now() WHERE id = $1", ticketID, text)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

func (s *Store) DeleteTicket(ctx context.Context, ticketID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM scheduling WHERE id = $1", ticketID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}
