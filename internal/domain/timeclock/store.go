package timeclock

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"solarops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const entryColumns = `
    id, employee_id, COALESCE(customer_id::text, ''), COALESCE(ticket_id::text, ''),
    clock_in, clock_out, total_hours, latitude, longitude, COALESCE(notes, ''), created_at
  `

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var total decimal.NullDecimal
	if err := row.Scan(
		&entry.ID,
		&entry.EmployeeID,
		&entry.CustomerID,
		&entry.TicketID,
		&entry.ClockIn,
		&entry.ClockOut,
		&total,
		&entry.Latitude,
		&entry.Longitude,
		&entry.Notes,
		&entry.CreatedAt,
	); err != nil {
		return Entry{}, err
	}
	if total.Valid {
		hours := total.Decimal
		entry.TotalHours = &hours
	}
	return entry, nil
}

func (s *Store) OpenEntry(ctx context.Context, employeeID string) (*Entry, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+entryColumns+`
    FROM time_clock
    WHERE employee_id = $1 AND clock_out IS NULL
    ORDER BY clock_in DESC
    LIMIT 1
  `, employeeID)
	entry, err := scanEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) ListOpenEntriesForCustomer(ctx context.Context, employeeID, customerID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+`
    FROM time_clock
    WHERE employee_id = $1 AND customer_id = $2 AND clock_out IS NULL
  `, employeeID, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) CreateEntry(ctx context.Context, entry Entry) (Entry, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO time_clock (employee_id, customer_id, ticket_id, clock_in, latitude, longitude, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7)
    RETURNING `+entryColumns,
		entry.EmployeeID, nullIfEmpty(entry.CustomerID), nullIfEmpty(entry.TicketID),
		entry.ClockIn, entry.Latitude, entry.Longitude, nullIfEmpty(entry.Notes))
	return scanEntry(row)
}

func (s *Store) CloseEntry(ctx context.Context, entryID string, clockOut time.Time, totalHours decimal.Decimal) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE time_clock SET clock_out = $1, total_hours = $2
    WHERE id = $3 AND clock_out IS NULL
  `, clockOut, totalHours, entryID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEntryNotFound
	}
	return nil
}

func (s *Store) ListEntries(ctx context.Context, employeeID string, from, to time.Time) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+entryColumns+`
    FROM time_clock
    WHERE employee_id = $1 AND clock_in >= $2 AND clock_in <= $3
    ORDER BY clock_in
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
