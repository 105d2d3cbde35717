package customer

import (
	"context"
	"errors"
	"fmt"
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

func placeholders(from, count int) string {
	parts := make([]string, count)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(from+i)
	}
	return strings.Join(parts, ",")
}

func (s *Store) CreateJob(ctx context.Context, job Job) (string, error) {
	args, err := values(job)
	if err != nil {
		return "", err
	}
	query := fmt.Sprintf(`
    INSERT INTO customers (%s)
    VALUES (%s)
    RETURNING id
  `, writeColumns, placeholders(1, writeColumnCount))
	var id string
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetJob(ctx context.Context, customerID string) (Job, error) {
	var r row
	err := s.DB.QueryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = $1`, customerID).Scan(r.dest()...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.toJob()
}

func (s *Store) ListJobs(ctx context.Context, filter ListFilter) ([]Job, int, error) {
	where := `
    WHERE ($1 = '' OR kind = $1)
      AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%' OR address ILIKE '%' || $2 || '%')
      AND ($3 = '' OR sales_rep_id::text = $3)
      AND (NOT $4 OR kind <> 'crm')
  `
	args := []any{filter.Kind, filter.Search, filter.SalesRepID, filter.SubcontractOnly}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.DB.Query(ctx, `SELECT `+customerColumns+` FROM customers`+where+` ORDER BY created_at DESC LIMIT $5 OFFSET $6`,
		append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		var r row
		if err := rows.Scan(r.dest()...); err != nil {
			return nil, 0, err
		}
		job, err := r.toJob()
		if err != nil {
			return nil, 0, err
		}
		out = append(out, job)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateJob(ctx context.Context, job Job) error {
	args, err := values(job)
	if err != nil {
		return err
	}
	columns := strings.Split(strings.Join(strings.Fields(writeColumns), ""), ",")
	sets := make([]string, len(columns))
	for i, column := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", column, i+1)
	}
	query := fmt.Sprintf(`
    UPDATE customers
    SET %s, updated_at = now()
    WHERE id = $%d AND kind = $1
  `, strings.Join(sets, ", "), writeColumnCount+1)
	tag, err := s.DB.Exec(ctx, query, append(args, job.Base().ID)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteJob(ctx context.Context, customerID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM customers WHERE id = $1", customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (s *Store) UpsertTimeline(ctx context.Context, entry TimelineEntry) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO project_timeline (customer_id, milestone, ticket_id, occurred_at, note)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (customer_id, milestone)
    DO UPDATE SET ticket_id = EXCLUDED.ticket_id, occurred_at = EXCLUDED.occurred_at, note = EXCLUDED.note
  `, entry.CustomerID, entry.Milestone, nullIfEmpty(entry.TicketID), entry.OccurredAt, nullIfEmpty(entry.Note))
	return err
}

func (s *Store) ListTimeline(ctx context.Context, customerID string) ([]TimelineEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT customer_id, milestone, COALESCE(ticket_id::text, ''), occurred_at, COALESCE(note, '')
    FROM project_timeline
    WHERE customer_id = $1
    ORDER BY occurred_at
  `, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TimelineEntry
	for rows.Next() {
		var entry TimelineEntry
		if err := rows.Scan(&entry.CustomerID, &entry.Milestone, &entry.TicketID, &entry.OccurredAt, &entry.Note); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

const documentColumns = "id, customer_id, file_name, path, url, size_bytes, COALESCE(uploaded_by::text, ''), created_at"

func scanDocument(row pgx.Row) (Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.CustomerID, &doc.FileName, &doc.Path, &doc.URL, &doc.Size, &doc.UploadedBy, &doc.CreatedAt)
	return doc, err
}

func (s *Store) CreateDocument(ctx context.Context, doc Document) (Document, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO customer_documents (customer_id, file_name, path, url, size_bytes, uploaded_by)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING `+documentColumns, doc.CustomerID, doc.FileName, doc.Path, doc.URL, doc.Size, nullIfEmpty(doc.UploadedBy))
	return scanDocument(row)
}

func (s *Store) GetDocument(ctx context.Context, customerID, documentID string) (*Document, error) {
	doc, err := scanDocument(s.DB.QueryRow(ctx, `SELECT `+documentColumns+` FROM customer_documents WHERE customer_id = $1 AND id = $2`, customerID, documentID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) ListDocuments(ctx context.Context, customerID string) ([]Document, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+documentColumns+` FROM customer_documents WHERE customer_id = $1 ORDER BY created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, customerID, documentID string) error {
	tag, err := s.DB.Exec(ctx, "DELETE FROM customer_documents WHERE customer_id = $1 AND id = $2", customerID, documentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
