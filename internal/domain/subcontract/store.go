package subcontract

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"solarops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

const contractorColumns = "id, name, COALESCE(company, ''), COALESCE(email, ''), COALESCE(phone, ''), active, created_at"

func scanContractor(row pgx.Row) (Contractor, error) {
	var c Contractor
	err := row.Scan(&c.ID, &c.Name, &c.Company, &c.Email, &c.Phone, &c.Active, &c.CreatedAt)
	return c, err
}

func (s *Store) ListContractors(ctx context.Context, activeOnly bool) ([]Contractor, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+contractorColumns+`
    FROM contractors
    WHERE (NOT $1 OR active)
    ORDER BY name
  `, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetContractor(ctx context.Context, contractorID string) (*Contractor, error) {
	c, err := scanContractor(s.DB.QueryRow(ctx, `SELECT `+contractorColumns+` FROM contractors WHERE id = $1`, contractorID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrContractorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateContractor(ctx context.Context, c Contractor) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO contractors (name, company, email, phone, active)
    VALUES ($1,$2,$3,$4,$5)
    RETURNING id
  `, c.Name, nullIfEmpty(c.Company), nullIfEmpty(c.Email), nullIfEmpty(c.Phone), c.Active).Scan(&id)
	return id, err
}

func (s *Store) UpdateContractor(ctx context.Context, c Contractor) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE contractors
    SET name = $1, company = $2, email = $3, phone = $4, active = $5
    WHERE id = $6
  `, c.Name, nullIfEmpty(c.Company), nullIfEmpty(c.Email), nullIfEmpty(c.Phone), c.Active, c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrContractorNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
