package checklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solarops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// GetChecklist returns an empty checklist when the ticket has no row yet.
func (s *Store) GetChecklist(ctx context.Context, phase, ticketID string) (Checklist, error) {
	out := newChecklist(phase, ticketID)
	var checkedJSON, urlsJSON []byte
	var updatedAt time.Time
	err := s.DB.QueryRow(ctx, fmt.Sprintf(`
    SELECT checked_photos, photo_urls, updated_at
    FROM %s
    WHERE ticket_id = $1
  `, table(phase)), ticketID).Scan(&checkedJSON, &urlsJSON, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return out, nil
	}
	if err != nil {
		return Checklist{}, err
	}
	if err := decode(checkedJSON, urlsJSON, &out); err != nil {
		return Checklist{}, fmt.Errorf("decode %s checklist %s: %w", phase, ticketID, err)
	}
	out.UpdatedAt = &updatedAt
	return out, nil
}

func (s *Store) UpsertChecklist(ctx context.Context, c Checklist) (Checklist, error) {
	checkedJSON, err := json.Marshal(c.CheckedPhotos)
	if err != nil {
		return Checklist{}, err
	}
	urlsJSON, err := json.Marshal(c.PhotoURLs)
	if err != nil {
		return Checklist{}, err
	}
	var updatedAt time.Time
	err = s.DB.QueryRow(ctx, fmt.Sprintf(`
    INSERT INTO %s (ticket_id, checked_photos, photo_urls, updated_at)
    VALUES ($1,$2,$3,now())
    ON CONFLICT (ticket_id) DO UPDATE
    SET checked_photos = EXCLUDED.checked_photos,
        photo_urls = EXCLUDED.photo_urls,
        updated_at = now()
    RETURNING updated_at
  `, table(c.Phase)), c.TicketID, checkedJSON, urlsJSON).Scan(&updatedAt)
	if err != nil {
		return Checklist{}, err
	}
	c.UpdatedAt = &updatedAt
	return c, nil
}

func decode(checkedJSON, urlsJSON []byte, c *Checklist) error {
	if len(checkedJSON) > 0 {
		if err := json.Unmarshal(checkedJSON, &c.CheckedPhotos); err != nil {
			return err
		}
	}
	if len(urlsJSON) > 0 {
		if err := json.Unmarshal(urlsJSON, &c.PhotoURLs); err != nil {
			return err
		}
	}
	if c.CheckedPhotos == nil {
		c.CheckedPhotos = []string{}
	}
	if c.PhotoURLs == nil {
		c.PhotoURLs = map[string][]string{}
	}
	return nil
}
