package payroll

import (
	"context"
	"time"

	"solarops/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) ListCompletedInstalls(ctx context.Context, employeeID string, from, to time.Time) ([]InstallTicket, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT s.id, s.customer_id, COALESCE(c.name, ''), s.closed_at,
           COALESCE(c.system_size_kw, 0), COALESCE(c.battery_quantity, 0)
    FROM scheduling s
    JOIN customers c ON c.id = s.customer_id
    WHERE s.ticket_type = $1
      AND s.closed_at IS NOT NULL
      AND s.closed_at BETWEEN $2 AND $3
      AND (s.pv_installer_id = $4 OR EXISTS (
            SELECT 1 FROM scheduling_technicians st
            WHERE st.ticket_id = s.id AND st.employee_id = $4))
    ORDER BY s.closed_at
  `, TicketTypeInstallation, from, to, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []InstallTicket
	for rows.Next() {
		var ticket InstallTicket
		if err := rows.Scan(&ticket.TicketID, &ticket.CustomerID, &ticket.CustomerName, &ticket.ClosedAt,
			&ticket.SystemSizeKW, &ticket.BatteryQuantity); err != nil {
			return nil, err
		}
		out = append(out, ticket)
	}
	return out, rows.Err()
}
