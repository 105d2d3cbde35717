package commission

import (
	"context"
	"errors"
	"fmt"
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

const commissionColumns = `
    c.id, COALESCE(c.customer_id::text, ''), COALESCE(cu.name, ''), c.sales_rep_id, COALESCE(c.sales_manager_id::text, ''),
    c.system_size_kw, c.total_commission,
    c.m1_payment_amount, c.m1_payment_status, c.m1_payroll_period_end,
    c.m2_payment_amount, c.m2_payment_status, c.m2_payroll_period_end,
    c.sales_manager_override_amount,
    c.manager_override_m1_amount, c.manager_override_m1_status, c.manager_override_m1_payroll_period_end,
    c.manager_override_m2_amount, c.manager_override_m2_status, c.manager_override_m2_payroll_period_end,
    c.override_negative, COALESCE(c.notes, ''), c.created_at, c.updated_at
  `

const commissionFrom = `
    FROM sales_commissions c
    LEFT JOIN customers cu ON cu.id = c.customer_id
  `

// paymentColumns maps a target to its (amount, status, period end) columns.
var paymentColumns = map[string][3]string{
	TargetM1:         {"m1_payment_amount", "m1_payment_status", "m1_payroll_period_end"},
	TargetM2:         {"m2_payment_amount", "m2_payment_status", "m2_payroll_period_end"},
	TargetOverrideM1: {"manager_override_m1_amount", "manager_override_m1_status", "manager_override_m1_payroll_period_end"},
	TargetOverrideM2: {"manager_override_m2_amount", "manager_override_m2_status", "manager_override_m2_payroll_period_end"},
}

func scanCommission(row pgx.Row) (Commission, error) {
	var c Commission
	var override decimal.NullDecimal
	var m1End, m2End, o1End, o2End *time.Time
	if err := row.Scan(
		&c.ID, &c.CustomerID, &c.CustomerName, &c.SalesRepID, &c.SalesManagerID,
		&c.SystemSizeKW, &c.TotalCommission,
		&c.M1.Amount, &c.M1.Status, &m1End,
		&c.M2.Amount, &c.M2.Status, &m2End,
		&override,
		&c.OverrideM1.Amount, &c.OverrideM1.Status, &o1End,
		&c.OverrideM2.Amount, &c.OverrideM2.Status, &o2End,
		&c.OverrideFlagged, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return Commission{}, err
	}
	if override.Valid {
		amount := override.Decimal
		c.OverrideAmount = &amount
	}
	c.M1.PayrollPeriodEnd = formatDate(m1End)
	c.M2.PayrollPeriodEnd = formatDate(m2End)
	c.OverrideM1.PayrollPeriodEnd = formatDate(o1End)
	c.OverrideM2.PayrollPeriodEnd = formatDate(o2End)
	return c, nil
}

func (s *Store) CreateCommission(ctx context.Context, in NewCommission) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO sales_commissions (customer_id, sales_rep_id, sales_manager_id, system_size_kw, total_commission,
      m1_payment_amount, m2_payment_amount, notes)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
    RETURNING id
  `, nullIfEmpty(in.CustomerID), in.SalesRepID, nullIfEmpty(in.SalesManagerID), in.SystemSizeKW, in.TotalCommission,
		in.M1Amount, in.M2Amount, nullIfEmpty(in.Notes)).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) GetCommission(ctx context.Context, commissionID string) (*Commission, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+commissionColumns+commissionFrom+` WHERE c.id = $1`, commissionID)
	c, err := scanCommission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCommissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCommissions(ctx context.Context, filter ListFilter) ([]Commission, int, error) {
	where := `
    WHERE ($1 = '' OR c.m1_payment_status = $1 OR c.m2_payment_status = $1
           OR c.manager_override_m1_status = $1 OR c.manager_override_m2_status = $1)
      AND ($2 = '' OR c.sales_rep_id::text = $2)
      AND ($3 = '' OR c.sales_manager_id::text = $3)
  `
	args := []any{filter.Status, filter.SalesRepID, filter.SalesManagerID}

	var total int
	if err := s.DB.QueryRow(ctx, `SELECT COUNT(1)`+commissionFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + commissionColumns + commissionFrom + where + ` ORDER BY c.created_at DESC LIMIT $4 OFFSET $5`
	rows, err := s.DB.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdatePayment(ctx context.Context, commissionID, target, fromStatus string, payment Payment) error {
	cols, ok := paymentColumns[target]
	if !ok {
		return ErrInvalidTarget
	}
	var periodEnd any
	if payment.PayrollPeriodEnd != "" {
		periodEnd = payment.PayrollPeriodEnd
	}
	query := fmt.Sprintf(`
    UPDATE sales_commissions
    SET %[1]s = $1, %[2]s = $2::date, updated_at = now()
    WHERE id = $3 AND %[1]s = $4
  `, cols[1], cols[2])
	tag, err := s.DB.Exec(ctx, query, payment.Status, periodEnd, commissionID, fromStatus)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConcurrentUpdate
	}
	return nil
}

func (s *Store) SetOverride(ctx context.Context, commissionID string, override Override) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE sales_commissions
    SET sales_manager_override_amount = $1,
        manager_override_m1_amount = $2,
        manager_override_m2_amount = $3,
        override_negative = $4,
        updated_at = now()
    WHERE id = $5
      AND manager_override_m1_status <> 'paid'
      AND manager_override_m2_status <> 'paid'
  `, override.Amount, override.M1Share, override.M2Share, override.Negative, commissionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyPaid
	}
	return nil
}

func (s *Store) ListPaidForEmployee(ctx context.Context, employeeID, periodEnd string) ([]Commission, error) {
	return s.listPaid(ctx, `
    WHERE (c.sales_rep_id::text = $1 AND (
             (c.m1_payment_status = 'paid' AND c.m1_payroll_period_end = $2::date) OR
             (c.m2_payment_status = 'paid' AND c.m2_payroll_period_end = $2::date)))
       OR (c.sales_manager_id::text = $1 AND (
             (c.manager_override_m1_status = 'paid' AND c.manager_override_m1_payroll_period_end = $2::date) OR
             (c.manager_override_m2_status = 'paid' AND c.manager_override_m2_payroll_period_end = $2::date)))
  `, employeeID, periodEnd)
}

func (s *Store) ListPaidForPeriod(ctx context.Context, periodEnd string) ([]Commission, error) {
	return s.listPaid(ctx, `
    WHERE c.m1_payroll_period_end = $1::date OR c.m2_payroll_period_end = $1::date
       OR c.manager_override_m1_payroll_period_end = $1::date OR c.manager_override_m2_payroll_period_end = $1::date
  `, periodEnd)
}

func (s *Store) listPaid(ctx context.Context, where string, args ...any) ([]Commission, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+commissionColumns+commissionFrom+where+` ORDER BY c.created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Commission
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) RedlineFor(ctx context.Context, employeeID string) (*decimal.Decimal, error) {
	var redline decimal.NullDecimal
	err := s.DB.QueryRow(ctx, "SELECT ppw_redline FROM app_users WHERE id = $1", employeeID).Scan(&redline)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !redline.Valid {
		return nil, nil
	}
	value := redline.Decimal
	return &value, nil
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
