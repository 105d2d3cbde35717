package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	cryptoutil "solarops/internal/platform/crypto"
	"solarops/internal/platform/querier"
)

type Store struct {
	DB     querier.Querier
	Crypto *cryptoutil.Service
}

func NewStore(db querier.Querier, crypto *cryptoutil.Service) *Store {
	return &Store{DB: db, Crypto: crypto}
}

const employeeColumns = `
    u.id, u.email, u.first_name, COALESCE(u.last_name, ''), COALESCE(u.phone, ''),
    r.name, u.role_id, u.status, COALESCE(u.manager_id::text, ''),
    u.hourly_rate, u.is_salary, u.per_watt_rate, u.battery_pay_rates, u.ppw_redline,
    u.bank_routing_enc, u.bank_account_enc, u.created_at, u.updated_at
  `

func (s *Store) scanEmployee(row pgx.Row) (*Employee, error) {
	var emp Employee
	var hourly, perWatt, redline decimal.NullDecimal
	var batteryJSON, routingEnc, accountEnc []byte
	if err := row.Scan(
		&emp.ID, &emp.Email, &emp.FirstName, &emp.LastName, &emp.Phone,
		&emp.Role, &emp.RoleID, &emp.Status, &emp.ManagerID,
		&hourly, &emp.IsSalary, &perWatt, &batteryJSON, &redline,
		&routingEnc, &accountEnc, &emp.CreatedAt, &emp.UpdatedAt,
	); err != nil {
		return nil, err
	}
	emp.HourlyRate = decimalPtr(hourly)
	emp.PerWattRate = decimalPtr(perWatt)
	emp.PPWRedline = decimalPtr(redline)
	if len(batteryJSON) > 0 {
		if err := json.Unmarshal(batteryJSON, &emp.BatteryPayRates); err != nil {
			return nil, fmt.Errorf("decode battery_pay_rates for %s: %w", emp.ID, err)
		}
	}
	emp.BankRouting = decryptString(s.Crypto, routingEnc)
	emp.BankAccount = decryptString(s.Crypto, accountEnc)
	return &emp, nil
}

func (s *Store) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+employeeColumns+`
    FROM app_users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, employeeID)
	emp, err := s.scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ListEmployees(ctx context.Context, filter ListFilter) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM app_users u
    JOIN roles r ON u.role_id = r.id
    WHERE ($1 = '' OR r.name = $1) AND ($2 = '' OR u.status = $2)
    ORDER BY u.last_name, u.first_name
  `, filter.Role, filter.Status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		emp, err := s.scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, profile Profile, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO app_users (email, first_name, last_name, phone, role_id, status, manager_id, password_hash)
    VALUES ($1,$2,$3,$4,(SELECT id FROM roles WHERE name = $5),$6,$7,$8)
    RETURNING id
  `, profile.Email, profile.FirstName, profile.LastName, profile.Phone, profile.Role,
		profile.Status, nullIfEmpty(profile.ManagerID), passwordHash).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) UpdateProfile(ctx context.Context, employeeID string, profile Profile) error {
	cmd, err := s.DB.Exec(ctx, `
    UPDATE app_users
    SET email = $1,
        first_name = $2,
        last_name = $3,
        phone = $4,
        role_id = (SELECT id FROM roles WHERE name = $5),
        status = $6,
        manager_id = $7,
        updated_at = now()
    WHERE id = $8
  `, profile.Email, profile.FirstName, profile.LastName, profile.Phone, profile.Role,
		profile.Status, nullIfEmpty(profile.ManagerID), employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) UpdatePay(ctx context.Context, employeeID string, pay PayFields) error {
	var batteryJSON []byte
	if pay.BatteryPayRates != nil {
		encoded, err := json.Marshal(pay.BatteryPayRates)
		if err != nil {
			return err
		}
		batteryJSON = encoded
	}
	cmd, err := s.DB.Exec(ctx, `
    UPDATE app_users
    SET hourly_rate = $1,
        is_salary = $2,
        per_watt_rate = $3,
        battery_pay_rates = $4,
        ppw_redline = $5,
        updated_at = now()
    WHERE id = $6
  `, nullDecimal(pay.HourlyRate), pay.IsSalary, nullDecimal(pay.PerWattRate), batteryJSON, nullDecimal(pay.PPWRedline), employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) UpdateBank(ctx context.Context, employeeID string, details BankDetails) error {
	routingEnc, err := encryptString(s.Crypto, details.Routing)
	if err != nil {
		return err
	}
	accountEnc, err := encryptString(s.Crypto, details.Account)
	if err != nil {
		return err
	}
	cmd, err := s.DB.Exec(ctx, `
    UPDATE app_users
    SET bank_routing_enc = $1, bank_account_enc = $2, updated_at = now()
    WHERE id = $3
  `, routingEnc, accountEnc, employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func (s *Store) DeleteEmployee(ctx context.Context, employeeID string) error {
	cmd, err := s.DB.Exec(ctx, "UPDATE app_users SET status = 'disabled', updated_at = now() WHERE id = $1", employeeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrEmployeeNotFound
	}
	return nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func decimalPtr(value decimal.NullDecimal) *decimal.Decimal {
	if !value.Valid {
		return nil
	}
	d := value.Decimal
	return &d
}

func nullDecimal(value *decimal.Decimal) decimal.NullDecimal {
	if value == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *value, Valid: true}
}

func encryptString(crypto *cryptoutil.Service, value string) ([]byte, error) {
	if crypto == nil {
		return []byte(value), nil
	}
	return crypto.EncryptString(value)
}

func decryptString(crypto *cryptoutil.Service, encrypted []byte) string {
	if len(encrypted) == 0 {
		return ""
	}
	if crypto == nil {
		return string(encrypted)
	}
	plain, err := crypto.DecryptString(encrypted)
	if err != nil {
		return ""
	}
	return plain
}
