package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const recordColumns = `
    a.id, a.user_id, a.day, a.check_in, a.check_out, a.status, a.total_hours, a.created_at, a.updated_at`

func (s *Store) Insert(ctx context.Context, rec Record) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    INSERT INTO attendance (user_id, day, check_in, status)
    VALUES ($1, $2, $3, $4)
    RETURNING id, user_id, day, check_in, check_out, status, total_hours, created_at, updated_at
  `, rec.EmployeeID, rec.Day, rec.CheckIn, rec.Status)

	out, err := scanRecord(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Record{}, ErrAlreadyCheckedIn
		}
		return Record{}, err
	}
	return out, nil
}

func (s *Store) FindByDay(ctx context.Context, employeeID string, day time.Time) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT`+recordColumns+`
    FROM attendance a
    WHERE a.user_id = $1 AND a.day = $2
  `, employeeID, day)

	out, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return out, err
}

func (s *Store) SetCheckOut(ctx context.Context, recordID string, checkOut time.Time, status string, totalHours float64) (Record, error) {
	row := s.DB.QueryRow(ctx, `
    UPDATE attendance
    SET check_out = $1, status = $2, total_hours = $3, updated_at = now()
    WHERE id = $4
    RETURNING id, user_id, day, check_in, check_out, status, total_hours, created_at, updated_at
  `, checkOut, status, totalHours, recordID)

	out, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrRecordNotFound
	}
	return out, err
}

func (s *Store) ListByEmployee(ctx context.Context, employeeID string) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+recordColumns+`
    FROM attendance a
    WHERE a.user_id = $1
    ORDER BY a.day DESC
  `, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (s *Store) ListBetween(ctx context.Context, start, end time.Time) ([]Record, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+recordColumns+`
    FROM attendance a
    WHERE a.day BETWEEN $1 AND $2
    ORDER BY a.day
  `, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

const joinedColumns = recordColumns + `,
    u.name, u.email, u.employee_number, u.department`

func (s *Store) ListAllJoined(ctx context.Context) ([]EmployeeRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+joinedColumns+`
    FROM attendance a
    JOIN users u ON a.user_id = u.id
    ORDER BY a.day DESC, u.name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJoined(rows)
}

func (s *Store) ListDayJoined(ctx context.Context, day time.Time) ([]EmployeeRecord, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT`+joinedColumns+`
    FROM attendance a
    JOIN users u ON a.user_id = u.id
    WHERE a.day = $1
    ORDER BY u.name
  `, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJoined(rows)
}

func (s *Store) ListRangeJoined(ctx context.Context, start, end time.Time, employeeID string) ([]EmployeeRecord, error) {
	query := `
    SELECT` + joinedColumns + `
    FROM attendance a
    JOIN users u ON a.user_id = u.id
    WHERE a.day BETWEEN $1 AND $2`
	args := []any{start, end}
	if employeeID != "" {
		query += " AND a.user_id = $3"
		args = append(args, employeeID)
	}
	query += " ORDER BY a.day, u.name"

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectJoined(rows)
}

// MissingEmployeeIDs returns active employees without an attendance row on day.
func (s *Store) MissingEmployeeIDs(ctx context.Context, day time.Time) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id
    FROM users u
    WHERE u.status = 'active'
      AND NOT EXISTS (
        SELECT 1 FROM attendance a WHERE a.user_id = u.id AND a.day = $1
      )
    ORDER BY u.name
  `, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *Store) InsertAbsent(ctx context.Context, employeeID string, day time.Time) (bool, error) {
	cmd, err := s.DB.Exec(ctx, `
    INSERT INTO attendance (user_id, day, status)
    VALUES ($1, $2, $3)
    ON CONFLICT (user_id, day) DO NOTHING
  `, employeeID, day, StatusAbsent)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (s *Store) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users WHERE id = $1", employeeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.Day, &rec.CheckIn, &rec.CheckOut, &rec.Status, &rec.TotalHours, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func collectJoined(rows pgx.Rows) ([]EmployeeRecord, error) {
	var out []EmployeeRecord
	for rows.Next() {
		var row EmployeeRecord
		if err := rows.Scan(
			&row.ID, &row.EmployeeID, &row.Day, &row.CheckIn, &row.CheckOut, &row.Status, &row.TotalHours,
			&row.CreatedAt, &row.UpdatedAt,
			&row.Name, &row.Email, &row.EmployeeNumber, &row.Department,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
