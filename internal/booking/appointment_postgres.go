package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// appointmentIDLockKey serializes id allocation across instances.
const appointmentIDLockKey int64 = 0x41505430 // "APT0"

// PgxPool is the subset of pgxpool.Pool used by the repository.
type PgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresAppointmentRepository stores appointments in the appointments table.
type PostgresAppointmentRepository struct {
	pool PgxPool
}

var _ AppointmentRepository = (*PostgresAppointmentRepository)(nil)

func NewPostgresAppointmentRepository(pool PgxPool) *PostgresAppointmentRepository {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &PostgresAppointmentRepository{pool: pool}
}

// Create allocates APT%06d from the row count under a transaction-scoped advisory lock.
func (r *PostgresAppointmentRepository) Create(ctx context.Context, in NewAppointment) (*Appointment, error) {
	status := in.Status
	if status == "" {
		status = StatusConfirmed
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("booking: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, appointmentIDLockKey); err != nil {
		return nil, fmt.Errorf("booking: acquire id lock: %w", err)
	}

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&count); err != nil {
		return nil, fmt.Errorf("booking: count appointments: %w", err)
	}

	appt := &Appointment{
		ID:          AppointmentID(count + 1),
		PatientName: in.PatientName,
		PhoneNumber: in.PhoneNumber,
		Department:  in.Department,
		Date:        in.Date,
		Time:        in.Time,
		Status:      status,
	}
	query := `
		INSERT INTO appointments (id, patient_name, phone_number, department, appointment_date, appointment_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	if err := tx.QueryRow(ctx, query,
		appt.ID,
		appt.PatientName,
		appt.PhoneNumber,
		appt.Department,
		appt.Date,
		appt.Time,
		string(appt.Status),
	).Scan(&appt.CreatedAt); err != nil {
		return nil, fmt.Errorf("booking: insert appointment: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("booking: commit appointment: %w", err)
	}
	return appt, nil
}

func (r *PostgresAppointmentRepository) Get(ctx context.Context, id string) (*Appointment, error) {
	query := `
		SELECT id, patient_name, phone_number, department, appointment_date, appointment_time, status, created_at
		FROM appointments
		WHERE id = $1
	`
	return scanAppointment(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresAppointmentRepository) Cancel(ctx context.Context, id string) (*Appointment, error) {
	query := `
		UPDATE appointments SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, patient_name, phone_number, department, appointment_date, appointment_time, status, created_at
	`
	return scanAppointment(r.pool.QueryRow(ctx, query, id, string(StatusCancelled)))
}

func (r *PostgresAppointmentRepository) BookedTimes(ctx context.Context, department, date string) ([]string, error) {
	query := `
		SELECT appointment_time
		FROM appointments
		WHERE department = $1 AND appointment_date = $2 AND status = $3
	`
	rows, err := r.pool.Query(ctx, query, department, date, string(StatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("booking: select booked times: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("booking: scan booked time: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("booking: iterate booked times: %w", err)
	}
	return out, nil
}

func (r *PostgresAppointmentRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&count); err != nil {
		return 0, fmt.Errorf("booking: count appointments: %w", err)
	}
	return count, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var status string
	if err := row.Scan(
		&appt.ID,
		&appt.PatientName,
		&appt.PhoneNumber,
		&appt.Department,
		&appt.Date,
		&appt.Time,
		&status,
		&appt.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("booking: select appointment: %w", err)
	}
	appt.Status = Status(status)
	return &appt, nil
}
