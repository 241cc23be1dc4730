package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, letting the
// write helpers run inside or outside a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresRegistrationRepository implements RegistrationRepository using PostgreSQL
type PostgresRegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRegistrationRepository creates a new PostgresRegistrationRepository
func NewPostgresRegistrationRepository(pool *pgxpool.Pool) *PostgresRegistrationRepository {
	return &PostgresRegistrationRepository{pool: pool}
}

// Load returns every binding for the tenant as a phone -> student ID map
func (r *PostgresRegistrationRepository) Load(ctx context.Context, tenantID string) (map[string]string, error) {
	query := `
		SELECT phone_number, student_id
		FROM registrations
		WHERE tenant_id = $1
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	registered := make(map[string]string)
	for rows.Next() {
		var phone, studentID string
		if err := rows.Scan(&phone, &studentID); err != nil {
			return nil, err
		}
		registered[phone] = studentID
	}
	return registered, rows.Err()
}

// Add inserts a single binding
func (r *PostgresRegistrationRepository) Add(ctx context.Context, reg *domain.Registration) error {
	return insertRegistration(ctx, r.pool, reg)
}

// RemoveByStudentID deletes every binding that carries the given student ID
func (r *PostgresRegistrationRepository) RemoveByStudentID(ctx context.Context, tenantID, studentID string) (int64, error) {
	return removeByStudentID(ctx, r.pool, tenantID, studentID)
}

// Apply performs the removals and the insert in a single transaction.
// The row locks taken by the deletes serialize competing rebinds of the
// same student ID, so the unique (tenant_id, student_id) constraint
// holds without a table lock.
func (r *PostgresRegistrationRepository) Apply(ctx context.Context, tenantID string, removals []string, insert *domain.Registration) error {
	if len(removals) == 0 && insert == nil {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, studentID := range removals {
		if _, err := removeByStudentID(ctx, tx, tenantID, studentID); err != nil {
			return err
		}
	}
	if insert != nil {
		if err := insertRegistration(ctx, tx, insert); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func insertRegistration(ctx context.Context, db execer, reg *domain.Registration) error {
	query := `
		INSERT INTO registrations (tenant_id, phone_number, student_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (tenant_id, phone_number)
		DO UPDATE SET student_id = EXCLUDED.student_id, created_at = EXCLUDED.created_at
	`
	_, err := db.Exec(ctx, query, reg.TenantID, reg.PhoneNumber, reg.StudentID, reg.CreatedAt)
	return err
}

func removeByStudentID(ctx context.Context, db execer, tenantID, studentID string) (int64, error) {
	query := `
		DELETE FROM registrations
		WHERE tenant_id = $1 AND student_id = $2
	`
	tag, err := db.Exec(ctx, query, tenantID, studentID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
