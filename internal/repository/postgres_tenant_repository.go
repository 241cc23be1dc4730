package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
	"github.com/amikeal/sms-checkin-relay/pkg/logger"
)

// Columns a client may mutate through UpdateField, mapped to whether
// they are numeric (and therefore valid ADD targets).
var updatableTenantFields = map[string]bool{
	"sms_number":        false,
	"google_account":    false,
	"sheet_id":          false,
	"split_method":      false,
	"response_template": false,
	"tz_offset_hours":   true,
	"message_quota":     true,
	"last_quota_update": false,
}

// PostgresTenantRepository implements TenantRepository using PostgreSQL
type PostgresTenantRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresTenantRepository creates a new PostgresTenantRepository
func NewPostgresTenantRepository(pool *pgxpool.Pool) *PostgresTenantRepository {
	return &PostgresTenantRepository{pool: pool}
}

const tenantColumns = `id, sms_number, google_account, sheet_id, split_method,
	       COALESCE(response_template, '') as response_template, tz_offset_hours,
	       message_quota, last_quota_update, created_at, updated_at, deleted_at`

func scanTenant(row pgx.Row) (*domain.Tenant, error) {
	tenant := &domain.Tenant{}
	err := row.Scan(
		&tenant.ID,
		&tenant.SMSNumber,
		&tenant.GoogleAccount,
		&tenant.SheetID,
		&tenant.SplitMethod,
		&tenant.ResponseTemplate,
		&tenant.TZOffsetHours,
		&tenant.MessageQuota,
		&tenant.LastQuotaUpdate,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
		&tenant.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

// Create creates a new tenant
func (r *PostgresTenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (id, sms_number, google_account, sheet_id, split_method,
		                     response_template, tz_offset_hours, message_quota,
		                     last_quota_update, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		tenant.ID,
		tenant.SMSNumber,
		tenant.GoogleAccount,
		tenant.SheetID,
		tenant.SplitMethod,
		nullStringOrValue(tenant.ResponseTemplate),
		tenant.TZOffsetHours,
		tenant.MessageQuota,
		tenant.LastQuotaUpdate,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)
	return err
}

// GetByID retrieves a tenant by ID
func (r *PostgresTenantRepository) GetByID(ctx context.Context, id string) (*domain.Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tenants
		WHERE id = $1 AND deleted_at IS NULL
	`, tenantColumns)
	tenant, err := scanTenant(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return tenant, nil
}

// GetBySMSNumber retrieves the tenant that owns the given inbound number.
// A number owned by more than one live tenant is a provisioning error;
// the lookup logs it and reports no match rather than picking one.
func (r *PostgresTenantRepository) GetBySMSNumber(ctx context.Context, smsNumber string) (*domain.Tenant, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM tenants
		WHERE sms_number = $1 AND deleted_at IS NULL
	`, tenantColumns)

	rows, err := r.pool.Query(ctx, query, smsNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]*domain.Tenant, 0, 1)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(tenants) {
	case 0:
		return nil, nil
	case 1:
		return tenants[0], nil
	default:
		logger.Get().ErrorContext(ctx, "sms number owned by multiple tenants",
			zap.String("sms_number", smsNumber),
			zap.Int("count", len(tenants)),
		)
		return nil, nil
	}
}

// List retrieves tenants with pagination
func (r *PostgresTenantRepository) List(ctx context.Context, page, limit int) ([]*domain.Tenant, int, error) {
	var totalCount int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tenants WHERE deleted_at IS NULL`).Scan(&totalCount)
	if err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf(`
		SELECT %s
		FROM tenants
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, tenantColumns)

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tenants := make([]*domain.Tenant, 0)
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, 0, err
		}
		tenants = append(tenants, tenant)
	}

	return tenants, totalCount, rows.Err()
}

// Update updates a tenant's mutable fields
func (r *PostgresTenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET sms_number = $2, google_account = $3, sheet_id = $4, split_method = $5,
		    response_template = $6, tz_offset_hours = $7, message_quota = $8,
		    last_quota_update = $9, updated_at = $10
		WHERE id = $1 AND deleted_at IS NULL
	`
	tenant.UpdatedAt = time.Now()
	result, err := r.pool.Exec(ctx, query,
		tenant.ID,
		tenant.SMSNumber,
		tenant.GoogleAccount,
		tenant.SheetID,
		tenant.SplitMethod,
		nullStringOrValue(tenant.ResponseTemplate),
		tenant.TZOffsetHours,
		tenant.MessageQuota,
		tenant.LastQuotaUpdate,
		tenant.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("tenant not found or already deleted")
	}
	return nil
}

// SoftDelete soft deletes a tenant by setting deleted_at timestamp
func (r *PostgresTenantRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE tenants
		SET deleted_at = $2
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.pool.Exec(ctx, query, id, time.Now())
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("tenant not found or already deleted")
	}
	return nil
}

// UpdateField applies a single-field SET or ADD mutation. The field name
// is checked against a whitelist before it is interpolated into SQL.
func (r *PostgresTenantRepository) UpdateField(ctx context.Context, id, field, op string, value interface{}) error {
	numeric, ok := updatableTenantFields[field]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	var setClause string
	switch op {
	case OpSet:
		setClause = fmt.Sprintf("%s = $2", field)
	case OpAdd:
		if !numeric {
			return fmt.Errorf("%w: %s", ErrNonNumericAdd, field)
		}
		if !isNumericValue(value) {
			return fmt.Errorf("%w: value %v", ErrNonNumericAdd, value)
		}
		setClause = fmt.Sprintf("%s = %s + $2", field, field)
	default:
		return fmt.Errorf("unsupported field operation: %s", op)
	}

	query := fmt.Sprintf(`
		UPDATE tenants
		SET %s, updated_at = $3
		WHERE id = $1 AND deleted_at IS NULL
	`, setClause)

	result, err := r.pool.Exec(ctx, query, id, value, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tenant not found or already deleted")
	}
	return nil
}

// ExistsBySMSNumber checks if any live tenant owns the given number
func (r *PostgresTenantRepository) ExistsBySMSNumber(ctx context.Context, smsNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM tenants WHERE sms_number = $1 AND deleted_at IS NULL)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, smsNumber).Scan(&exists)
	return exists, err
}

// isNumericValue reports whether an ADD operand can be sent to a
// numeric column. Checked before any SQL is built so a bad value never
// reaches the database.
func isNumericValue(value interface{}) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// nullStringOrValue returns nil for empty strings, otherwise returns the value
func nullStringOrValue(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
