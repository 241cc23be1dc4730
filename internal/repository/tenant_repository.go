package repository

import (
	"context"
	"errors"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
)

// Field mutation operators accepted by UpdateField.
const (
	OpSet = "SET"
	OpAdd = "ADD"
)

var (
	// ErrUnknownField is returned when UpdateField is asked to touch a
	// column outside the updatable whitelist.
	ErrUnknownField = errors.New("unknown tenant field")
	// ErrNonNumericAdd is returned when ADD is applied to a field that
	// is not numeric.
	ErrNonNumericAdd = errors.New("ADD requires a numeric field")
)

// TenantRepository defines the interface for tenant data access
type TenantRepository interface {
	// Create creates a new tenant
	Create(ctx context.Context, tenant *domain.Tenant) error

	// GetByID retrieves a tenant by ID. Returns (nil, nil) when not found.
	GetByID(ctx context.Context, id string) (*domain.Tenant, error)

	// GetBySMSNumber retrieves the tenant that owns the given inbound
	// number. Returns (nil, nil) when no tenant owns it; an ambiguous
	// match (more than one row) is treated the same way.
	GetBySMSNumber(ctx context.Context, smsNumber string) (*domain.Tenant, error)

	// List retrieves tenants with pagination
	List(ctx context.Context, page, limit int) ([]*domain.Tenant, int, error)

	// Update updates a tenant's mutable fields
	Update(ctx context.Context, tenant *domain.Tenant) error

	// SoftDelete soft deletes a tenant by setting deleted_at
	SoftDelete(ctx context.Context, id string) error

	// UpdateField applies a single-field mutation. op is OpSet or OpAdd;
	// ADD is only valid for numeric fields and adds value (interpreted
	// as an integer delta) to the current column value.
	UpdateField(ctx context.Context, id, field, op string, value interface{}) error

	// ExistsBySMSNumber checks if any live tenant owns the given number
	ExistsBySMSNumber(ctx context.Context, smsNumber string) (bool, error)
}
