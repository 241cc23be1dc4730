package repository

import (
	"context"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
)

// RegistrationRepository defines the interface for phone-to-student
// binding data access. All operations are scoped to a single tenant.
type RegistrationRepository interface {
	// Load returns every binding for the tenant as a phone -> student ID
	// map. An empty map means the tenant has no registrations yet.
	Load(ctx context.Context, tenantID string) (map[string]string, error)

	// Add inserts a single binding
	Add(ctx context.Context, reg *domain.Registration) error

	// RemoveByStudentID deletes every binding that carries the given
	// student ID. Returns the number of rows removed.
	RemoveByStudentID(ctx context.Context, tenantID, studentID string) (int64, error)

	// Apply performs the removals and the insert of a registration plan
	// in a single transaction, so a concurrent reader never observes a
	// student ID bound to two phones.
	Apply(ctx context.Context, tenantID string, removals []string, insert *domain.Registration) error
}
