package domain

import "time"

// Registration is a durable association between a sender's phone number
// and a student identifier, scoped to one tenant.
//
// Within one tenant a phone number maps to at most one student ID and a
// student ID maps to at most one phone number. The registry engine plans
// removal of stale reverse associations whenever an insert would
// otherwise violate that.
type Registration struct {
	TenantID    string    `json:"tenant_id"`
	PhoneNumber string    `json:"phone_number"`
	StudentID   string    `json:"student_id"`
	CreatedAt   time.Time `json:"created_at"`
}
