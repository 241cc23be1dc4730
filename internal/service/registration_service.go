package service

import (
	"context"
	"time"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
	"github.com/amikeal/sms-checkin-relay/internal/registry"
	"github.com/amikeal/sms-checkin-relay/internal/repository"
)

// RegistrationService defines the interface for phone-to-student binding
// operations within a tenant
type RegistrationService interface {
	// Register binds a phone number to a student ID. force rebinds an ID
	// already held by another phone (the UPDATE command). Returns the
	// student-facing confirmation or conflict message.
	Register(ctx context.Context, tenantID, phone, studentID string, force bool) (string, error)

	// Verify returns the student ID registered to the phone, if any
	Verify(ctx context.Context, tenantID, phone string) (string, bool, error)
}

// registrationService implements RegistrationService
type registrationService struct {
	regRepo repository.RegistrationRepository
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(regRepo repository.RegistrationRepository) RegistrationService {
	return &registrationService{
		regRepo: regRepo,
	}
}

// Register loads a fresh snapshot of the tenant's bindings, computes the
// mutation plan, and applies it in one transaction.
func (s *registrationService) Register(ctx context.Context, tenantID, phone, studentID string, force bool) (string, error) {
	registered, err := s.regRepo.Load(ctx, tenantID)
	if err != nil {
		return "", err
	}

	_, outcome := registry.Register(registered, phone, studentID, force)
	if !outcome.Changed {
		return outcome.Message, nil
	}

	var insert *domain.Registration
	if outcome.Insert {
		insert = &domain.Registration{
			TenantID:    tenantID,
			PhoneNumber: phone,
			StudentID:   studentID,
			CreatedAt:   time.Now(),
		}
	}

	if err := s.regRepo.Apply(ctx, tenantID, outcome.Removals, insert); err != nil {
		return "", err
	}
	return outcome.Message, nil
}

// Verify returns the student ID registered to the phone, if any
func (s *registrationService) Verify(ctx context.Context, tenantID, phone string) (string, bool, error) {
	registered, err := s.regRepo.Load(ctx, tenantID)
	if err != nil {
		return "", false, err
	}
	studentID, ok := registry.Verify(registered, phone)
	return studentID, ok, nil
}
