package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
	"github.com/amikeal/sms-checkin-relay/internal/dto"
	"github.com/amikeal/sms-checkin-relay/internal/repository"
)

var (
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrDuplicateSMSNumber = errors.New("tenant with this SMS number already exists")
	ErrQuotaUpdateFailed  = errors.New("quota update failed")
	ErrNothingToUpdate    = errors.New("no fields provided for update")
	ErrInvalidSMSNumber   = errors.New("invalid SMS number format")
)

// TenantService defines the interface for tenant provisioning and
// quota bookkeeping
type TenantService interface {
	// Create provisions a new tenant
	Create(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantResponse, error)
	// GetByID retrieves a tenant by ID
	GetByID(ctx context.Context, id string) (*dto.TenantResponse, error)
	// List retrieves tenants with pagination
	List(ctx context.Context, query *dto.ListTenantsQuery) (*dto.ListTenantsResponse, error)
	// Update updates a tenant's configuration
	Update(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error)
	// Delete soft deletes a tenant
	Delete(ctx context.Context, id string) error
	// RecordUsage debits delivered messages from the tenant's quota
	RecordUsage(ctx context.Context, id string, messageCount int64) (*dto.TenantResponse, error)
}

// tenantService implements TenantService
type tenantService struct {
	tenantRepo repository.TenantRepository
}

// NewTenantService creates a new TenantService
func NewTenantService(tenantRepo repository.TenantRepository) TenantService {
	return &tenantService{
		tenantRepo: tenantRepo,
	}
}

// Create provisions a new tenant
func (s *tenantService) Create(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	if valid, _ := req.ValidateSMSNumber(); !valid {
		return nil, ErrInvalidSMSNumber
	}

	smsNumber := domain.NormalizeNumber(req.SMSNumber)

	exists, err := s.tenantRepo.ExistsBySMSNumber(ctx, smsNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateSMSNumber
	}

	tenant, err := domain.NewTenant(smsNumber, req.GoogleAccount, req.SheetID)
	if err != nil {
		return nil, err
	}

	if req.SplitMethod != "" {
		tenant.SplitMethod = domain.SplitMethod(req.SplitMethod)
	}
	if req.ResponseTemplate != "" {
		tenant.ResponseTemplate = req.ResponseTemplate
	}
	if req.TZOffsetHours != nil {
		tenant.TZOffsetHours = *req.TZOffsetHours
	}
	if req.MessageQuota != nil {
		tenant.MessageQuota = *req.MessageQuota
	}

	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, err
	}

	return s.toTenantResponse(tenant), nil
}

// GetByID retrieves a tenant by ID
func (s *tenantService) GetByID(ctx context.Context, id string) (*dto.TenantResponse, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}
	return s.toTenantResponse(tenant), nil
}

// List retrieves tenants with pagination
func (s *tenantService) List(ctx context.Context, query *dto.ListTenantsQuery) (*dto.ListTenantsResponse, error) {
	query.SetDefaults()

	tenants, totalCount, err := s.tenantRepo.List(ctx, query.Page, query.Limit)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.TenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		responses = append(responses, *s.toTenantResponse(tenant))
	}

	return &dto.ListTenantsResponse{
		Tenants:    responses,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: int(math.Ceil(float64(totalCount) / float64(query.Limit))),
	}, nil
}

// Update updates a tenant's configuration
func (s *tenantService) Update(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	if valid, _ := req.Validate(); !valid {
		return nil, ErrNothingToUpdate
	}

	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}

	if req.SMSNumber != nil {
		newNumber := domain.NormalizeNumber(*req.SMSNumber)
		if newNumber != tenant.SMSNumber {
			exists, err := s.tenantRepo.ExistsBySMSNumber(ctx, newNumber)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, ErrDuplicateSMSNumber
			}
			tenant.SMSNumber = newNumber
		}
	}
	if req.GoogleAccount != nil {
		tenant.GoogleAccount = *req.GoogleAccount
	}
	if req.SheetID != nil {
		tenant.SheetID = *req.SheetID
	}
	if req.SplitMethod != nil {
		tenant.SplitMethod = domain.SplitMethod(*req.SplitMethod)
	}
	if req.ResponseTemplate != nil {
		tenant.ResponseTemplate = *req.ResponseTemplate
	}
	if req.TZOffsetHours != nil {
		tenant.TZOffsetHours = *req.TZOffsetHours
	}
	if req.MessageQuota != nil {
		tenant.MessageQuota = *req.MessageQuota
	}

	if err := tenant.Validate(); err != nil {
		return nil, err
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, err
	}
	return s.toTenantResponse(tenant), nil
}

// Delete soft deletes a tenant
func (s *tenantService) Delete(ctx context.Context, id string) error {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if tenant == nil {
		return ErrTenantNotFound
	}
	return s.tenantRepo.SoftDelete(ctx, id)
}

// RecordUsage debits delivered messages from the tenant's quota and
// stamps the time of the report
func (s *tenantService) RecordUsage(ctx context.Context, id string, messageCount int64) (*dto.TenantResponse, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tenant == nil {
		return nil, ErrTenantNotFound
	}

	if err := s.tenantRepo.UpdateField(ctx, id, "message_quota", repository.OpAdd, -messageCount); err != nil {
		return nil, ErrQuotaUpdateFailed
	}
	now := time.Now()
	if err := s.tenantRepo.UpdateField(ctx, id, "last_quota_update", repository.OpSet, now); err != nil {
		return nil, ErrQuotaUpdateFailed
	}

	return s.GetByID(ctx, id)
}

// toTenantResponse converts a domain tenant to a response DTO
func (s *tenantService) toTenantResponse(tenant *domain.Tenant) *dto.TenantResponse {
	resp := &dto.TenantResponse{
		ID:               tenant.ID,
		SMSNumber:        tenant.SMSNumber,
		GoogleAccount:    tenant.GoogleAccount,
		SheetID:          tenant.SheetID,
		SplitMethod:      string(tenant.SplitMethod),
		ResponseTemplate: tenant.ResponseTemplate,
		TZOffsetHours:    tenant.TZOffsetHours,
		MessageQuota:     tenant.MessageQuota,
		CreatedAt:        tenant.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        tenant.UpdatedAt.Format(time.RFC3339),
	}
	if tenant.LastQuotaUpdate != nil {
		resp.LastQuotaUpdate = tenant.LastQuotaUpdate.Format(time.RFC3339)
	}
	return resp
}
