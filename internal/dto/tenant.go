package dto

import (
	"regexp"
)

// CreateTenantRequest represents request to provision a new tenant
type CreateTenantRequest struct {
	SMSNumber        string `json:"sms_number" binding:"required,min=10,max=16"`
	GoogleAccount    string `json:"google_account" binding:"required,email"`
	SheetID          string `json:"sheet_id" binding:"required,min=8,max=128"`
	SplitMethod      string `json:"split_method" binding:"omitempty,oneof=WHITESPACE COMMAS SEMICOLONS"`
	ResponseTemplate string `json:"response_template" binding:"omitempty,max=500"`
	TZOffsetHours    *int   `json:"tz_offset_hours" binding:"omitempty,min=-12,max=14"`
	MessageQuota     *int64 `json:"message_quota" binding:"omitempty,min=0"`
}

// ValidateSMSNumber validates that the number is digits with an optional
// leading plus sign
func (r *CreateTenantRequest) ValidateSMSNumber() (bool, string) {
	numberRegex := regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	if !numberRegex.MatchString(r.SMSNumber) {
		return false, "SMS number must be 10-15 digits with an optional leading +"
	}
	return true, ""
}

// UpdateTenantRequest represents request to update tenant configuration
type UpdateTenantRequest struct {
	SMSNumber        *string `json:"sms_number" binding:"omitempty,min=10,max=16"`
	GoogleAccount    *string `json:"google_account" binding:"omitempty,email"`
	SheetID          *string `json:"sheet_id" binding:"omitempty,min=8,max=128"`
	SplitMethod      *string `json:"split_method" binding:"omitempty,oneof=WHITESPACE COMMAS SEMICOLONS"`
	ResponseTemplate *string `json:"response_template" binding:"omitempty,max=500"`
	TZOffsetHours    *int    `json:"tz_offset_hours" binding:"omitempty,min=-12,max=14"`
	MessageQuota     *int64  `json:"message_quota" binding:"omitempty,min=0"`
}

// Validate validates that at least one field is provided for update
func (r *UpdateTenantRequest) Validate() (bool, string) {
	if r.SMSNumber == nil && r.GoogleAccount == nil && r.SheetID == nil &&
		r.SplitMethod == nil && r.ResponseTemplate == nil &&
		r.TZOffsetHours == nil && r.MessageQuota == nil {
		return false, "At least one field must be provided for update"
	}
	return true, ""
}

// TenantResponse represents tenant data in response
type TenantResponse struct {
	ID               string `json:"id"`
	SMSNumber        string `json:"sms_number"`
	GoogleAccount    string `json:"google_account"`
	SheetID          string `json:"sheet_id"`
	SplitMethod      string `json:"split_method"`
	ResponseTemplate string `json:"response_template,omitempty"`
	TZOffsetHours    int    `json:"tz_offset_hours"`
	MessageQuota     int64  `json:"message_quota"`
	LastQuotaUpdate  string `json:"last_quota_update,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// ListTenantsQuery represents query parameters for listing tenants
type ListTenantsQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// SetDefaults sets default values for query parameters
func (q *ListTenantsQuery) SetDefaults() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
}

// ListTenantsResponse represents paginated list of tenants
type ListTenantsResponse struct {
	Tenants    []TenantResponse `json:"tenants"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

// RecordUsageRequest represents a billing usage report for a tenant
type RecordUsageRequest struct {
	MessageCount int64 `json:"message_count" binding:"required,min=1"`
}
