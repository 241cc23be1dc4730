package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/amikeal/sms-checkin-relay/internal/dto"
	"github.com/amikeal/sms-checkin-relay/internal/service"
)

// fakeTenantService returns canned results per call
type fakeTenantService struct {
	createResp *dto.TenantResponse
	createErr  error
	getResp    *dto.TenantResponse
	getErr     error
	usageResp  *dto.TenantResponse
	usageErr   error
	deleteErr  error
}

func (f *fakeTenantService) Create(ctx context.Context, req *dto.CreateTenantRequest) (*dto.TenantResponse, error) {
	return f.createResp, f.createErr
}
func (f *fakeTenantService) GetByID(ctx context.Context, id string) (*dto.TenantResponse, error) {
	return f.getResp, f.getErr
}
func (f *fakeTenantService) List(ctx context.Context, query *dto.ListTenantsQuery) (*dto.ListTenantsResponse, error) {
	return &dto.ListTenantsResponse{}, nil
}
func (f *fakeTenantService) Update(ctx context.Context, id string, req *dto.UpdateTenantRequest) (*dto.TenantResponse, error) {
	return f.getResp, f.getErr
}
func (f *fakeTenantService) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}
func (f *fakeTenantService) RecordUsage(ctx context.Context, id string, messageCount int64) (*dto.TenantResponse, error) {
	return f.usageResp, f.usageErr
}

func setupTenantRouter(svc service.TenantService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewTenantHandler(svc)
	router.POST("/api/v1/tenants", h.Create)
	router.GET("/api/v1/tenants/:id", h.GetByID)
	router.POST("/api/v1/tenants/:id/usage", h.RecordUsage)
	router.DELETE("/api/v1/tenants/:id", h.Delete)
	return router
}

func TestTenantHandler_Create(t *testing.T) {
	svc := &fakeTenantService{
		createResp: &dto.TenantResponse{ID: "t-1", SMSNumber: "19795551234"},
	}
	router := setupTenantRouter(svc)

	body, _ := json.Marshal(dto.CreateTenantRequest{
		SMSNumber:     "19795551234",
		GoogleAccount: "checkin@example.edu",
		SheetID:       "sheet-abc123",
	})
	req, _ := http.NewRequest("POST", "/api/v1/tenants", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success || resp.Data.ID != "t-1" {
		t.Errorf("unexpected envelope: %s", w.Body.String())
	}
}

func TestTenantHandler_Create_Conflict(t *testing.T) {
	svc := &fakeTenantService{createErr: service.ErrDuplicateSMSNumber}
	router := setupTenantRouter(svc)

	body, _ := json.Marshal(dto.CreateTenantRequest{
		SMSNumber:     "19795551234",
		GoogleAccount: "checkin@example.edu",
		SheetID:       "sheet-abc123",
	})
	req, _ := http.NewRequest("POST", "/api/v1/tenants", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error.Code != "DUPLICATE_SMS_NUMBER" {
		t.Errorf("expected DUPLICATE_SMS_NUMBER, got %q", resp.Error.Code)
	}
}

func TestTenantHandler_GetByID_NotFound(t *testing.T) {
	svc := &fakeTenantService{getErr: service.ErrTenantNotFound}
	router := setupTenantRouter(svc)

	req, _ := http.NewRequest("GET", "/api/v1/tenants/missing", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestTenantHandler_RecordUsage(t *testing.T) {
	svc := &fakeTenantService{
		usageResp: &dto.TenantResponse{ID: "t-1", MessageQuota: 88},
	}
	router := setupTenantRouter(svc)

	req, _ := http.NewRequest("POST", "/api/v1/tenants/t-1/usage", bytes.NewBufferString(`{"message_count": 12}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Missing count is a validation failure.
	req, _ = http.NewRequest("POST", "/api/v1/tenants/t-1/usage", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing message_count, got %d", w.Code)
	}
}
