package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
	"github.com/amikeal/sms-checkin-relay/pkg/database"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run.")
	}
}

func setupTestDB(t *testing.T) *database.PostgresDB {
	ctx := context.Background()

	cfg := &database.PostgresConfig{
		Host:            getEnv("POSTGRES_HOST", "localhost"),
		Port:            5432,
		User:            getEnv("POSTGRES_USER", "postgres"),
		Password:        getEnv("POSTGRES_PASSWORD", ""),
		Database:        getEnv("POSTGRES_DB", "sms_relay"),
		SSLMode:         "disable",
		MaxConns:        5,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: 1 * time.Minute,
		ConnectTimeout:  5 * time.Second,
		MaxRetries:      3,
		RetryInterval:   1 * time.Second,
	}

	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := EnsureSchema(ctx, db.Pool()); err != nil {
		t.Fatalf("Failed to ensure schema: %v", err)
	}

	return db
}

func cleanupTestData(t *testing.T, db *database.PostgresDB) {
	ctx := context.Background()
	_, err := db.Pool().Exec(ctx, "DELETE FROM tenants WHERE google_account LIKE 'test-%'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test data: %v", err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func createTestTenant(t *testing.T, repo *PostgresTenantRepository, smsNumber string) *domain.Tenant {
	t.Helper()

	tenant, err := domain.NewTenant(smsNumber, "test-account@example.com", "sheet-"+smsNumber)
	if err != nil {
		t.Fatalf("Failed to build tenant: %v", err)
	}
	if err := repo.Create(context.Background(), tenant); err != nil {
		t.Fatalf("Failed to create tenant in DB: %v", err)
	}
	return tenant
}

func TestPostgresTenantRepository_GetBySMSNumber(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	defer cleanupTestData(t, db)

	repo := NewPostgresTenantRepository(db.Pool())
	ctx := context.Background()

	tenant := createTestTenant(t, repo, "19795551000")

	got, err := repo.GetBySMSNumber(ctx, "19795551000")
	if err != nil {
		t.Fatalf("GetBySMSNumber failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected tenant, got nil")
	}
	if got.ID != tenant.ID {
		t.Errorf("expected tenant ID %s, got %s", tenant.ID, got.ID)
	}

	missing, err := repo.GetBySMSNumber(ctx, "19790000000")
	if err != nil {
		t.Fatalf("GetBySMSNumber failed: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown number, got %+v", missing)
	}
}

func TestPostgresTenantRepository_GetBySMSNumber_Ambiguous(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()

	repo := NewPostgresTenantRepository(db.Pool())
	ctx := context.Background()

	// The partial unique index makes a duplicate live number impossible
	// through the API. Drop it so the lookup can be exercised against a
	// bad import, and restore it once the rows are gone.
	if _, err := db.Pool().Exec(ctx, "DROP INDEX IF EXISTS idx_tenants_sms_number"); err != nil {
		t.Fatalf("Failed to drop index: %v", err)
	}
	defer func() {
		cleanupTestData(t, db)
		if err := EnsureSchema(ctx, db.Pool()); err != nil {
			t.Errorf("Failed to restore schema: %v", err)
		}
	}()

	createTestTenant(t, repo, "19795551010")
	createTestTenant(t, repo, "19795551010")

	got, err := repo.GetBySMSNumber(ctx, "19795551010")
	if err != nil {
		t.Fatalf("GetBySMSNumber failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for ambiguous number, got tenant %s", got.ID)
	}
}

func TestPostgresTenantRepository_UpdateField(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	defer cleanupTestData(t, db)

	repo := NewPostgresTenantRepository(db.Pool())
	ctx := context.Background()

	tenant := createTestTenant(t, repo, "19795551001")

	if err := repo.UpdateField(ctx, tenant.ID, "message_quota", OpAdd, 5); err != nil {
		t.Fatalf("ADD message_quota failed: %v", err)
	}
	if err := repo.UpdateField(ctx, tenant.ID, "message_quota", OpAdd, 3); err != nil {
		t.Fatalf("ADD message_quota failed: %v", err)
	}

	got, err := repo.GetByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.MessageQuota != 8 {
		t.Errorf("expected message_quota 8, got %d", got.MessageQuota)
	}

	if err := repo.UpdateField(ctx, tenant.ID, "split_method", OpSet, "COMMAS"); err != nil {
		t.Fatalf("SET split_method failed: %v", err)
	}
	got, err = repo.GetByID(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.SplitMethod != domain.SplitCommas {
		t.Errorf("expected split_method COMMAS, got %s", got.SplitMethod)
	}
}

func TestPostgresTenantRepository_UpdateField_Rejections(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	defer cleanupTestData(t, db)

	repo := NewPostgresTenantRepository(db.Pool())
	ctx := context.Background()

	tenant := createTestTenant(t, repo, "19795551002")

	if err := repo.UpdateField(ctx, tenant.ID, "deleted_at", OpSet, time.Now()); err == nil {
		t.Error("expected error for non-whitelisted field")
	}
	if err := repo.UpdateField(ctx, tenant.ID, "sheet_id", OpAdd, 1); err == nil {
		t.Error("expected error for ADD on non-numeric field")
	}
	if err := repo.UpdateField(ctx, tenant.ID, "message_quota", OpAdd, "twelve"); err == nil {
		t.Error("expected error for ADD with non-numeric value")
	}
}

func TestPostgresTenantRepository_UpdateField_LocalRejections(t *testing.T) {
	// Whitelist and operand checks run before any SQL is built, so a nil
	// pool proves the database is never contacted.
	repo := NewPostgresTenantRepository(nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		field   string
		op      string
		value   interface{}
		wantErr error
	}{
		{"unknown field", "deleted_at", OpSet, time.Now(), ErrUnknownField},
		{"add on text column", "sheet_id", OpAdd, 1, ErrNonNumericAdd},
		{"add with string value", "message_quota", OpAdd, "12", ErrNonNumericAdd},
		{"add with nil value", "message_quota", OpAdd, nil, ErrNonNumericAdd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.UpdateField(ctx, "tenant-1", tt.field, tt.op, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if err := repo.UpdateField(ctx, "tenant-1", "message_quota", "MULTIPLY", 2); err == nil {
		t.Error("expected error for unsupported operation")
	}
}

func TestPostgresRegistrationRepository_Apply(t *testing.T) {
	skipIfNoIntegration(t)

	db := setupTestDB(t)
	defer db.Close()
	defer cleanupTestData(t, db)

	tenants := NewPostgresTenantRepository(db.Pool())
	regs := NewPostgresRegistrationRepository(db.Pool())
	ctx := context.Background()

	tenant := createTestTenant(t, tenants, "19795551003")

	// Seed a binding on the old phone.
	err := regs.Add(ctx, &domain.Registration{
		TenantID:    tenant.ID,
		PhoneNumber: "12225550001",
		StudentID:   "A100",
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Move A100 to a new phone: remove old binding, insert new one.
	err = regs.Apply(ctx, tenant.ID, []string{"A100"}, &domain.Registration{
		TenantID:    tenant.ID,
		PhoneNumber: "12225550002",
		StudentID:   "A100",
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	registered, err := regs.Load(ctx, tenant.ID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(registered) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(registered))
	}
	if registered["12225550002"] != "A100" {
		t.Errorf("expected A100 on new phone, got %v", registered)
	}
}
