package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables needed by the relay. Safe to call on
// every startup - uses IF NOT EXISTS.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
-- Tenants: one row per organization, keyed by the inbound SMS number
CREATE TABLE IF NOT EXISTS tenants (
    id TEXT PRIMARY KEY,
    sms_number TEXT NOT NULL,
    google_account TEXT NOT NULL,
    sheet_id TEXT NOT NULL,
    split_method TEXT NOT NULL DEFAULT 'WHITESPACE' CHECK (split_method IN ('WHITESPACE', 'COMMAS', 'SEMICOLONS')),
    response_template TEXT,
    tz_offset_hours INTEGER NOT NULL DEFAULT 0,
    message_quota BIGINT NOT NULL DEFAULT 0,
    last_quota_update TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    deleted_at TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tenants_sms_number ON tenants(sms_number) WHERE deleted_at IS NULL;

-- Registrations: phone-to-student bindings, scoped per tenant.
-- A phone holds at most one student ID, and a student ID is held by at
-- most one phone within a tenant.
CREATE TABLE IF NOT EXISTS registrations (
    tenant_id TEXT NOT NULL REFERENCES tenants(id) ON DELETE CASCADE,
    phone_number TEXT NOT NULL,
    student_id TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (tenant_id, phone_number),
    UNIQUE (tenant_id, student_id)
);

CREATE INDEX IF NOT EXISTS idx_registrations_student ON registrations(tenant_id, student_id);
`
