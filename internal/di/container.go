package di

import (
	"github.com/amikeal/sms-checkin-relay/internal/handler"
	"github.com/amikeal/sms-checkin-relay/internal/repository"
	"github.com/amikeal/sms-checkin-relay/internal/service"
	"github.com/amikeal/sms-checkin-relay/internal/sheets"
	"github.com/amikeal/sms-checkin-relay/pkg/config"
	"github.com/amikeal/sms-checkin-relay/pkg/database"
	"github.com/amikeal/sms-checkin-relay/pkg/redis"
)

// Container holds all dependencies for the relay
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client // nil when disabled

	// Repositories
	TenantRepo       repository.TenantRepository
	RegistrationRepo repository.RegistrationRepository

	// Collaborators
	SheetWriter sheets.Writer

	// Services
	RegistrationService service.RegistrationService
	RelayService        service.RelayService
	TenantService       service.TenantService

	// Handlers
	HealthHandler  *handler.HealthHandler
	InboundHandler *handler.InboundHandler
	TenantHandler  *handler.TenantHandler
}

// NewContainer creates a new dependency injection container. redisClient
// may be nil; the webhook then runs without delivery dedupe.
func NewContainer(cfg *config.Config, db *database.PostgresDB, redisClient *redis.Client) *Container {
	c := &Container{
		DB:    db,
		Redis: redisClient,
	}

	// Repositories
	c.TenantRepo = repository.NewPostgresTenantRepository(db.Pool())
	c.RegistrationRepo = repository.NewPostgresRegistrationRepository(db.Pool())

	// A missing access token means no spreadsheet credentials were
	// provisioned; submissions are still acknowledged but not recorded.
	if cfg.Sheets.AccessToken != "" {
		c.SheetWriter = sheets.NewHTTPWriter(cfg.Sheets.BaseURL, cfg.Sheets.AccessToken, cfg.Sheets.Timeout)
	} else {
		c.SheetWriter = sheets.NewNoOpWriter()
	}

	// Services
	c.RegistrationService = service.NewRegistrationService(c.RegistrationRepo)
	c.RelayService = service.NewRelayService(c.TenantRepo, c.RegistrationService, c.SheetWriter)
	c.TenantService = service.NewTenantService(c.TenantRepo)

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(c.DB, c.Redis)
	c.TenantHandler = handler.NewTenantHandler(c.TenantService)

	var deduper handler.Deduper
	if c.Redis != nil {
		deduper = c.Redis
	}
	c.InboundHandler = handler.NewInboundHandler(c.RelayService, deduper)

	return c
}
