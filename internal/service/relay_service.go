package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/amikeal/sms-checkin-relay/internal/domain"
	"github.com/amikeal/sms-checkin-relay/internal/dto"
	"github.com/amikeal/sms-checkin-relay/internal/repository"
	"github.com/amikeal/sms-checkin-relay/internal/sheets"
	"github.com/amikeal/sms-checkin-relay/pkg/logger"
	"github.com/amikeal/sms-checkin-relay/pkg/telemetry"
)

// Fixed student-facing replies for paths where no per-tenant template
// applies.
const (
	ReplyUnknownNumber = "Sorry, we don't recognize this number. Please check the number with your program staff."
	ReplyFailure       = "Sorry - something went wrong. Please contact your program staff."
	ReplyNotRegistered = "This phone number is not registered. To register, text REGISTER followed by your student ID (for example: REGISTER A123456789)."
)

// Dispositions reported on the inbound message counter.
const (
	DispositionAccepted      = "accepted"
	DispositionRegistration  = "registration"
	DispositionUnregistered  = "unregistered"
	DispositionUnknownTenant = "unknown_tenant"
	DispositionFailure       = "failure"
)

// Command bodies are REGISTER or UPDATE followed by one contiguous
// token; anything after the token is ignored.
var commandPattern = regexp.MustCompile(`(?i)^\s*(REGISTER|UPDATE)\s+(\S+)(.*)$`)

// RelayService routes one inbound SMS to a registration command or a
// check-in submission and produces the reply text.
type RelayService interface {
	// HandleInbound processes one carrier delivery and returns the reply
	// to send back to the student. A non-nil error means the carrier
	// should see a delivery failure rather than a reply.
	HandleInbound(ctx context.Context, msg *dto.InboundMessageRequest) (string, error)
}

// relayService implements RelayService
type relayService struct {
	tenantRepo      repository.TenantRepository
	registrationSvc RegistrationService
	writer          sheets.Writer
	inboundCounter  *telemetry.Counter
	now             func() time.Time
}

// NewRelayService creates a new RelayService
func NewRelayService(tenantRepo repository.TenantRepository, registrationSvc RegistrationService, writer sheets.Writer) RelayService {
	inboundCounter, err := telemetry.NewCounter(telemetry.MetricOpts{
		Name:        "sms.inbound.messages",
		Description: "Inbound SMS messages by disposition",
		Unit:        "{message}",
	})
	if err != nil {
		// Metrics are best-effort; the relay runs without the counter.
		logger.Get().Warn("failed to register inbound message counter", zap.Error(err))
	}
	return &relayService{
		tenantRepo:      tenantRepo,
		registrationSvc: registrationSvc,
		writer:          writer,
		inboundCounter:  inboundCounter,
		now:             time.Now,
	}
}

// HandleInbound processes one carrier delivery
func (s *relayService) HandleInbound(ctx context.Context, msg *dto.InboundMessageRequest) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, "relay.HandleInbound")
	defer span.End()

	sender := domain.NormalizeNumber(msg.FromNumber)
	destination := domain.NormalizeNumber(msg.ToNumber)
	log := logger.Get().WithContext(ctx)

	tenant, err := s.tenantRepo.GetBySMSNumber(ctx, destination)
	if err != nil {
		return "", err
	}
	if tenant == nil {
		log.Warn("inbound message for unrecognized number",
			zap.String("to_number", destination),
		)
		s.count(ctx, "", DispositionUnknownTenant)
		return ReplyUnknownNumber, nil
	}

	if m := commandPattern.FindStringSubmatch(msg.Body); m != nil {
		command := strings.ToUpper(m[1])
		studentID := m[2]
		force := command == "UPDATE"

		reply, err := s.registrationSvc.Register(ctx, tenant.ID, sender, studentID, force)
		if err != nil {
			log.Error("registration failed",
				zap.String("tenant_id", tenant.ID),
				zap.String("command", command),
				zap.Error(err),
			)
			s.count(ctx, tenant.ID, DispositionFailure)
			return ReplyFailure, nil
		}
		s.count(ctx, tenant.ID, DispositionRegistration, telemetry.CommandAttr(strings.ToLower(command)))
		return reply, nil
	}

	studentID, registered, err := s.registrationSvc.Verify(ctx, tenant.ID, sender)
	if err != nil {
		log.Error("registration lookup failed",
			zap.String("tenant_id", tenant.ID),
			zap.Error(err),
		)
		s.count(ctx, tenant.ID, DispositionFailure)
		return ReplyFailure, nil
	}
	if !registered {
		s.count(ctx, tenant.ID, DispositionUnregistered)
		return ReplyNotRegistered, nil
	}

	now := s.now()
	row := s.buildRow(tenant, msg, studentID, sender, now)
	worksheet := tenant.WorksheetName(now)

	if err := s.writer.AppendRow(ctx, tenant.SheetID, worksheet, row); err != nil {
		log.Error("spreadsheet append failed",
			zap.String("tenant_id", tenant.ID),
			zap.String("worksheet", worksheet),
			zap.Error(err),
		)
		s.count(ctx, tenant.ID, DispositionFailure)
		return ReplyFailure, nil
	}

	log.Info("submission recorded",
		zap.String("tenant_id", tenant.ID),
		zap.String("worksheet", worksheet),
		zap.String("student_id", studentID),
	)
	s.count(ctx, tenant.ID, DispositionAccepted)
	return tenant.RenderReply(now, studentID, sender), nil
}

// buildRow assembles one spreadsheet row: local timestamp, sender,
// location, student ID, then the tokenized message body. Location stays
// in the row even when empty so the columns line up across carriers.
func (s *relayService) buildRow(tenant *domain.Tenant, msg *dto.InboundMessageRequest, studentID, sender string, now time.Time) []string {
	row := []string{
		tenant.LocalTime(now).Format("2006-01-02 15:04:05"),
		sender,
		msg.FromLocation,
		studentID,
	}
	return append(row, tenant.SplitMethod.Tokenize(msg.Body)...)
}

func (s *relayService) count(ctx context.Context, tenantID, disposition string, extra ...attribute.KeyValue) {
	if s.inboundCounter == nil {
		return
	}
	attrs := []attribute.KeyValue{telemetry.DispositionAttr(disposition)}
	if tenantID != "" {
		attrs = append(attrs, telemetry.TenantIDAttr(tenantID))
	}
	attrs = append(attrs, extra...)
	s.inboundCounter.Inc(ctx, attrs...)
}
