package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SplitMethod governs how a free-text submission body is tokenized
// into spreadsheet columns.
type SplitMethod string

const (
	SplitWhitespace SplitMethod = "WHITESPACE"
	SplitCommas     SplitMethod = "COMMAS"
	SplitSemicolons SplitMethod = "SEMICOLONS"
)

// IsValid returns true if the split method is one of the supported values
func (m SplitMethod) IsValid() bool {
	switch m {
	case SplitWhitespace, SplitCommas, SplitSemicolons:
		return true
	}
	return false
}

// Tokenize splits a message body into column values using the method.
// Delimiter-based methods trim surrounding whitespace from each token.
func (m SplitMethod) Tokenize(body string) []string {
	switch m {
	case SplitCommas:
		return splitAndTrim(body, ",")
	case SplitSemicolons:
		return splitAndTrim(body, ";")
	default:
		return strings.Fields(body)
	}
}

func splitAndTrim(body, sep string) []string {
	parts := strings.Split(body, sep)
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			tokens = append(tokens, trimmed)
		}
	}
	return tokens
}

// Template placeholder tokens substituted at reply time.
const (
	TokenTimestamp = "{timestamp}"
	TokenDate      = "{date}"
	TokenTime      = "{time}"
	TokenStudentID = "{student_id}"
	TokenSender    = "{sender}"
)

// DefaultResponseTemplate is the acknowledgement sent after a recorded
// submission when a tenant has not configured its own.
const DefaultResponseTemplate = "Check-in received for {student_id} at {time} on {date}."

// Tenant represents one customer account: an organization whose students
// text a dedicated SMS number and whose submissions land in its own sheet.
type Tenant struct {
	ID               string      `json:"id"`
	SMSNumber        string      `json:"sms_number"`
	GoogleAccount    string      `json:"google_account"`
	SheetID          string      `json:"sheet_id"`
	SplitMethod      SplitMethod `json:"split_method"`
	ResponseTemplate string      `json:"response_template"`
	TZOffsetHours    int         `json:"tz_offset_hours"`
	MessageQuota     int64       `json:"message_quota"`
	LastQuotaUpdate  *time.Time  `json:"last_quota_update,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	DeletedAt        *time.Time  `json:"deleted_at,omitempty"` // Soft delete support
}

// Tenant validation errors
var (
	ErrMissingSMSNumber     = errors.New("sms_number is required")
	ErrMissingGoogleAccount = errors.New("google_account is required")
	ErrMissingSheetID       = errors.New("sheet_id is required")
	ErrInvalidSplitMethod   = errors.New("invalid split_method")
	ErrInvalidTZOffset      = errors.New("tz_offset_hours out of range")
)

// NewTenant creates a tenant with generated ID and sensible defaults.
// The SMS number is normalized before storage so inbound lookups match.
func NewTenant(smsNumber, googleAccount, sheetID string) (*Tenant, error) {
	smsNumber = NormalizeNumber(smsNumber)
	if smsNumber == "" {
		return nil, ErrMissingSMSNumber
	}
	if googleAccount == "" {
		return nil, ErrMissingGoogleAccount
	}
	if sheetID == "" {
		return nil, ErrMissingSheetID
	}

	now := time.Now().UTC()
	return &Tenant{
		ID:               uuid.New().String(),
		SMSNumber:        smsNumber,
		GoogleAccount:    googleAccount,
		SheetID:          sheetID,
		SplitMethod:      SplitWhitespace,
		ResponseTemplate: DefaultResponseTemplate,
		TZOffsetHours:    0,
		MessageQuota:     0,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Validate checks field constraints after mutation
func (t *Tenant) Validate() error {
	if t.SMSNumber == "" {
		return ErrMissingSMSNumber
	}
	if !t.SplitMethod.IsValid() {
		return ErrInvalidSplitMethod
	}
	if t.TZOffsetHours < -12 || t.TZOffsetHours > 14 {
		return ErrInvalidTZOffset
	}
	return nil
}

// LocalTime converts a UTC instant into the tenant's wall-clock time.
// Offsets are whole hours; that matches how the accounts are provisioned.
func (t *Tenant) LocalTime(now time.Time) time.Time {
	return now.UTC().Add(time.Duration(t.TZOffsetHours) * time.Hour)
}

// RenderReply substitutes the template tokens using the tenant's
// timezone offset. Unknown tokens are left untouched.
func (t *Tenant) RenderReply(now time.Time, studentID, sender string) string {
	tpl := t.ResponseTemplate
	if tpl == "" {
		tpl = DefaultResponseTemplate
	}
	local := t.LocalTime(now)
	r := strings.NewReplacer(
		TokenTimestamp, local.Format("2006-01-02 15:04:05"),
		TokenDate, local.Format("2006-01-02"),
		TokenTime, local.Format("15:04:05"),
		TokenStudentID, studentID,
		TokenSender, sender,
	)
	return r.Replace(tpl)
}

// WorksheetName returns the dated worksheet title submissions are
// appended to, in the tenant's local day.
func (t *Tenant) WorksheetName(now time.Time) string {
	return t.LocalTime(now).Format("2006-01-02")
}

// NormalizeNumber strips a single leading "+" from a phone number.
// Carriers deliver E.164 numbers; the directory stores them bare.
func NormalizeNumber(number string) string {
	return strings.TrimPrefix(strings.TrimSpace(number), "+")
}
