// Package sheets appends check-in rows to a tenant's Google spreadsheet
// through the Sheets v4 REST API.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amikeal/sms-checkin-relay/pkg/logger"
)

// Writer appends rows to a spreadsheet
type Writer interface {
	// AppendRow appends one row to the named worksheet, creating the
	// worksheet if it does not exist yet.
	AppendRow(ctx context.Context, sheetID, worksheet string, row []string) error
}

// HTTPWriter implements Writer against the Google Sheets v4 API
type HTTPWriter struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewHTTPWriter creates a new HTTP sheets writer. baseURL is normally
// https://sheets.googleapis.com/v4 and is overridable for tests.
func NewHTTPWriter(baseURL, accessToken string, timeout time.Duration) *HTTPWriter {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPWriter{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// AppendRow appends one row to the named worksheet. A missing worksheet
// is created once and the append retried.
func (w *HTTPWriter) AppendRow(ctx context.Context, sheetID, worksheet string, row []string) error {
	err := w.appendValues(ctx, sheetID, worksheet, row)
	if err == nil {
		return nil
	}
	if !isMissingWorksheet(err) {
		return err
	}

	logger.Get().InfoContext(ctx, "worksheet missing, creating it",
		zap.String("sheet_id", sheetID),
		zap.String("worksheet", worksheet),
	)
	if err := w.addWorksheet(ctx, sheetID, worksheet); err != nil {
		return fmt.Errorf("failed to create worksheet %q: %w", worksheet, err)
	}
	return w.appendValues(ctx, sheetID, worksheet, row)
}

func (w *HTTPWriter) appendValues(ctx context.Context, sheetID, worksheet string, row []string) error {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	payload := map[string]interface{}{
		"values": [][]interface{}{values},
	}

	rangeRef := url.PathEscape(fmt.Sprintf("%s!A1", worksheet))
	endpoint := fmt.Sprintf("%s/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		w.baseURL, sheetID, rangeRef)

	return w.post(ctx, endpoint, payload)
}

func (w *HTTPWriter) addWorksheet(ctx context.Context, sheetID, worksheet string) error {
	payload := map[string]interface{}{
		"requests": []map[string]interface{}{
			{
				"addSheet": map[string]interface{}{
					"properties": map[string]interface{}{
						"title": worksheet,
					},
				},
			},
		},
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s:batchUpdate", w.baseURL, sheetID)
	return w.post(ctx, endpoint, payload)
}

func (w *HTTPWriter) post(ctx context.Context, endpoint string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sheets request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &apiError{
			StatusCode: resp.StatusCode,
			Body:       string(detail),
		}
	}
	return nil
}

// apiError carries the Sheets API status and response body so callers
// can distinguish a missing worksheet from other failures.
type apiError struct {
	StatusCode int
	Body       string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("sheets api returned status %d: %s", e.StatusCode, e.Body)
}

// The append endpoint reports a range referencing an unknown worksheet
// as a 400 with "Unable to parse range" in the message.
func isMissingWorksheet(err error) bool {
	apiErr, ok := err.(*apiError)
	if !ok {
		return false
	}
	return apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(apiErr.Body, "Unable to parse range")
}

// NoOpWriter is a no-op implementation for tests or for running without
// spreadsheet credentials.
type NoOpWriter struct{}

// NewNoOpWriter creates a new no-op sheets writer
func NewNoOpWriter() *NoOpWriter {
	return &NoOpWriter{}
}

// AppendRow discards the row
func (w *NoOpWriter) AppendRow(ctx context.Context, sheetID, worksheet string, row []string) error {
	return nil
}
