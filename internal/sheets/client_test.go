package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPWriter_AppendRow(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	writer := NewHTTPWriter(server.URL, "token-123", 5*time.Second)
	err := writer.AppendRow(context.Background(), "sheet-1", "2026-08-31", []string{"08:15", "12225550001", "A100"})
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	if !strings.Contains(gotPath, "/spreadsheets/sheet-1/values/") {
		t.Errorf("unexpected path: %s", gotPath)
	}
	if gotAuth != "Bearer token-123" {
		t.Errorf("unexpected auth header: %s", gotAuth)
	}

	values, ok := gotBody["values"].([]interface{})
	if !ok || len(values) != 1 {
		t.Fatalf("expected one row in body, got %v", gotBody)
	}
	row := values[0].([]interface{})
	if len(row) != 3 || row[2] != "A100" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestHTTPWriter_AppendRow_CreatesMissingWorksheet(t *testing.T) {
	var calls []string
	appended := false

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if strings.HasSuffix(r.URL.Path, ":batchUpdate") {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{}`))
			return
		}
		if !appended {
			appended = true
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"message": "Unable to parse range: 2026-08-31!A1"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	writer := NewHTTPWriter(server.URL, "token-123", 5*time.Second)
	err := writer.AppendRow(context.Background(), "sheet-1", "2026-08-31", []string{"08:15", "12225550001", "A100"})
	if err != nil {
		t.Fatalf("AppendRow failed: %v", err)
	}

	// append (fails) -> batchUpdate addSheet -> append (succeeds)
	if len(calls) != 3 {
		t.Fatalf("expected 3 API calls, got %d: %v", len(calls), calls)
	}
	if !strings.HasSuffix(calls[1], ":batchUpdate") {
		t.Errorf("expected second call to be batchUpdate, got %s", calls[1])
	}
}

func TestHTTPWriter_AppendRow_SurfacesAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": {"message": "The caller does not have permission"}}`))
	}))
	defer server.Close()

	writer := NewHTTPWriter(server.URL, "bad-token", 5*time.Second)
	err := writer.AppendRow(context.Background(), "sheet-1", "2026-08-31", []string{"A100"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("expected status in error, got: %v", err)
	}
}
