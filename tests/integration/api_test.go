package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paiban/storeroster/internal/handler"
)

func generateRequestBody() []byte {
	req := map[string]interface{}{
		"store_id":   "store-001",
		"start_date": "2026-08-03",
		"days":       7,
		"employees": []map[string]interface{}{
			{
				"id":               "emp-1",
				"name":             "Alice",
				"employment_type":  "full_time",
				"is_manager":       true,
				"primary_station":  "grill",
				"max_weekly_hours": 48,
				"availability": map[string]string{
					"2026-08-03": "available", "2026-08-04": "available", "2026-08-05": "available",
					"2026-08-06": "available", "2026-08-07": "available", "2026-08-08": "available",
					"2026-08-09": "available",
				},
			},
			{
				"id":              "emp-2",
				"name":            "Bob",
				"employment_type": "part_time",
				"primary_station": "counter",
				"availability": map[string]string{
					"2026-08-03": "available", "2026-08-04": "available", "2026-08-05": "available",
					"2026-08-06": "available", "2026-08-07": "available", "2026-08-08": "available",
					"2026-08-09": "available",
				},
			},
		},
	}
	body, _ := json.Marshal(req)
	return body
}

// TestGenerateEndpoint_ReturnsRoster exercises POST /api/v1/roster/generate
// end to end against the real handler (no solver stub).
func TestGenerateEndpoint_ReturnsRoster(t *testing.T) {
	h := handler.NewRosterHandler()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/generate", bytes.NewReader(generateRequestBody()))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handler.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.RunID == "" {
		t.Error("expected a non-empty run_id")
	}
	if len(resp.Roster) != 2 {
		t.Errorf("expected 2 employee schedules, got %d", len(resp.Roster))
	}
}

// TestGenerateEndpoint_RejectsMissingFields checks the request-validation
// path returns 400 with field-level detail.
func TestGenerateEndpoint_RejectsMissingFields(t *testing.T) {
	h := handler.NewRosterHandler()

	body, _ := json.Marshal(map[string]interface{}{"start_date": "2026-08-03"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/generate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Generate(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

// TestValidateEndpoint_FlagsManagerGap feeds a roster with no manager
// coverage and expects a blocking conflict back.
func TestValidateEndpoint_FlagsManagerGap(t *testing.T) {
	h := handler.NewRosterHandler()

	req := map[string]interface{}{
		"start_date": "2026-08-03",
		"days":       1,
		"employees": []map[string]interface{}{
			{"id": "emp-1", "name": "Alice", "employment_type": "full_time", "primary_station": "counter"},
		},
		"roster": map[string]map[string]string{
			"emp-1": {"2026-08-03": "1F"},
		},
	}
	body, _ := json.Marshal(req)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/roster/validate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	h.Validate(rec, httpReq)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp handler.ValidateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Valid {
		t.Error("expected validation to fail: no manager covers opening/closing")
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/json")
	rec.WriteHeader(http.StatusOK)
	json.NewEncoder(rec).Encode(map[string]interface{}{"status": "ok", "service": "storeroster"})

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
