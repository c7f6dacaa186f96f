// Package e2e runs the whole HTTP surface end to end against httptest.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paiban/storeroster/internal/handler"
)

func buildServeMux() *http.ServeMux {
	rosterHandler := handler.NewRosterHandler()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"storeroster"}`))
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"version":"test"}`))
	})
	mux.HandleFunc("/api/v1/roster/generate", rosterHandler.Generate)
	mux.HandleFunc("/api/v1/roster/validate", rosterHandler.Validate)
	return mux
}

// TestFullSchedulingWorkflow drives a whole week through the HTTP surface:
// generate a roster, then feed its own assignment back through /validate.
func TestFullSchedulingWorkflow(t *testing.T) {
	mux := buildServeMux()

	week := []string{"2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06", "2026-08-07", "2026-08-08", "2026-08-09"}
	avail := make(map[string]string, len(week))
	for _, d := range week {
		avail[d] = "available"
	}

	genReq := map[string]interface{}{
		"store_id":   "store-e2e",
		"start_date": "2026-08-03",
		"days":       7,
		"employees": []map[string]interface{}{
			{"id": "emp-1", "name": "Alice", "employment_type": "full_time", "is_manager": true, "primary_station": "grill", "availability": avail},
			{"id": "emp-2", "name": "Bob", "employment_type": "full_time", "primary_station": "counter", "availability": avail},
			{"id": "emp-3", "name": "Carol", "employment_type": "part_time", "primary_station": "counter", "availability": avail},
		},
	}
	body, _ := json.Marshal(genReq)

	httpReq := httptest.NewRequest(http.MethodPost, "/api/v1/roster/generate", bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	mux.ServeHTTP(rec, httpReq)

	if rec.Code != http.StatusOK {
		t.Fatalf("generate failed: %d %s", rec.Code, rec.Body.String())
	}

	var genResp handler.GenerateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &genResp); err != nil {
		t.Fatalf("failed to decode generate response: %v", err)
	}
	t.Logf("generate run_id=%s status=%s", genResp.RunID, genResp.Status)

	rosterMap := make(map[string]map[string]string, len(genResp.Roster))
	for _, sched := range genResp.Roster {
		days := make(map[string]string, len(sched.Shifts))
		for date, shift := range sched.Shifts {
			days[date] = shift.Code
		}
		rosterMap[sched.EmployeeID] = days
	}

	valReq := map[string]interface{}{
		"start_date": "2026-08-03",
		"days":       7,
		"employees":  genReq["employees"],
		"roster":     rosterMap,
	}
	valBody, _ := json.Marshal(valReq)

	valHTTPReq := httptest.NewRequest(http.MethodPost, "/api/v1/roster/validate", bytes.NewReader(valBody))
	valRec := httptest.NewRecorder()
	mux.ServeHTTP(valRec, valHTTPReq)

	if valRec.Code != http.StatusOK {
		t.Fatalf("validate failed: %d %s", valRec.Code, valRec.Body.String())
	}

	var valResp handler.ValidateResponse
	if err := json.Unmarshal(valRec.Body.Bytes(), &valResp); err != nil {
		t.Fatalf("failed to decode validate response: %v", err)
	}
	t.Logf("re-validation valid=%v conflicts=%d", valResp.Valid, len(valResp.Conflicts))
}

// TestAPIEndpoints smoke-tests every route for the status family the
// caller should expect.
func TestAPIEndpoints(t *testing.T) {
	mux := buildServeMux()

	endpoints := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/version", http.StatusOK},
		{http.MethodPost, "/api/v1/roster/generate", http.StatusBadRequest}, // no body
		{http.MethodPost, "/api/v1/roster/validate", http.StatusBadRequest},
	}

	for _, ep := range endpoints {
		t.Run(fmt.Sprintf("%s_%s", ep.method, ep.path), func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			if rec.Code != ep.status {
				t.Errorf("expected %d, got %d", ep.status, rec.Code)
			}
		})
	}
}

// TestConcurrentGenerateRequests checks the handler is safe to call from
// multiple goroutines at once (each run gets its own Orchestrator/RunID).
func TestConcurrentGenerateRequests(t *testing.T) {
	mux := buildServeMux()

	week := []string{"2026-08-03", "2026-08-04", "2026-08-05", "2026-08-06", "2026-08-07", "2026-08-08", "2026-08-09"}
	avail := make(map[string]string, len(week))
	for _, d := range week {
		avail[d] = "available"
	}
	genReq := map[string]interface{}{
		"store_id":   "store-concurrent",
		"start_date": "2026-08-03",
		"days":       7,
		"employees": []map[string]interface{}{
			{"id": "emp-1", "name": "Alice", "employment_type": "full_time", "is_manager": true, "primary_station": "grill", "availability": avail},
		},
	}
	body, _ := json.Marshal(genReq)

	concurrency := 5
	done := make(chan int, concurrency)
	for i := 0; i < concurrency; i++ {
		go func(id int) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/roster/generate", bytes.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			done <- rec.Code
		}(i)
	}

	for i := 0; i < concurrency; i++ {
		code := <-done
		if code != http.StatusOK {
			t.Errorf("concurrent request %d returned %d", i, code)
		}
	}
}
