package role

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/oncolens/assistant/internal/model/role"
)

func TestListRoles(t *testing.T) {
	r := chi.NewRouter()
	New(role.NewMemoryStore(role.Seed())).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/roles", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var profiles []struct {
		Role            string   `json:"role"`
		Greeting        string   `json:"greeting"`
		SampleQuestions []string `json:"sampleQuestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profiles); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Role != "patient" || profiles[1].Role != "professional" {
		t.Fatalf("unexpected role order: %s, %s", profiles[0].Role, profiles[1].Role)
	}
	if len(profiles[1].SampleQuestions) != 4 {
		t.Fatalf("expected 4 professional questions, got %d", len(profiles[1].SampleQuestions))
	}
}
