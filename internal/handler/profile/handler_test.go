package profile

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/fsg-chatbot/widget/backend/internal/model/profile"
)

func setupRouter() *chi.Mux {
	r := chi.NewRouter()
	New(profile.NewMemoryStore(profile.Seed()), profile.DefaultID).RegisterRoutes(r)
	return r
}

func TestListProfiles(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/profiles", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got []profile.Profile
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != len(profile.Seed()) {
		t.Fatalf("expected %d profiles, got %d", len(profile.Seed()), len(got))
	}
}

func TestDefaultProfile(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/profile", nil))

	var got profile.Profile
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != profile.DefaultID {
		t.Fatalf("expected %s, got %s", profile.DefaultID, got.ID)
	}
	if got.Texts.NotUnderstood == "" {
		t.Fatal("expected fallback texts to be populated")
	}
}

func TestUnknownProfile(t *testing.T) {
	r := setupRouter()
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/profile?id=nope", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
