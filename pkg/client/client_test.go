package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/greentrace/carbonledger/pkg/client"
)

var ctx = context.Background()

// newTestServer returns a server that mimics the ledger API surface closely
// enough to exercise the SDK's request building and error decoding.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-alice" {
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "unauthorized", "code": 403})
			return
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"actor": "alice", "created": true})
	})

	mux.HandleFunc("POST /api/v1/emissions", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Units    uint64 `json:"units"`
			Category string `json:"category"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if req.Units == 0 {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "invalid emission", "code": 400})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accepted": true, "actor": "alice", "logical_time": 7,
		})
	})

	mux.HandleFunc("GET /api/v1/actors/alice/total", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"actor": "alice", "total_emissions": 125})
	})

	mux.HandleFunc("GET /api/v1/actors/alice/categories/diet", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"actor": "alice", "category": "diet", "total_emissions": 0,
		})
	})

	mux.HandleFunc("GET /api/v1/actors/ghost", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "profile not found", "code": 404})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateProfile(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL, client.WithBearerToken("tok-alice"))

	res, err := c.CreateProfile(ctx)
	if err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if res.Actor != "alice" || !res.Created {
		t.Errorf("CreateProfile result: %+v", res)
	}
}

func TestCreateProfile_unauthorized(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL) // no token

	_, err := c.CreateProfile(ctx)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Code != 403 {
		t.Errorf("code: got %d, want 403", apiErr.Code)
	}
}

func TestLogEmission(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL, client.WithBearerToken("tok-alice"))

	res, err := c.LogEmission(ctx, 50, "transportation")
	if err != nil {
		t.Fatalf("LogEmission: %v", err)
	}
	if !res.Accepted || res.LogicalTime != 7 {
		t.Errorf("LogEmission result: %+v", res)
	}
}

func TestLogEmission_rejected(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL, client.WithBearerToken("tok-alice"))

	_, err := c.LogEmission(ctx, 0, "energy")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *APIError, got %v", err)
	}
	if apiErr.Code != 400 {
		t.Errorf("code: got %d, want 400", apiErr.Code)
	}
}

func TestQueries(t *testing.T) {
	srv := newTestServer(t)
	c := client.New(srv.URL)

	total, err := c.TotalEmissions(ctx, "alice")
	if err != nil {
		t.Fatalf("TotalEmissions: %v", err)
	}
	if total.TotalEmissions != 125 {
		t.Errorf("total: got %d, want 125", total.TotalEmissions)
	}

	byCat, err := c.EmissionsByCategory(ctx, "alice", "diet")
	if err != nil {
		t.Fatalf("EmissionsByCategory: %v", err)
	}
	if byCat.TotalEmissions != 0 {
		t.Errorf("by category: got %d, want 0", byCat.TotalEmissions)
	}

	_, err = c.GetProfile(ctx, "ghost")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 404 {
		t.Errorf("GetProfile(ghost): got %v, want APIError 404", err)
	}
}
