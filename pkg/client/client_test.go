package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_ListProjects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects" {
			t.Errorf("Expected path /api/v1/projects, got %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET method, got %s", r.Method)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"projects": []map[string]any{
				{"id": "bitmart_1724900000", "name": "Bitmart", "symbol": "BMX", "chain": "ETH", "votes": 3},
			},
			"count": 1,
		})
	}))
	defer server.Close()

	client := New(server.URL, "test-key")
	projects, err := client.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects() error = %v", err)
	}

	if len(projects) != 1 {
		t.Fatalf("ListProjects() returned %d projects, want 1", len(projects))
	}
	if projects[0].ID != "bitmart_1724900000" {
		t.Errorf("ListProjects()[0].ID = %s, want bitmart_1724900000", projects[0].ID)
	}
	if projects[0].Votes != 3 {
		t.Errorf("ListProjects()[0].Votes = %d, want 3", projects[0].Votes)
	}
}

func TestClient_GetProject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects/bitmart_1724900000" {
			t.Errorf("Expected path /api/v1/projects/bitmart_1724900000, got %s", r.URL.Path)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":     "bitmart_1724900000",
			"name":   "Bitmart",
			"symbol": "BMX",
			"chain":  "ETH",
			"listed": true,
		})
	}))
	defer server.Close()

	client := New(server.URL, "")
	project, err := client.GetProject(context.Background(), "bitmart_1724900000")
	if err != nil {
		t.Fatalf("GetProject() error = %v", err)
	}

	if project.Name != "Bitmart" {
		t.Errorf("GetProject().Name = %s, want Bitmart", project.Name)
	}
	if !project.Listed {
		t.Error("GetProject().Listed = false, want true")
	}
}

func TestClient_Submit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects" {
			t.Errorf("Expected path /api/v1/projects, got %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST method, got %s", r.Method)
		}
		if r.Header.Get("X-API-Key") != "my-api-key" {
			t.Errorf("Expected X-API-Key header, got %s", r.Header.Get("X-API-Key"))
		}

		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Name != "Bitmart" {
			t.Errorf("Expected name Bitmart, got %s", req.Name)
		}

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"id":   "bitmart_1724900000",
			"name": "Bitmart",
		})
	}))
	defer server.Close()

	client := New(server.URL, "my-api-key")
	project, err := client.Submit(context.Background(), SubmitRequest{
		Name:        "Bitmart",
		Symbol:      "BMX",
		Chain:       "ETH",
		SubmittedBy: "123456789",
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if project.ID != "bitmart_1724900000" {
		t.Errorf("Submit().ID = %s, want bitmart_1724900000", project.ID)
	}
}

func TestClient_VerifyPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects/bitmart_1724900000/verify" {
			t.Errorf("Expected verify path, got %s", r.URL.Path)
		}

		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req["tx_ref"] != "0xabc" {
			t.Errorf("Expected tx_ref 0xabc, got %s", req["tx_ref"])
		}

		json.NewEncoder(w).Encode(map[string]any{
			"status":   "verified",
			"verified": true,
			"listed":   true,
			"reason":   "payment confirmed",
		})
	}))
	defer server.Close()

	client := New(server.URL, "key")
	result, err := client.VerifyPayment(context.Background(), "bitmart_1724900000", "0xabc")
	if err != nil {
		t.Fatalf("VerifyPayment() error = %v", err)
	}
	if !result.Verified {
		t.Error("VerifyPayment().Verified = false, want true")
	}
	if result.Status != "verified" {
		t.Errorf("VerifyPayment().Status = %s, want verified", result.Status)
	}
}

func TestClient_VoteRecorded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/projects/bitmart_1724900000/vote" {
			t.Errorf("Expected vote path, got %s", r.URL.Path)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"outcome":    "recorded",
			"reason":     "vote recorded",
			"project_id": "bitmart_1724900000",
			"votes":      4,
		})
	}))
	defer server.Close()

	client := New(server.URL, "key")
	result, err := client.Vote(context.Background(), "bitmart_1724900000", "555")
	if err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	if result.Outcome != "recorded" {
		t.Errorf("Vote().Outcome = %s, want recorded", result.Outcome)
	}
	if result.Votes != 4 {
		t.Errorf("Vote().Votes = %d, want 4", result.Votes)
	}
}

func TestClient_VoteRejectionIsResultNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]any{
			"outcome":    "not_eligible",
			"reason":     "voter must be a member of @groupa and @groupb",
			"project_id": "bitmart_1724900000",
		})
	}))
	defer server.Close()

	client := New(server.URL, "key")
	result, err := client.Vote(context.Background(), "bitmart_1724900000", "555")
	if err != nil {
		t.Fatalf("Vote() error = %v, want typed result", err)
	}
	if result.Outcome != "not_eligible" {
		t.Errorf("Vote().Outcome = %s, want not_eligible", result.Outcome)
	}
}

func TestClient_VoteEnvelopeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":    "UNAUTHORIZED",
				"message": "API key required",
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.Vote(context.Background(), "bitmart_1724900000", "555")
	if err == nil {
		t.Fatal("Vote() error = nil, want APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Vote() error = %T, want *APIError", err)
	}
	if apiErr.Code != "UNAUTHORIZED" {
		t.Errorf("APIError.Code = %s, want UNAUTHORIZED", apiErr.Code)
	}
}

func TestClient_Leaderboard(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/leaderboard" {
			t.Errorf("Expected path /api/v1/leaderboard, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("Expected limit=5, got %s", r.URL.Query().Get("limit"))
		}

		json.NewEncoder(w).Encode(map[string]any{
			"entries": []map[string]any{
				{"rank": 1, "project_id": "alpha_1", "name": "Alpha", "symbol": "ALP", "votes": 5},
				{"rank": 2, "project_id": "beta_2", "name": "Beta", "symbol": "BET", "votes": 2},
			},
			"count": 2,
		})
	}))
	defer server.Close()

	client := New(server.URL, "")
	entries, err := client.Leaderboard(context.Background(), 5)
	if err != nil {
		t.Fatalf("Leaderboard() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Leaderboard() returned %d entries, want 2", len(entries))
	}
	if entries[0].Rank != 1 || entries[0].Name != "Alpha" {
		t.Errorf("Leaderboard()[0] = %+v, want rank 1 Alpha", entries[0])
	}
}

func TestClient_ErrorParsing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{
				"code":    "NOT_FOUND",
				"message": "project not found",
			},
		})
	}))
	defer server.Close()

	client := New(server.URL, "")
	_, err := client.GetProject(context.Background(), "missing")
	if err == nil {
		t.Fatal("GetProject() error = nil, want *APIError")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("GetProject() error = %T, want *APIError", err)
	}
	if apiErr.Code != "NOT_FOUND" {
		t.Errorf("APIError.Code = %s, want NOT_FOUND", apiErr.Code)
	}
	if apiErr.Error() != "NOT_FOUND: project not found" {
		t.Errorf("APIError.Error() = %s", apiErr.Error())
	}
}
