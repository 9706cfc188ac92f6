// Minimal end-to-end integration test for the GrantDesk API. Needs a
// running API plus a PUBLISHED call and an admin account; ids come in
// via environment.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
)

var (
	baseURL    = getenv("API_URL", "http://localhost:8080/v1")
	callID     = getenv("CALL_ID", "")
	adminEmail = getenv("ADMIN_EMAIL", "admin@grantdesk.local")
	adminPass  = getenv("ADMIN_PASSWORD", "admin-password")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	if callID == "" {
		log.Fatal("CALL_ID must point at a PUBLISHED call")
	}

	email := fmt.Sprintf("smoke-%s@grantdesk.local", uuid.NewString()[:8])
	register(email)
	researcher := login(email, "smoke-password-1")
	admin := login(adminEmail, adminPass)

	docRef := "/v1/documents/" + uuid.NewString() + ".pdf"
	id := createProposal(researcher, docRef)

	transition(researcher, id, "DRAFT", "SUBMITTED", nil, http.StatusOK)
	transition(admin, id, "SUBMITTED", "UNDER_REVIEW", nil, http.StatusOK)
	transition(admin, id, "UNDER_REVIEW", "REVISIONS_REQUESTED",
		map[string]any{"revisionRequirements": "add methodology section"}, http.StatusOK)

	submitRevision(researcher, id)
	checkRevisions(researcher, id)

	transition(admin, id, "UNDER_REVIEW", "ACCEPTED", nil, http.StatusOK)

	// Terminal: no further transitions.
	transition(admin, id, "ACCEPTED", "UNDER_REVIEW", nil, http.StatusUnprocessableEntity)

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- auth

func register(email string) {
	doJSON("POST", "/auth/register", map[string]any{
		"fullName": "Smoke Tester",
		"email":    email,
		"password": "smoke-password-1",
	}, nil, http.StatusCreated)
}

func login(email, password string) string {
	var resp struct{ Token string }
	doJSON("POST", "/auth/login", map[string]any{
		"email":    email,
		"password": password,
	}, &resp, http.StatusOK)
	if resp.Token == "" {
		log.Fatal("login: empty token")
	}
	return resp.Token
}

// ----------------------------- proposals

func createProposal(tok, docRef string) string {
	var resp struct{ ID string }
	doAuth(tok, "POST", "/proposals", map[string]any{
		"callId":      callID,
		"title":       "integration-test " + uuid.NewString()[:8],
		"abstract":    "smoke-test abstract",
		"budget":      10000,
		"documentRef": docRef,
	}, &resp, http.StatusCreated)
	if resp.ID == "" {
		log.Fatal("proposals: empty id")
	}
	return resp.ID
}

func transition(tok, id, from, to string, extra map[string]any, want int) {
	body := map[string]any{"from": from, "to": to}
	for k, v := range extra {
		body[k] = v
	}
	doAuth(tok, "POST", "/proposals/"+id+"/transition", body, nil, want)
}

func submitRevision(tok, id string) {
	doAuth(tok, "POST", "/proposals/"+id+"/revisions", map[string]any{
		"changes": "added methodology",
	}, nil, http.StatusCreated)
}

func checkRevisions(tok, id string) {
	var recs []struct{ ID string }
	doAuth(tok, "GET", "/proposals/"+id+"/revisions", nil, &recs, http.StatusOK)
	if len(recs) != 1 {
		log.Fatalf("revisions: want 1 got %d", len(recs))
	}
}

// ----------------------------- helpers

func doAuth(token, method, path string, body, out any, want int) {
	doReq(method, path, token, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, token string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
