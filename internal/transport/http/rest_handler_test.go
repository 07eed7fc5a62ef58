package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

type apiClient struct {
	t    *testing.T
	base string
}

func (c apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.t.Fatalf("decode %s %s: %v", method, path, err)
	}
	return resp.StatusCode, out
}

func TestRESTDiagnosticFlow(t *testing.T) {
	server, _ := newTestServer(t)
	api := apiClient{t: t, base: server.URL}

	status, body := api.do(http.MethodGet, "/v1/quizzes", nil)
	if status != http.StatusOK {
		t.Fatalf("list quizzes: status %d", status)
	}
	if quizzes, _ := body["quizzes"].([]any); len(quizzes) != 5 {
		t.Fatalf("expected 5 quizzes, got %v", body["quizzes"])
	}

	status, body = api.do(http.MethodPost, "/v1/quizzes/rse/sessions", nil)
	if status != http.StatusCreated {
		t.Fatalf("begin: status %d", status)
	}
	id := body["id"].(string)
	sessionPath := "/v1/sessions/" + id

	if status, _ = api.do(http.MethodPost, sessionPath+"/answer", map[string]any{"value": 1}); status != http.StatusConflict {
		t.Fatalf("answer before intake: expected 409, got %d", status)
	}

	if status, _ = api.do(http.MethodPost, sessionPath+"/start", nil); status != http.StatusOK {
		t.Fatalf("start: status %d", status)
	}

	status, body = api.do(http.MethodPost, sessionPath+"/intake", map[string]any{"email": "nope"})
	if status != http.StatusUnprocessableEntity {
		t.Fatalf("invalid intake: expected 422, got %d", status)
	}
	fields := body["fields"].(map[string]any)
	if fields["email"] != "must be a valid email address" || fields["company"] != "required" {
		t.Fatalf("unexpected fields %v", fields)
	}

	status, body = api.do(http.MethodPost, sessionPath+"/intake", map[string]any{
		"firstName": "Camille",
		"lastName":  "Martin",
		"email":     "camille@example.com",
		"company":   "Acme",
		"sector":    "services",
		"size":      "50-249",
	})
	if status != http.StatusOK || body["state"] != "in_progress" {
		t.Fatalf("intake: status %d state %v", status, body["state"])
	}

	if status, _ = api.do(http.MethodGet, sessionPath+"/result", nil); status != http.StatusConflict {
		t.Fatalf("early result: expected 409, got %d", status)
	}

	if status, _ = api.do(http.MethodPost, sessionPath+"/answer", map[string]any{"value": 7}); status != http.StatusBadRequest {
		t.Fatalf("unknown option: expected 400, got %d", status)
	}
	if status, _ = api.do(http.MethodPost, sessionPath+"/answer", map[string]any{}); status != http.StatusBadRequest {
		t.Fatalf("missing value: expected 400, got %d", status)
	}

	count := int(body["questionCount"].(float64))
	for i := 0; i < count; i++ {
		if status, _ = api.do(http.MethodPost, sessionPath+"/answer", map[string]any{"value": 2}); status != http.StatusOK {
			t.Fatalf("answer %d: status %d", i, status)
		}
		if status, body = api.do(http.MethodPost, sessionPath+"/next", nil); status != http.StatusOK {
			t.Fatalf("next %d: status %d", i, status)
		}
	}
	if body["state"] != "completed" {
		t.Fatalf("expected completed, got %v", body["state"])
	}

	status, body = api.do(http.MethodGet, sessionPath+"/result", nil)
	if status != http.StatusOK {
		t.Fatalf("result: status %d", status)
	}
	if level := body["level"].(map[string]any)["id"]; level != "exemplarite" {
		t.Fatalf("unexpected level %v", level)
	}
	if body["percentage"] != float64(100) {
		t.Fatalf("unexpected percentage %v", body["percentage"])
	}
}

func TestRESTNotFound(t *testing.T) {
	server, _ := newTestServer(t)
	api := apiClient{t: t, base: server.URL}

	status, body := api.do(http.MethodGet, "/v1/quizzes/missing", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if msg, _ := body["error"].(string); !strings.Contains(msg, "quiz not found") {
		t.Fatalf("unexpected error %v", body["error"])
	}

	if status, _ = api.do(http.MethodGet, "/v1/sessions/missing", nil); status != http.StatusNotFound {
		t.Fatalf("expected 404 for session, got %d", status)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	server, _ := newTestServer(t)
	api := apiClient{t: t, base: server.URL}

	status, body := api.do(http.MethodGet, "/healthz", nil)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("healthz: status %d body %v", status, body)
	}

	if status, _ = api.do(http.MethodPost, "/v1/quizzes/daf-pme/sessions", nil); status != http.StatusCreated {
		t.Fatalf("begin: status %d", status)
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}

	text := string(raw)
	for _, want := range []string{
		`diagnostic_sessions_begun_total{quiz="daf-pme"} 1`,
		`route="/v1/quizzes/{quizId}/sessions"`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics missing %q:\n%s", want, text)
		}
	}
}
