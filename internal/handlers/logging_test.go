package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"userapi/internal/logger"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestUsersAPI_LogsNoCredentials(t *testing.T) {
	const password = "s3cr3t-plaintext"

	services, _, _ := newSQLiteServices(t)
	core, logs := observer.New(zapcore.DebugLevel)
	r := newLoggedTestRouter(services, logger.NewWithCore(core))

	body := fmt.Sprintf(`{"username":"carol","password":%q}`, password)
	if w := do(r, http.MethodPost, "/users", body); w.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodPost, "/users", body); w.Code != http.StatusInternalServerError {
		t.Fatalf("duplicate create: status=%d body=%s", w.Code, w.Body.String())
	}
	if w := do(r, http.MethodPost, "/users", `{"username":"dave","password":`+password+`}`); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed create: status=%d body=%s", w.Code, w.Body.String())
	}

	entries := logs.AllUntimed()
	for _, want := range []string{"user_create_failed", "bad_request_body"} {
		if logs.FilterMessage(want).Len() != 1 {
			t.Fatalf("expected one %q entry, got %d", want, logs.FilterMessage(want).Len())
		}
	}
	for _, e := range entries {
		text := e.Message + " " + fmt.Sprint(e.ContextMap())
		if strings.Contains(text, password) || strings.Contains(text, "$argon2id$") {
			t.Fatalf("log entry %q leaks credentials: %s", e.Message, text)
		}
	}

	access := logs.FilterMessage("http_request").AllUntimed()
	if len(access) != 3 {
		t.Fatalf("expected 3 access log entries, got %d", len(access))
	}
	for _, e := range access {
		if rid, _ := e.ContextMap()["request_id"].(string); rid == "" {
			t.Fatalf("access log without request_id: %v", e.ContextMap())
		}
	}
}
