package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"userapi/internal/models"
	"userapi/internal/repository"
	"userapi/internal/repository/db"
	"userapi/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "integration-secret"

// newSQLiteRouter wires the real repository and hasher over an in-memory database.
func newSQLiteRouter(t *testing.T, opts ...Option) (*gin.Engine, *sqlx.DB, service.Credentials) {
	t.Helper()
	services, conn, hasher := newSQLiteServices(t)
	return newTestRouter(services, opts...), conn, hasher
}

func newSQLiteServices(t *testing.T) (*service.Service, *sqlx.DB, service.Credentials) {
	t.Helper()

	conn, err := db.InitDB(context.Background(), db.Options{Driver: db.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	hasher, err := service.NewHasher(testSecret, service.HashParams{
		Algorithm:  service.AlgorithmArgon2id,
		Time:       1,
		MemoryKiB:  1024,
		Threads:    1,
		KeyLen:     32,
		SaltLen:    16,
		BcryptCost: bcrypt.MinCost,
		Workers:    2,
	})
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}

	return service.NewService(repository.NewRepository(conn), hasher), conn, hasher
}

func TestUsersAPI_Lifecycle(t *testing.T) {
	r, conn, hasher := newSQLiteRouter(t)

	// empty table lists as []
	w := do(r, http.MethodGet, "/users", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("initial list: status=%d body=%s", w.Code, w.Body.String())
	}

	// create
	w = do(r, http.MethodPost, "/users", `{"username":"alice","password":"p@ss"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, "p@ss") || strings.Contains(body, "password") || strings.Contains(body, "$argon2id$") {
		t.Fatalf("create response leaks credentials: %s", body)
	}
	var raw map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &raw)
	if len(raw) != 2 {
		t.Fatalf("expected exactly id and username, got %v", raw)
	}
	alice := decodeUser(t, w)
	if alice.Username != "alice" || alice.ID == 0 {
		t.Fatalf("unexpected created user: %+v", alice)
	}

	// stored value is a verifiable hash, never the plaintext
	var stored string
	if err := conn.Get(&stored, `SELECT password FROM users WHERE id = ?`, alice.ID); err != nil {
		t.Fatalf("read stored hash: %v", err)
	}
	if stored == "p@ss" {
		t.Fatalf("plaintext password persisted")
	}
	if ok, err := hasher.Verify(context.Background(), "p@ss", stored); err != nil || !ok {
		t.Fatalf("stored hash does not verify: %v, %v", ok, err)
	}

	// second create gets a fresh id
	w = do(r, http.MethodPost, "/users", `{"username":"dave","password":"x"}`)
	dave := decodeUser(t, w)
	if dave.ID == alice.ID {
		t.Fatalf("expected a new id, got %d twice", dave.ID)
	}

	// list length equals row count
	w = do(r, http.MethodGet, "/users", "")
	var list []models.UserPublic
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	var count int
	_ = conn.Get(&count, `SELECT COUNT(*) FROM users`)
	if len(list) != count || count != 2 {
		t.Fatalf("list has %d users, table has %d", len(list), count)
	}

	// get
	w = do(r, http.MethodGet, "/users/"+itoa(alice.ID), "")
	if w.Code != http.StatusOK || decodeUser(t, w) != alice {
		t.Fatalf("get: status=%d body=%s", w.Code, w.Body.String())
	}

	// update then read back
	w = do(r, http.MethodPut, "/users/"+itoa(alice.ID), `{"username":"bob"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status=%d body=%s", w.Code, w.Body.String())
	}
	if u := decodeUser(t, w); u.ID != alice.ID || u.Username != "bob" {
		t.Fatalf("unexpected updated user: %+v", u)
	}
	w = do(r, http.MethodGet, "/users/"+itoa(alice.ID), "")
	if decodeUser(t, w).Username != "bob" {
		t.Fatalf("update not visible on read: %s", w.Body.String())
	}

	// delete returns the pre-deletion projection
	w = do(r, http.MethodDelete, "/users/"+itoa(alice.ID), "")
	if w.Code != http.StatusOK || decodeUser(t, w) != (models.UserPublic{ID: alice.ID, Username: "bob"}) {
		t.Fatalf("delete: status=%d body=%s", w.Code, w.Body.String())
	}

	// deleted id is gone: flat model answers 500 with the store's text
	w = do(r, http.MethodGet, "/users/"+itoa(alice.ID), "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("get after delete: expected 500, got %d", w.Code)
	}
	if msg := decodeErrorString(t, w); !strings.Contains(msg, "no rows") {
		t.Fatalf("unexpected error body: %q", msg)
	}

	// deleting twice fails
	w = do(r, http.MethodDelete, "/users/"+itoa(alice.ID), "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("second delete: expected 500, got %d", w.Code)
	}
}

func TestUsersAPI_UnknownIDs(t *testing.T) {
	r, _, _ := newSQLiteRouter(t)
	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/users/404", ""},
		{http.MethodPut, "/users/404", `{"username":"x"}`},
		{http.MethodDelete, "/users/404", ""},
	} {
		if w := do(r, req.method, req.path, req.body); w.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d", req.method, req.path, w.Code)
		}
	}

	strict, _, _ := newSQLiteRouter(t, WithStrictErrors(true))
	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/users/404", ""},
		{http.MethodPut, "/users/404", `{"username":"x"}`},
		{http.MethodDelete, "/users/404", ""},
	} {
		if w := do(strict, req.method, req.path, req.body); w.Code != http.StatusNotFound {
			t.Fatalf("strict %s %s: expected 404, got %d", req.method, req.path, w.Code)
		}
	}
}

func TestUsersAPI_DuplicateUsername(t *testing.T) {
	r, _, _ := newSQLiteRouter(t, WithStrictErrors(true))

	if w := do(r, http.MethodPost, "/users", `{"username":"alice","password":"a"}`); w.Code != http.StatusCreated {
		t.Fatalf("first create: %d", w.Code)
	}
	w := do(r, http.MethodPost, "/users", `{"username":"alice","password":"b"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("duplicate: expected 500, got %d", w.Code)
	}
	if msg := decodeErrorString(t, w); strings.Contains(msg, "$argon2id$") {
		t.Fatalf("error body leaks hash: %q", msg)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
