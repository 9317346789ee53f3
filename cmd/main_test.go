package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"userapi/internal/config"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestServe_FailsFastWithoutSecret(t *testing.T) {
	t.Setenv("HASH_SECRET", "")
	for _, args := range [][]string{{}, {"serve"}, {"hash"}} {
		_, err := execute(t, "", args...)
		if !errors.Is(err, config.ErrMissingHashSecret) {
			t.Fatalf("%v: expected ErrMissingHashSecret, got %v", args, err)
		}
	}
}

func TestMigrate_RunsWithoutSecret(t *testing.T) {
	t.Setenv("HASH_SECRET", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "users.db"))

	if _, err := execute(t, "", "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
}

func TestHashCommand(t *testing.T) {
	t.Setenv("HASH_SECRET", "cli-secret")
	t.Setenv("HASH_TIME", "1")
	t.Setenv("HASH_MEMORY_KIB", "1024")
	t.Setenv("HASH_THREADS", "1")

	out, err := execute(t, "p@ss\n", "hash")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	encoded := strings.TrimSpace(out)
	if !strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected output: %q", out)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	h, err := newHasher(cfg)
	if err != nil {
		t.Fatalf("newHasher: %v", err)
	}
	if ok, err := h.Verify(context.Background(), "p@ss", encoded); err != nil || !ok {
		t.Fatalf("printed hash does not verify: %v, %v", ok, err)
	}
}

func TestHashCommand_EmptyStdin(t *testing.T) {
	t.Setenv("HASH_SECRET", "cli-secret")
	if _, err := execute(t, "", "hash"); err == nil {
		t.Fatalf("expected error for empty stdin")
	}
}
