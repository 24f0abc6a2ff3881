package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/erpkernel/internal/domain/mutation"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOG_MODE", "test")
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cli.db"))
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("JWT_SECRET_KEY", "cli-secret")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("POLICY_FILE", "")
	t.Setenv("ERPKERNEL_TOKEN", "")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"migrate", "token", "mutate", "read", "list", "serve"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub == nil || sub.Name() != name {
			t.Fatalf("command %q missing: %v", name, err)
		}
	}
	if f := cmd.PersistentFlags().Lookup("format"); f == nil || f.DefValue != "text" {
		t.Fatalf("format flag: %+v", f)
	}
}

func TestMutateReadListFlow(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate")
	tok := strings.TrimSpace(mustRun(t, "token", "--sub", "user-1", "--org", "org-a", "--role", "admin"))

	var created mutation.Receipt
	out := mustRun(t, "mutate", "contacts.create", "--token", tok, "--format", "json",
		"--input", `{"name":"Ada","email":"ada@example.com"}`, "--idempotency-key", "k1")
	if err := json.Unmarshal([]byte(out), &created); err != nil {
		t.Fatalf("decode receipt: %v\n%s", err, out)
	}
	if !created.Applied() || created.Entity.Version() != 1 {
		t.Fatalf("create receipt: %+v", created)
	}
	id := created.Entity.ID()

	var replayed mutation.Receipt
	out = mustRun(t, "mutate", "contacts.create", "--token", tok, "--format", "json",
		"--input", `{"name":"Ada","email":"ada@example.com"}`, "--idempotency-key", "k1")
	if err := json.Unmarshal([]byte(out), &replayed); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if !replayed.Replay || replayed.Entity.ID() != id {
		t.Fatalf("replay receipt: %+v", replayed)
	}

	out = mustRun(t, "mutate", "contacts.update", "--token", tok, "--id", id, "--version", "1", "--input", `{"name":"Ada L."}`)
	if !strings.Contains(out, "applied "+id+" version 2") || !strings.Contains(out, "replace /name Ada L.") {
		t.Fatalf("update output:\n%s", out)
	}

	out, err := run(t, "mutate", "contacts.update", "--token", tok, "--id", id, "--version", "1", "--input", `{"name":"stale"}`)
	if GetExitCode(err) != ExitRejected || !strings.Contains(out, "rejected CONFLICT_VERSION") || !strings.Contains(out, "current version 2") {
		t.Fatalf("stale update: code=%d out=\n%s", GetExitCode(err), out)
	}

	out = mustRun(t, "read", "contacts", id, "--token", tok)
	if !strings.Contains(out, "name: Ada L.") || !strings.Contains(out, "version: 2") {
		t.Fatalf("read output:\n%s", out)
	}

	out = mustRun(t, "list", "contacts", "--token", tok, "--where", "name=Ada L.")
	if !strings.Contains(out, id+" v2 Ada L.") {
		t.Fatalf("list output:\n%s", out)
	}

	if _, err := run(t, "read", "contacts", "missing", "--token", tok); GetExitCode(err) != ExitRejected {
		t.Fatalf("read missing: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	setupEnv(t)
	mustRun(t, "migrate")

	if _, err := run(t, "mutate", "contacts.create", "--input", `{"name":"Ada"}`); GetExitCode(err) != ExitCommandError {
		t.Fatalf("missing token: %v", err)
	}
	if _, err := run(t, "mutate", "contacts.create", "--token", "bogus", "--input", `{"name":"Ada"}`); GetExitCode(err) != ExitCommandError {
		t.Fatalf("bad token: %v", err)
	}
	if _, err := run(t, "mutate", "contacts.create", "--token", "x", "--input", `{not json`); GetExitCode(err) != ExitCommandError {
		t.Fatalf("bad input: %v", err)
	}
	if _, err := run(t, "list", "contacts", "--format", "yaml"); GetExitCode(err) != ExitCommandError {
		t.Fatalf("bad format: %v", err)
	}
	if _, err := run(t, "list", "contacts", "--where", "novalue"); GetExitCode(err) != ExitCommandError {
		t.Fatalf("bad where: %v", err)
	}
}

func TestParseFilterValue(t *testing.T) {
	cases := []struct {
		raw  string
		want any
	}{
		{"sent", "sent"},
		{"100", json.Number("100")},
		{"9007199254740993", json.Number("9007199254740993")},
		{"true", true},
		{"null", nil},
		{`"100"`, "100"},
		{"555-0100", "555-0100"},
	}
	for _, tc := range cases {
		if got := parseFilterValue(tc.raw); got != tc.want {
			t.Fatalf("parseFilterValue(%q): want=%#v got=%#v", tc.raw, tc.want, got)
		}
	}
}
