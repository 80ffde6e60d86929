package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/five82/trailedit/internal/mode"
	"github.com/five82/trailedit/internal/state"
)

func TestSanitizeKVs_RedactsTokens(t *testing.T) {
	jwt := "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ1MSJ9.sig"
	got := sanitizeKVs([]interface{}{"token", "abc", "header", "Bearer " + jwt, "mode", "EDIT", "dangling"})
	want := []interface{}{"token", "[REDACTED]", "header", "[REDACTED]", "mode", "EDIT", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("sanitizeKVs len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sanitizeKVs[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "session.log")
	log, err := New("development", path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	log.Info("hello", "token", "secret-value")
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "hello") || strings.Contains(string(data), "secret-value") {
		t.Fatalf("log contents = %q", data)
	}
}

func TestActionObserver_LogsTransitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	log, err := New("development", path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	store := state.NewStore(ActionObserver(log))
	store.Dispatch(state.ModeRequested{Mode: mode.Edit})
	store.Dispatch(state.ModeRequested{Mode: mode.Edit})
	store.Dispatch(state.ErrorRaised{Failure: state.Failure{Category: state.CategorySave, Err: errors.New("boom")}})
	log.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	out := string(data)
	for _, want := range []string{"action applied", "action ignored", "action failed", "boom", "NORMAL"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log missing %q:\n%s", want, out)
		}
	}
}

func TestNew_EmptyPathIsNop(t *testing.T) {
	log, err := New("", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	log.Info("dropped")
}
