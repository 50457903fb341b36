package provision

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dchirkin/provcore/internal/config"
	"github.com/dchirkin/provcore/pkg/cmdrun"
)

// writeScript drops an executable fake provisioning script into dir.
func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()

	path := filepath.Join(dir, name)
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755)
	if err != nil {
		t.Fatalf("write script %s: %v", name, err)
	}
}

func newTestRunner(t *testing.T, provisionTimeout, manageTimeout time.Duration) (*Runner, string) {
	t.Helper()

	dir := t.TempDir()
	r := NewRunner(config.ProvisionConfig{
		ScriptsDir:       dir,
		ProvisionTimeout: provisionTimeout,
		ManageTimeout:    manageTimeout,
	})

	return r, dir
}

func TestRunner_Provision_ParsesCredentials(t *testing.T) {
	t.Parallel()

	r, dir := newTestRunner(t, 5*time.Second, 5*time.Second)
	writeScript(t, dir, "provision_wg",
		`echo '{"host":"203.0.113.7","login":"root","password":"pw","server_id":"41"}'`)

	creds, err := r.Provision(t.Context(), "wg", 5, 1)
	if err != nil {
		t.Fatalf("provision: %v", err)
	}

	if creds.Host != "203.0.113.7" || creds.Login != "root" || creds.Password != "pw" || creds.ServerID != "41" {
		t.Fatalf("credentials mismatch: %+v", creds)
	}
}

func TestRunner_Provision_NonZeroExitIsExitError(t *testing.T) {
	t.Parallel()

	r, dir := newTestRunner(t, 5*time.Second, 5*time.Second)
	writeScript(t, dir, "provision_wg", `echo "no capacity in dc" >&2; exit 2`)

	_, err := r.Provision(t.Context(), "wg", 5, 1)

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("want ExitError, got %v", err)
	}
	if exitErr.Code != 2 {
		t.Fatalf("exit code: want 2, got %d", exitErr.Code)
	}
	if exitErr.Stderr == "" {
		t.Fatal("stderr not captured for escalation")
	}
}

func TestRunner_Provision_TimeoutClassified(t *testing.T) {
	t.Parallel()

	r, dir := newTestRunner(t, 200*time.Millisecond, 5*time.Second)
	writeScript(t, dir, "provision_wg", `sleep 30`)

	_, err := r.Provision(t.Context(), "wg", 5, 1)
	if !errors.Is(err, cmdrun.ErrTimedOut) {
		t.Fatalf("want ErrTimedOut, got %v", err)
	}
}

func TestRunner_UnknownProtocolRejected(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t, time.Second, time.Second)

	_, err := r.Provision(t.Context(), "pptp", 1, 1)
	if !errors.Is(err, ErrUnknownProtocol) {
		t.Fatalf("want ErrUnknownProtocol, got %v", err)
	}

	_, err = r.Manage(t.Context(), "pptp", "restart", "h", "l", "p")
	if !errors.Is(err, ErrUnknownProtocol) {
		t.Fatalf("want ErrUnknownProtocol, got %v", err)
	}
}

func TestRunner_Manage_ReturnsOutput(t *testing.T) {
	t.Parallel()

	r, dir := newTestRunner(t, 5*time.Second, 5*time.Second)
	writeScript(t, dir, "manage_xray", `echo "restarted"`)

	out, err := r.Manage(t.Context(), "xray", "restart", "203.0.113.7", "root", "pw")
	if err != nil {
		t.Fatalf("manage: %v", err)
	}
	if out != "restarted\n" {
		t.Fatalf("output: %q", out)
	}
}
