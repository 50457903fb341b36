// Package provision invokes the external provisioning and management
// scripts. Every invocation goes through cmdrun, so each one carries a hard
// wall-clock budget; a script cannot hang the engine.
package provision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dchirkin/provcore/internal/config"
	"github.com/dchirkin/provcore/internal/metrics"
	"github.com/dchirkin/provcore/pkg/cmdrun"
)

var ErrUnknownProtocol = errors.New("unknown protocol")

// knownProtocols mirrors the provisioning script set shipped next to the
// engine: one provision_<proto> and one manage_<proto> executable each.
var knownProtocols = map[string]bool{
	"wg":     true,
	"awg":    true,
	"ovpn":   true,
	"socks5": true,
	"xray":   true,
	"trojan": true,
}

// ExitError reports a script that ran to completion and declared failure.
// This is a business failure: it is escalated with the captured output, not
// retried blindly and never swallowed.
type ExitError struct {
	Script string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Script, e.Code, e.Stderr)
}

// Credentials is the contract with provisioning scripts: on success they
// print one JSON object to stdout.
type Credentials struct {
	Host     string `json:"host"`
	Login    string `json:"login"`
	Password string `json:"password"`
	ServerID string `json:"server_id"`
}

type Runner struct {
	scriptsDir       string
	provisionTimeout time.Duration
	manageTimeout    time.Duration
}

func NewRunner(cfg config.ProvisionConfig) *Runner {
	return &Runner{
		scriptsDir:       cfg.ScriptsDir,
		provisionTimeout: cfg.ProvisionTimeout,
		manageTimeout:    cfg.ManageTimeout,
	}
}

// Provision rents and configures a server for the order. Budget is on the
// order of tens of minutes: the script waits for the hosting provider to
// bring the machine up.
func (r *Runner) Provision(ctx context.Context, protocol string, configCount, months int) (Credentials, error) {
	if !knownProtocols[protocol] {
		return Credentials{}, fmt.Errorf("%w: %s", ErrUnknownProtocol, protocol)
	}

	script := "provision_" + protocol
	res, err := r.run(ctx, script, r.provisionTimeout,
		"--configs-count", strconv.Itoa(configCount),
		"--months", strconv.Itoa(months),
	)
	if err != nil {
		return Credentials{}, err
	}

	var creds Credentials
	err = json.Unmarshal(res.Stdout, &creds)
	if err != nil {
		return Credentials{}, fmt.Errorf("parse %s output: %w", script, err)
	}
	if creds.Host == "" || creds.Password == "" {
		return Credentials{}, fmt.Errorf("%s returned incomplete credentials", script)
	}

	return creds, nil
}

// Manage runs a management mutation (restart, reissue, teardown, ...)
// against an already provisioned server. Budget is minutes.
func (r *Runner) Manage(ctx context.Context, protocol, action, host, login, password string) (string, error) {
	if !knownProtocols[protocol] {
		return "", fmt.Errorf("%w: %s", ErrUnknownProtocol, protocol)
	}

	script := "manage_" + protocol
	res, err := r.run(ctx, script, r.manageTimeout,
		"--action", action,
		"--host", host,
		"--login", login,
		"--password", password,
	)
	if err != nil {
		return "", err
	}

	return string(res.Stdout), nil
}

func (r *Runner) run(ctx context.Context, script string, timeout time.Duration, args ...string) (cmdrun.Result, error) {
	res, err := cmdrun.Run(ctx, cmdrun.Command{
		Path: filepath.Join(r.scriptsDir, script),
		Args: args,
	}, timeout)

	switch {
	case errors.Is(err, cmdrun.ErrTimedOut):
		metrics.ExternalRuns.WithLabelValues(script, "timeout").Inc()
		return res, fmt.Errorf("%s: %w", script, err)
	case err != nil:
		metrics.ExternalRuns.WithLabelValues(script, "error").Inc()
		return res, err
	case res.ExitCode != 0:
		metrics.ExternalRuns.WithLabelValues(script, "failed").Inc()
		return res, &ExitError{Script: script, Code: res.ExitCode, Stderr: string(res.Stderr)}
	}

	metrics.ExternalRuns.WithLabelValues(script, "ok").Inc()

	return res, nil
}
