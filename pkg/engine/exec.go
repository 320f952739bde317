// Package engine provides concrete Engine implementations that drive
// the ansible and ansible-playbook command line tools as the external
// execution engine. The reporter core only depends on the Engine
// contracts; these adapters exist so the CLI is runnable end to end.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/ansiblereporter/ansiblereporter/pkg/common"
	"github.com/ansiblereporter/ansiblereporter/pkg/reporter"
)

// ExecEngine runs a single module invocation through the ansible binary,
// collecting per-host payloads from its tree output directory.
type ExecEngine struct {
	// Binary overrides the ansible executable path.
	Binary string
}

func (e *ExecEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "ansible"
}

// Run invokes ansible once and returns the raw per-host results.
// Unreachable hosts are routed to the dark category.
func (e *ExecEngine) Run(ctx context.Context, opts reporter.Options) (reporter.RawResults, error) {
	raw := reporter.RawResults{
		Contacted: make(map[string]reporter.Payload),
		Dark:      make(map[string]reporter.Payload),
	}

	if opts.Module == "" {
		return raw, fmt.Errorf("no module name configured")
	}
	if opts.ModuleArgs != "" {
		if _, err := shlex.Split(opts.ModuleArgs); err != nil {
			return raw, fmt.Errorf("invalid module arguments %q: %w", opts.ModuleArgs, err)
		}
	}

	treeDir, err := os.MkdirTemp("", "reporter-tree-")
	if err != nil {
		return raw, fmt.Errorf("failed to create result directory: %w", err)
	}
	defer os.RemoveAll(treeDir)

	args := adHocArgs(opts, treeDir)
	common.LogDebug("Invoking engine", map[string]interface{}{
		"binary": e.binary(),
		"args":   strings.Join(args, " "),
	})

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	if noHostsMatched(stdout.String() + stderr.String()) {
		return raw, reporter.ErrNoHostsMatched
	}

	entries, err := os.ReadDir(treeDir)
	if err != nil {
		return raw, fmt.Errorf("failed to read result directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		host := entry.Name()
		data, err := os.ReadFile(filepath.Join(treeDir, host))
		if err != nil {
			return raw, fmt.Errorf("failed to read result for host %s: %w", host, err)
		}
		var payload reporter.Payload
		if err := json.Unmarshal(data, &payload); err != nil {
			return raw, fmt.Errorf("failed to parse result for host %s: %w", host, err)
		}
		if truthyPayloadKey(payload, "unreachable") {
			raw.Dark[host] = payload
		} else {
			raw.Contacted[host] = payload
		}
	}

	// Non-zero exit with per-host results just means some hosts failed;
	// the results themselves carry that.
	if runErr != nil && len(raw.Contacted) == 0 && len(raw.Dark) == 0 {
		return raw, fmt.Errorf("%w: %s", runErr, strings.TrimSpace(stderr.String()))
	}
	return raw, nil
}

func adHocArgs(opts reporter.Options, treeDir string) []string {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = "all"
	}
	args := []string{pattern, "-m", opts.Module, "--tree", treeDir}
	if opts.ModuleArgs != "" {
		args = append(args, "-a", opts.ModuleArgs)
	}
	args = append(args, commonArgs(opts)...)
	return args
}

// PlaybookExecEngine runs a playbook through the ansible-playbook binary
// with the JSON stdout callback and replays its report as listener
// notifications.
type PlaybookExecEngine struct {
	// Binary overrides the ansible-playbook executable path.
	Binary string
}

func (e *PlaybookExecEngine) binary() string {
	if e.Binary != "" {
		return e.Binary
	}
	return "ansible-playbook"
}

// playbookReport is the shape of the JSON stdout callback document.
type playbookReport struct {
	Plays []struct {
		Play struct {
			Name string `json:"name"`
		} `json:"play"`
		Tasks []struct {
			Task struct {
				Name string `json:"name"`
			} `json:"task"`
			Hosts map[string]reporter.Payload `json:"hosts"`
		} `json:"tasks"`
	} `json:"plays"`
}

// Run invokes ansible-playbook and forwards each per-host task result to
// the listener in play order.
func (e *PlaybookExecEngine) Run(ctx context.Context, opts reporter.Options, listener reporter.EventListener) error {
	if opts.Playbook == "" {
		return fmt.Errorf("no playbook configured")
	}

	args := playbookArgs(opts)
	common.LogDebug("Invoking engine", map[string]interface{}{
		"binary": e.binary(),
		"args":   strings.Join(args, " "),
	})

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary(), args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.Env = append(os.Environ(), "ANSIBLE_STDOUT_CALLBACK=json")
	runErr := cmd.Run()

	if noHostsMatched(stdout.String() + stderr.String()) {
		listener.OnNoHostsMatched()
		return nil
	}

	var report playbookReport
	if err := json.Unmarshal(stdout.Bytes(), &report); err != nil {
		if runErr != nil {
			return fmt.Errorf("%w: %s", runErr, strings.TrimSpace(stderr.String()))
		}
		return fmt.Errorf("failed to parse playbook report: %w", err)
	}

	for _, play := range report.Plays {
		listener.OnPlayStart(play.Play.Name)
		for _, task := range play.Tasks {
			listener.OnTaskStart(task.Task.Name)
			for host, payload := range task.Hosts {
				switch {
				case truthyPayloadKey(payload, "skipped"):
					listener.OnSkipped(host, nil)
				case truthyPayloadKey(payload, "unreachable"):
					listener.OnUnreachable(host, payload)
				case truthyPayloadKey(payload, "failed"):
					listener.OnFailed(host, payload, false)
				default:
					listener.OnContacted(host, payload)
				}
			}
		}
	}

	// Task failures surface through the per-host payloads; only a run
	// that produced no report at all is an engine failure.
	return nil
}

func playbookArgs(opts reporter.Options) []string {
	args := []string{opts.Playbook}
	if opts.Pattern != "" && opts.Pattern != "all" {
		args = append(args, "--limit", opts.Pattern)
	}
	return append(args, commonArgs(opts)...)
}

func commonArgs(opts reporter.Options) []string {
	var args []string
	if opts.Inventory != "" {
		args = append(args, "-i", opts.Inventory)
	}
	if opts.Forks > 0 {
		args = append(args, "--forks", strconv.Itoa(opts.Forks))
	}
	if opts.Timeout > 0 {
		args = append(args, "--timeout", strconv.Itoa(int(opts.Timeout.Seconds())))
	}
	if opts.RemoteUser != "" {
		args = append(args, "-u", opts.RemoteUser)
	}
	if opts.PrivateKeyFile != "" {
		args = append(args, "--private-key", opts.PrivateKeyFile)
	}
	if opts.Transport != "" {
		args = append(args, "-c", opts.Transport)
	}
	if opts.Sudo {
		args = append(args, "--become")
		if opts.SudoUser != "" {
			args = append(args, "--become-user", opts.SudoUser)
		}
	}
	return args
}

func noHostsMatched(output string) bool {
	return strings.Contains(output, "No hosts matched") ||
		strings.Contains(output, "no hosts matched")
}

func truthyPayloadKey(payload reporter.Payload, key string) bool {
	switch v := payload[key].(type) {
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	}
	return false
}
