package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ansiblereporter/ansiblereporter/pkg/reporter"
)

// fakeBinary writes a shell script standing in for the ansible binaries.
func fakeBinary(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ansible")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestExecEngineRun(t *testing.T) {
	// adHocArgs puts the tree directory in the fifth argument
	script := `tree=$5
printf '{"rc": 0, "stdout": "up 3 days"}' > "$tree/web1"
printf '{"unreachable": true, "msg": "timed out"}' > "$tree/web2"
`
	engine := &ExecEngine{Binary: fakeBinary(t, script)}
	raw, err := engine.Run(context.Background(), reporter.Options{Module: "command", ModuleArgs: "uptime"})
	require.NoError(t, err)

	require.Contains(t, raw.Contacted, "web1")
	assert.NotContains(t, raw.Contacted, "web2")
	require.Contains(t, raw.Dark, "web2")
	assert.Equal(t, "up 3 days", raw.Contacted["web1"]["stdout"])
}

func TestExecEngineNoHostsMatched(t *testing.T) {
	engine := &ExecEngine{Binary: fakeBinary(t, `echo "No hosts matched" >&2`)}
	_, err := engine.Run(context.Background(), reporter.Options{Module: "ping", Pattern: "nope*"})
	assert.ErrorIs(t, err, reporter.ErrNoHostsMatched)
}

func TestExecEngineFailureWithoutResults(t *testing.T) {
	engine := &ExecEngine{Binary: fakeBinary(t, `echo "ERROR! the playbook could not be found" >&2; exit 4`)}
	_, err := engine.Run(context.Background(), reporter.Options{Module: "ping"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "the playbook could not be found")
}

func TestExecEngineValidatesOptions(t *testing.T) {
	engine := &ExecEngine{Binary: "/nonexistent"}

	_, err := engine.Run(context.Background(), reporter.Options{})
	assert.ErrorContains(t, err, "no module name configured")

	_, err = engine.Run(context.Background(), reporter.Options{Module: "shell", ModuleArgs: `echo "unterminated`})
	assert.ErrorContains(t, err, "invalid module arguments")
}

type recordingListener struct {
	plays       []string
	tasks       []string
	contacted   map[string]reporter.Payload
	unreachable map[string]reporter.Payload
	failed      map[string]reporter.Payload
	skipped     []string
	noHosts     bool
}

func newRecordingListener() *recordingListener {
	return &recordingListener{
		contacted:   make(map[string]reporter.Payload),
		unreachable: make(map[string]reporter.Payload),
		failed:      make(map[string]reporter.Payload),
	}
}

func (l *recordingListener) OnContacted(host string, payload reporter.Payload) {
	l.contacted[host] = payload
}

func (l *recordingListener) OnUnreachable(host string, payload reporter.Payload) {
	l.unreachable[host] = payload
}

func (l *recordingListener) OnFailed(host string, payload reporter.Payload, ignoreErrors bool) {
	l.failed[host] = payload
}

func (l *recordingListener) OnSkipped(host string, item interface{}) {
	l.skipped = append(l.skipped, host)
}

func (l *recordingListener) OnTaskStart(name string) {
	l.tasks = append(l.tasks, name)
}

func (l *recordingListener) OnPlayStart(name string) {
	l.plays = append(l.plays, name)
}

func (l *recordingListener) OnNoHostsMatched() {
	l.noHosts = true
}

func TestPlaybookExecEngineRun(t *testing.T) {
	script := `cat <<'EOF'
{"plays": [{"play": {"name": "site"}, "tasks": [
  {"task": {"name": "install"}, "hosts": {
    "web1": {"rc": 0, "changed": true},
    "web2": {"failed": true, "msg": "broken"},
    "web3": {"unreachable": true},
    "web4": {"skipped": true}
  }}
]}]}
EOF`
	engine := &PlaybookExecEngine{Binary: fakeBinary(t, script)}
	listener := newRecordingListener()

	require.NoError(t, engine.Run(context.Background(), reporter.Options{Playbook: "site.yml"}, listener))

	assert.Equal(t, []string{"site"}, listener.plays)
	assert.Equal(t, []string{"install"}, listener.tasks)
	assert.Contains(t, listener.contacted, "web1")
	assert.Contains(t, listener.failed, "web2")
	assert.Contains(t, listener.unreachable, "web3")
	assert.Equal(t, []string{"web4"}, listener.skipped)
}

func TestPlaybookExecEngineNoHostsMatched(t *testing.T) {
	engine := &PlaybookExecEngine{Binary: fakeBinary(t, `echo "skipping: no hosts matched"`)}
	listener := newRecordingListener()

	require.NoError(t, engine.Run(context.Background(), reporter.Options{Playbook: "site.yml"}, listener))
	assert.True(t, listener.noHosts)
}

func TestPlaybookExecEngineBadReport(t *testing.T) {
	engine := &PlaybookExecEngine{Binary: fakeBinary(t, `echo "not json"; exit 2`)}
	listener := newRecordingListener()

	err := engine.Run(context.Background(), reporter.Options{Playbook: "site.yml"}, listener)
	assert.Error(t, err)
}

func TestPlaybookExecEngineRequiresPlaybook(t *testing.T) {
	engine := &PlaybookExecEngine{Binary: "/nonexistent"}
	err := engine.Run(context.Background(), reporter.Options{}, newRecordingListener())
	assert.ErrorContains(t, err, "no playbook configured")
}

func TestAdHocArgs(t *testing.T) {
	args := adHocArgs(reporter.Options{Module: "shell", ModuleArgs: "uptime"}, "/tmp/tree")
	assert.Equal(t, []string{"all", "-m", "shell", "--tree", "/tmp/tree", "-a", "uptime"}, args)

	args = adHocArgs(reporter.Options{Module: "ping", Pattern: "web*"}, "/tmp/tree")
	assert.Equal(t, []string{"web*", "-m", "ping", "--tree", "/tmp/tree"}, args)
}

func TestPlaybookArgs(t *testing.T) {
	args := playbookArgs(reporter.Options{Playbook: "site.yml", Pattern: "all"})
	assert.Equal(t, []string{"site.yml"}, args)

	args = playbookArgs(reporter.Options{Playbook: "site.yml", Pattern: "web*"})
	assert.Equal(t, []string{"site.yml", "--limit", "web*"}, args)
}

func TestCommonArgs(t *testing.T) {
	opts := reporter.Options{
		Inventory:      "/etc/ansible/hosts",
		Forks:          10,
		Timeout:        30 * time.Second,
		RemoteUser:     "deploy",
		PrivateKeyFile: "/home/deploy/.ssh/id_ed25519",
		Transport:      "ssh",
		Sudo:           true,
		SudoUser:       "root",
	}
	assert.Equal(t, []string{
		"-i", "/etc/ansible/hosts",
		"--forks", "10",
		"--timeout", "30",
		"-u", "deploy",
		"--private-key", "/home/deploy/.ssh/id_ed25519",
		"-c", "ssh",
		"--become", "--become-user", "root",
	}, commonArgs(opts))

	assert.Empty(t, commonArgs(reporter.Options{}))
}

func TestTruthyPayloadKey(t *testing.T) {
	assert.True(t, truthyPayloadKey(reporter.Payload{"skipped": true}, "skipped"))
	assert.True(t, truthyPayloadKey(reporter.Payload{"skipped": float64(1)}, "skipped"))
	assert.True(t, truthyPayloadKey(reporter.Payload{"skipped": "yes"}, "skipped"))
	assert.False(t, truthyPayloadKey(reporter.Payload{"skipped": false}, "skipped"))
	assert.False(t, truthyPayloadKey(reporter.Payload{"skipped": float64(0)}, "skipped"))
	assert.False(t, truthyPayloadKey(reporter.Payload{}, "skipped"))
}
