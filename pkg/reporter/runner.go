package reporter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ansiblereporter/ansiblereporter/pkg/common"
)

// Options is the configuration bundle shared by both runner variants:
// what to run, which hosts to target, how to authenticate and escalate,
// and the display flags the report output honors.
type Options struct {
	// Module and ModuleArgs identify the action for a single-command
	// run; Playbook identifies the plan for a playbook run.
	Module     string
	ModuleArgs string
	Playbook   string

	Pattern   string
	Inventory string

	Forks      int
	Timeout    time.Duration
	RemotePort int
	Transport  string

	RemoteUser     string
	RemotePass     string
	PrivateKeyFile string
	Sudo           bool
	SudoUser       string
	SudoPass       string

	ShowColors bool
	ShowFacts  bool
}

// Engine is the external execution engine contract for single-command
// runs: connect to the matched hosts, run the module once, and return
// the raw per-host results mapping.
type Engine interface {
	Run(ctx context.Context, opts Options) (RawResults, error)
}

// PlaybookEngine is the external engine contract for multi-task runs.
// The engine reports progressively through the listener rather than
// returning a single payload.
type PlaybookEngine interface {
	Run(ctx context.Context, opts Options, listener EventListener) error
}

// Runner invokes the engine once for a single module and structures its
// raw output.
type Runner struct {
	engine Engine
	opts   Options
}

// NewRunner creates a single-command runner around the given engine.
func NewRunner(engine Engine, opts Options) *Runner {
	return &Runner{engine: engine, opts: opts}
}

// Run executes the module across the matched hosts and returns the
// sorted aggregate. Engine failures are reported as EngineError.
func (r *Runner) Run(ctx context.Context) (*RunnerResults, error) {
	started := time.Now()
	runID := uuid.NewString()
	common.LogInfo("Starting module run", map[string]interface{}{
		"run_id":  runID,
		"module":  r.opts.Module,
		"args":    r.opts.ModuleArgs,
		"pattern": r.opts.Pattern,
	})

	raw, err := r.engine.Run(ctx, r.opts)
	observeRun("module", started, err)
	if err != nil {
		if errors.Is(err, ErrNoHostsMatched) {
			return nil, err
		}
		return nil, &EngineError{Err: err}
	}

	results := NewRunnerResults(raw, r.opts.ShowColors)
	results.Sort()
	common.LogInfo("Module run finished", map[string]interface{}{
		"run_id":    runID,
		"contacted": results.Contacted.Len(),
		"dark":      results.Dark.Len(),
	})
	return results, nil
}

// PlaybookRunner invokes the engine for a playbook and collects the
// progressively reported per-host results.
type PlaybookRunner struct {
	engine PlaybookEngine
	opts   Options
}

// NewPlaybookRunner creates a playbook runner around the given engine.
func NewPlaybookRunner(engine PlaybookEngine, opts Options) *PlaybookRunner {
	return &PlaybookRunner{engine: engine, opts: opts}
}

// Run executes the playbook and returns the sorted aggregate. The
// aggregate and its collector exist before the engine is invoked, since
// results arrive through callbacks during the run. Engine failures are
// reported as EngineError; a run that matched no hosts is
// ErrNoHostsMatched.
func (r *PlaybookRunner) Run(ctx context.Context) (*PlaybookResults, error) {
	started := time.Now()
	runID := uuid.NewString()
	common.LogInfo("Starting playbook run", map[string]interface{}{
		"run_id":   runID,
		"playbook": r.opts.Playbook,
		"pattern":  r.opts.Pattern,
	})

	results := NewPlaybookResults(r.opts.ShowColors, r.opts.ShowFacts)
	collector := NewCollector(results)

	err := r.engine.Run(ctx, r.opts, collector)
	fatal := collector.Close()
	observeRun("playbook", started, err)

	if fatal != nil {
		return nil, fatal
	}
	if err != nil {
		if errors.Is(err, ErrNoHostsMatched) {
			return nil, err
		}
		return nil, &EngineError{Err: err}
	}

	results.Sort()
	common.LogInfo("Playbook run finished", map[string]interface{}{
		"run_id":    runID,
		"contacted": results.Contacted.Len(),
		"dark":      results.Dark.Len(),
	})
	return results, nil
}
