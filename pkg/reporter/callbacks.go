package reporter

import (
	"github.com/ansiblereporter/ansiblereporter/pkg/common"
)

// EventListener is the narrow notification interface the playbook engine
// invokes while a run is in progress. The engine delivers notifications
// one at a time; implementations do not need to handle overlapping
// calls, but may be invoked from a different goroutine or process proxy
// than the one that started the run.
type EventListener interface {
	// OnContacted reports one host result for a reachable host.
	OnContacted(host string, payload Payload)
	// OnUnreachable reports a host that could not be reached.
	OnUnreachable(host string, payload Payload)
	// OnFailed reports a failed task result for a reachable host.
	OnFailed(host string, payload Payload, ignoreErrors bool)
	// OnSkipped reports a skipped task. Diagnostic only.
	OnSkipped(host string, item interface{})
	// OnTaskStart reports the start of a playbook task. Diagnostic only.
	OnTaskStart(name string)
	// OnPlayStart reports the start of a play. Diagnostic only.
	OnPlayStart(name string)
	// OnNoHostsMatched reports that the host pattern selected no hosts.
	// This is fatal for the run.
	OnNoHostsMatched()
}

// collectorQueueSize bounds the event queue between the engine's
// execution workers and the aggregate consumer.
const collectorQueueSize = 64

type eventKind int

const (
	eventContacted eventKind = iota
	eventUnreachable
	eventFailed
	eventSkipped
)

type collectorEvent struct {
	kind    eventKind
	host    string
	payload Payload
	ignored bool
}

// Collector bridges engine notifications into a shared PlaybookResults.
// Events are passed over a queue to a single consumer goroutine that
// performs all appends and statistics updates, so engine workers never
// mutate the aggregate directly. Close must be called after the engine
// run finishes and before the results are read.
type Collector struct {
	results *PlaybookResults
	events  chan collectorEvent
	done    chan struct{}
	fatal   error
}

// NewCollector starts a collector feeding the given aggregate.
func NewCollector(results *PlaybookResults) *Collector {
	c := &Collector{
		results: results,
		events:  make(chan collectorEvent, collectorQueueSize),
		done:    make(chan struct{}),
	}
	go c.consume()
	return c
}

func (c *Collector) consume() {
	defer close(c.done)
	stats := c.results.Stats
	for event := range c.events {
		switch event.kind {
		case eventContacted:
			c.results.Compute(RawResults{Contacted: map[string]Payload{event.host: event.payload}})
			if event.payload.getBool("changed") {
				stats.increment(stats.Changed, event.host)
			} else {
				stats.increment(stats.OK, event.host)
			}
		case eventFailed:
			c.results.Compute(RawResults{Contacted: map[string]Payload{event.host: event.payload}})
			if !event.ignored {
				stats.increment(stats.Failures, event.host)
			}
		case eventUnreachable:
			c.results.Compute(RawResults{Dark: map[string]Payload{event.host: event.payload}})
			stats.increment(stats.Dark, event.host)
		case eventSkipped:
			stats.increment(stats.Skipped, event.host)
		}
	}
}

// OnContacted routes a reachable host's result into the contacted set.
func (c *Collector) OnContacted(host string, payload Payload) {
	common.LogDebug("Host contacted", map[string]interface{}{"host": host})
	c.events <- collectorEvent{kind: eventContacted, host: host, payload: payload}
}

// OnUnreachable routes an unreachable host's result into the dark set.
func (c *Collector) OnUnreachable(host string, payload Payload) {
	common.LogDebug("Host unreachable", map[string]interface{}{"host": host})
	c.events <- collectorEvent{kind: eventUnreachable, host: host, payload: payload}
}

// OnFailed routes a failed task result into the contacted set: the host
// was reachable, the task failed.
func (c *Collector) OnFailed(host string, payload Payload, ignoreErrors bool) {
	common.LogDebug("Host task failed", map[string]interface{}{"host": host, "ignore_errors": ignoreErrors})
	c.events <- collectorEvent{kind: eventFailed, host: host, payload: payload, ignored: ignoreErrors}
}

// OnSkipped records the skip in the run statistics only.
func (c *Collector) OnSkipped(host string, item interface{}) {
	common.LogDebug("Host task skipped", map[string]interface{}{"host": host, "item": item})
	c.events <- collectorEvent{kind: eventSkipped, host: host}
}

// OnTaskStart is diagnostic only.
func (c *Collector) OnTaskStart(name string) {
	common.LogDebug("Starting task", map[string]interface{}{"task": name})
}

// OnPlayStart is diagnostic only.
func (c *Collector) OnPlayStart(name string) {
	common.LogDebug("Starting play", map[string]interface{}{"play": name})
}

// OnNoHostsMatched marks the run as fatally failed; Close surfaces the
// error to the caller.
func (c *Collector) OnNoHostsMatched() {
	common.LogError("No hosts matched the host pattern", map[string]interface{}{})
	c.fatal = ErrNoHostsMatched
}

// Close drains the event queue, stops the consumer and returns the fatal
// error if the run matched no hosts. The aggregate must not be read
// before Close returns.
func (c *Collector) Close() error {
	close(c.events)
	<-c.done
	return c.fatal
}
