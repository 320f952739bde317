package reporter

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"path/filepath"
	"time"

	"github.com/ansiblereporter/ansiblereporter/pkg/common"
)

// TimeLayout is the fixed timestamp format the engine uses for the
// "start" and "end" payload fields.
const TimeLayout = "2006-01-02 15:04:05.000000"

// UnknownError is the sentinel message returned by ErrorMessage when the
// payload carries no "msg" field.
const UnknownError = "UNKNOWN ERROR"

// Status classifies one host result.
type Status string

// Result status values, in classification precedence order.
const (
	StatusOK           Status = "ok"
	StatusError        Status = "error"
	StatusFailed       Status = "failed"
	StatusFacts        Status = "facts"
	StatusPendingFacts Status = "pending_facts"
	StatusUnknown      Status = "unknown"
)

// ClassifierFunc is the extension point for classifying results that no
// built-in rule matches. Returning an empty status falls back to
// StatusUnknown.
type ClassifierFunc func(*Result) Status

// Result wraps one host's raw result payload for one executed action.
// The payload is merged in at construction and never mutated afterwards;
// derived properties are computed lazily and cached in explicit slots,
// never written back into the payload.
type Result struct {
	Host    string
	Address netip.Addr

	set     *ResultSet
	payload Payload

	cache resultCache
}

// resultCache holds memoized derived properties. A nil slot means the
// property has not been resolved yet.
type resultCache struct {
	status     *Status
	moduleName *string
	moduleArgs *string
	command    *string
	start      *time.Time
	end        *time.Time
}

// newResult constructs a Result owned by set. The host identifier is
// parsed as a network address when possible; hosts addressed by name
// simply have no Address.
func newResult(set *ResultSet, host string, payload Payload) *Result {
	result := &Result{
		Host:    host,
		set:     set,
		payload: payload.Copy(),
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		result.Address = addr
	}
	return result
}

func (r *Result) String() string {
	return fmt.Sprintf("%s %s", r.Host, r.Status())
}

// Payload returns the raw result payload. Callers must not mutate it.
func (r *Result) Payload() Payload {
	return r.payload
}

// ResultSet returns the set this result belongs to.
func (r *Result) ResultSet() *ResultSet {
	return r.set
}

// Category returns the outcome category of the owning set.
func (r *Result) Category() Category {
	if r.set == nil {
		return ""
	}
	return r.set.name
}

// ShowColors reports the display flag of the owning run.
func (r *Result) ShowColors() bool {
	return r.set != nil && r.set.list != nil && r.set.list.ShowColors
}

// Changed reports whether the action changed the host. Defaults to false
// when the payload carries no "changed" field.
func (r *Result) Changed() bool {
	return r.payload.getBool("changed")
}

// Returncode returns the command return code. An absent "rc" field
// yields 0; a non-numeric or out-of-range value coerces to 255.
func (r *Result) Returncode() int {
	value, present, numeric := r.payload.getInt("rc")
	if !present {
		return 0
	}
	if !numeric || value < 0 || value > 255 {
		return 255
	}
	return value
}

// ErrorMessage returns the engine's error message, or UnknownError when
// the payload carries no "msg" field.
func (r *Result) ErrorMessage() string {
	return r.payload.getString("msg", UnknownError)
}

// Stdout returns the captured standard output, empty if absent.
func (r *Result) Stdout() string {
	return r.payload.getString("stdout", "")
}

// Stderr returns the captured standard error, empty if absent.
func (r *Result) Stderr() string {
	return r.payload.getString("stderr", "")
}

// ModuleName returns the invoked module's name from the "invocation"
// sub-mapping, empty if absent.
func (r *Result) ModuleName() string {
	if r.cache.moduleName != nil {
		return *r.cache.moduleName
	}
	value := r.payload.getMap("invocation").getString("module_name", "")
	r.cache.moduleName = &value
	return value
}

// ModuleArgs returns the invoked module's arguments from the
// "invocation" sub-mapping, empty if absent.
func (r *Result) ModuleArgs() string {
	if r.cache.moduleArgs != nil {
		return *r.cache.moduleArgs
	}
	value := r.payload.getMap("invocation").getString("module_args", "")
	r.cache.moduleArgs = &value
	return value
}

// Command returns the executed command line for the command and shell
// modules, and the module name for everything else.
func (r *Result) Command() string {
	if r.cache.command != nil {
		return *r.cache.command
	}
	var value string
	switch r.ModuleName() {
	case "command", "shell":
		value = r.ModuleArgs()
	default:
		value = r.ModuleName()
	}
	r.cache.command = &value
	return value
}

// Start returns the parsed "start" timestamp. An absent field yields the
// zero time and no error; a present but malformed field is a ParseError.
func (r *Result) Start() (time.Time, error) {
	return r.timeField("start", &r.cache.start)
}

// End returns the parsed "end" timestamp with the same contract as Start.
func (r *Result) End() (time.Time, error) {
	return r.timeField("end", &r.cache.end)
}

// Delta returns the execution duration computed from the start and end
// timestamps. It is zero when either timestamp is absent.
func (r *Result) Delta() (time.Duration, error) {
	start, err := r.Start()
	if err != nil {
		return 0, err
	}
	end, err := r.End()
	if err != nil {
		return 0, err
	}
	if start.IsZero() || end.IsZero() {
		return 0, nil
	}
	return end.Sub(start), nil
}

func (r *Result) timeField(key string, slot **time.Time) (time.Time, error) {
	if *slot != nil {
		return **slot, nil
	}
	raw, ok := r.payload[key]
	if !ok {
		return time.Time{}, nil
	}
	text, ok := raw.(string)
	if !ok {
		return time.Time{}, &ParseError{Field: key, Value: fmt.Sprint(raw), Err: fmt.Errorf("expected timestamp string, got %T", raw)}
	}
	parsed, err := time.Parse(TimeLayout, text)
	if err != nil {
		return time.Time{}, &ParseError{Field: key, Value: text, Err: err}
	}
	*slot = &parsed
	return parsed, nil
}

// Facts returns the most recently gathered facts for this result's host
// from the owning set's cache, nil if none were gathered.
func (r *Result) Facts() Payload {
	if r.set == nil {
		return nil
	}
	return r.set.Facts(r.Host)
}

// Status classifies the result. The precedence is fixed: an explicit
// failure marker wins, then the return code, then the ping probe, then
// fact gathering, and finally the configured classifier hook.
func (r *Result) Status() Status {
	if r.cache.status != nil {
		return *r.cache.status
	}

	var status Status
	switch {
	case r.payload.has("failed"):
		status = StatusFailed

	case r.payload.has("rc"):
		if r.Returncode() == 0 {
			status = StatusOK
		} else {
			status = StatusError
		}

	case r.ModuleName() == "ping":
		if truthy(r.payload["ping"]) {
			status = StatusOK
		} else {
			status = StatusFailed
		}

	case r.ModuleName() == "setup":
		if len(r.payload.getMap("ansible_facts")) > 0 {
			status = StatusFacts
		} else {
			status = StatusPendingFacts
		}

	default:
		if classifier := r.classifier(); classifier != nil {
			status = classifier(r)
		}
		if status == "" {
			status = StatusUnknown
		}
	}

	r.cache.status = &status
	return status
}

// AnsibleStatus is the display-oriented transform of Status.
func (r *Result) AnsibleStatus() string {
	switch status := r.Status(); status {
	case StatusOK:
		return "success"
	case StatusFailed, StatusError:
		return "FAILED"
	default:
		return string(status)
	}
}

func (r *Result) classifier() ClassifierFunc {
	if r.set == nil || r.set.list == nil {
		return nil
	}
	return r.set.list.Classifier
}

// truthy reports whether an engine payload value counts as set: booleans
// by value, strings and numbers by being non-empty/non-zero.
func truthy(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}
	return value != nil
}

// MarshalJSON serializes the raw payload only; derived and cached
// properties never appear in the JSON form.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.payload == nil {
		return json.Marshal(Payload{})
	}
	return json.Marshal(r.payload)
}

// ToJSON renders the raw payload as an indented JSON document with
// stable key ordering.
func (r *Result) ToJSON(indent int) (string, error) {
	data, err := marshalIndented(r, indent)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Format renders the result through the given formatter.
func (r *Result) Format(formatter Formatter) string {
	return formatter(r)
}

// WriteToDirectory persists this result as <host>.<extension> under the
// given directory using the formatter.
func (r *Result) WriteToDirectory(directory string, formatter Formatter, extension string) error {
	if formatter == nil {
		return &ConfigurationError{Reason: "formatter callback must be set for directory output"}
	}
	filename := filepath.Join(directory, fmt.Sprintf("%s.%s", r.Host, extension))
	common.LogDebug("Writing result to file", map[string]interface{}{
		"host": r.Host,
		"path": filename,
	})
	return writeReportFile(filename, formatter(r)+"\n")
}

// less orders results by (category, address, host). Hosts with a parsed
// address order by address and precede name-only hosts; the host
// identifier breaks remaining ties.
func (r *Result) less(other *Result) bool {
	if r.Category() != other.Category() {
		return r.Category() < other.Category()
	}
	switch {
	case r.Address.IsValid() && other.Address.IsValid():
		if c := r.Address.Compare(other.Address); c != 0 {
			return c < 0
		}
	case r.Address.IsValid() != other.Address.IsValid():
		return r.Address.IsValid()
	}
	return r.Host < other.Host
}
