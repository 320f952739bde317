package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunnerResultsEndToEnd(t *testing.T) {
	raw := RawResults{
		Contacted: map[string]Payload{
			"web1": {
				"rc":         float64(0),
				"invocation": map[string]interface{}{"module_name": "command", "module_args": "uptime"},
				"stdout":     "up 3 days",
			},
		},
		Dark: map[string]Payload{
			"web2": {},
		},
	}

	results := NewRunnerResults(raw, false)
	results.Sort()

	require.Equal(t, 1, results.Contacted.Len())
	contacted := results.Contacted.Results()[0]
	assert.Equal(t, StatusOK, contacted.Status())
	assert.Equal(t, "uptime", contacted.Command())
	assert.Equal(t, "up 3 days", contacted.Stdout())

	require.Equal(t, 1, results.Dark.Len())
	dark := results.Dark.Results()[0]
	assert.Equal(t, "web2", dark.Host)
	assert.Equal(t, StatusUnknown, dark.Status())
}

func TestResultListToJSONKeyOrder(t *testing.T) {
	list := NewResultList(false, true)
	list.Contacted.Append("web1", Payload{"rc": float64(0)})
	list.Dark.Append("web2", Payload{})

	document, err := list.ToJSON(0)
	require.NoError(t, err)
	assert.True(t, strings.Index(document, `"contacted"`) < strings.Index(document, `"dark"`),
		"contacted must serialize before dark: %s", document)
}

func TestResultListJSONRoundTrip(t *testing.T) {
	payloads := map[string]Payload{
		"web1": {"rc": float64(0), "stdout": "hi", "changed": true},
		"web2": {"failed": true, "msg": "broken pipe"},
		"web3": {"invocation": map[string]interface{}{"module_name": "setup"}},
	}
	list := NewResultList(false, true)
	for host, payload := range payloads {
		list.Contacted.Append(host, payload)
	}
	list.Sort()

	document, err := list.ToJSON(2)
	require.NoError(t, err)

	var decoded struct {
		Contacted []map[string]interface{} `json:"contacted"`
		Dark      []map[string]interface{} `json:"dark"`
	}
	require.NoError(t, json.Unmarshal([]byte(document), &decoded))
	require.Len(t, decoded.Contacted, list.Contacted.Len())
	assert.Empty(t, decoded.Dark)

	// Each element's raw keys match the original payload exactly
	for i, result := range list.Contacted.Results() {
		want := map[string]interface{}(payloads[result.Host])
		if diff := cmp.Diff(want, decoded.Contacted[i]); diff != "" {
			t.Errorf("payload mismatch for %s (-want +got):\n%s", result.Host, diff)
		}
	}
}

func TestResultListWriteToFileRequiresMode(t *testing.T) {
	list := NewResultList(false, true)
	list.Contacted.Append("web1", Payload{"rc": float64(0)})

	filename := filepath.Join(t.TempDir(), "report.txt")
	err := list.WriteToFile(filename, nil, false)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	_, statErr := os.Stat(filename)
	assert.True(t, os.IsNotExist(statErr), "no file may be written on configuration errors")
}

func TestResultListWriteToFileText(t *testing.T) {
	list := NewResultList(false, true)
	list.Dark.Append("web2", Payload{})
	list.Contacted.Append("web1", Payload{"rc": float64(0), "stdout": "hi"})

	filename := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, list.WriteToFile(filename, DefaultFormatter, false))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	content := string(data)
	// Contacted results come before dark ones
	assert.True(t, strings.Index(content, "web1") < strings.Index(content, "web2"), content)
}

func TestResultListWriteToFileJSON(t *testing.T) {
	list := NewResultList(false, true)
	list.Contacted.Append("web1", Payload{"rc": float64(0)})

	filename := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, list.WriteToFile(filename, nil, true))

	data, err := os.ReadFile(filename)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "contacted")
	assert.Contains(t, decoded, "dark")
}

func TestResultListWriteToFileUnwritablePath(t *testing.T) {
	list := NewResultList(false, true)
	err := list.WriteToFile(filepath.Join(t.TempDir(), "missing", "report.txt"), nil, true)
	var writeErr *WriteError
	assert.ErrorAs(t, err, &writeErr)
}

func TestResultListWriteToDirectory(t *testing.T) {
	list := NewResultList(false, true)
	list.Contacted.Append("web1", Payload{"rc": float64(0)})
	list.Dark.Append("web2", Payload{})

	dir := t.TempDir()
	require.NoError(t, list.WriteToDirectory(dir, DefaultFormatter, "txt"))

	for _, host := range []string{"web1", "web2"} {
		_, err := os.Stat(filepath.Join(dir, host+".txt"))
		assert.NoError(t, err, "expected per-host file for %s", host)
	}
}

func setupPlaybookResults(showFacts bool) *PlaybookResults {
	results := NewPlaybookResults(false, showFacts)
	results.Compute(RawResults{
		Contacted: map[string]Payload{
			"web2": {"rc": float64(0), "invocation": map[string]interface{}{"module_name": "command", "module_args": "uptime"}},
		},
	})
	results.Compute(RawResults{
		Contacted: map[string]Payload{
			"web1": {
				"invocation":    map[string]interface{}{"module_name": "setup"},
				"ansible_facts": map[string]interface{}{"os": "linux"},
			},
		},
	})
	results.Compute(RawResults{
		Dark: map[string]Payload{
			"web3": {"msg": "connection timed out"},
		},
	})
	return results
}

func TestPlaybookResultsGroupedByHost(t *testing.T) {
	results := setupPlaybookResults(true)
	results.Sort()

	grouped := results.GroupedByHost(results.Contacted)
	require.Len(t, grouped, 2)
	// Groups are sorted by host identifier
	assert.Equal(t, "web1", grouped[0].Host)
	assert.Equal(t, "web2", grouped[1].Host)
	assert.Len(t, grouped[0].Results, 1)
}

func TestPlaybookResultsFactSuppressionParity(t *testing.T) {
	results := setupPlaybookResults(false)
	results.Sort()

	// JSON path: the setup result disappears but the host group remains
	document, err := results.ToJSON(0)
	require.NoError(t, err)
	var decoded struct {
		Contacted []struct {
			Host    string                   `json:"host"`
			Results []map[string]interface{} `json:"results"`
		} `json:"contacted"`
	}
	require.NoError(t, json.Unmarshal([]byte(document), &decoded))
	require.Len(t, decoded.Contacted, 2)
	assert.Empty(t, decoded.Contacted[0].Results, "setup results are suppressed when show facts is off")
	assert.Len(t, decoded.Contacted[1].Results, 1)

	// Text path suppresses the same results
	lines, err := results.Render(func(r *Result) string { return r.Host + " " + r.ModuleName() })
	require.NoError(t, err)
	assert.NotContains(t, lines, "setup")
	assert.Contains(t, lines, "web2")
	assert.Contains(t, lines, "web3")
}

func TestPlaybookResultsWriteToFileRequiresMode(t *testing.T) {
	results := setupPlaybookResults(true)
	filename := filepath.Join(t.TempDir(), "report.txt")

	err := results.WriteToFile(filename, nil, false)
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	_, statErr := os.Stat(filename)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunStats(t *testing.T) {
	stats := NewRunStats()
	stats.increment(stats.OK, "web1")
	stats.increment(stats.OK, "web1")
	stats.increment(stats.Failures, "web2")

	assert.Equal(t, 2, stats.Summarize("web1")["ok"])
	assert.Equal(t, 1, stats.Summarize("web2")["failures"])
	assert.Equal(t, []string{"web1", "web2"}, stats.Hosts())
}

func TestPlaybookResultsRecap(t *testing.T) {
	results := setupPlaybookResults(true)
	collector := NewCollector(results)
	collector.OnContacted("web4", Payload{"rc": float64(0)})
	collector.OnUnreachable("web5", Payload{})
	require.NoError(t, collector.Close())

	recap := results.Recap()
	assert.Contains(t, recap, "PLAY RECAP")
	assert.Contains(t, recap, "web4 : ok=1")
	assert.Contains(t, recap, "unreachable=1")
}
