package reporter

import (
	"sort"
	"strings"
)

// LoaderFunc constructs the Result a set appends for one host payload.
// The default loader is replaceable so callers can hand out Result
// subviews with extra behavior.
type LoaderFunc func(set *ResultSet, host string, payload Payload) *Result

// RawResults is the raw per-host results mapping the execution engine
// produces for one run.
type RawResults struct {
	Contacted map[string]Payload `json:"contacted"`
	Dark      map[string]Payload `json:"dark"`
}

// ResultList owns the two outcome categories of one run. It is created
// once per run and exclusively owned by that run; it is not safe for
// concurrent use.
type ResultList struct {
	ShowColors bool
	ShowFacts  bool

	// Classifier is consulted for results no built-in status rule
	// matches. Optional.
	Classifier ClassifierFunc
	// Loader constructs appended results. Optional; defaults to the
	// package's own result constructor.
	Loader LoaderFunc

	Contacted *ResultSet
	Dark      *ResultSet
}

// NewResultList creates an empty aggregate with its two category sets.
func NewResultList(showColors, showFacts bool) *ResultList {
	list := &ResultList{
		ShowColors: showColors,
		ShowFacts:  showFacts,
	}
	list.Contacted = newResultSet(list, CategoryContacted)
	list.Dark = newResultSet(list, CategoryDark)
	return list
}

// Set returns the result set for the given category, nil for unknown
// categories.
func (l *ResultList) Set(category Category) *ResultSet {
	switch category {
	case CategoryContacted:
		return l.Contacted
	case CategoryDark:
		return l.Dark
	}
	return nil
}

// Sort sorts both category sets in place.
func (l *ResultList) Sort() {
	l.Dark.Sort()
	l.Contacted.Sort()
}

// listDocument fixes the key order of the serialized aggregate:
// contacted before dark.
type listDocument struct {
	Contacted *ResultSet `json:"contacted"`
	Dark      *ResultSet `json:"dark"`
}

// ToJSON renders the aggregate as {"contacted": [...], "dark": [...]}
// with each result serialized as its raw payload.
func (l *ResultList) ToJSON(indent int) (string, error) {
	data, err := marshalIndented(listDocument{Contacted: l.Contacted, Dark: l.Dark}, indent)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteToFile writes the aggregate to filename, either as one
// formatter-rendered line per result (contacted first, then dark) or as
// the full JSON document. Exactly one of formatter and asJSON must be
// supplied.
func (l *ResultList) WriteToFile(filename string, formatter Formatter, asJSON bool) error {
	content, err := l.renderFile(formatter, asJSON, nil)
	if err != nil {
		return err
	}
	return writeReportFile(filename, content)
}

// WriteToDirectory persists every result as <host>.<extension> under the
// given directory.
func (l *ResultList) WriteToDirectory(directory string, formatter Formatter, extension string) error {
	for _, set := range []*ResultSet{l.Contacted, l.Dark} {
		for _, result := range set.Results() {
			if err := result.WriteToDirectory(directory, formatter, extension); err != nil {
				return err
			}
		}
	}
	return nil
}

// Render produces the line-oriented text form of the aggregate, one
// formatter-rendered line per result, contacted first.
func (l *ResultList) Render(formatter Formatter) (string, error) {
	return l.renderFile(formatter, false, nil)
}

// renderFile produces the file body for WriteToFile. The optional skip
// predicate suppresses individual results from line-oriented output.
func (l *ResultList) renderFile(formatter Formatter, asJSON bool, skip func(*Result) bool) (string, error) {
	if formatter == nil && !asJSON {
		return "", &ConfigurationError{Reason: "either formatter callback or json flag must be set"}
	}
	if asJSON {
		document, err := l.ToJSON(defaultIndent)
		if err != nil {
			return "", err
		}
		return document + "\n", nil
	}

	var lines strings.Builder
	for _, set := range []*ResultSet{l.Contacted, l.Dark} {
		for _, result := range set.Results() {
			if skip != nil && skip(result) {
				continue
			}
			lines.WriteString(formatter(result))
			lines.WriteString("\n")
		}
	}
	return lines.String(), nil
}

// RunnerResults is the aggregate for a single synchronous engine run,
// populated from the engine's raw results mapping at construction.
type RunnerResults struct {
	*ResultList
}

// NewRunnerResults wraps the engine's raw {contacted, dark} mapping into
// a populated aggregate.
func NewRunnerResults(raw RawResults, showColors bool) *RunnerResults {
	results := &RunnerResults{ResultList: NewResultList(showColors, true)}
	for host, payload := range raw.Dark {
		results.Dark.Append(host, payload)
	}
	for host, payload := range raw.Contacted {
		results.Contacted.Append(host, payload)
	}
	return results
}

// RunStats accumulates per-host counters over a playbook run. It is the
// statistics sink the callback adapter writes into, kept separate from
// the result collections themselves.
type RunStats struct {
	Processed map[string]int
	OK        map[string]int
	Failures  map[string]int
	Dark      map[string]int
	Changed   map[string]int
	Skipped   map[string]int
}

// NewRunStats creates an empty accumulator.
func NewRunStats() *RunStats {
	return &RunStats{
		Processed: make(map[string]int),
		OK:        make(map[string]int),
		Failures:  make(map[string]int),
		Dark:      make(map[string]int),
		Changed:   make(map[string]int),
		Skipped:   make(map[string]int),
	}
}

func (s *RunStats) increment(counter map[string]int, host string) {
	s.Processed[host] = 1
	counter[host]++
}

// Summarize returns the counter snapshot for one host.
func (s *RunStats) Summarize(host string) map[string]int {
	return map[string]int{
		"ok":          s.OK[host],
		"failures":    s.Failures[host],
		"unreachable": s.Dark[host],
		"changed":     s.Changed[host],
		"skipped":     s.Skipped[host],
	}
}

// Hosts returns the sorted list of hosts that were processed.
func (s *RunStats) Hosts() []string {
	hosts := make([]string, 0, len(s.Processed))
	for host := range s.Processed {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// PlaybookResults is the aggregate for a playbook run. It is populated
// incrementally through Compute as the engine reports per-host outcomes,
// and it serializes grouped by host rather than as flat category lists.
type PlaybookResults struct {
	*ResultList
	Stats *RunStats
}

// NewPlaybookResults creates an empty playbook aggregate.
func NewPlaybookResults(showColors, showFacts bool) *PlaybookResults {
	return &PlaybookResults{
		ResultList: NewResultList(showColors, showFacts),
		Stats:      NewRunStats(),
	}
}

// Compute imports one batch of raw engine results into the aggregate.
// It is the only supported import path for incremental host results.
func (p *PlaybookResults) Compute(raw RawResults) {
	for host, payload := range raw.Contacted {
		p.Contacted.Append(host, payload)
	}
	for host, payload := range raw.Dark {
		p.Dark.Append(host, payload)
	}
}

// HostResults bundles all of one host's results within a category.
type HostResults struct {
	Host    string    `json:"host"`
	Results []*Result `json:"results"`
}

// GroupedByHost regroups a category's flat result list into per-host
// bundles sorted by host identifier. Fact-gathering results are
// suppressed unless the show-facts flag is on.
func (p *PlaybookResults) GroupedByHost(set *ResultSet) []HostResults {
	byHost := make(map[string]*HostResults)
	for _, result := range set.Results() {
		bundle, ok := byHost[result.Host]
		if !ok {
			bundle = &HostResults{Host: result.Host, Results: []*Result{}}
			byHost[result.Host] = bundle
		}
		if p.suppressed(result) {
			continue
		}
		bundle.Results = append(bundle.Results, result)
	}

	hosts := make([]string, 0, len(byHost))
	for host := range byHost {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	grouped := make([]HostResults, 0, len(hosts))
	for _, host := range hosts {
		grouped = append(grouped, *byHost[host])
	}
	return grouped
}

// suppressed reports whether a result is excluded from rendered output.
// The same predicate backs both the JSON and the line-oriented paths so
// the two modes never diverge in content.
func (p *PlaybookResults) suppressed(result *Result) bool {
	return result.ModuleName() == "setup" && !p.ShowFacts
}

// playbookDocument fixes the key order of the grouped serialized form.
type playbookDocument struct {
	Contacted []HostResults `json:"contacted"`
	Dark      []HostResults `json:"dark"`
}

// ToJSON renders the aggregate grouped by host:
// {"contacted": [{"host": ..., "results": [...]}, ...], "dark": [...]}.
func (p *PlaybookResults) ToJSON(indent int) (string, error) {
	document := playbookDocument{
		Contacted: p.GroupedByHost(p.Contacted),
		Dark:      p.GroupedByHost(p.Dark),
	}
	data, err := marshalIndented(document, indent)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Render produces the line-oriented text form of the playbook
// aggregate, honoring the show-facts suppression.
func (p *PlaybookResults) Render(formatter Formatter) (string, error) {
	return p.renderFile(formatter, false, p.suppressed)
}

// WriteToFile writes the playbook aggregate to filename, honoring the
// show-facts suppression in both output modes.
func (p *PlaybookResults) WriteToFile(filename string, formatter Formatter, asJSON bool) error {
	if formatter == nil && !asJSON {
		return &ConfigurationError{Reason: "either formatter callback or json flag must be set"}
	}
	if asJSON {
		document, err := p.ToJSON(defaultIndent)
		if err != nil {
			return err
		}
		return writeReportFile(filename, document+"\n")
	}
	content, err := p.renderFile(formatter, false, p.suppressed)
	if err != nil {
		return err
	}
	return writeReportFile(filename, content)
}
