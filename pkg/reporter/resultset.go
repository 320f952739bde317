package reporter

import (
	"encoding/json"
	"sort"

	"github.com/ansiblereporter/ansiblereporter/pkg/common"
)

// Category is the outcome category of a result set.
type Category string

// Outcome categories. Contacted hosts were reached and executed against;
// dark hosts could not be reached.
const (
	CategoryContacted Category = "contacted"
	CategoryDark      Category = "dark"
)

// ResultSet is an ordered collection of results sharing one outcome
// category. It also caches the most recently observed facts per host.
// Sets only grow; appending a host that is already present is fine, both
// for repeated task results and for hosts that appear in more than one
// category over a playbook run.
type ResultSet struct {
	list    *ResultList
	name    Category
	results []*Result
	facts   map[string]Payload
}

func newResultSet(list *ResultList, name Category) *ResultSet {
	return &ResultSet{
		list:  list,
		name:  name,
		facts: make(map[string]Payload),
	}
}

// Name returns the set's outcome category.
func (s *ResultSet) Name() Category {
	return s.name
}

// Len returns the number of results in the set.
func (s *ResultSet) Len() int {
	return len(s.results)
}

// Results returns the results in their current order.
func (s *ResultSet) Results() []*Result {
	return s.results
}

// Append constructs a result for host via the list's loader and appends
// it in insertion order. A facts sub-mapping in the payload replaces the
// set's facts cache entry for the host.
func (s *ResultSet) Append(host string, payload Payload) {
	result := s.load(host, payload)
	s.results = append(s.results, result)

	if facts := payload.getMap("ansible_facts"); facts != nil {
		s.facts[host] = facts
	}

	observeResult(s.name, result.Status())
	common.LogDebug("Appended result", map[string]interface{}{
		"host":     host,
		"category": string(s.name),
		"status":   string(result.Status()),
	})
}

func (s *ResultSet) load(host string, payload Payload) *Result {
	if s.list != nil && s.list.Loader != nil {
		return s.list.Loader(s, host, payload)
	}
	return newResult(s, host, payload)
}

// Facts returns the most recently cached facts for host, nil if none.
func (s *ResultSet) Facts(host string) Payload {
	return s.facts[host]
}

// Sort reorders the set in place by (category, address, host). Sorting
// is stable and idempotent.
func (s *ResultSet) Sort() {
	sort.SliceStable(s.results, func(i, j int) bool {
		return s.results[i].less(s.results[j])
	})
}

// MarshalJSON serializes the set as an array of raw result payloads.
func (s *ResultSet) MarshalJSON() ([]byte, error) {
	if s.results == nil {
		return json.Marshal([]*Result{})
	}
	return json.Marshal(s.results)
}

// ToJSON renders the set as an indented JSON array.
func (s *ResultSet) ToJSON(indent int) (string, error) {
	data, err := marshalIndented(s, indent)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
