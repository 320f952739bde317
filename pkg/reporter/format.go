package reporter

import (
	"fmt"
	"strings"
)

// Formatter renders one result as a single report line.
type Formatter func(*Result) string

// ANSI color codes for the color formatter.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// DefaultFormatter renders a result in ansible's oneline report style:
//
//	web1 | success | rc=0 >>
//	up 3 days
func DefaultFormatter(result *Result) string {
	var line strings.Builder
	fmt.Fprintf(&line, "%s | %s | rc=%d >>", result.Host, result.AnsibleStatus(), result.Returncode())
	if stdout := result.Stdout(); stdout != "" {
		line.WriteString("\n")
		line.WriteString(strings.TrimRight(stdout, "\n"))
	}
	if stderr := result.Stderr(); stderr != "" {
		line.WriteString("\n")
		line.WriteString(strings.TrimRight(stderr, "\n"))
	}
	if result.Status() == StatusFailed && result.Stdout() == "" && result.Stderr() == "" {
		line.WriteString("\n")
		line.WriteString(result.ErrorMessage())
	}
	return line.String()
}

// Recap renders the per-host run statistics the way ansible prints its
// play recap, one line per processed host.
func (p *PlaybookResults) Recap() string {
	var recap strings.Builder
	recap.WriteString("PLAY RECAP ****************************************************\n")
	for _, host := range p.Stats.Hosts() {
		summary := p.Stats.Summarize(host)
		fmt.Fprintf(&recap, "%s : ok=%d    changed=%d    unreachable=%d    failed=%d    skipped=%d\n",
			host, summary["ok"], summary["changed"], summary["unreachable"], summary["failures"], summary["skipped"])
	}
	return recap.String()
}

// ColorFormatter renders like DefaultFormatter but colors the status
// field when the owning run has colors enabled.
func ColorFormatter(result *Result) string {
	line := DefaultFormatter(result)
	if !result.ShowColors() {
		return line
	}

	var color string
	switch result.Status() {
	case StatusOK, StatusFacts:
		color = colorGreen
	case StatusFailed, StatusError:
		color = colorRed
	default:
		color = colorYellow
	}
	status := result.AnsibleStatus()
	return strings.Replace(line, fmt.Sprintf("| %s |", status), fmt.Sprintf("| %s%s%s |", color, status, colorReset), 1)
}
