package cmd

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/ansiblereporter/ansiblereporter/pkg/common"
	"github.com/ansiblereporter/ansiblereporter/pkg/inventory"
	"github.com/ansiblereporter/ansiblereporter/pkg/reporter"
)

// outputFlags are the report destination flags shared by the run and
// playbook commands.
type outputFlags struct {
	file      string
	directory string
	extension string
	asJSON    bool
	colors    bool
}

func (f *outputFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.file, "output", "o", "", "Write the report to a file")
	flags.StringVar(&f.directory, "output-dir", "", "Write one report file per host to a directory")
	flags.StringVar(&f.extension, "extension", "txt", "File extension for per-host report files")
	flags.BoolVar(&f.asJSON, "json", false, "Report as JSON instead of formatted text")
	flags.BoolVarP(&f.colors, "colors", "c", false, "Show output with colors")
}

func (f *outputFlags) formatter() reporter.Formatter {
	if f.colors {
		return reporter.ColorFormatter
	}
	return reporter.DefaultFormatter
}

// report is the output surface both aggregate kinds expose.
type report interface {
	ToJSON(indent int) (string, error)
	Render(formatter reporter.Formatter) (string, error)
	WriteToFile(filename string, formatter reporter.Formatter, asJSON bool) error
	WriteToDirectory(directory string, formatter reporter.Formatter, extension string) error
}

// emit writes the report to the configured destination, defaulting to
// stdout.
func (f *outputFlags) emit(results report, indent int) error {
	switch {
	case f.directory != "":
		return results.WriteToDirectory(f.directory, f.formatter(), f.extension)
	case f.file != "":
		if f.asJSON {
			return results.WriteToFile(f.file, nil, true)
		}
		return results.WriteToFile(f.file, f.formatter(), false)
	case f.asJSON:
		document, err := results.ToJSON(indent)
		if err != nil {
			return err
		}
		fmt.Println(document)
		return nil
	default:
		lines, err := results.Render(f.formatter())
		if err != nil {
			return err
		}
		fmt.Print(lines)
		return nil
	}
}

// preflightHosts checks the host pattern against the inventory before
// invoking the engine, so an empty match fails fast. Inventories the
// YAML parser cannot read are left to the engine itself.
func preflightHosts(inventoryFile, pattern string) error {
	if inventoryFile == "" {
		return nil
	}
	inv, err := inventory.Load(inventoryFile)
	if err != nil {
		common.LogDebug("Skipping inventory pre-flight check", map[string]interface{}{
			"inventory": inventoryFile,
			"error":     err.Error(),
		})
		return nil
	}
	if len(inv.ListHosts(pattern)) == 0 {
		return reporter.ErrNoHostsMatched
	}
	return nil
}
