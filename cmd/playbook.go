package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ansiblereporter/ansiblereporter/pkg/engine"
	"github.com/ansiblereporter/ansiblereporter/pkg/inventory"
	"github.com/ansiblereporter/ansiblereporter/pkg/reporter"
)

var (
	playbookInventory  string
	playbookLimit      string
	playbookForks      int
	playbookTimeout    int
	playbookUser       string
	playbookPrivateKey string
	playbookSudo       bool
	playbookSudoUser   string
	playbookShowFacts  bool
	playbookRecap      bool
	playbookOutput     outputFlags
)

var playbookCmd = &cobra.Command{
	Use:   "playbook <playbook.yml>",
	Short: "Run a playbook and report the per-host results grouped by host",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := playbookOptions()
		opts.Playbook = args[0]

		if err := preflightHosts(opts.Inventory, opts.Pattern); err != nil {
			return err
		}

		runner := reporter.NewPlaybookRunner(&engine.PlaybookExecEngine{}, opts)
		results, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		if err := playbookOutput.emit(results, cfg.Output.Indent); err != nil {
			return err
		}
		if playbookRecap {
			fmt.Print(results.Recap())
		}
		return nil
	},
}

func playbookOptions() reporter.Options {
	opts := reporter.Options{
		Pattern:        cfg.Runner.Pattern,
		Inventory:      cfg.Runner.Inventory,
		Forks:          cfg.Runner.Forks,
		Timeout:        cfg.Runner.Timeout,
		RemotePort:     cfg.Runner.RemotePort,
		RemoteUser:     cfg.Runner.RemoteUser,
		Transport:      cfg.Runner.Transport,
		PrivateKeyFile: playbookPrivateKey,
		Sudo:           playbookSudo,
		SudoUser:       playbookSudoUser,
		ShowColors:     cfg.Output.ShowColors,
		ShowFacts:      cfg.Output.ShowFacts || playbookShowFacts,
	}
	if playbookLimit != "" {
		opts.Pattern = playbookLimit
	}
	if playbookInventory != "" {
		opts.Inventory = playbookInventory
	}
	if opts.Inventory == "" {
		opts.Inventory = inventory.Find()
	}
	if playbookForks > 0 {
		opts.Forks = playbookForks
	}
	if playbookTimeout > 0 {
		opts.Timeout = time.Duration(playbookTimeout) * time.Second
	}
	if playbookUser != "" {
		opts.RemoteUser = playbookUser
	}
	if playbookOutput.colors {
		opts.ShowColors = true
	}
	return opts
}

func init() {
	playbookCmd.Flags().StringVarP(&playbookInventory, "inventory", "i", "", "Inventory path")
	playbookCmd.Flags().StringVarP(&playbookLimit, "limit", "l", "", "Limit the run to matching hosts")
	playbookCmd.Flags().IntVar(&playbookForks, "forks", 0, "Engine concurrency")
	playbookCmd.Flags().IntVarP(&playbookTimeout, "timeout", "T", 0, "Response timeout in seconds")
	playbookCmd.Flags().StringVarP(&playbookUser, "user", "u", "", "Remote user")
	playbookCmd.Flags().StringVar(&playbookPrivateKey, "private-key", "", "Private key file")
	playbookCmd.Flags().BoolVarP(&playbookSudo, "sudo", "s", false, "Run operations with privilege escalation")
	playbookCmd.Flags().StringVarP(&playbookSudoUser, "sudo-user", "U", "", "Privilege escalation user")
	playbookCmd.Flags().BoolVar(&playbookShowFacts, "show-facts", false, "Include fact-gathering results in the report")
	playbookCmd.Flags().BoolVar(&playbookRecap, "recap", false, "Print the per-host run recap after the report")
	playbookOutput.register(playbookCmd.Flags())

	rootCmd.AddCommand(playbookCmd)
}
