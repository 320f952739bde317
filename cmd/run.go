package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/ansiblereporter/ansiblereporter/pkg/engine"
	"github.com/ansiblereporter/ansiblereporter/pkg/inventory"
	"github.com/ansiblereporter/ansiblereporter/pkg/reporter"
)

var (
	runModule     string
	runModuleArgs string
	runInventory  string
	runForks      int
	runTimeout    int
	runUser       string
	runPrivateKey string
	runTransport  string
	runSudo       bool
	runSudoUser   string
	runOutput     outputFlags
)

var runCmd = &cobra.Command{
	Use:   "run [pattern]",
	Short: "Run a single module across the matched hosts and report the results",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := runnerOptions()
		if len(args) > 0 {
			opts.Pattern = args[0]
		}
		opts.Module = runModule
		opts.ModuleArgs = runModuleArgs

		if err := preflightHosts(opts.Inventory, opts.Pattern); err != nil {
			return err
		}

		runner := reporter.NewRunner(&engine.ExecEngine{}, opts)
		results, err := runner.Run(cmd.Context())
		if err != nil {
			return err
		}
		return runOutput.emit(results, cfg.Output.Indent)
	},
}

// runnerOptions merges config defaults with the command line flags.
func runnerOptions() reporter.Options {
	opts := reporter.Options{
		Pattern:        cfg.Runner.Pattern,
		Inventory:      cfg.Runner.Inventory,
		Forks:          cfg.Runner.Forks,
		Timeout:        cfg.Runner.Timeout,
		RemotePort:     cfg.Runner.RemotePort,
		RemoteUser:     cfg.Runner.RemoteUser,
		Transport:      cfg.Runner.Transport,
		PrivateKeyFile: runPrivateKey,
		Sudo:           runSudo,
		SudoUser:       runSudoUser,
		ShowColors:     cfg.Output.ShowColors,
		ShowFacts:      cfg.Output.ShowFacts,
	}
	if runInventory != "" {
		opts.Inventory = runInventory
	}
	if opts.Inventory == "" {
		opts.Inventory = inventory.Find()
	}
	if runForks > 0 {
		opts.Forks = runForks
	}
	if runTimeout > 0 {
		opts.Timeout = time.Duration(runTimeout) * time.Second
	}
	if runUser != "" {
		opts.RemoteUser = runUser
	}
	if runTransport != "" {
		opts.Transport = runTransport
	}
	if runOutput.colors {
		opts.ShowColors = true
	}
	return opts
}

func init() {
	runCmd.Flags().StringVarP(&runModule, "module", "m", "command", "Module name")
	runCmd.Flags().StringVarP(&runModuleArgs, "args", "a", "", "Module arguments")
	runCmd.Flags().StringVarP(&runInventory, "inventory", "i", "", "Inventory path")
	runCmd.Flags().IntVar(&runForks, "forks", 0, "Engine concurrency")
	runCmd.Flags().IntVarP(&runTimeout, "timeout", "T", 0, "Response timeout in seconds")
	runCmd.Flags().StringVarP(&runUser, "user", "u", "", "Remote user")
	runCmd.Flags().StringVar(&runPrivateKey, "private-key", "", "Private key file")
	runCmd.Flags().StringVar(&runTransport, "transport", "", "Connection transport")
	runCmd.Flags().BoolVarP(&runSudo, "sudo", "s", false, "Run operations with privilege escalation")
	runCmd.Flags().StringVarP(&runSudoUser, "sudo-user", "U", "", "Privilege escalation user")
	runOutput.register(runCmd.Flags())

	rootCmd.AddCommand(runCmd)
}
