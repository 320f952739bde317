package cmd

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ansiblereporter/ansiblereporter/pkg/common"
	"github.com/ansiblereporter/ansiblereporter/pkg/config"
)

var (
	cfg *config.Config

	configFile string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "ansible-reporter",
	Short: "Run ansible modules and playbooks with structured reports",
	Long: `Run ansible modules and playbooks and report the per-host results
as sorted JSON or formatted text, to stdout, a file or a per-host directory.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		var paths []string
		if configFile != "" {
			paths = append(paths, configFile)
		}
		cfg, err = config.Load(paths...)
		if err != nil {
			return err
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}

		if err := common.SetLogFormat(cfg.Logging.Format); err != nil {
			return err
		}
		common.SetLogLevel(cfg.Logging.Level)
		if cfg.Logging.File != "" {
			if err := common.SetLogFile(cfg.Logging.File); err != nil {
				return err
			}
		}
		common.SetRunID(uuid.NewString())
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format (plain, json, yaml)")
}
