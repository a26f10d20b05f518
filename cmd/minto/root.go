package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HendryAvila/minto/internal/config"
	"github.com/HendryAvila/minto/internal/logging"
	mintoserver "github.com/HendryAvila/minto/internal/server"
)

var rootFlags struct {
	configPath string
	logLevel   string
}

var rootCmd = &cobra.Command{
	Use:   "minto",
	Short: "Minto Pyramid Principle analysis over MCP",
	Long: "Minto turns a question into a top-down Minto Pyramid: a governing thought,\n" +
		"3-4 MECE supporting categories, evidence for each, and a quality critique.",
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.configPath, "config", "", "Config file (default: $MINTO_CONFIG or ~/.config/minto/config.yaml)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Override the configured log level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = mintoserver.Version
}

// setup loads the configuration and builds the logger shared by commands.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "minto v%s\n", mintoserver.Version)
	},
}
