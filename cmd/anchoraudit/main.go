package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dsablic/anchoraudit/internal/aggregate"
	"github.com/dsablic/anchoraudit/internal/audit"
	"github.com/dsablic/anchoraudit/internal/config"
	"github.com/dsablic/anchoraudit/internal/hosting"
	"github.com/dsablic/anchoraudit/internal/logging"
	"github.com/dsablic/anchoraudit/internal/provider"
)

// app carries what every subcommand needs after configuration is loaded.
type app struct {
	cfg    config.Config
	logger *zap.Logger
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "anchoraudit",
		Short:         "Audit Solana Anchor programs on GitHub with an AI provider",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	root.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newAuditCmd(a))
	root.AddCommand(newKeysCmd())
	root.AddCommand(newProvidersCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	if cfg.File != "" {
		logger.Debug("configuration loaded", zap.String("file", cfg.File))
	}
	return nil
}

// newPipeline wires the GitHub client, aggregator and dispatcher into an
// audit pipeline. logger may differ from a.logger when a TUI owns stderr.
func (a *app) newPipeline(githubToken string, logger *zap.Logger) (*audit.Pipeline, error) {
	client := hosting.NewClient(a.cfg.GitHub.RequestsPerSecond)
	gh, err := hosting.NewGitHub(githubToken, a.cfg.GitHub.APIURL, a.cfg.GitHub.RawURL, client)
	if err != nil {
		return nil, err
	}
	policy, err := aggregate.ParsePolicy(a.cfg.Aggregate.FailurePolicy)
	if err != nil {
		return nil, err
	}
	disp := provider.NewDispatcher(a.cfg.ProviderConfig(), logger)
	return audit.New(gh, aggregate.New(gh, policy, logger), disp, audit.WithLogger(logger)), nil
}

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List the supported AI providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, id := range provider.IDs() {
				note := ""
				if id.RequiresCredential() {
					note = "  (API key required)"
				}
				fmt.Fprintf(out, "%-14s %s%s\n", id, id.Label(), note)
			}
			return nil
		},
	}
}
