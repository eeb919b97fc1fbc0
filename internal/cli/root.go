package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"loan-engine/internal/config"
	"loan-engine/internal/infrastructure/logging"
)

// NewRootCommand assembles the loan-engine command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "loan-engine",
		Short: "EMI amortization and loan servicing engine",
		Long: `loan-engine computes equated monthly installments, builds amortization
schedules, tracks repayments against them and announces upcoming and
missed installments over RabbitMQ.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config-dir", ".", "Directory containing config.yml and .env")

	root.AddCommand(newServeCommand())
	root.AddCommand(newMigrateCommand())
	root.AddCommand(newQuoteCommand())
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

func loadConfigAndLogger(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	dir, _ := cmd.Flags().GetString("config-dir")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Configuration loaded", "config_source", cfg.Source)
	return cfg, logger, nil
}
