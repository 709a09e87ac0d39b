package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lupasearch/catalog-export/config"
	"github.com/lupasearch/catalog-export/logging"
	"github.com/spf13/cobra"
)

var (
	cfg       *config.Config
	logger    *slog.Logger
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:           "catalog-export",
	Short:         "LupaSearch catalog export bridge",
	Long:          "Serves paginated, denormalized product, variant and property data from a PrestaShop database to the LupaSearch indexer.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (toml, yaml or json)")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level")
}

func initConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		c.Log.Level = v
	}

	l, closer, err := logging.Setup(c.Logging())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(l)

	cfg, logger, logCloser = c, l, closer
	return nil
}
