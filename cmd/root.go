package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/zipsearch/internal/config"
	"github.com/sells-group/zipsearch/internal/engine"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "zipsearch",
	Short: "Precomputed in-memory ZIP-code lookup engine",
	Long:  "Builds a single index container from a relational zipcode source, then answers exact, city/state, prefix, radius, and batch lookups from memory at microsecond latency.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// containerPath resolves the container location, preferring the --container
// flag over config.
var containerFlag string

func containerPath() string {
	if containerFlag != "" {
		return containerFlag
	}
	return cfg.Index.ContainerPath
}

// loadEngine loads the lookup engine from the resolved container path.
func loadEngine() (*engine.Engine, error) {
	return engine.Load(containerPath())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&containerFlag, "container", "", "path to the index container (overrides config)")
}
