package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/zipsearch/internal/config"
	"github.com/sells-group/zipsearch/internal/index"
	"github.com/sells-group/zipsearch/internal/source"
)

var (
	buildDriver string
	buildDSN    string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the index container from the relational source",
	Long:  "Reads every row from the zipcode source once, normalizes all fields, and writes the three precomputed indices into a single container file.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srcCfg := cfg.Source
		if buildDriver != "" {
			srcCfg = config.SourceConfig{Driver: buildDriver, DSN: buildDSN}
		} else if buildDSN != "" {
			srcCfg.DSN = buildDSN
		}

		cur, err := source.Open(ctx, srcCfg)
		if err != nil {
			return err
		}
		defer cur.Close()

		c, err := index.Build(ctx, cur, srcCfg.Driver+":"+srcCfg.DSN)
		if err != nil {
			return err
		}

		size, err := c.Write(containerPath())
		if err != nil {
			return err
		}

		fmt.Printf("Built fast indices: %d zipcodes, %.1fMB\n",
			c.Manifest.RecordCount, float64(size)/(1024*1024))
		fmt.Printf("Saved to: %s\n", containerPath())
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildDriver, "source-driver", "", "source driver: sqlite or postgres (overrides config)")
	buildCmd.Flags().StringVar(&buildDSN, "source-dsn", "", "source DSN or path (overrides config)")
	rootCmd.AddCommand(buildCmd)
}
