package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/zipsearch/internal/index"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show container statistics",
	Long:  "Display the container manifest and per-index counts without starting the engine.",
	RunE: func(_ *cobra.Command, _ []string) error {
		c, err := index.Load(containerPath())
		if err != nil {
			return err
		}

		var gridRecords int
		for _, g := range c.CoordinateGrid {
			gridRecords += len(g.Records)
		}

		fmt.Println("=== Container Status ===")
		fmt.Printf("Container:        %s\n", containerPath())
		fmt.Printf("Build ID:         %s\n", c.Manifest.BuildID)
		fmt.Printf("Built at:         %s\n", c.Manifest.BuiltAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("Source:           %s\n", c.Manifest.Source)
		fmt.Println()
		fmt.Printf("Zipcodes:         %d\n", len(c.ZipcodeIndex))
		fmt.Printf("City/state keys:  %d\n", len(c.CityStateIndex))
		fmt.Printf("Grid buckets:     %d (%d records with coordinates)\n", len(c.CoordinateGrid), gridRecords)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
