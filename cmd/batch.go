package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/zipsearch/internal/engine"
)

var batchFile string

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Batch city/state lookup from a CSV of pairs",
	Long:  "Reads city,state pairs from a CSV file (or stdin) and resolves them all in one batch lookup. Misses print zero matches; they never abort the rest of the batch.",
	RunE: func(_ *cobra.Command, _ []string) error {
		var in io.Reader = os.Stdin
		if batchFile != "" {
			f, err := os.Open(batchFile)
			if err != nil {
				return eris.Wrapf(err, "batch: open %s", batchFile)
			}
			defer f.Close()
			in = f
		}

		pairs, err := readPairs(in)
		if err != nil {
			return err
		}

		e, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		results := e.BatchCityStateLookup(pairs)

		// Report in input order, deduplicated the way the result map is.
		seen := make(map[engine.CityStatePair]bool, len(pairs))
		for _, p := range pairs {
			if seen[p] {
				continue
			}
			seen[p] = true
			fmt.Printf("%s, %s: %d zipcodes\n", p.City, p.State, len(results[p]))
		}
		return nil
	},
}

// readPairs parses city,state lines. Blank lines are skipped; a line with
// fewer than two fields is an input error.
func readPairs(in io.Reader) ([]engine.CityStatePair, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var pairs []engine.CityStatePair
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read pairs")
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return nil, eris.Errorf("batch: line needs city,state: %q", strings.Join(record, ","))
		}
		pairs = append(pairs, engine.CityStatePair{
			City:  strings.TrimSpace(record[0]),
			State: strings.TrimSpace(record[1]),
		})
	}
	return pairs, nil
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV file of city,state pairs (default stdin)")
	rootCmd.AddCommand(batchCmd)
}
