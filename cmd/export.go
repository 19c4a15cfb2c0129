package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/zipsearch/internal/model"
)

var (
	exportState string
	exportCity  string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export lookup results to an XLSX spreadsheet",
	Long:  "Exports every record for a state, or a city/state pair, to a spreadsheet for downstream enrichment work.",
	RunE: func(_ *cobra.Command, _ []string) error {
		if exportState == "" {
			return eris.New("export: --state is required")
		}

		e, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		var recs []*model.ZipRecord
		if exportCity != "" {
			recs = e.ByCityAndState(exportCity, exportState)
		} else {
			recs = e.ByState(exportState)
		}

		if err := writeXLSX(recs, exportOut); err != nil {
			return err
		}
		fmt.Printf("Exported %d records to %s\n", len(recs), exportOut)
		return nil
	},
}

var exportHeader = []string{
	"zipcode", "type", "major_city", "county", "state", "lat", "lng",
	"timezone", "population", "population_density", "median_home_value",
	"median_household_income",
}

func writeXLSX(recs []*model.ZipRecord, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("zipcodes")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	hdr := sheet.AddRow()
	for _, h := range exportHeader {
		hdr.AddCell().SetString(h)
	}

	for _, rec := range recs {
		row := sheet.AddRow()
		row.AddCell().SetString(rec.Zipcode)
		setOptString(row, rec.ZipcodeType)
		setOptString(row, rec.MajorCity)
		setOptString(row, rec.County)
		setOptString(row, rec.State)
		setOptFloat(row, rec.Lat)
		setOptFloat(row, rec.Lng)
		setOptString(row, rec.Timezone)
		setOptInt(row, rec.Population)
		setOptFloat(row, rec.PopulationDensity)
		setOptInt(row, rec.MedianHomeValue)
		setOptInt(row, rec.MedianHouseholdIncome)
	}

	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

func setOptString(row *xlsx.Row, v *string) {
	cell := row.AddCell()
	if v != nil {
		cell.SetString(*v)
	}
}

func setOptFloat(row *xlsx.Row, v *float64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetFloat(*v)
	}
}

func setOptInt(row *xlsx.Row, v *int64) {
	cell := row.AddCell()
	if v != nil {
		cell.SetInt64(*v)
	}
}

func init() {
	exportCmd.Flags().StringVar(&exportState, "state", "", "state abbreviation or full name (required)")
	exportCmd.Flags().StringVar(&exportCity, "city", "", "optional city to narrow the export")
	exportCmd.Flags().StringVar(&exportOut, "out", "zipcodes.xlsx", "output spreadsheet path")
	rootCmd.AddCommand(exportCmd)
}
