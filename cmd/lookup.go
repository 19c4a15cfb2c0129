package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/zipsearch/internal/engine"
	"github.com/sells-group/zipsearch/internal/model"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "One-shot queries against a built container",
}

var lookupZipCmd = &cobra.Command{
	Use:   "zip CODE",
	Short: "Look up one zipcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		e, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		rec := e.ByZipcode(args[0])
		if rec == nil {
			fmt.Printf("%s: not found\n", args[0])
			return nil
		}
		printRecord(rec)
		return nil
	},
}

var lookupCityCmd = &cobra.Command{
	Use:   "city CITY [STATE]",
	Short: "Look up zipcodes by city, optionally narrowed to one state",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		e, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		var recs []*model.ZipRecord
		if len(args) == 2 {
			recs = e.ByCityAndState(args[0], args[1])
		} else {
			recs = e.ByCity(args[0])
		}
		printRecords(recs)
		return nil
	},
}

var lookupStateCmd = &cobra.Command{
	Use:   "state STATE",
	Short: "Look up every zipcode in a state",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		e, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		printRecords(e.ByState(args[0]))
		return nil
	},
}

var lookupPrefixCmd = &cobra.Command{
	Use:   "prefix PREFIX",
	Short: "Look up zipcodes by code prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		e, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		printRecords(e.ByPrefix(args[0]))
		return nil
	},
}

var radiusMiles float64

var lookupRadiusCmd = &cobra.Command{
	Use:   "radius LAT LNG",
	Short: "Look up zipcodes within a radius of a point",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return eris.Wrapf(err, "lookup: parse latitude %q", args[0])
		}
		lng, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "lookup: parse longitude %q", args[1])
		}

		e, err := loadEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		printRecords(e.ByCoordinates(lat, lng, radiusMiles))
		return nil
	},
}

func printRecord(rec *model.ZipRecord) {
	line := rec.Zipcode
	if city := rec.City(); city != "" {
		line += ": " + city
	}
	if st := rec.StateCode(); st != "" {
		line += ", " + st
	}
	fmt.Println(line)
}

func printRecords(recs []*model.ZipRecord) {
	for _, rec := range recs {
		printRecord(rec)
	}
	fmt.Printf("%d result(s)\n", len(recs))
}

func init() {
	lookupRadiusCmd.Flags().Float64Var(&radiusMiles, "radius", engine.DefaultRadiusMiles, "search radius in miles")
	lookupCmd.AddCommand(lookupZipCmd, lookupCityCmd, lookupStateCmd, lookupPrefixCmd, lookupRadiusCmd)
	rootCmd.AddCommand(lookupCmd)
}
