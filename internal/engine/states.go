package engine

import "strings"

// stateAbbr maps full state names (uppercased) to USPS 2-letter codes.
// Includes DC and the inhabited territories, matching what the source data
// actually contains. Static, never mutated.
var stateAbbr = map[string]string{
	"ALABAMA":                  "AL",
	"ALASKA":                   "AK",
	"ARIZONA":                  "AZ",
	"ARKANSAS":                 "AR",
	"CALIFORNIA":               "CA",
	"COLORADO":                 "CO",
	"CONNECTICUT":              "CT",
	"DELAWARE":                 "DE",
	"DISTRICT OF COLUMBIA":     "DC",
	"FLORIDA":                  "FL",
	"GEORGIA":                  "GA",
	"HAWAII":                   "HI",
	"IDAHO":                    "ID",
	"ILLINOIS":                 "IL",
	"INDIANA":                  "IN",
	"IOWA":                     "IA",
	"KANSAS":                   "KS",
	"KENTUCKY":                 "KY",
	"LOUISIANA":                "LA",
	"MAINE":                    "ME",
	"MARYLAND":                 "MD",
	"MASSACHUSETTS":            "MA",
	"MICHIGAN":                 "MI",
	"MINNESOTA":                "MN",
	"MISSISSIPPI":              "MS",
	"MISSOURI":                 "MO",
	"MONTANA":                  "MT",
	"NEBRASKA":                 "NE",
	"NEVADA":                   "NV",
	"NEW HAMPSHIRE":            "NH",
	"NEW JERSEY":               "NJ",
	"NEW MEXICO":               "NM",
	"NEW YORK":                 "NY",
	"NORTH CAROLINA":           "NC",
	"NORTH DAKOTA":             "ND",
	"OHIO":                     "OH",
	"OKLAHOMA":                 "OK",
	"OREGON":                   "OR",
	"PENNSYLVANIA":             "PA",
	"RHODE ISLAND":             "RI",
	"SOUTH CAROLINA":           "SC",
	"SOUTH DAKOTA":             "SD",
	"TENNESSEE":                "TN",
	"TEXAS":                    "TX",
	"UTAH":                     "UT",
	"VERMONT":                  "VT",
	"VIRGINIA":                 "VA",
	"WASHINGTON":               "WA",
	"WEST VIRGINIA":            "WV",
	"WISCONSIN":                "WI",
	"WYOMING":                  "WY",
	"AMERICAN SAMOA":           "AS",
	"GUAM":                     "GU",
	"NORTHERN MARIANA ISLANDS": "MP",
	"PUERTO RICO":              "PR",
	"U.S. VIRGIN ISLANDS":      "VI",
	"VIRGIN ISLANDS":           "VI",
}

// NormalizeState converts a state name or abbreviation to a 2-letter
// uppercase code. Already-2-character input is returned uppercased as-is;
// full names resolve through the abbreviation table case-insensitively.
// Unmatched input is returned uppercased rather than failing, so a typo'd
// state cleanly yields zero matches downstream instead of an error.
func NormalizeState(state string) string {
	s := strings.TrimSpace(state)
	if len(s) == 2 {
		return strings.ToUpper(s)
	}
	upper := strings.ToUpper(s)
	if abbr, ok := stateAbbr[upper]; ok {
		return abbr
	}
	return upper
}
