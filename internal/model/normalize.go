package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PadZipcode trims a raw zipcode string and left-pads it with zeros to 5
// characters. An empty input stays empty so callers can detect unusable rows.
func PadZipcode(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for len(code) < 5 {
		code = "0" + code
	}
	return code
}

// TitleCaseCity trims a city name and title-cases each word
// ("beverly hills" -> "Beverly Hills"). Returns "" for blank input.
//
// A fresh caser is built per call; cases.Caser carries transform state and
// is not safe to share across goroutines.
func TitleCaseCity(city string) string {
	city = strings.TrimSpace(city)
	if city == "" {
		return ""
	}
	return cases.Title(language.AmericanEnglish).String(city)
}

// UpperState trims and uppercases a raw state value. Returns "" for blank
// input. This is source-side cleanup only; full-name resolution lives in the
// engine's state table.
func UpperState(state string) string {
	return strings.ToUpper(strings.TrimSpace(state))
}
