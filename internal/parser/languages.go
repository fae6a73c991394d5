package parser

import "strings"

// languageCodes maps full language names to ISO 639-1 codes.
var languageCodes = map[string]string{
	"english":    "en",
	"french":     "fr",
	"spanish":    "es",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"russian":    "ru",
	"chinese":    "zh",
	"japanese":   "ja",
	"korean":     "ko",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"swedish":    "sv",
	"finnish":    "fi",
	"polish":     "pl",
	"turkish":    "tr",
	"czech":      "cs",
	"greek":      "el",
	"danish":     "da",
	"norwegian":  "no",
	"romanian":   "ro",
	"ukrainian":  "uk",
	"vietnamese": "vi",
}

// ResolveLanguage returns the code for a language name. Names missing from
// the table are treated as codes already and returned lower-cased.
func ResolveLanguage(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if code, ok := languageCodes[name]; ok {
		return code
	}
	return name
}
