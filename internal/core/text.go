package core

import (
	"strings"

	"github.com/JonMunkholm/fdakit/internal/audit"
)

// TextOptions controls CleanTextColumn.
type TextOptions struct {
	Strip               bool
	Lower               bool
	NormalizeWhitespace bool // Collapse runs of whitespace to one space
}

// DefaultTextOptions strips and collapses whitespace but keeps case.
func DefaultTextOptions() TextOptions {
	return TextOptions{Strip: true, NormalizeWhitespace: true}
}

// CleanTextColumn tidies free text: "  HELLO  WORLD  " -> "HELLO WORLD".
// Missing values stay missing.
func CleanTextColumn(rec audit.Recorder, values []string, opts TextOptions) []string {
	out := make([]string, len(values))
	changed := 0
	for i, v := range values {
		s := v
		if opts.Strip {
			s = strings.TrimSpace(s)
		}
		if opts.Lower {
			s = strings.ToLower(s)
		}
		if opts.NormalizeWhitespace {
			s = whitespaceRun.ReplaceAllString(s, " ")
		}
		if s != v {
			changed++
		}
		out[i] = s
	}

	rec.Record("clean_text_column", seriesState(values), audit.State{"values": len(out), "changed": changed})
	return out
}

// CategoricalOptions controls CleanCategoricalColumn. Lower wins over Upper.
type CategoricalOptions struct {
	Strip bool
	Upper bool
	Lower bool
}

// DefaultCategoricalOptions strips and lowercases.
func DefaultCategoricalOptions() CategoricalOptions {
	return CategoricalOptions{Strip: true, Lower: true}
}

// CleanCategoricalColumn normalises category labels so " Retail " and
// "RETAIL" count as one value. Missing values stay missing.
func CleanCategoricalColumn(rec audit.Recorder, values []string, opts CategoricalOptions) []string {
	out := make([]string, len(values))
	changed := 0
	for i, v := range values {
		s := v
		if opts.Strip {
			s = strings.TrimSpace(s)
		}
		switch {
		case opts.Lower:
			s = strings.ToLower(s)
		case opts.Upper:
			s = strings.ToUpper(s)
		}
		if s != v {
			changed++
		}
		out[i] = s
	}

	after := audit.State{"values": len(out), "changed": changed, "categories": distinct(out)}
	rec.Record("clean_categorical_column", seriesState(values), after)
	return out
}

func distinct(values []string) int {
	seen := make(map[string]bool)
	for _, v := range values {
		if !isBlank(v) {
			seen[v] = true
		}
	}
	return len(seen)
}

// StandardizeTextValues maps variants to canonical values, e.g.
// {"yes": "Y", "no": "N"}. Values without a mapping are kept as they are.
func StandardizeTextValues(rec audit.Recorder, values []string, mapping map[string]string, caseInsensitive bool) []string {
	lookup := mapping
	if caseInsensitive {
		lookup = make(map[string]string, len(mapping))
		for k, v := range mapping {
			lookup[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}

	out := make([]string, len(values))
	changed := 0
	for i, v := range values {
		key := v
		if caseInsensitive {
			key = strings.ToLower(strings.TrimSpace(v))
		}
		if m, ok := lookup[key]; ok {
			out[i] = m
			if m != v {
				changed++
			}
			continue
		}
		out[i] = v
	}

	rec.Record("standardize_text_values",
		audit.State{"values": len(values), "mappings": len(mapping)},
		audit.State{"values": len(out), "changed": changed},
	)
	return out
}

// StandardizeUSStates converts state names to two-letter codes:
// "new york" -> "NY", "ca" -> "CA". Unrecognized values are trimmed only.
func StandardizeUSStates(rec audit.Recorder, values []string) []string {
	out := make([]string, len(values))
	changed, unknown := 0, 0
	for i, v := range values {
		code, ok := NormalizeUSState(v)
		out[i] = code
		if code != v {
			changed++
		}
		if !ok && !isBlank(v) {
			unknown++
		}
	}

	rec.Record("standardize_us_states", seriesState(values),
		audit.State{"values": len(out), "changed": changed, "unrecognized": unknown})
	return out
}

// NormalizeUSState returns the two-letter code for a state name or code.
// ok is false when the value is not a recognized state.
func NormalizeUSState(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if code, ok := usStates[strings.ToLower(s)]; ok {
		return code, true
	}
	upper := strings.ToUpper(s)
	if usStateCodes[upper] {
		return upper, true
	}
	return s, false
}

var usStates = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"district of columbia": "DC", "florida": "FL", "georgia": "GA", "hawaii": "HI",
	"idaho": "ID", "illinois": "IL", "indiana": "IN", "iowa": "IA",
	"kansas": "KS", "kentucky": "KY", "louisiana": "LA", "maine": "ME",
	"maryland": "MD", "massachusetts": "MA", "michigan": "MI", "minnesota": "MN",
	"mississippi": "MS", "missouri": "MO", "montana": "MT", "nebraska": "NE",
	"nevada": "NV", "new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM",
	"new york": "NY", "north carolina": "NC", "north dakota": "ND", "ohio": "OH",
	"oklahoma": "OK", "oregon": "OR", "pennsylvania": "PA", "rhode island": "RI",
	"south carolina": "SC", "south dakota": "SD", "tennessee": "TN", "texas": "TX",
	"utah": "UT", "vermont": "VT", "virginia": "VA", "washington": "WA",
	"west virginia": "WV", "wisconsin": "WI", "wyoming": "WY",
}

var usStateCodes = func() map[string]bool {
	m := make(map[string]bool, len(usStates))
	for _, code := range usStates {
		m[code] = true
	}
	return m
}()

func seriesState(values []string) audit.State {
	missing := 0
	for _, v := range values {
		if isBlank(v) {
			missing++
		}
	}
	return audit.State{"values": len(values), "missing": missing}
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
