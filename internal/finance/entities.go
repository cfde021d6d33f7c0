package finance

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/fdakit/internal/audit"
)

// DefaultLegalSuffixes are removed by StripLegalSuffixes when none are given.
var DefaultLegalSuffixes = []string{"ltd", "limited", "plc", "inc", "llc"}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)

// StripLegalSuffixes removes trailing legal forms:
// "ACME Limited" -> "ACME", "Smith & Co Inc" -> "Smith & Co".
// Each suffix is removed at most once, case-insensitively, with an optional
// trailing period.
func StripLegalSuffixes(rec audit.Recorder, values []string, suffixes []string) []string {
	if suffixes == nil {
		suffixes = DefaultLegalSuffixes
	}
	patterns := make([]*regexp.Regexp, len(suffixes))
	for i, s := range suffixes {
		patterns[i] = regexp.MustCompile(`(?i)\s+` + regexp.QuoteMeta(s) + `\.?\s*$`)
	}

	out := make([]string, len(values))
	stripped := 0
	for i, v := range values {
		s := strings.TrimSpace(v)
		for _, p := range patterns {
			s = p.ReplaceAllString(s, "")
		}
		s = strings.TrimSpace(s)
		if s != strings.TrimSpace(v) {
			stripped++
		}
		out[i] = s
	}

	rec.Record("strip_legal_suffixes", seriesState(values),
		audit.State{"values": len(out), "stripped": stripped})
	return out
}

// StandardizeEntityNames maps vendor or customer name variants to one
// canonical name. Names are trimmed first; unmapped names keep their text.
func StandardizeEntityNames(rec audit.Recorder, values []string, mapping map[string]string, caseInsensitive bool) []string {
	lookup := mapping
	if caseInsensitive {
		lookup = make(map[string]string, len(mapping))
		for k, v := range mapping {
			lookup[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}

	out := make([]string, len(values))
	mapped := 0
	for i, v := range values {
		s := strings.TrimSpace(v)
		key := s
		if caseInsensitive {
			key = strings.ToLower(s)
		}
		if m, ok := lookup[key]; ok {
			s = m
			mapped++
		}
		out[i] = s
	}

	rec.Record("standardize_entity_names",
		audit.State{"values": len(values), "mappings": len(mapping)},
		audit.State{"values": len(out), "mapped": mapped},
	)
	return out
}

// NormalizeReferenceCodes tidies invoice and PO numbers:
// "inv_2024-002" -> "INV2024002".
func NormalizeReferenceCodes(rec audit.Recorder, values []string, alnumOnly, upper bool) []string {
	out := make([]string, len(values))
	changed := 0
	for i, v := range values {
		s := strings.TrimSpace(v)
		if alnumOnly {
			s = nonAlnum.ReplaceAllString(s, "")
		}
		if upper {
			s = strings.ToUpper(s)
		}
		if s != v {
			changed++
		}
		out[i] = s
	}

	rec.Record("normalize_reference_codes", seriesState(values),
		audit.State{"values": len(out), "changed": changed})
	return out
}
