// Package security masks and pseudonymizes sensitive columns before a table
// is shared.
package security

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/JonMunkholm/fdakit/internal/audit"
	"github.com/JonMunkholm/fdakit/internal/frame"
)

// DefaultMask replaces masked values when no mask is given.
const DefaultMask = "***"

// hashLen is the number of hex characters kept from each digest.
const hashLen = 16

// MaskSensitiveFields replaces every non-missing value in cols with mask.
// Missing cells stay missing, so masked output still shows where data was absent.
func MaskSensitiveFields(rec audit.Recorder, f *frame.Frame, cols []string, mask string) (*frame.Frame, error) {
	if mask == "" {
		mask = DefaultMask
	}
	idx, err := f.Indexes(cols)
	if err != nil {
		return nil, fmt.Errorf("mask_sensitive_fields: %w", err)
	}

	out := f.Clone()
	masked := 0
	for _, row := range out.Rows {
		for _, c := range idx {
			if frame.IsMissing(row[c]) {
				continue
			}
			row[c] = mask
			masked++
		}
	}

	after := audit.Shape(out)
	after["columns_masked"] = append([]string(nil), cols...)
	after["cells_masked"] = masked
	rec.Record("mask_sensitive_fields", audit.Shape(f), after)
	return out, nil
}

// AnonymizeIdentifiers replaces each non-missing value x in cols with the
// first 16 hex characters of sha256(salt + x). Equal inputs map to equal
// outputs, so joins and counts on the column still work.
func AnonymizeIdentifiers(rec audit.Recorder, f *frame.Frame, cols []string, salt string) (*frame.Frame, error) {
	idx, err := f.Indexes(cols)
	if err != nil {
		return nil, fmt.Errorf("anonymize_identifiers: %w", err)
	}

	out := f.Clone()
	hashed := 0
	for _, row := range out.Rows {
		for _, c := range idx {
			if frame.IsMissing(row[c]) {
				row[c] = ""
				continue
			}
			row[c] = Pseudonym(salt, row[c])
			hashed++
		}
	}

	after := audit.Shape(out)
	after["columns_anonymized"] = append([]string(nil), cols...)
	after["cells_hashed"] = hashed
	after["salted"] = salt != ""
	rec.Record("anonymize_identifiers", audit.Shape(f), after)
	return out, nil
}

// Pseudonym returns the anonymized form of a single value.
func Pseudonym(salt, value string) string {
	sum := sha256.Sum256([]byte(salt + value))
	return hex.EncodeToString(sum[:])[:hashLen]
}
