package model

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Key returns the identity key for a natural name.
// Names match case-insensitively after NFC normalization and trimming, the
// way the remote system compares logical names.
func Key(name string) string {
	// A Caser is stateful; one per call keeps Key safe for concurrent use.
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(name)))
}

// SameKey reports whether two names identify the same logical entity.
func SameKey(a, b string) bool {
	return Key(a) == Key(b)
}

// NormalizeAttributes canonicalizes a comma separated attribute list:
// lower-cased, trimmed, de-duplicated and sorted.
func NormalizeAttributes(attrs string) string {
	var out []string
	for _, a := range strings.Split(attrs, ",") {
		a = strings.ToLower(strings.TrimSpace(a))
		if a != "" {
			out = append(out, a)
		}
	}
	slices.Sort(out)
	return strings.Join(slices.Compact(out), ",")
}

// StepName builds the conventional name of a step registration.
func StepName(pluginType string, stage Stage, message, entity string) string {
	if entity == "" {
		entity = "any entity"
	}
	return fmt.Sprintf("%s: %s %s of %s", pluginType, stage, message, entity)
}
