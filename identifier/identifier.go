// Package identifier defines the REQ/FT/TC traceability identifier families
// used across Agent3D documentation and source trees.
package identifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Kind identifies one of the three identifier families.
type Kind string

const (
	// KindRequirement is a business requirement identifier (REQ-*).
	KindRequirement Kind = "requirement"
	// KindFeature is a documented capability identifier (FT-*).
	KindFeature Kind = "feature"
	// KindTestCase is a verifiable test identifier (TC-*).
	KindTestCase Kind = "test_case"
)

// IsValid reports whether the kind is one of the known families.
func (k Kind) IsValid() bool {
	switch k {
	case KindRequirement, KindFeature, KindTestCase:
		return true
	}
	return false
}

// Prefix returns the identifier prefix for the kind ("REQ", "FT", "TC").
func (k Kind) Prefix() string {
	switch k {
	case KindRequirement:
		return "REQ"
	case KindFeature:
		return "FT"
	case KindTestCase:
		return "TC"
	}
	return ""
}

// Strict full-string patterns per family. REQ and FT allow a variant suffix
// (-a, -b, ...); TC allows a bare letter suffix marking a sub-test of the
// base case (TC-CORE-001a is a parameterized variation of TC-CORE-001).
var (
	requirementPattern = regexp.MustCompile(`^REQ-[A-Z]+-\d+(-[a-z])?$`)
	featurePattern     = regexp.MustCompile(`^FT-[A-Z]+-\d+(-[a-z])?$`)
	testCasePattern    = regexp.MustCompile(`^TC-[A-Z]+-\d+([a-z])?$`)

	// scanPattern finds candidate identifiers embedded in free text. Word
	// boundaries keep substrings of longer tokens from matching.
	scanPattern = regexp.MustCompile(`\b(?:REQ-[A-Z]+-\d+(?:-[a-z])?|FT-[A-Z]+-\d+(?:-[a-z])?|TC-[A-Z]+-\d+[a-z]?)\b`)

	// loosePattern matches strings that look like they were meant to be an
	// identifier (right prefix, wrong shape). Used to distinguish malformed
	// IDs from ordinary text, which is never flagged.
	loosePattern = regexp.MustCompile(`^(?:REQ|FT|TC)-\S+$`)
)

// ID is a parsed traceability identifier.
type ID struct {
	// Raw is the identifier exactly as written (e.g. "TC-CORE-001a").
	Raw string
	// Kind is the identifier family.
	Kind Kind
}

// String returns the raw identifier text.
func (id ID) String() string { return id.Raw }

// Base returns the identifier with any sub-test or variant suffix stripped.
// For TC-CORE-001a the base is TC-CORE-001; for REQ-AUTH-002-b it is
// REQ-AUTH-002. IDs without a suffix return themselves.
func (id ID) Base() string {
	switch id.Kind {
	case KindTestCase:
		last := id.Raw[len(id.Raw)-1]
		if last >= 'a' && last <= 'z' {
			return id.Raw[:len(id.Raw)-1]
		}
	case KindRequirement, KindFeature:
		if len(id.Raw) > 2 && id.Raw[len(id.Raw)-2] == '-' {
			last := id.Raw[len(id.Raw)-1]
			if last >= 'a' && last <= 'z' {
				return id.Raw[:len(id.Raw)-2]
			}
		}
	}
	return id.Raw
}

// IsSubTest reports whether a test-case identifier carries a sub-test suffix.
// Always false for non-TC identifiers.
func (id ID) IsSubTest() bool {
	return id.Kind == KindTestCase && id.Base() != id.Raw
}

// Parse parses a string as a traceability identifier. The full string must
// match one of the family patterns.
func Parse(s string) (ID, error) {
	switch {
	case requirementPattern.MatchString(s):
		return ID{Raw: s, Kind: KindRequirement}, nil
	case featurePattern.MatchString(s):
		return ID{Raw: s, Kind: KindFeature}, nil
	case testCasePattern.MatchString(s):
		return ID{Raw: s, Kind: KindTestCase}, nil
	}
	return ID{}, fmt.Errorf("not a traceability identifier: %q", s)
}

// Match reports whether s is exactly a valid identifier of any family.
func Match(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// LooksLikeID reports whether s resembles an identifier (REQ-/FT-/TC- prefix)
// without necessarily being well formed. A string for which LooksLikeID is
// true but Match is false is classified as malformed; everything else is
// plain text and ignored.
func LooksLikeID(s string) bool {
	return loosePattern.MatchString(s)
}

// FindAll extracts every valid identifier occurrence from free text, in
// order of appearance. Duplicates are preserved; callers dedupe as needed.
func FindAll(text string) []ID {
	matches := scanPattern.FindAllString(text, -1)
	ids := make([]ID, 0, len(matches))
	for _, m := range matches {
		if id, err := Parse(m); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// FindAllOfKind extracts identifiers of a single family from free text.
func FindAllOfKind(text string, kind Kind) []ID {
	var out []ID
	for _, id := range FindAll(text) {
		if id.Kind == kind {
			out = append(out, id)
		}
	}
	return out
}

// Unique returns the distinct raw identifiers from ids, sorted.
func Unique(ids []ID) []string {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id.Raw] = true
	}
	out := make([]string, 0, len(seen))
	for raw := range seen {
		out = append(out, raw)
	}
	sort.Strings(out)
	return out
}

// Section extracts the section component of an identifier (the [A-Z]+ part),
// e.g. "CORE" from TC-CORE-001. Returns "" when the identifier is malformed.
func Section(raw string) string {
	parts := strings.SplitN(raw, "-", 3)
	if len(parts) < 3 {
		return ""
	}
	return parts[1]
}
