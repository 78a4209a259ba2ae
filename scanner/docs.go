package scanner

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/agent3d/agent3d/identifier"
)

// FeatureEntry is one documented capability (FT-ID) with its traceability
// links.
type FeatureEntry struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	Status       string   `yaml:"status"`
	CodeLocation string   `yaml:"code_location,omitempty"`
	Requirements []string `yaml:"requirements,omitempty"`
	TestCases    []string `yaml:"test_cases,omitempty"`
	File         string   `yaml:"file"`
	Line         int      `yaml:"line"`
}

// RequirementEntry is one documented business requirement (REQ-ID).
type RequirementEntry struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	File  string `yaml:"file"`
	Line  int    `yaml:"line"`
}

// TestCaseEntry is one documented test case (TC-ID). Sub-tests are recorded
// on their base entry.
type TestCaseEntry struct {
	ID       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	SubTests []string `yaml:"sub_tests,omitempty"`
	File     string   `yaml:"file"`
	Line     int      `yaml:"line"`
}

// MalformedID is a token that resembles a traceability identifier but fails
// the family pattern.
type MalformedID struct {
	Raw  string `yaml:"raw"`
	File string `yaml:"file"`
	Line int    `yaml:"line"`
}

// DocInventory is the documentation side of the cross-reference graph.
type DocInventory struct {
	Features     map[string]*FeatureEntry
	Requirements map[string]*RequirementEntry
	TestCases    map[string]*TestCaseEntry
	Malformed    []MalformedID
}

// Bullet-entry shapes. The leading checkbox is optional; its mark becomes the
// entry status.
var (
	entryLineRe        = regexp.MustCompile(`^(\s*)[-*]\s*(?:\[([ x~])\]\s*)?((?:REQ|FT|TC)-\S+)\s*(?:[-:–]\s*(.*))?$`)
	codeLocationRe     = regexp.MustCompile(`Code Location:\s*` + "`?" + `([^\s` + "`" + `]+)` + "`?")
	templateTagRe      = regexp.MustCompile(`</?(?:template|example)>`)
	placeholderTokenRe = regexp.MustCompile(`\{\{[^}]*\}\}`)
)

// DocScanner extracts the documented identifier inventory from markdown and
// YAML documentation files.
type DocScanner struct {
	root string
}

// NewDocScanner creates a DocScanner rooted at root.
func NewDocScanner(root string) *DocScanner {
	return &DocScanner{root: root}
}

// Scan reads every doc file and builds the inventory. Unreadable files are
// skipped; the caller logs them via the returned warnings.
func (s *DocScanner) Scan(docs []string) (*DocInventory, []string) {
	inv := &DocInventory{
		Features:     make(map[string]*FeatureEntry),
		Requirements: make(map[string]*RequirementEntry),
		TestCases:    make(map[string]*TestCaseEntry),
	}

	var warnings []string
	for _, rel := range docs {
		if err := s.scanFile(rel, inv); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", rel, err))
		}
	}
	return inv, warnings
}

func (s *DocScanner) scanFile(rel string, inv *DocInventory) error {
	f, err := os.Open(filepath.Join(s.root, rel))
	if err != nil {
		return err
	}
	defer f.Close()

	var (
		currentFeature *FeatureEntry
		featureIndent  int
		lineNo         int
	)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		// Template scaffolding is never part of the real inventory.
		if templateTagRe.MatchString(line) || placeholderTokenRe.MatchString(line) {
			continue
		}

		m := entryLineRe.FindStringSubmatch(line)
		if m == nil {
			// Non-entry lines still feed the current feature: sub-bullet
			// metadata such as Code Location and linked requirements.
			if currentFeature != nil {
				if loc := codeLocationRe.FindStringSubmatch(line); loc != nil {
					currentFeature.CodeLocation = loc[1]
				}
				for _, id := range identifier.FindAllOfKind(line, identifier.KindRequirement) {
					currentFeature.Requirements = appendUniqueString(currentFeature.Requirements, id.Raw)
				}
			}
			continue
		}

		indent := len(m[1])
		mark := m[2]
		rawID := m[3]
		title := strings.TrimSpace(m[4])

		id, parseErr := identifier.Parse(rawID)
		if parseErr != nil {
			if identifier.LooksLikeID(rawID) {
				inv.Malformed = append(inv.Malformed, MalformedID{Raw: rawID, File: rel, Line: lineNo})
			}
			continue
		}

		switch id.Kind {
		case identifier.KindRequirement:
			if _, exists := inv.Requirements[id.Raw]; !exists {
				inv.Requirements[id.Raw] = &RequirementEntry{ID: id.Raw, Title: title, File: rel, Line: lineNo}
			}

		case identifier.KindFeature:
			entry := &FeatureEntry{
				ID:     id.Raw,
				Title:  title,
				Status: statusFromMark(mark),
				File:   rel,
				Line:   lineNo,
			}
			if loc := codeLocationRe.FindStringSubmatch(line); loc != nil {
				entry.CodeLocation = loc[1]
			}
			for _, ref := range identifier.FindAllOfKind(title, identifier.KindRequirement) {
				entry.Requirements = appendUniqueString(entry.Requirements, ref.Raw)
			}
			if _, exists := inv.Features[id.Raw]; !exists {
				inv.Features[id.Raw] = entry
			}
			currentFeature = inv.Features[id.Raw]
			featureIndent = indent

		case identifier.KindTestCase:
			base := id.Base()
			entry, exists := inv.TestCases[base]
			if !exists {
				entry = &TestCaseEntry{ID: base, File: rel, Line: lineNo}
				inv.TestCases[base] = entry
			}
			if id.IsSubTest() {
				entry.SubTests = appendUniqueString(entry.SubTests, id.Raw)
			} else if entry.Title == "" {
				entry.Title = title
				entry.File = rel
				entry.Line = lineNo
			}

			// A TC bullet nested under a feature links the two.
			if currentFeature != nil && indent > featureIndent {
				currentFeature.TestCases = appendUniqueString(currentFeature.TestCases, id.Raw)
			}
		}

		// A new top-level entry of any kind at or above the feature's indent
		// closes the feature's sub-bullet scope.
		if id.Kind != identifier.KindTestCase && id.Kind != identifier.KindFeature && indent <= featureIndent {
			currentFeature = nil
		}
	}

	return scanner.Err()
}

func statusFromMark(mark string) string {
	switch mark {
	case "x":
		return "complete"
	case "~":
		return "in_progress"
	default:
		return "pending"
	}
}

func appendUniqueString(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}

// AllTestCaseIDs returns every documented TC identifier including sub-tests,
// sorted.
func (inv *DocInventory) AllTestCaseIDs() []string {
	var ids []identifier.ID
	for _, tc := range inv.TestCases {
		if id, err := identifier.Parse(tc.ID); err == nil {
			ids = append(ids, id)
		}
		for _, sub := range tc.SubTests {
			if id, err := identifier.Parse(sub); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return identifier.Unique(ids)
}
