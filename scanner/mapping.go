package scanner

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agent3d/agent3d/identifier"
)

// MappingStatus classifies one identifier in the cross-reference graph.
type MappingStatus string

const (
	// StatusMapped means the identifier is documented and implemented.
	StatusMapped MappingStatus = "mapped"
	// StatusOrphanedInDocs means the identifier is documented but no
	// implementation occurrence was found.
	StatusOrphanedInDocs MappingStatus = "orphaned_in_docs"
	// StatusOrphanedInCode means an implementation references an identifier
	// absent from documentation.
	StatusOrphanedInCode MappingStatus = "orphaned_in_code"
	// StatusMalformed means a token resembles an identifier but fails its
	// family pattern.
	StatusMalformed MappingStatus = "malformed"
	// StatusLowQuality marks a mock-only test in test-quality mode.
	StatusLowQuality MappingStatus = "low_quality"
)

// Record is the per-identifier detail of one mode's result.
type Record struct {
	ID       string        `yaml:"id"`
	Status   MappingStatus `yaml:"status"`
	Detail   string        `yaml:"detail,omitempty"`
	DocRef   string        `yaml:"doc_ref,omitempty"`
	CodeRefs []string      `yaml:"code_refs,omitempty"`
}

// Counts aggregates one mode's classification tallies.
type Counts struct {
	Expected       int `yaml:"expected"`
	Mapped         int `yaml:"mapped"`
	OrphanedInDocs int `yaml:"orphaned_in_docs"`
	OrphanedInCode int `yaml:"orphaned_in_code"`
	Malformed      int `yaml:"malformed"`
}

// ModeResult is the complete outcome of one scan mode.
type ModeResult struct {
	Mode         Mode       `yaml:"mode"`
	Counts       Counts     `yaml:"counts"`
	DriftPercent float64    `yaml:"drift_percent"`
	Level        DriftLevel `yaml:"drift_level"`
	Records      []Record   `yaml:"records,omitempty"`
}

// evaluator runs the per-mode classification over the two inventories.
type evaluator struct {
	docs       *DocInventory
	code       *CodeInventory
	thresholds Thresholds
	// projectPrefixes identify project-local imports for test-quality.
	projectPrefixes []string
}

func (e *evaluator) run(mode Mode) (*ModeResult, error) {
	switch mode {
	case ModeTCMapping:
		return e.tcMapping(), nil
	case ModeFTMapping:
		return e.ftMapping(), nil
	case ModeFTTCMapping:
		return e.ftTCMapping(), nil
	case ModeCodeCoverage:
		return e.codeCoverage(), nil
	case ModeFeatureImpl:
		return e.featureImpl(), nil
	case ModeTestQuality:
		return e.testQuality(), nil
	}
	return nil, fmt.Errorf("mode %q has no evaluator", mode)
}

// finish computes counts, drift, and level from the records.
func (e *evaluator) finish(mode Mode, records []Record) *ModeResult {
	sort.Slice(records, func(i, j int) bool {
		if records[i].ID != records[j].ID {
			return records[i].ID < records[j].ID
		}
		return records[i].Status < records[j].Status
	})

	result := &ModeResult{Mode: mode, Records: records}
	for _, r := range records {
		switch r.Status {
		case StatusMapped:
			result.Counts.Mapped++
		case StatusOrphanedInDocs, StatusLowQuality:
			result.Counts.OrphanedInDocs++
		case StatusOrphanedInCode:
			result.Counts.OrphanedInCode++
		case StatusMalformed:
			result.Counts.Malformed++
		}
	}

	orphaned := result.Counts.OrphanedInDocs + result.Counts.OrphanedInCode
	result.Counts.Expected = result.Counts.Mapped + orphaned
	if result.Counts.Expected > 0 {
		result.DriftPercent = float64(orphaned) / float64(result.Counts.Expected) * 100
	}
	result.Level = e.thresholds.Classify(result.DriftPercent)
	return result
}

// tcMapping maps documented test cases to test implementations.
func (e *evaluator) tcMapping() *ModeResult {
	byID := e.code.ByID()
	var records []Record

	documented := make(map[string]bool)
	for _, tcID := range e.docs.AllTestCaseIDs() {
		documented[tcID] = true
	}

	for _, tcID := range e.docs.AllTestCaseIDs() {
		tc := e.docs.TestCases[tcID]
		if tc == nil {
			// Sub-test: locate the base entry for the doc reference.
			if id, err := identifier.Parse(tcID); err == nil {
				tc = e.docs.TestCases[id.Base()]
			}
		}

		record := Record{ID: tcID}
		if tc != nil {
			record.DocRef = fmt.Sprintf("%s:%d", tc.File, tc.Line)
		}

		if occs := e.testOccurrences(byID, tcID); len(occs) > 0 {
			record.Status = StatusMapped
			record.CodeRefs = codeRefs(occs)
		} else {
			record.Status = StatusOrphanedInDocs
			record.Detail = "no test implementation found"
		}
		records = append(records, record)
	}

	// Test code referencing undocumented TC identifiers. Sub-test
	// occurrences of a documented base are accounted for above.
	for id, occs := range byID {
		if !strings.HasPrefix(id, "TC-") || documented[id] {
			continue
		}
		if parsed, err := identifier.Parse(id); err == nil && parsed.IsSubTest() && documented[parsed.Base()] {
			continue
		}
		records = append(records, Record{
			ID:       id,
			Status:   StatusOrphanedInCode,
			Detail:   "test references an undocumented test case",
			CodeRefs: codeRefs(occs),
		})
	}

	records = append(records, e.malformedRecords()...)
	return e.finish(ModeTCMapping, records)
}

// testOccurrences returns the code evidence for a documented test case. A
// base test case is satisfied by occurrences of its sub-tests, since
// parameterized variations carry the base identifier plus a letter suffix.
// A documented sub-test requires evidence for that exact sub-test.
func (e *evaluator) testOccurrences(byID map[string][]Occurrence, tcID string) []Occurrence {
	occs := byID[tcID]

	id, err := identifier.Parse(tcID)
	if err != nil || id.IsSubTest() {
		return occs
	}
	for codeID, codeOccs := range byID {
		if codeID == tcID {
			continue
		}
		if parsed, err := identifier.Parse(codeID); err == nil && parsed.IsSubTest() && parsed.Base() == tcID {
			occs = append(occs, codeOccs...)
		}
	}
	return occs
}

// ftMapping cross-references features and requirements inside documentation.
func (e *evaluator) ftMapping() *ModeResult {
	var records []Record

	referenced := make(map[string]bool)
	for _, ft := range e.docs.Features {
		record := Record{
			ID:     ft.ID,
			DocRef: fmt.Sprintf("%s:%d", ft.File, ft.Line),
		}

		var missing []string
		for _, req := range ft.Requirements {
			referenced[req] = true
			if _, ok := e.docs.Requirements[req]; !ok {
				missing = append(missing, req)
			}
		}

		switch {
		case len(ft.Requirements) == 0:
			record.Status = StatusOrphanedInDocs
			record.Detail = "feature references no requirement"
		case len(missing) > 0:
			record.Status = StatusOrphanedInDocs
			record.Detail = "broken requirement reference: " + strings.Join(missing, ", ")
		default:
			record.Status = StatusMapped
		}
		records = append(records, record)
	}

	for _, req := range e.docs.Requirements {
		record := Record{
			ID:     req.ID,
			DocRef: fmt.Sprintf("%s:%d", req.File, req.Line),
		}
		if referenced[req.ID] {
			record.Status = StatusMapped
		} else {
			record.Status = StatusOrphanedInDocs
			record.Detail = "no feature covers this requirement"
		}
		records = append(records, record)
	}

	return e.finish(ModeFTMapping, records)
}

// ftTCMapping cross-references features and their linked test cases.
func (e *evaluator) ftTCMapping() *ModeResult {
	var records []Record

	linked := make(map[string]bool)
	for _, ft := range e.docs.Features {
		record := Record{
			ID:     ft.ID,
			DocRef: fmt.Sprintf("%s:%d", ft.File, ft.Line),
		}

		for _, tc := range ft.TestCases {
			linked[tc] = true
			linked[strings.TrimRight(tc, "abcdefghijklmnopqrstuvwxyz")] = true
		}

		if len(ft.TestCases) == 0 {
			record.Status = StatusOrphanedInDocs
			record.Detail = "feature has no linked test case"
		} else {
			record.Status = StatusMapped
		}
		records = append(records, record)
	}

	for id, tc := range e.docs.TestCases {
		record := Record{
			ID:     id,
			DocRef: fmt.Sprintf("%s:%d", tc.File, tc.Line),
		}
		if linked[id] {
			record.Status = StatusMapped
		} else {
			record.Status = StatusOrphanedInDocs
			record.Detail = "test case is not linked to any feature"
		}
		records = append(records, record)
	}

	return e.finish(ModeFTTCMapping, records)
}

// codeCoverage maps source files to documented feature locations.
func (e *evaluator) codeCoverage() *ModeResult {
	var records []Record

	covered := make(map[string]bool)
	for _, ft := range e.docs.Features {
		loc := normalizeLocation(ft.CodeLocation)
		if loc == "" {
			continue
		}
		for _, file := range e.code.SourceFiles {
			if file == loc || strings.HasPrefix(file, loc+"/") {
				covered[file] = true
			}
		}
	}

	for _, file := range e.code.SourceFiles {
		record := Record{ID: file}
		if covered[file] {
			record.Status = StatusMapped
		} else {
			record.Status = StatusOrphanedInCode
			record.Detail = "source file not referenced by any feature Code Location"
		}
		records = append(records, record)
	}

	return e.finish(ModeCodeCoverage, records)
}

// featureImpl verifies each feature's Code Location resolves to real code.
func (e *evaluator) featureImpl() *ModeResult {
	byID := e.code.ByID()
	var records []Record

	documented := make(map[string]bool)
	for _, ft := range e.docs.Features {
		documented[ft.ID] = true
		record := Record{
			ID:     ft.ID,
			DocRef: fmt.Sprintf("%s:%d", ft.File, ft.Line),
		}

		loc := normalizeLocation(ft.CodeLocation)
		symbol := locationSymbol(ft.CodeLocation)

		switch {
		case ft.CodeLocation == "":
			record.Status = StatusOrphanedInDocs
			record.Detail = "feature declares no Code Location"
		case strings.EqualFold(ft.CodeLocation, "N/A"):
			// Explicitly unimplemented features are documented as such and
			// do not count against drift.
			continue
		case !e.locationExists(loc):
			record.Status = StatusOrphanedInDocs
			record.Detail = fmt.Sprintf("Code Location %s does not exist", ft.CodeLocation)
		case symbol != "" && !e.symbolExists(loc, symbol):
			record.Status = StatusOrphanedInDocs
			record.Detail = fmt.Sprintf("symbol %s not found in %s", symbol, loc)
		default:
			record.Status = StatusMapped
			record.CodeRefs = []string{loc}
		}
		records = append(records, record)
	}

	// FT identifiers in code comments with no documentation entry.
	for id, occs := range byID {
		if !strings.HasPrefix(id, "FT-") || documented[id] {
			continue
		}
		records = append(records, Record{
			ID:       id,
			Status:   StatusOrphanedInCode,
			Detail:   "code references an undocumented feature",
			CodeRefs: codeRefs(occs),
		})
	}

	return e.finish(ModeFeatureImpl, records)
}

// testQuality flags mock-only tests: no project import and no call to a
// project-defined function.
func (e *evaluator) testQuality() *ModeResult {
	var records []Record

	for _, test := range e.code.Tests {
		record := Record{
			ID:       fmt.Sprintf("%s:%s", test.File, test.Name),
			CodeRefs: []string{fmt.Sprintf("%s:%d", test.File, test.Line)},
		}

		if e.importsProject(test.Imports) || e.callsProject(test.Calls) {
			record.Status = StatusMapped
		} else {
			record.Status = StatusLowQuality
			record.Detail = "mock-only test: imports no project module and calls no project function"
		}
		records = append(records, record)
	}

	return e.finish(ModeTestQuality, records)
}

func (e *evaluator) importsProject(imports []string) bool {
	for _, imp := range imports {
		for _, prefix := range e.projectPrefixes {
			if imp == prefix || strings.HasPrefix(imp, prefix+"/") || strings.HasPrefix(imp, prefix+".") {
				return true
			}
		}
		// Relative imports always point into the project.
		if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") || strings.HasPrefix(imp, "crate::") {
			return true
		}
	}
	return false
}

func (e *evaluator) callsProject(calls []string) bool {
	for _, call := range calls {
		name := call
		if idx := strings.LastIndexAny(call, ".:"); idx >= 0 {
			name = call[idx+1:]
		}
		if e.code.ProjectFunctions[name] {
			return true
		}
	}
	return false
}

func (e *evaluator) malformedRecords() []Record {
	records := make([]Record, 0, len(e.docs.Malformed))
	for _, m := range e.docs.Malformed {
		records = append(records, Record{
			ID:     m.Raw,
			Status: StatusMalformed,
			DocRef: fmt.Sprintf("%s:%d", m.File, m.Line),
			Detail: "token resembles an identifier but fails its pattern",
		})
	}
	return records
}

// locationExists reports whether a Code Location path matches a known source
// file or a directory prefix of one.
func (e *evaluator) locationExists(loc string) bool {
	for _, file := range e.code.SourceFiles {
		if file == loc || strings.HasPrefix(file, loc+"/") {
			return true
		}
	}
	return false
}

// symbolExists reports whether the named function is declared at the
// location.
func (e *evaluator) symbolExists(loc, symbol string) bool {
	for file, funcs := range e.code.FunctionsByFile {
		if file != loc && !strings.HasPrefix(file, loc+"/") {
			continue
		}
		for _, fn := range funcs {
			if fn == symbol {
				return true
			}
		}
	}
	return false
}

// normalizeLocation strips the optional #Symbol suffix from a Code Location.
func normalizeLocation(loc string) string {
	if loc == "" || strings.EqualFold(loc, "N/A") {
		return ""
	}
	if idx := strings.Index(loc, "#"); idx >= 0 {
		loc = loc[:idx]
	}
	return filepath.ToSlash(strings.TrimSuffix(loc, "/"))
}

// locationSymbol returns the #Symbol suffix of a Code Location, or "".
func locationSymbol(loc string) string {
	if idx := strings.Index(loc, "#"); idx >= 0 {
		return loc[idx+1:]
	}
	return ""
}

func codeRefs(occs []Occurrence) []string {
	refs := make([]string, 0, len(occs))
	for _, occ := range occs {
		refs = append(refs, fmt.Sprintf("%s:%d", occ.File, occ.Line))
	}
	sort.Strings(refs)
	return refs
}
