package tabular

import (
	"fmt"
	"strings"
)

// ColumnMapping holds the resolved zero-based column index for each semantic
// field, plus which fields fell back to their positional default so the
// operator can verify the mapping before committing.
type ColumnMapping struct {
	Name        int
	RoadAddress int
	LotAddress  int
	Lat         int
	Lng         int
	Category    int
	Note        int
	Defaulted   []string
}

// Candidate tokens per field, matched case-insensitively as substrings
// against header cells. Korean synonyms first since most source files are
// government open-data exports.
var columnTokens = map[string][]string{
	"name":        {"이름", "명칭", "화장실명", "name", "title"},
	"roadAddress": {"도로명", "road", "주소", "address"},
	"lotAddress":  {"지번", "lot", "번지"},
	"lat":         {"위도", "lat"},
	"lng":         {"경도", "lng", "lon", "long"},
	"category":    {"구분", "분류", "유형", "category", "type"},
	"note":        {"비고", "메모", "특이", "note", "memo", "remark"},
}

// Positional defaults used when no header cell matches.
var columnDefaults = map[string]int{
	"name":        0,
	"roadAddress": 1,
	"lotAddress":  2,
	"lat":         3,
	"lng":         4,
	"category":    5,
	"note":        6,
}

// ResolveColumns inspects the header row and maps each semantic field to a
// column index. Resolution never fails: fields with no matching header token
// silently degrade to a fixed positional default, recorded in Defaulted.
func ResolveColumns(header Row) ColumnMapping {
	m := ColumnMapping{}

	// Road address tokens include plain "address" forms, which would also
	// match a lot-address header. Resolve lot address first and skip its
	// column when resolving the road address.
	lotIdx, lotMatched := resolveColumn(header, "lotAddress", -1)

	roadSkip := -1
	if lotMatched {
		roadSkip = lotIdx
	}

	fields := []struct {
		target *int
		name   string
		skip   int
	}{
		{&m.Name, "name", -1},
		{&m.RoadAddress, "roadAddress", roadSkip},
		{&m.LotAddress, "lotAddress", -1},
		{&m.Lat, "lat", -1},
		{&m.Lng, "lng", -1},
		{&m.Category, "category", -1},
		{&m.Note, "note", -1},
	}

	for _, f := range fields {
		idx, matched := resolveColumn(header, f.name, f.skip)
		*f.target = idx
		if !matched {
			m.Defaulted = append(m.Defaulted, f.name)
		}
	}

	return m
}

// resolveColumn finds the first header cell containing one of the field's
// candidate tokens, ignoring the skip index. Falls back to the field's
// positional default when nothing matches.
func resolveColumn(header Row, field string, skip int) (int, bool) {
	for idx, cell := range header {
		if idx == skip {
			continue
		}
		lowered := strings.ToLower(strings.TrimSpace(cell))
		if lowered == "" {
			continue
		}
		for _, token := range columnTokens[field] {
			if strings.Contains(lowered, token) {
				return idx, true
			}
		}
	}
	return columnDefaults[field], false
}

// Field returns the trimmed value of the row at index, or "" when the row is
// short. Input files routinely have ragged rows.
func Field(row Row, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}

// Summary renders a one-line description of the resolved mapping for the
// operator log.
func (m ColumnMapping) Summary() string {
	s := fmt.Sprintf("columns: name=%d road=%d lot=%d lat=%d lng=%d category=%d note=%d",
		m.Name, m.RoadAddress, m.LotAddress, m.Lat, m.Lng, m.Category, m.Note)
	if len(m.Defaulted) > 0 {
		s += fmt.Sprintf(" (defaulted: %s)", strings.Join(m.Defaulted, ","))
	}
	return s
}
