// Package enrich derives normalized candidate fields from raw name/address
// pairs. Everything here is pure and deterministic.
package enrich

import (
	"regexp"
	"strconv"
	"strings"
)

// floorPattern matches trailing floor markers in a facility name: "3층",
// "지하 1층", "B1", "b2". The marker is stripped from the name.
var floorPattern = regexp.MustCompile(`(?i)\s*(?:(지하|b)\s*(\d{1,2})|(\d{1,2})\s*층)\s*$`)

// DefaultFloor is assumed when the name carries no floor marker.
const DefaultFloor = 1

// Enriched is the result of normalizing one raw name/address pair.
type Enriched struct {
	Name  string
	Query string
	Floor int
}

// Enrich extracts a floor indicator from the raw name and builds the
// geocoding query string. The facility name is appended to the address when
// it adds specificity for the geocoder (the address alone often resolves to
// a building, not the facility inside it).
func Enrich(rawName, rawAddress string) Enriched {
	name := strings.TrimSpace(rawName)
	address := strings.TrimSpace(rawAddress)

	floor := DefaultFloor
	if match := floorPattern.FindStringSubmatch(name); match != nil {
		if match[2] != "" {
			// Basement marker: 지하N or BN.
			if n, err := strconv.Atoi(match[2]); err == nil && n > 0 {
				floor = -n
			}
		} else if match[3] != "" {
			if n, err := strconv.Atoi(match[3]); err == nil && n > 0 {
				floor = n
			}
		}
		name = strings.TrimSpace(name[:len(name)-len(match[0])])
		if name == "" {
			// Floor marker was the whole name; keep the original so the
			// record stays identifiable.
			name = strings.TrimSpace(rawName)
		}
	}

	query := address
	if address != "" && name != "" && !strings.Contains(address, name) {
		query = address + " " + name
	}

	return Enriched{
		Name:  name,
		Query: query,
		Floor: floor,
	}
}
