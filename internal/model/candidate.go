package model

// Candidate is one row of the input file after column resolution and address
// enrichment, immutable once derived. Raw coordinate strings are kept for
// provenance alongside their parsed values.
type Candidate struct {
	Name     string
	Address  string
	Query    string // address string handed to the geocoder (may include the name)
	Category string
	Note     string
	LatRaw   string
	LngRaw   string
	Lat      float64
	Lng      float64
	Floor    int
	RowIndex int
}

// HasRawCoordinate reports whether the raw latitude/longitude pair is
// structurally usable: non-zero and within world range. It says nothing about
// whether the point is on land.
func (c Candidate) HasRawCoordinate() bool {
	if c.Lat == 0 && c.Lng == 0 {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// GeocodeResult is the authoritative coordinate resolved for an address.
// A nil *GeocodeResult means no match, provider failure, or an empty query.
type GeocodeResult struct {
	MatchedAddress string
	Lat            float64
	Lng            float64
}
