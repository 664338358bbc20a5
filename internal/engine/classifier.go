// Package engine implements the facility ingestion pipeline: per-row
// classification, chunked batch commit, and upload rollback.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/mapguri/facility-flow/internal/model"
	"github.com/mapguri/facility-flow/internal/service"
)

// DefaultToleranceM is the default raw-vs-geocoded disagreement tolerance in
// meters. Beyond it the row routes to review instead of auto-accepting the
// geocoded point.
const DefaultToleranceM = 150.0

// Classifier decides the outcome for one candidate row. The land checker is
// injected so the decision core stays testable and so structurally invalid
// coordinates never reach the rate-limited authority.
type Classifier struct {
	land       service.LandChecker
	toleranceM float64
}

// NewClassifier creates a classifier with the given disagreement tolerance in
// meters. A non-positive tolerance falls back to the default.
func NewClassifier(land service.LandChecker, toleranceM float64) *Classifier {
	if toleranceM <= 0 {
		toleranceM = DefaultToleranceM
	}
	return &Classifier{land: land, toleranceM: toleranceM}
}

// Classify applies the tie-break policy between the geocoded and raw
// coordinates. Every branch appends a trace entry to the outcome's log; the
// trace is the only audit surface a reviewer gets.
func (c *Classifier) Classify(ctx context.Context, cand model.Candidate, geo *model.GeocodeResult) model.Outcome {
	out := model.Outcome{
		Candidate: cand,
		Name:      cand.Name,
		Address:   cand.Address,
		Floor:     cand.Floor,
	}

	rawValid := cand.HasRawCoordinate()
	if rawValid {
		out.Log(fmt.Sprintf("raw coordinate (%.6f, %.6f) is structurally valid", cand.Lat, cand.Lng))
	} else {
		out.Log(fmt.Sprintf("raw coordinate (%q, %q) is structurally invalid", cand.LatRaw, cand.LngRaw))
	}

	if geo != nil {
		return c.classifyWithGeocode(ctx, &out, cand, geo, rawValid)
	}

	if cand.Query == "" {
		out.Log("address empty; geocoding skipped")
	} else {
		out.Log("geocoding returned no match")
	}

	if rawValid {
		onLand := c.checkLand(ctx, &out, cand.Lat, cand.Lng, "raw")
		if onLand {
			out.Kind = model.OutcomeImmediate
			out.Lat = cand.Lat
			out.Lng = cand.Lng
			out.Reason = "raw coordinate verified on land"
			out.Log("accepted with raw coordinate: passes land boundary check")
			return out
		}
		out.Kind = model.OutcomeReview
		out.Lat = cand.Lat
		out.Lng = cand.Lng
		out.Reason = "raw coordinate failed land boundary check"
		out.Log("routed to review: raw coordinate off land while name/address look plausible")
		return out
	}

	out.Kind = model.OutcomeReject
	if cand.Address == "" {
		out.Reason = "no usable address and structurally invalid coordinate"
	} else {
		out.Reason = "address unresolvable and coordinate structurally invalid"
	}
	out.Log("rejected: " + out.Reason)
	return out
}

func (c *Classifier) classifyWithGeocode(ctx context.Context, out *model.Outcome, cand model.Candidate, geo *model.GeocodeResult, rawValid bool) model.Outcome {
	out.Log(fmt.Sprintf("geocoded %q to (%.6f, %.6f)", cand.Query, geo.Lat, geo.Lng))

	onLand := c.checkLand(ctx, out, geo.Lat, geo.Lng, "geocoded")
	if !onLand {
		out.Kind = model.OutcomeReview
		out.Lat = geo.Lat
		out.Lng = geo.Lng
		out.Reason = "geocoded coordinate failed land boundary check"
		out.Log("routed to review: geocoded point off land")
		return *out
	}

	address := cand.Address
	if geo.MatchedAddress != "" {
		address = geo.MatchedAddress
	}

	if !rawValid {
		out.Kind = model.OutcomeImmediate
		out.Lat = geo.Lat
		out.Lng = geo.Lng
		out.Address = address
		out.Reason = "geocode supersedes invalid raw coordinate"
		out.Log("accepted with geocoded coordinate: raw coordinate unusable")
		return *out
	}

	dist := haversineM(cand.Lat, cand.Lng, geo.Lat, geo.Lng)
	if dist <= c.toleranceM {
		out.Kind = model.OutcomeImmediate
		out.Lat = geo.Lat
		out.Lng = geo.Lng
		out.Address = address
		out.Reason = "geocode agrees with raw coordinate"
		out.Log(fmt.Sprintf("accepted with geocoded coordinate: %.0fm from raw (tolerance %.0fm)", dist, c.toleranceM))
		return *out
	}

	out.Kind = model.OutcomeReview
	out.Lat = geo.Lat
	out.Lng = geo.Lng
	out.Address = address
	out.Reason = fmt.Sprintf("geocoded and raw coordinates disagree by %.0fm", dist)
	out.Log(fmt.Sprintf("routed to review: geocode and raw disagree by %.0fm (tolerance %.0fm)", dist, c.toleranceM))
	return *out
}

// checkLand runs the boundary check and traces the result. Authority errors
// degrade to false; the trace records why.
func (c *Classifier) checkLand(ctx context.Context, out *model.Outcome, lat, lng float64, which string) bool {
	onLand, err := c.land.IsOnLand(ctx, lat, lng)
	if err != nil {
		slog.Warn("Land boundary check failed",
			"lat", lat, "lng", lng, "error", err)
		out.Log(fmt.Sprintf("%s coordinate land check unavailable: %v", which, err))
		return false
	}
	if onLand {
		out.Log(fmt.Sprintf("%s coordinate is on land", which))
	} else {
		out.Log(fmt.Sprintf("%s coordinate is not on land", which))
	}
	return onLand
}

const earthRadiusM = 6371000.0

// haversineM returns the great-circle distance between two points in meters.
func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
