// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"time"
)

// Facility is a committed, user-visible facility record in the live store.
type Facility struct {
	CreatedAt time.Time
	ID        string
	Name      string
	Address   string
	Category  string
	Note      string
	UploadID  string
	Lat       float64
	Lng       float64
	Floor     int
}

// FacilityID derives the identifier for the row at index within the given
// upload. Identifiers are unique per upload without a central sequence, and
// re-running the same file yields the same ids for the same upload id.
func FacilityID(uploadID string, rowIndex int) string {
	return fmt.Sprintf("t_%s_%d", uploadID, rowIndex)
}
