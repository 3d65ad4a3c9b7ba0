package models

import (
	"strconv"
	"time"
)

// Listing is one candidate vehicle record found at a salvage-yard source.
// It is created by exactly one source adapter, enriched in place by the VIN
// decoder and read-only after that.
type Listing struct {
	SourceID      string
	Yard          string
	Query         string
	Title         string
	Link          string
	RawSnippet    string
	FoundDate     time.Time
	DrivetrainTag string
	Row           string
	EngineTag     string
	VIN           string
	Decoded       *VinInfo
}

// Drivetrain returns the best known drivetrain: the decoded one when present,
// otherwise the tag observed at the source.
func (l *Listing) Drivetrain() string {
	if l.Decoded != nil && l.Decoded.Drivetrain != "" {
		return string(l.Decoded.Drivetrain)
	}
	return l.DrivetrainTag
}

// HasVIN reports whether the listing carries a VIN.
func (l *Listing) HasVIN() bool {
	return l.VIN != ""
}

// VinInfo is the result of a VIN decode. Zero values mean the field is unknown.
type VinInfo struct {
	Year       int
	Make       string
	Model      string
	Engine     string
	Drivetrain Drivetrain
}

// IsZero reports whether the decode produced nothing usable.
func (v VinInfo) IsZero() bool {
	return v.Year == 0 && v.Make == "" && v.Model == "" && v.Engine == "" && v.Drivetrain == ""
}

// Label joins year, make and model, skipping unknown parts.
func (v VinInfo) Label() string {
	out := ""
	if v.Year > 0 {
		out = strconv.Itoa(v.Year)
	}
	for _, p := range []string{v.Make, v.Model} {
		if p == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += p
	}
	return out
}
