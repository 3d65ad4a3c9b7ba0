package models

import "time"

// Yard is one configured inventory source. Slug selects the adapter.
type Yard struct {
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	Enabled bool   `json:"enabled"`
}

// DiagnosticKind classifies a non-fatal problem reported during a scan.
type DiagnosticKind string

const (
	DiagTransport   DiagnosticKind = "transport"
	DiagParse       DiagnosticKind = "parse"
	DiagInput       DiagnosticKind = "input"
	DiagUnsupported DiagnosticKind = "unsupported"
	DiagConfig      DiagnosticKind = "config"
)

// Diagnostic is an informational warning. It never aborts a scan.
type Diagnostic struct {
	Source  string
	Kind    DiagnosticKind
	Message string
}

// ScanEntry records the outcome of one (yard, query) pair.
type ScanEntry struct {
	Timestamp time.Time
	Yard      string
	Query     string
	Count     int
}

// ScanReport is the aggregated output of a scan.
type ScanReport struct {
	Listings    []*Listing
	Entries     []ScanEntry
	Diagnostics []Diagnostic
}
