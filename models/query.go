package models

// Drivetrain is a canonical drivetrain label.
type Drivetrain string

const (
	DriveAny Drivetrain = "ANY"
	DriveAWD Drivetrain = "AWD"
	DriveFWD Drivetrain = "FWD"
	DriveRWD Drivetrain = "RWD"
	Drive4WD Drivetrain = "4WD"
)

// Query is the structured form of one free-text search line. It is built by
// services.ParseQuery and treated as immutable afterwards.
type Query struct {
	Raw        string
	YearMin    int
	YearMax    int
	Keywords   []string
	Drivetrain Drivetrain
	Noise      []string

	// Search is the query with years and noise removed, as sent to source search pages.
	Search string
	// Make and Model are the uppercase URL tokens for sources that filter by
	// make and model. Both are empty when the query does not name a vehicle.
	Make  string
	Model string
}

// HasYears reports whether a year range was supplied.
func (q Query) HasYears() bool {
	return q.YearMin > 0 && q.YearMax > 0
}

// InYears reports whether y falls within the query's year range.
func (q Query) InYears(y int) bool {
	return y >= q.YearMin && y <= q.YearMax
}

// HasMakeModel reports whether both make and model tokens were resolved.
func (q Query) HasMakeModel() bool {
	return q.Make != "" && q.Model != ""
}
