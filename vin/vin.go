// Package vin decodes vehicle identification numbers and canonicalizes the
// drivetrain labels reported by decode services.
package vin

import (
	"regexp"
	"strings"

	"yard-sniper/models"
)

// Length is the number of characters in a modern VIN.
const Length = 17

// MinDecodeLength is the shortest input worth sending to the decode service.
const MinDecodeLength = 11

// Pattern matches a VIN-shaped token. The alphabet excludes I, O and Q.
var Pattern = regexp.MustCompile(`(?i)\b[A-HJ-NPR-Z0-9]{17}\b`)

var exactPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// Valid reports whether s is a well-formed uppercase VIN.
func Valid(s string) bool {
	return exactPattern.MatchString(s)
}

// Normalize uppercases and trims s, returning "" when it is not a valid VIN.
func Normalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !Valid(s) {
		return ""
	}
	return s
}

// Match is one VIN found in a block of text.
type Match struct {
	VIN   string
	Start int
	End   int
}

// Find returns every VIN-shaped token in text, uppercased, in order of appearance.
func Find(text string) []Match {
	locs := Pattern.FindAllStringIndex(text, -1)
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, Match{
			VIN:   strings.ToUpper(text[loc[0]:loc[1]]),
			Start: loc[0],
			End:   loc[1],
		})
	}
	return out
}

// Canonicalize maps a free-text drivetrain description onto FWD, RWD or AWD.
// Rules are applied in priority order; unmatched input is returned trimmed.
func Canonicalize(raw string) models.Drivetrain {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	d := strings.ToUpper(trimmed)
	switch {
	case strings.Contains(d, "FRONT") || strings.Contains(d, "FWD"):
		return models.DriveFWD
	case strings.Contains(d, "REAR") || strings.Contains(d, "RWD"):
		return models.DriveRWD
	case strings.Contains(d, "4X4") || strings.Contains(d, "4WD") ||
		strings.Contains(d, "ALL") || strings.Contains(d, "AWD"):
		return models.DriveAWD
	}
	return models.Drivetrain(trimmed)
}

// SameBucket reports whether two drivetrain labels are equal for filtering.
// 4WD, 4X4 and combined labels such as "4WD/4x4" share one bucket.
func SameBucket(a, b string) bool {
	return bucket(a) == bucket(b)
}

func bucket(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if strings.Contains(s, "4WD") || strings.Contains(s, "4X4") {
		return "4WD"
	}
	return s
}

// Engine builds an engine description from decode fields. An explicit engine
// model wins; otherwise displacement and cylinder count are combined from the
// parts that are present.
func Engine(engineModel, displacement, cylinders string) string {
	if e := strings.TrimSpace(engineModel); e != "" {
		return e
	}
	var parts []string
	if d := strings.TrimSpace(displacement); d != "" {
		parts = append(parts, d+"L")
	}
	if c := strings.TrimSpace(cylinders); c != "" {
		parts = append(parts, c+"cyl")
	}
	return strings.Join(parts, " ")
}

const yearCodes = "ABCDEFGHJKLMNPRSTVWXY123456789"

// ModelYear infers the model year from the tenth character of a VIN. The code
// cycles every 30 years; a letter in position seven selects the 2010 cycle,
// a digit the 1980 cycle. It returns 0 when the code is not a year code.
func ModelYear(v string) int {
	v = strings.ToUpper(v)
	if len(v) < Length {
		return 0
	}
	idx := strings.IndexByte(yearCodes, v[9])
	if idx < 0 {
		return 0
	}
	if c := v[6]; c >= '0' && c <= '9' {
		return 1980 + idx
	}
	return 2010 + idx
}
