package services

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"yard-sniper/models"
)

// ErrUnparseableQuery means a query does not name a make and model.
var ErrUnparseableQuery = errors.New("services: query does not name a make and model")

var (
	queryCharsRegexp  = regexp.MustCompile(`[^a-z0-9 \-]+`)
	searchCharsRegexp = regexp.MustCompile(`[^a-z0-9 ]+`)
	yearTokenRegexp   = regexp.MustCompile(`^\d{4}$`)
	yearRangeRegexp   = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
	lettersRegexp     = regexp.MustCompile(`[a-z]`)
	variantSplit      = regexp.MustCompile(`[,/]`)
)

// noiseTokens are drivetrain and engine words that never match listing text.
var noiseTokens = map[string]models.Drivetrain{
	"awd": models.DriveAWD,
	"fwd": models.DriveFWD,
	"rwd": models.DriveRWD,
	"4wd": models.Drive4WD,
	"4x4": models.Drive4WD,
	"v6":  "",
	"v8":  "",
}

func queryTokens(raw string) []string {
	q := strings.ToLower(raw)
	q = queryCharsRegexp.ReplaceAllString(q, " ")
	return strings.Fields(q)
}

func plausibleYear(tok string) (int, bool) {
	y, err := strconv.Atoi(tok)
	if err != nil || y < 1900 || y > 2099 {
		return 0, false
	}
	return y, true
}

// ParseQuery turns one free-text search line into a Query. It never fails:
// a query without a make and model simply leaves Make and Model empty.
//
//	"2011-2013 Kia Sorento AWD" → years 2011..2013, keywords [kia sorento], AWD
func ParseQuery(raw string) models.Query {
	q := models.Query{Raw: raw}

	var years []int
	seen := make(map[string]struct{})

	var addToken func(tok string)
	addToken = func(tok string) {
		if yearTokenRegexp.MatchString(tok) {
			if y, ok := plausibleYear(tok); ok {
				years = append(years, y)
			}
			return
		}
		if m := yearRangeRegexp.FindStringSubmatch(tok); m != nil {
			for _, part := range m[1:] {
				if y, ok := plausibleYear(part); ok {
					years = append(years, y)
				}
			}
			return
		}
		if strings.Contains(tok, "-") {
			for _, part := range strings.Split(tok, "-") {
				if part != "" {
					addToken(part)
				}
			}
			return
		}
		if drive, noise := noiseTokens[tok]; noise {
			q.Noise = append(q.Noise, tok)
			if drive != "" && q.Drivetrain == "" {
				q.Drivetrain = drive
			}
			return
		}
		if len(tok) <= 2 {
			return
		}
		if _, dup := seen[tok]; dup {
			return
		}
		seen[tok] = struct{}{}
		q.Keywords = append(q.Keywords, tok)
	}
	for _, tok := range queryTokens(raw) {
		addToken(tok)
	}

	if len(years) > 0 {
		q.YearMin, q.YearMax = years[0], years[0]
		for _, y := range years[1:] {
			if y < q.YearMin {
				q.YearMin = y
			}
			if y > q.YearMax {
				q.YearMax = y
			}
		}
	}

	q.Search = SearchText(raw)
	if mk, model, err := MakeModel(raw); err == nil {
		q.Make, q.Model = mk, model
	}
	return q
}

// MakeModel extracts uppercase make and model tokens for sources that filter
// by both. Model digits survive even when split from the make, so
// "mazda 6", "mazda6" and "mazda-6" all give MAZDA / MAZDA6.
func MakeModel(raw string) (string, string, error) {
	var tokens []string
	for _, tok := range queryTokens(raw) {
		if yearTokenRegexp.MatchString(tok) || yearRangeRegexp.MatchString(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}

	for i, tok := range tokens {
		if tok == "mazda6" || tok == "mazda-6" || (tok == "mazda" && i+1 < len(tokens) && tokens[i+1] == "6") {
			return "MAZDA", "MAZDA6", nil
		}
	}

	var filtered []string
	for _, tok := range tokens {
		if !lettersRegexp.MatchString(tok) {
			continue
		}
		if _, noise := noiseTokens[tok]; noise {
			continue
		}
		filtered = append(filtered, tok)
	}
	if len(filtered) < 2 {
		return "", "", ErrUnparseableQuery
	}
	return strings.ToUpper(filtered[0]), strings.ToUpper(strings.Join(filtered[1:], "")), nil
}

// SearchText strips years and noise words from raw for use in source search
// URLs: "2011-2013 Kia Sorento AWD" → "kia sorento".
func SearchText(raw string) string {
	q := strings.ToLower(raw)
	q = searchCharsRegexp.ReplaceAllString(q, " ")

	var kept []string
	for _, tok := range strings.Fields(q) {
		if yearTokenRegexp.MatchString(tok) {
			continue
		}
		if _, noise := noiseTokens[tok]; noise {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

// ExpandVariants splits lines of the form "<base> : v1, v2/v3" into one line
// per variant. Blank lines are dropped and other lines pass through trimmed.
func ExpandVariants(lines []string) []string {
	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		base, variants, found := strings.Cut(line, ":")
		if !found || !strings.ContainsAny(variants, ",/") {
			out = append(out, line)
			continue
		}
		base = strings.TrimSpace(base)
		for _, v := range variantSplit.Split(variants, -1) {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, base+" "+v)
			}
		}
	}
	return out
}
