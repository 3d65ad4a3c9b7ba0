package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"yard-sniper/models"
)

// Lane is one part variant evaluated on its own against sold comparables.
type Lane struct {
	Label string
	Query string
}

var airBagRegexp = regexp.MustCompile(`(?i)\bair[\s\-]+bag\b`)

var interiorColors = []string{"black", "gray", "grey", "tan", "beige", "brown", "red", "blue"}

// coreModules are probed for every decoded vehicle.
var coreModules = []Lane{
	{Label: "BCM", Query: "body control module"},
	{Label: "PCM / ECU", Query: "engine control module"},
	{Label: "TCM", Query: "transmission control module"},
	{Label: "ABS module", Query: "ABS module"},
	{Label: "EPS module", Query: "electric power steering module"},
}

// DefaultPlatformFeatures lists high-value option modules per decoded model.
var DefaultPlatformFeatures = map[string][]string{
	"RANGE ROVER": {
		"adaptive cruise control module",
		"adaptive cruise radar sensor",
		"radar distance sensor",
		"distance control module",
		"air suspension control module",
		"suspension ride height module",
		"blind spot monitor module",
		"park distance control module",
	},
	"RANGE ROVER SPORT": {
		"adaptive cruise control module",
		"adaptive cruise radar sensor",
		"radar distance sensor",
		"air suspension control module",
		"blind spot monitor module",
		"park distance control module",
	},
}

// PartKeywords returns the marketplace phrases for a part type. Cradles are
// narrowed by cradlePos ("front", "rear" or anything else for generic);
// unknown part types are treated as cradles.
func PartKeywords(partType, cradlePos string) []string {
	pt := strings.ToLower(partType)
	if pt == "" {
		pt = "cradle"
	}
	pos := strings.ToLower(cradlePos)

	switch {
	case strings.Contains(pt, "cradle"):
		switch {
		case strings.Contains(pos, "rear"):
			return []string{"rear subframe", "rear suspension subframe", "rear crossmember"}
		case strings.Contains(pos, "front"):
			return []string{"front subframe", "engine cradle", "front suspension subframe"}
		}
	case strings.Contains(pt, "steering"):
		return []string{"steering rack", "rack and pinion", "power steering rack"}
	case strings.Contains(pt, "pump"):
		return []string{"power steering pump", "ps pump", "steering pump"}
	case strings.Contains(pt, "engine") || strings.Contains(pt, "motor"):
		return []string{"complete engine", "engine long block", "engine assembly"}
	case strings.Contains(pt, "trans") || strings.Contains(pt, "gearbox"):
		return []string{"automatic transmission", "transmission assembly", "gearbox"}
	case strings.Contains(pt, "ecu") || strings.Contains(pt, "tcm") || strings.Contains(pt, "bcm"):
		return []string{
			"ECU", "engine control module", "engine computer", "PCM", "ECM",
			"TCM", "transmission control module", "BCM", "body control module",
		}
	}
	return []string{"subframe", "engine cradle", "k frame"}
}

// CompQuery builds the sold-comparables query for pulling partType from l.
// Decoded year, make and model are preferred; the title is used when the
// listing was never decoded.
func CompQuery(l *models.Listing, partType, cradlePos string) string {
	var parts []string
	if l.Decoded != nil {
		if label := l.Decoded.Label(); label != "" {
			parts = append(parts, label)
		}
	}
	if len(parts) == 0 && l.Title != "" {
		parts = append(parts, l.Title)
	}
	parts = append(parts, PartKeywords(partType, cradlePos)...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// CradleLanes returns the cradle lanes a decoded vehicle supports: front and
// rear for AWD, one side for FWD or RWD, a generic lane otherwise. It returns
// nil when the vehicle has no year, make or model.
func CradleLanes(info models.VinInfo) []Lane {
	label := info.Label()
	if label == "" {
		return nil
	}
	front := label + " front subframe engine cradle k frame"
	rear := label + " rear subframe engine cradle k frame"

	switch info.Drivetrain {
	case models.DriveAWD:
		return []Lane{{"Front AWD cradle", front}, {"Rear AWD cradle", rear}}
	case models.DriveFWD:
		return []Lane{{"Front cradle", front}}
	case models.DriveRWD:
		return []Lane{{"Rear cradle", rear}}
	}
	return []Lane{{"Cradle", label + " subframe engine cradle k frame"}}
}

// RewriteAirbagQuery strengthens loose airbag searches such as
// "camry driver bag" into "camry driver bag airbag steering wheel black".
// It reports false and returns raw unchanged for queries that are not about
// airbags.
func RewriteAirbagQuery(raw string) (string, bool) {
	lower := strings.ToLower(raw)
	if raw == "" || !strings.Contains(lower, "bag") {
		return raw, false
	}

	q := raw
	if strings.Contains(lower, "air bag") || strings.Contains(lower, "air-bag") {
		q = airBagRegexp.ReplaceAllString(q, "airbag")
	} else if !strings.Contains(lower, "airbag") {
		q += " airbag"
	}
	lower = strings.ToLower(q)

	appendIf := func(cond bool, s string) {
		if cond {
			q += s
			lower = strings.ToLower(q)
		}
	}
	appendIf(strings.Contains(lower, "driver") && !strings.Contains(lower, "steering") && !strings.Contains(lower, "wheel"), " steering wheel")
	appendIf(strings.Contains(lower, "passenger") && !strings.Contains(lower, "dash"), " dash")
	for _, w := range []string{"curtain", "knee", "seat"} {
		appendIf(strings.Contains(lower, w) && !strings.Contains(lower, "airbag"), " airbag")
	}

	hasColor := false
	for _, c := range interiorColors {
		if strings.Contains(lower, c) {
			hasColor = true
			break
		}
	}
	appendIf(!hasColor, " black")

	return strings.TrimSpace(q), true
}

// ModuleQueries lists the electronic module probes for a decoded vehicle:
// the core modules followed by any platform feature modules keyed by the
// uppercase model. It returns nil unless year, make and model are all known.
func ModuleQueries(info models.VinInfo, features map[string][]string) []Lane {
	if info.Year == 0 || info.Make == "" || info.Model == "" {
		return nil
	}
	prefix := strconv.Itoa(info.Year) + " " + info.Make + " " + info.Model + " "

	lanes := make([]Lane, 0, len(coreModules))
	for _, m := range coreModules {
		lanes = append(lanes, Lane{Label: m.Label, Query: prefix + m.Query})
	}
	for _, feat := range features[strings.ToUpper(strings.TrimSpace(info.Model))] {
		if feat = strings.TrimSpace(feat); feat != "" {
			lanes = append(lanes, Lane{Label: "Feature: " + feat, Query: prefix + feat})
		}
	}
	return lanes
}

// RankModules orders module profiles by sample count, then average price,
// both descending.
func RankModules(profiles []models.ProfitabilityProfile) {
	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].SampleCount != profiles[j].SampleCount {
			return profiles[i].SampleCount > profiles[j].SampleCount
		}
		return profiles[i].AvgPrice > profiles[j].AvgPrice
	})
}
