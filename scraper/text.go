package scraper

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	slashDatePattern = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{2,4})`)
	isoDatePattern   = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)

	driveTags     = []string{"AWD", "4WD", "4x4", "FWD", "RWD"}
	drivePatterns = compileDrivePatterns(driveTags)
)

func compileDrivePatterns(tags []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(tags))
	for i, t := range tags {
		out[i] = regexp.MustCompile(`(?i)\b` + t + `\b`)
	}
	return out
}

func skipped(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// VisibleLines returns the trimmed, non-empty lines of text in an HTML
// document, one or more per text node, in document order. Script and style
// content is ignored.
func VisibleLines(body []byte) []string {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
			return
		}
		if n.Type == html.TextNode {
			for _, ln := range strings.Split(n.Data, "\n") {
				if ln = strings.TrimSpace(ln); ln != "" {
					lines = append(lines, ln)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return lines
}

// VisibleText is VisibleLines joined by newlines.
func VisibleText(body []byte) string {
	return strings.Join(VisibleLines(body), "\n")
}

// NodeText returns the text under n with text nodes separated by a space and
// whitespace collapsed.
func NodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if skipped(n) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// FindYear returns the first plausible model year in text, or 0.
func FindYear(text string) int {
	m := yearPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	return y
}

// NormalizeDate returns the first mm/dd/yy, mm/dd/yyyy or yyyy-mm-dd date in
// text. Two-digit years are taken as 20yy. It returns the zero time when no
// valid date is present.
func NormalizeDate(text string) time.Time {
	if m := slashDatePattern.FindStringSubmatch(text); m != nil {
		mm, _ := strconv.Atoi(m[1])
		dd, _ := strconv.Atoi(m[2])
		yy, _ := strconv.Atoi(m[3])
		if yy < 100 {
			yy += 2000
		}
		if t, ok := makeDate(yy, mm, dd); ok {
			return t
		}
	}
	if m := isoDatePattern.FindStringSubmatch(text); m != nil {
		yy, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		dd, _ := strconv.Atoi(m[3])
		if t, ok := makeDate(yy, mm, dd); ok {
			return t
		}
	}
	return time.Time{}
}

func makeDate(y, m, d int) (time.Time, bool) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// DriveTag returns the first drivetrain keyword that appears as a word in
// text, checked in the order AWD, 4WD, 4x4, FWD, RWD.
func DriveTag(text string) string {
	for i, re := range drivePatterns {
		if re.MatchString(text) {
			return driveTags[i]
		}
	}
	return ""
}

// Truncate shortens s to at most max runes.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
