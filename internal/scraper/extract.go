package scraper

import (
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Counts are the headcounts read from a detail page. Empty means not found.
type Counts struct {
	Recruit string `json:"recruit"`
	Applied string `json:"applied"`
}

// Label patterns in priority order.
var (
	recruitLabels = []string{`모집\s*인원`, `총\s*모집\s*인원`}
	appliedLabels = []string{`신청\s*인원`, `신청\s*현황`, `신청\s*자(?:\s*수)?`, `현재\s*신청`}
)

var (
	numberPattern = regexp.MustCompile(`([0-9][0-9,]*)\s*명`)

	// "신청 3명 / 10명": the first number is the applied count.
	appliedOverTotal = regexp.MustCompile(`신청[^0-9]{0,10}?([0-9][0-9,]*)\s*명\s*/\s*([0-9][0-9,]*)\s*명`)

	spaceRun = regexp.MustCompile(`\s+`)
)

type labelMatcher struct {
	exact  *regexp.Regexp // whole <dt> text
	prefix *regexp.Regexp // start of <th> text
	window *regexp.Regexp // label then a count within 300 characters
}

func newLabelMatchers(labels []string) []labelMatcher {
	out := make([]labelMatcher, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelMatcher{
			exact:  regexp.MustCompile(`^\s*(?:` + l + `)\s*$`),
			prefix: regexp.MustCompile(`^\s*(?:` + l + `)`),
			window: regexp.MustCompile(`(?:` + l + `)[\s\S]{0,300}?([0-9][0-9,]*)\s*명`),
		})
	}
	return out
}

var (
	recruitMatchers = newLabelMatchers(recruitLabels)
	appliedMatchers = newLabelMatchers(appliedLabels)
)

// pickNumber returns the first "<number>명" count in text with separators
// removed, or "".
func pickNumber(text string) string {
	m := numberPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.ReplaceAll(m[1], ",", "")
}

// ExtractCounts reads the recruit and applied headcounts from detail page
// HTML. For each label, in priority order, it tries a <dt>/<dd> pair, then a
// <th>/<td> pair, then a 300-character window of the page text after the
// label. If the applied count is still missing, an inline "신청 N명 / M명"
// yields N.
func ExtractCounts(page string) Counts {
	c, _ := extractFrom(strings.NewReader(page))
	return c
}

func extractFrom(r io.Reader) (Counts, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return Counts{}, err
	}
	doc.Find("script, style, noscript").Remove()

	text := flatten(doc.Selection)

	c := Counts{
		Recruit: extractByLabels(doc, text, recruitMatchers),
		Applied: extractByLabels(doc, text, appliedMatchers),
	}
	if c.Applied == "" {
		if m := appliedOverTotal.FindStringSubmatch(text); m != nil {
			c.Applied = strings.ReplaceAll(m[1], ",", "")
		}
	}
	return c, nil
}

func extractByLabels(doc *goquery.Document, text string, matchers []labelMatcher) string {
	for _, m := range matchers {
		if n := fromDefinitionList(doc, m); n != "" {
			return n
		}
		if n := fromTable(doc, m); n != "" {
			return n
		}
		if sub := m.window.FindStringSubmatch(text); sub != nil {
			return strings.ReplaceAll(sub[1], ",", "")
		}
	}
	return ""
}

func fromDefinitionList(doc *goquery.Document, m labelMatcher) string {
	var found string
	doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !m.exact.MatchString(flatten(dt)) {
			return true
		}
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return true
		}
		found = pickNumber(flatten(dd))
		return found == ""
	})
	return found
}

func fromTable(doc *goquery.Document, m labelMatcher) string {
	var found string
	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !m.prefix.MatchString(flatten(th)) {
			return true
		}
		td := th.NextAllFiltered("td").First()
		if td.Length() == 0 {
			td = th.Closest("tr").Find("td").First()
		}
		if td.Length() == 0 {
			return true
		}
		found = pickNumber(flatten(td))
		return found == ""
	})
	return found
}

// flatten joins the text nodes under sel with single spaces, so adjacent
// cells never run together into one number.
func flatten(sel *goquery.Selection) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(strings.ReplaceAll(n.Data, "\u00a0", " "))
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.TrimSpace(spaceRun.ReplaceAllString(b.String(), " "))
}
