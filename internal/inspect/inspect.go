// Package inspect enumerates candidate locators on live pages and reports
// what they match. It helps to keep the locator contract in sync with the
// markup of the application and never judges the page.
package inspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
	"github.com/jakopako/flowcheck/internal/utils"
	"github.com/jakopako/flowcheck/internal/wait"
)

const (
	// MaxMatches is the number of matches described per finding.
	MaxMatches = 3
	// TextLimit is the number of runes kept of an element's text.
	TextLimit = 50
	// MaxSuggestions is the number of near miss texts offered for a missing
	// text-contains locator.
	MaxSuggestions = 3
)

// Description names one element to look for and the locators that may
// find it.
type Description struct {
	Name       string            `json:"name"`
	Optional   bool              `json:"optional,omitempty"`
	Candidates []locator.Locator `json:"candidates"`
}

// Descriptions turns the elements of a contract page into descriptions.
func Descriptions(p locator.Page) []Description {
	ds := make([]Description, 0, len(p.Elements))
	for _, e := range p.Elements {
		ds = append(ds, Description{Name: e.Name, Optional: e.Optional, Candidates: e.Candidates})
	}
	return ds
}

// Match describes one element matched by a locator.
type Match struct {
	Tag         string `json:"tag"`
	ID          string `json:"id,omitempty"`
	Class       string `json:"class,omitempty"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Text        string `json:"text,omitempty"`
}

// Finding is the inspection result of one description.
type Finding struct {
	Name     string           `json:"name"`
	Optional bool             `json:"optional,omitempty"`
	Found    bool             `json:"found"`
	Locator  *locator.Locator `json:"locator,omitempty"`
	// Count is the total number of elements the locator matched.
	Count       int      `json:"count"`
	Matches     []Match  `json:"matches,omitempty"`
	Tried       int      `json:"tried"`
	Errors      []string `json:"errors,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Report is the inspection result of one page.
type Report struct {
	Page     string    `json:"page"`
	URL      string    `json:"url"`
	Findings []Finding `json:"findings"`
	// Error is set if the page could not be inspected at all.
	Error string `json:"error,omitempty"`
}

// Tally returns the number of found descriptions and the total.
func (r *Report) Tally() (found, total int) {
	for _, f := range r.Findings {
		if f.Found {
			found++
		}
	}
	return found, len(r.Findings)
}

// Inspector holds the settings of an inspection run.
type Inspector struct {
	// Settle is waited after navigating before the first lookup.
	Settle time.Duration
}

// Inspect inspects pageURL with a default Inspector.
func Inspect(ctx context.Context, s *driver.Session, pageURL string, descriptions []Description) (*Report, error) {
	in := Inspector{}
	return in.Inspect(ctx, s, pageURL, descriptions)
}

// Inspect navigates to pageURL and looks up every description. For each
// description the candidates are tried in kind priority (attribute,
// structural, tag) and the first candidate with at least one match is
// reported. A failing candidate counts as no match. Only navigation
// failures and context cancellation end the inspection with an error.
func (in *Inspector) Inspect(ctx context.Context, s *driver.Session, pageURL string, descriptions []Description) (*Report, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("url", pageURL))
	r := &Report{URL: pageURL}
	if err := s.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", pageURL, err)
	}
	if err := wait.For(ctx, in.Settle); err != nil {
		return nil, err
	}
	for _, d := range descriptions {
		f, err := in.inspectOne(ctx, s, d)
		if err != nil {
			return nil, err
		}
		if f.Found {
			logger.Debug(fmt.Sprintf("found %d element(s) for %s with %s", f.Count, d.Name, f.Locator))
		} else {
			logger.Debug(fmt.Sprintf("no element found for %s", d.Name))
		}
		r.Findings = append(r.Findings, f)
	}
	return r, nil
}

func (in *Inspector) inspectOne(ctx context.Context, s *driver.Session, d Description) (Finding, error) {
	f := Finding{Name: d.Name, Optional: d.Optional}
	for _, c := range locator.SortByPriority(d.Candidates) {
		f.Tried++
		els, err := s.FindAll(ctx, c)
		if err != nil {
			if ctx.Err() != nil {
				return f, ctx.Err()
			}
			if errors.Is(err, driver.ErrSessionReleased) {
				return f, err
			}
			f.Errors = append(f.Errors, fmt.Sprintf("%s: %v", c, err))
			continue
		}
		if len(els) == 0 {
			continue
		}
		f.Found = true
		f.Locator = &c
		f.Count = len(els)
		for _, el := range els[:min(len(els), MaxMatches)] {
			m, err := describe(ctx, s, el)
			if err != nil {
				return f, err
			}
			f.Matches = append(f.Matches, m)
		}
		return f, nil
	}
	sug, err := suggest(ctx, s, d.Candidates)
	if err != nil {
		return f, err
	}
	f.Suggestions = sug
	return f, nil
}

func describe(ctx context.Context, s *driver.Session, el driver.Element) (Match, error) {
	m := Match{Tag: el.TagName()}
	attrs := []struct {
		name string
		dst  *string
	}{
		{"id", &m.ID},
		{"class", &m.Class},
		{"name", &m.Name},
		{"type", &m.Type},
		{"placeholder", &m.Placeholder},
	}
	for _, a := range attrs {
		v, err := s.Attribute(ctx, el, a.name)
		if err != nil {
			return m, err
		}
		*a.dst = v
	}
	text, err := s.Text(ctx, el)
	if err != nil {
		return m, err
	}
	m.Text = utils.Truncate(strings.TrimSpace(text), TextLimit)
	return m, nil
}

var textContainsRe = regexp.MustCompile(`//([\w*-]+)\[contains\(text\(\),\s*(?:'([^']*)'|"([^"]*)")\)`)

// wanted returns the tags and texts looked for by the text-contains
// expressions of the structural candidates.
func wanted(candidates []locator.Locator) map[string][]string {
	w := map[string][]string{}
	for _, c := range candidates {
		if c.Kind != locator.KindStructural {
			continue
		}
		for _, m := range textContainsRe.FindAllStringSubmatch(c.Pattern, -1) {
			text := m[2] + m[3]
			if text == "" || slices.Contains(w[m[1]], text) {
				continue
			}
			w[m[1]] = append(w[m[1]], text)
		}
	}
	return w
}

type scored struct {
	text string
	dist int
}

// suggest looks up the texts of all elements with the tags the
// text-contains candidates expect and ranks them by their levenshtein
// distance to the expected texts.
func suggest(ctx context.Context, s *driver.Session, candidates []locator.Locator) ([]string, error) {
	w := wanted(candidates)
	if len(w) == 0 {
		return nil, nil
	}
	best := map[string]int{}
	for tag, texts := range w {
		els, err := s.FindAll(ctx, locator.XPath("//"+tag))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		for _, el := range els {
			t, err := s.Text(ctx, el)
			if err != nil {
				continue
			}
			t = utils.Truncate(strings.Join(strings.Fields(t), " "), TextLimit)
			if t == "" {
				continue
			}
			for _, want := range texts {
				d := levenshtein.ComputeDistance(strings.ToLower(want), strings.ToLower(t))
				// texts sharing nothing with the expected one are noise
				if d >= max(len([]rune(want)), len([]rune(t))) {
					continue
				}
				if prev, ok := best[t]; !ok || d < prev {
					best[t] = d
				}
			}
		}
	}
	ranked := make([]scored, 0, len(best))
	for t, d := range best {
		ranked = append(ranked, scored{t, d})
	}
	slices.SortFunc(ranked, func(a, b scored) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return strings.Compare(a.text, b.text)
	})
	var out []string
	for _, r := range ranked[:min(len(ranked), MaxSuggestions)] {
		out = append(out, r.text)
	}
	return out, nil
}
