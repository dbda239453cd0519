package inspect

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/stubapp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (context.Context, *driver.Session, string) {
	t.Helper()
	app, err := stubapp.New(stubapp.User{Email: "test@example.com", Password: "TestPassword123!", FirstName: "Test", LastName: "User"})
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	m, err := driver.NewManager(driver.Config{Type: driver.TypeStatic, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	ctx := context.Background()
	s, err := m.Acquire(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { m.Release(s) })
	return ctx, s, srv.URL
}

func finding(t *testing.T, r *Report, name string) Finding {
	t.Helper()
	for _, f := range r.Findings {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("no finding %s", name)
	return Finding{}
}

func TestInspectLoginPage(t *testing.T) {
	ctx, s, base := setup(t)
	c, err := locator.DefaultContract()
	require.NoError(t, err)
	p, ok := c.Page("login")
	require.True(t, ok)

	r, err := Inspect(ctx, s, base+p.Path, Descriptions(p))
	require.NoError(t, err)
	require.Len(t, r.Findings, len(p.Elements))

	email := finding(t, r, "email")
	require.True(t, email.Found)
	assert.Equal(t, locator.Attr("input[type='email']"), *email.Locator)
	assert.Equal(t, 1, email.Count)
	require.Len(t, email.Matches, 1)
	assert.Equal(t, Match{Tag: "input", Name: "email", Type: "email", Placeholder: "you@example.com"}, email.Matches[0])

	submit := finding(t, r, "submit")
	require.True(t, submit.Found)
	assert.Equal(t, locator.KindStructural, submit.Locator.Kind)
	assert.Equal(t, "Sign In", submit.Matches[0].Text)
	assert.Equal(t, 1, submit.Tried)

	found, total := r.Tally()
	assert.Equal(t, len(p.Elements), total)
	assert.GreaterOrEqual(t, found, 3)
}

func TestInspectPriorityAndFailures(t *testing.T) {
	ctx, s, base := setup(t)
	ds := []Description{
		{
			Name: "password",
			Candidates: []locator.Locator{
				locator.Tag("input"),
				locator.XPath("//input["),
				locator.Attr("input[type='password']"),
			},
		},
		{
			Name:       "login-button",
			Candidates: []locator.Locator{locator.TextContains("button", "Login")},
		},
		{
			Name:       "inputs",
			Candidates: []locator.Locator{locator.Tag("input")},
		},
	}
	r, err := Inspect(ctx, s, base+"/login", ds)
	require.NoError(t, err)

	pw := r.Findings[0]
	require.True(t, pw.Found)
	assert.Equal(t, locator.Attr("input[type='password']"), *pw.Locator)
	assert.Equal(t, 1, pw.Tried)

	lb := r.Findings[1]
	assert.False(t, lb.Found)
	assert.Nil(t, lb.Locator)
	assert.Empty(t, lb.Matches)
	assert.Equal(t, []string{"Sign In"}, lb.Suggestions)

	inputs := r.Findings[2]
	require.True(t, inputs.Found)
	assert.Equal(t, 2, inputs.Count)
	assert.Len(t, inputs.Matches, 2)

	found, total := r.Tally()
	assert.Equal(t, 2, found)
	assert.Equal(t, 3, total)
}

func TestInspectBrokenCandidate(t *testing.T) {
	ctx, s, base := setup(t)
	r, err := Inspect(ctx, s, base+"/login", []Description{{
		Name:       "email",
		Candidates: []locator.Locator{locator.XPath("//input["), locator.XPath("//input[@type='email']")},
	}})
	require.NoError(t, err)
	f := r.Findings[0]
	assert.True(t, f.Found)
	assert.Equal(t, 2, f.Tried)
	assert.Len(t, f.Errors, 1)
}

func TestInspectCancelled(t *testing.T) {
	_, s, base := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Inspect(ctx, s, base+"/login", nil)
	assert.Error(t, err)
}

func TestWanted(t *testing.T) {
	w := wanted([]locator.Locator{
		locator.XPath("//button[contains(text(), 'Sign In')] | //a[contains(text(), \"Register\")]"),
		locator.TextContains("button", "Sign In"),
		locator.Attr("button.login"),
		locator.XPath("//*[contains(text(), 'Invalid') or contains(text(), 'error')]"),
	})
	assert.Equal(t, map[string][]string{
		"button": {"Sign In"},
		"a":      {"Register"},
		"*":      {"Invalid"},
	}, w)
}

func TestBrowseRows(t *testing.T) {
	loc := locator.Attr("input[type='email']")
	reports := []*Report{{
		Page: "login",
		Findings: []Finding{
			{Name: "email", Found: true, Locator: &loc, Count: 1, Matches: []Match{{Tag: "input"}}},
			{Name: "error", Optional: true},
			{Name: "submit", Suggestions: []string{"Sign In"}},
		},
	}}
	rows := browseRows(reports)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"login", "email", "yes", loc.String(), "1", "<input>"}, rows[0].cells)
	assert.Equal(t, "optional", rows[1].cells[2])
	assert.Equal(t, `did you mean "Sign In"`, rows[2].cells[5])
	assert.Len(t, pageColors(3), 3)
}
