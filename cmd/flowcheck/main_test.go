package main

import (
	"context"
	"testing"
	"time"

	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/flow"
	"github.com/jakopako/flowcheck/internal/inspect"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	got []*inspect.Report
}

func (w *recordingWriter) Write(reportChan <-chan *inspect.Report) {
	for r := range reportChan {
		w.got = append(w.got, r)
	}
}

func TestSelectPages(t *testing.T) {
	c, err := locator.DefaultContract()
	require.NoError(t, err)

	all, err := selectPages(c, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(c.Pages))

	some, err := selectPages(c, []string{"profile", "login"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "profile", some[0].Name)

	_, err = selectPages(c, []string{"checkout"})
	assert.Error(t, err)
}

func TestSortReports(t *testing.T) {
	pages := []locator.Page{{Name: "login"}, {Name: "dashboard"}, {Name: "profile"}}
	reports := []*inspect.Report{{Page: "profile"}, {Page: "login"}, {Page: "dashboard"}}
	sortReports(reports, pages)
	assert.Equal(t, "login", reports[0].Page)
	assert.Equal(t, "dashboard", reports[1].Page)
	assert.Equal(t, "profile", reports[2].Page)
}

func TestWorkerInspectsStub(t *testing.T) {
	srv, err := startStub(flow.DefaultAccount)
	require.NoError(t, err)
	t.Cleanup(func() { shutdownStub(srv) })

	c, err := locator.DefaultContract()
	require.NoError(t, err)
	pages, err := selectPages(c, []string{"login", "profile"})
	require.NoError(t, err)

	m, err := driver.NewManager(driver.Config{Type: driver.TypeStatic, PollInterval: 10 * time.Millisecond})
	require.NoError(t, err)
	w := worker{
		manager: m,
		flows:   flow.New(srv.URL, c, 2*time.Second, 0),
		account: flow.DefaultAccount,
		login:   true,
	}

	pc := make(chan locator.Page, len(pages))
	for _, p := range pages {
		pc <- p
	}
	close(pc)
	rc := make(chan *inspect.Report)
	rec := &recordingWriter{}
	done := make(chan []*inspect.Report)
	go func() { done <- collector(rc, rec) }()
	w.run(context.Background(), pc, rc, 0)
	close(rc)
	reports := <-done

	require.Len(t, reports, 2)
	assert.Equal(t, reports, rec.got)
	for _, r := range reports {
		assert.Empty(t, r.Error, r.Page)
		found, _ := r.Tally()
		assert.Positive(t, found, r.Page)
	}
	sortReports(reports, pages)
	assert.Equal(t, "login", reports[0].Page)
	assert.Equal(t, "profile", reports[1].Page)
	assert.Equal(t, 0, m.Live())
}

func TestWorkerReportsUnreachableSession(t *testing.T) {
	m := driver.NewManagerWithFactory(driver.Config{}, func(ctx context.Context, cfg driver.Config) (driver.Driver, error) {
		return nil, assert.AnError
	})
	c, err := locator.DefaultContract()
	require.NoError(t, err)
	w := worker{manager: m, flows: flow.New("http://localhost:5173", c, time.Second, 0)}

	pc := make(chan locator.Page, len(c.Pages))
	for _, p := range c.Pages {
		pc <- p
	}
	close(pc)
	rc := make(chan *inspect.Report, len(c.Pages))
	w.run(context.Background(), pc, rc, 0)
	close(rc)

	n := 0
	for r := range rc {
		n++
		assert.NotEmpty(t, r.Error)
	}
	assert.Equal(t, len(c.Pages), n)
}
