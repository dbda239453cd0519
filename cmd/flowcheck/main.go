/*
flowcheck verifies the user journeys of the clinic web application.

The scenarios themselves run with go test (see the e2e package). This
command holds the tooling around them: inspecting the locator contract
against live pages, listing the contract and serving the stub application.
*/
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jakopako/flowcheck/internal/config"
	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/flow"
	"github.com/jakopako/flowcheck/internal/inspect"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
	"github.com/jakopako/flowcheck/internal/output"
	"github.com/jakopako/flowcheck/internal/stubapp"
	"github.com/olekukonko/tablewriter"
)

var version = "dev"

type VersionFlag string

func (v VersionFlag) Decode(_ *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                       { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

type cli struct {
	Version VersionFlag `short:"v" long:"version" help:"Print the version and exit."`
	Debug   bool        `short:"d" long:"debug" help:"Set log level to 'debug' and store additional helpful debugging data."`

	Inspect   InspectCmd   `cmd:"" help:"Inspect the locator contract against the live pages of the application."`
	Contract  ContractCmd  `cmd:"" help:"List the pages and elements of the locator contract."`
	ServeStub ServeStubCmd `cmd:"" name:"serve-stub" help:"Serve the built-in stub of the clinic application."`
}

type InspectCmd struct {
	Config      string   `short:"c" default:"./flowcheck.yml" help:"The location of the configuration file. Environment variables are used if it does not exist." completion:"<file>"`
	URL         string   `short:"u" help:"The base URL of the application. Overrides the configuration. If neither is set the stub application is inspected."`
	Pages       []string `short:"p" help:"The names of the contract pages to inspect. All pages if empty." completion:"flowcheck contract -C"`
	Workers     int      `short:"j" default:"2" help:"The number of pages inspected in parallel, each worker uses its own session."`
	Output      string   `short:"o" help:"The output type, one of stdout, json or file. Overrides the configuration."`
	Login       bool     `default:"true" negatable:"" help:"Sign in with the configured account before inspecting protected pages."`
	Interactive bool     `short:"i" help:"Browse the reports in an interactive table after inspecting."`
}

// Run inspects the selected pages. Inspection is diagnostic, failures are
// reported but never turn into a non-zero exit code.
func (ic *InspectCmd) Run() error {
	cfg, err := config.NewConfig(ic.Config)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return nil
	}
	if ic.URL != "" {
		cfg.BaseURL = strings.TrimSuffix(ic.URL, "/")
	}
	if ic.Output != "" {
		cfg.Output.Type = output.WriterType(ic.Output)
	}

	contract, err := cfg.Contract()
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return nil
	}
	pages, err := selectPages(contract, ic.Pages)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return nil
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		srv, err := startStub(cfg.Account)
		if err != nil {
			slog.Error(fmt.Sprintf("%v", err))
			return nil
		}
		defer shutdownStub(srv)
		baseURL = srv.URL
		if os.Getenv("FLOWCHECK_DRIVER") == "" {
			cfg.Driver.Type = driver.TypeStatic
		}
		slog.Info(fmt.Sprintf("no base url configured, inspecting the stub application at %s with the %s driver", baseURL, cfg.Driver.Type))
	}
	flows, err := cfg.Flows(baseURL)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return nil
	}

	manager, err := driver.NewManager(cfg.Driver)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return nil
	}
	defer func() {
		if err := manager.Close(); err != nil {
			slog.Warn(fmt.Sprintf("error while closing sessions: %v", err))
		}
	}()

	writer, err := output.NewWriter(&cfg.Output, os.Stdout)
	if err != nil {
		slog.Error(err.Error())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// fill worker queue
	pageChan := make(chan locator.Page)
	go func() {
		slog.Info(fmt.Sprintf("queueing %d pages", len(pages)))
		for _, p := range pages {
			pageChan <- p
		}
		close(pageChan)
	}()

	nrWorkers := max(1, min(ic.Workers, len(pages)))
	slog.Info(fmt.Sprintf("running with %d threads", nrWorkers))

	w := worker{
		manager: manager,
		flows:   flows,
		account: cfg.Account,
		login:   ic.Login,
		settle:  cfg.Wait.Settle,
	}
	workerWg := sync.WaitGroup{}
	workerWg.Add(nrWorkers)
	reportChan := make(chan *inspect.Report)
	slog.Debug("starting workers")
	for i := range nrWorkers {
		go func(j int) {
			defer workerWg.Done()
			w.run(ctx, pageChan, reportChan, j)
		}(i)
	}

	// start collector
	var reports []*inspect.Report
	collectorWg := sync.WaitGroup{}
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		slog.Debug("starting collector")
		reports = collector(reportChan, writer)
	}()

	workerWg.Wait()
	slog.Debug("all workers finished, closing report channel")
	close(reportChan)
	collectorWg.Wait()

	if ic.Interactive {
		sortReports(reports, pages)
		if err := inspect.Browse(reports); err != nil {
			slog.Error(err.Error())
		}
	}
	return nil
}

func selectPages(c *locator.Contract, names []string) ([]locator.Page, error) {
	if len(names) == 0 {
		return c.Pages, nil
	}
	pages := make([]locator.Page, 0, len(names))
	for _, n := range names {
		p, ok := c.Page(n)
		if !ok {
			return nil, fmt.Errorf("locator contract %s has no page %q", c.Version, n)
		}
		pages = append(pages, p)
	}
	return pages, nil
}

// sortReports restores the contract order of the reports.
func sortReports(reports []*inspect.Report, pages []locator.Page) {
	index := func(name string) int {
		return slices.IndexFunc(pages, func(p locator.Page) bool { return p.Name == name })
	}
	slices.SortStableFunc(reports, func(a, b *inspect.Report) int {
		return index(a.Page) - index(b.Page)
	})
}

type worker struct {
	manager *driver.Manager
	flows   *flow.Flows
	account flow.Credential
	login   bool
	settle  time.Duration
}

// needsLogin reports whether p is only reachable for a signed in user.
func needsLogin(p locator.Page) bool {
	return p.Path != "/login" && p.Path != "/register"
}

func (w *worker) run(ctx context.Context, pc <-chan locator.Page, rc chan<- *inspect.Report, threadNr int) {
	workerLogger := slog.With(slog.Int("thread", threadNr))
	ctx = log.ContextWithLogger(ctx, workerLogger)
	in := inspect.Inspector{Settle: w.settle}
	err := w.manager.With(ctx, func(ctx context.Context, s *driver.Session) error {
		signedIn := false
		for p := range pc {
			pageLogger := workerLogger.With(slog.String("page", p.Name))
			pageLogger.Info("starting inspection")
			if w.login && !signedIn && needsLogin(p) {
				if err := w.flows.Login(ctx, s, w.account); err != nil {
					pageLogger.Warn(fmt.Sprintf("signing in failed, inspecting anyway: %v", err))
				} else {
					signedIn = true
				}
			}
			pageURL := w.flows.URL(p.Path)
			r, err := in.Inspect(ctx, s, pageURL, inspect.Descriptions(p))
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				pageLogger.Error(fmt.Sprintf("%s: %v", p.Name, err))
				r = &inspect.Report{URL: pageURL, Error: err.Error()}
			}
			r.Page = p.Name
			found, total := r.Tally()
			pageLogger.Info(fmt.Sprintf("found %d/%d elements", found, total))
			rc <- r
		}
		return nil
	})
	if err != nil {
		workerLogger.Error(fmt.Sprintf("%v", err))
		// pages left in the queue are reported as not inspected
		for p := range pc {
			rc <- &inspect.Report{Page: p.Name, URL: w.flows.URL(p.Path), Error: err.Error()}
		}
	}
	workerLogger.Info("done working")
}

func collector(reportChan <-chan *inspect.Report, writer output.Writer) []*inspect.Report {
	collectorLogger := slog.With(slog.String("collector", "main"))
	writerChan := make(chan *inspect.Report)
	writerWg := sync.WaitGroup{}
	writerWg.Add(1)
	go func() {
		defer writerWg.Done()
		collectorLogger.Debug("starting writing reports")
		writer.Write(writerChan)
	}()

	var reports []*inspect.Report
	for r := range reportChan {
		reports = append(reports, r)
		writerChan <- r
	}
	close(writerChan)
	writerWg.Wait()
	collectorLogger.Debug("done writing reports")
	return reports
}

func startStub(account flow.Credential) (*stubapp.Server, error) {
	app, err := stubapp.New(stubapp.User{
		Email:     account.Email,
		Password:  account.Password,
		FirstName: account.FirstName,
		LastName:  account.LastName,
	})
	if err != nil {
		return nil, err
	}
	return app.Start("127.0.0.1:0")
}

func shutdownStub(srv *stubapp.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn(fmt.Sprintf("error while stopping the stub application: %v", err))
	}
}

type ContractCmd struct {
	Config     string `short:"c" default:"./flowcheck.yml" help:"The location of the configuration file." completion:"<file>"`
	Completion bool   `short:"C" help:"If set to true, only the page names are printed and errors are not printed."`
}

func (cc *ContractCmd) Run() error {
	cfg, err := config.NewConfig(cc.Config)
	if err != nil {
		if cc.Completion {
			return nil
		}
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	contract, err := cfg.Contract()
	if err != nil {
		if cc.Completion {
			return nil
		}
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}

	if cc.Completion {
		for _, p := range contract.Pages {
			fmt.Println(p.Name)
		}
		return nil
	}

	fmt.Printf("locator contract %s\n", contract.Version)
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Page", "Path", "Element", "Optional", "Candidates")
	for _, p := range contract.Pages {
		for _, e := range p.Elements {
			optional := ""
			if e.Optional {
				optional = "yes"
			}
			if err := table.Append([]string{p.Name, p.Path, e.Name, optional, locator.Describe(e.Candidates)}); err != nil {
				return err
			}
		}
	}
	return table.Render()
}

type ServeStubCmd struct {
	Addr     string `short:"a" default:"localhost:5173" help:"The address to listen on."`
	Email    string `default:"test@example.com" help:"The email of the seeded account."`
	Password string `default:"TestPassword123!" help:"The password of the seeded account."`
}

func (sc *ServeStubCmd) Run() error {
	app, err := stubapp.New(stubapp.User{
		Email:     sc.Email,
		Password:  sc.Password,
		FirstName: flow.DefaultAccount.FirstName,
		LastName:  flow.DefaultAccount.LastName,
	})
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	srv, err := app.Start(sc.Addr)
	if err != nil {
		slog.Error(fmt.Sprintf("%v", err))
		return err
	}
	slog.Info(fmt.Sprintf("serving the stub application at %s", srv.URL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	slog.Info("shutting down")
	shutdownStub(srv)
	return nil
}

func getVersion() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if ok {
		if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
			return buildInfo.Main.Version
		}
	}
	return version
}

func main() {
	cli := cli{
		Version: VersionFlag(getVersion()),
	}

	ctx := kong.Parse(&cli,
		kong.Name("flowcheck"),
		kong.Vars{
			"version": string(cli.Version),
		})

	log.Debug = cli.Debug
	// the default logger depends on log.Debug being set
	log.InitializeDefaultLogger()

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
