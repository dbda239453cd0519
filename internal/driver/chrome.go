package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
)

// ChromeDriver drives one chrome tab through the devtools protocol. Every
// ChromeDriver owns its own browser (or, with a remote endpoint, its own
// tab), so sessions never share state.
type ChromeDriver struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	tabCtx      context.Context
	cancelTab   context.CancelFunc
}

type chromeElement struct {
	node *cdp.Node
}

func (e chromeElement) TagName() string {
	return strings.ToLower(e.node.NodeName)
}

// chromeFlags maps cfg onto the chrome switches set on top of the chromedp
// defaults.
func chromeFlags(cfg Config) map[string]any {
	width, height := cfg.WindowWidth, cfg.WindowHeight
	if width == 0 || height == 0 {
		// desktop view, some pages hide controls on small screens
		width, height = 1920, 1080
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	flags := map[string]any{
		"window-size": fmt.Sprintf("%d,%d", width, height),
		"user-agent":  userAgent,
	}
	if cfg.DisableAutomationFlags {
		flags["disable-blink-features"] = "AutomationControlled"
		flags["enable-automation"] = false
	}
	if !cfg.Headless {
		flags["headless"] = false
	}
	return flags
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption(nil), chromedp.DefaultExecAllocatorOptions[:]...)
	for name, value := range chromeFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// NewChromeDriver starts a browser (or connects to cfg.RemoteURL) and opens
// a tab. The browser lives until Close is called, independent of ctx, which
// only bounds the startup.
func NewChromeDriver(ctx context.Context, cfg Config) (*ChromeDriver, error) {
	logger := log.LoggerFromContext(ctx).With(slog.String("driver", string(TypeChrome)))
	d := &ChromeDriver{}
	if cfg.RemoteURL != "" {
		logger.Debug("connecting to remote browser", slog.String("url", cfg.RemoteURL))
		d.allocCtx, d.cancelAlloc = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
	} else {
		d.allocCtx, d.cancelAlloc = chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	}
	d.tabCtx, d.cancelTab = chromedp.NewContext(d.allocCtx)

	actions := []chromedp.Action{}
	// log chrome version in debug mode
	if log.Debug {
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			_, product, _, userAgent, _, err := browser.GetVersion().Do(ctx)
			if err != nil {
				logger.Warn("failed to get chrome version", slog.String("err", err.Error()))
				return nil
			}
			logger.Debug(fmt.Sprintf("chrome version: product=%s, userAgent=%s", product, userAgent))
			return nil
		}))
	}
	// The first run starts the browser and binds its lifetime to the
	// context it runs on, so it must run on the tab context itself.
	stop := context.AfterFunc(ctx, d.cancelTab)
	err := chromedp.Run(d.tabCtx, actions...)
	if !stop() {
		err = ctx.Err()
	}
	if err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// run executes actions on the tab. Cancelling ctx aborts the actions but
// leaves the tab open.
func (d *ChromeDriver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(d.tabCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func nodeOf(el Element) (*cdp.Node, error) {
	ce, ok := el.(chromeElement)
	if !ok || ce.node == nil {
		return nil, fmt.Errorf("%w: not a chrome element", ErrStaleElement)
	}
	return ce.node, nil
}

// callOn calls the javascript function fn with this bound to the element
// and decodes its return value into v, if v is not nil.
func (d *ChromeDriver) callOn(ctx context.Context, el Element, fn string, v any) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}
	return d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(ctx)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStaleElement, err)
		}
		res, exc, err := runtime.CallFunctionOn(fn).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil {
			return err
		}
		if exc != nil {
			return exc
		}
		if v == nil || res == nil || len(res.Value) == 0 {
			return nil
		}
		return json.Unmarshal([]byte(res.Value), v)
	}))
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

func (d *ChromeDriver) Location(ctx context.Context) (string, error) {
	var url string
	err := d.run(ctx, chromedp.Location(&url))
	return url, err
}

func (d *ChromeDriver) FindAll(ctx context.Context, loc locator.Locator) ([]Element, error) {
	var by chromedp.QueryOption
	switch loc.Kind {
	case locator.KindAttribute, locator.KindTag:
		by = chromedp.ByQueryAll
	case locator.KindStructural:
		by = chromedp.BySearch
	default:
		return nil, fmt.Errorf("unknown locator kind %s", loc.Kind)
	}
	var nodes []*cdp.Node
	if err := d.run(ctx, chromedp.Nodes(loc.Pattern, &nodes, by, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	elems := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		if n.NodeType != cdp.NodeTypeElement {
			continue
		}
		elems = append(elems, chromeElement{node: n})
	}
	return elems, nil
}

func (d *ChromeDriver) Click(ctx context.Context, el Element) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}
	if el.TagName() == "option" {
		// options are rendered by the browser chrome and cannot be clicked
		// with the mouse
		return d.callOn(ctx, el, `function() {
			this.selected = true;
			const s = this.closest('select');
			if (s) { s.dispatchEvent(new Event('change', {bubbles: true})); }
		}`, nil)
	}
	return d.run(ctx, chromedp.MouseClickNode(node))
}

func (d *ChromeDriver) Type(ctx context.Context, el Element, text string) error {
	node, err := nodeOf(el)
	if err != nil {
		return err
	}
	return d.run(ctx,
		dom.Focus().WithNodeID(node.NodeID),
		chromedp.KeyEvent(text),
	)
}

func (d *ChromeDriver) Clear(ctx context.Context, el Element) error {
	return d.callOn(ctx, el, `function() {
		if (this.disabled || this.readOnly) { return; }
		this.value = '';
		this.dispatchEvent(new Event('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`, nil)
}

func (d *ChromeDriver) Value(ctx context.Context, el Element) (string, error) {
	var v string
	err := d.callOn(ctx, el, `function() { return this.value === undefined ? '' : String(this.value); }`, &v)
	return v, err
}

func (d *ChromeDriver) Attribute(ctx context.Context, el Element, name string) (string, error) {
	node, err := nodeOf(el)
	if err != nil {
		return "", err
	}
	var attrs []string
	err = d.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		attrs, err = dom.GetAttributes(node.NodeID).Do(ctx)
		return err
	}))
	if err != nil {
		return "", err
	}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == name {
			return attrs[i+1], nil
		}
	}
	return "", nil
}

func (d *ChromeDriver) Text(ctx context.Context, el Element) (string, error) {
	var text string
	err := d.callOn(ctx, el, `function() { return this.innerText || this.textContent || ''; }`, &text)
	return strings.Join(strings.Fields(text), " "), err
}

func (d *ChromeDriver) Visible(ctx context.Context, el Element) (bool, error) {
	var visible bool
	err := d.callOn(ctx, el, `function() {
		const r = this.getBoundingClientRect();
		const s = window.getComputedStyle(this);
		return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none';
	}`, &visible)
	return visible, err
}

func (d *ChromeDriver) Enabled(ctx context.Context, el Element) (bool, error) {
	var enabled bool
	err := d.callOn(ctx, el, `function() { return !this.disabled; }`, &enabled)
	return enabled, err
}

func (d *ChromeDriver) Snapshot(ctx context.Context) (Artifact, error) {
	var buf []byte
	if err := d.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return Artifact{}, err
	}
	return Artifact{Ext: "png", Data: buf}, nil
}

func (d *ChromeDriver) Close() error {
	if d.cancelTab != nil {
		d.cancelTab()
	}
	if d.cancelAlloc != nil {
		d.cancelAlloc()
	}
	return nil
}
