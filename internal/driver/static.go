package driver

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/log"
	"golang.org/x/net/html"
)

// StaticDriver loads pages over plain HTTP and keeps the parsed document in
// memory. It does not run javascript. Typing mutates the document, clicking
// a link navigates, clicking a submit control submits its form and clicking
// an option selects it, which is enough to drive server rendered
// applications.
type StaticDriver struct {
	userAgent string
	client    *http.Client

	mu   sync.Mutex
	doc  *html.Node
	url  *url.URL
	page int // incremented on every page load
}

type staticElement struct {
	node *html.Node
	page int
}

func (e staticElement) TagName() string {
	return e.node.Data
}

func NewStaticDriver(cfg Config) (*StaticDriver, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	doc, _ := html.Parse(strings.NewReader(""))
	return &StaticDriver{
		userAgent: userAgent,
		client:    &http.Client{Jar: jar},
		doc:       doc,
		url:       &url.URL{Scheme: "about", Opaque: "blank"},
	}, nil
}

// load executes req and replaces the current document with the response.
// Like a browser, any status code renders the returned page.
func (s *StaticDriver) load(ctx context.Context, req *http.Request) error {
	logger := log.LoggerFromContext(ctx)
	logger.Debug("loading page", slog.String("driver", string(TypeStatic)), slog.String("method", req.Method), slog.String("url", req.URL.String()))
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,*/*")
	res, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= 400 {
		logger.Debug(fmt.Sprintf("status code %d %s", res.StatusCode, res.Status))
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return err
	}
	s.doc = doc
	s.url = res.Request.URL
	s.page++
	return nil
}

func (s *StaticDriver) resolve(ref string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	return s.url.ResolveReference(u), nil
}

func (s *StaticDriver) Navigate(ctx context.Context, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(ctx, rawURL)
}

func (s *StaticDriver) get(ctx context.Context, ref string) error {
	u, err := s.resolve(ref)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	return s.load(ctx, req)
}

func (s *StaticDriver) Location(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url.String(), nil
}

func (s *StaticDriver) FindAll(ctx context.Context, loc locator.Locator) ([]Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var nodes []*html.Node
	switch loc.Kind {
	case locator.KindAttribute, locator.KindTag:
		nodes = goquery.NewDocumentFromNode(s.doc).Find(loc.Pattern).Nodes
	case locator.KindStructural:
		var err error
		nodes, err = htmlquery.QueryAll(s.doc, loc.Pattern)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown locator kind %s", loc.Kind)
	}
	elems := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		elems = append(elems, staticElement{node: n, page: s.page})
	}
	return elems, nil
}

// node returns the html node of el. The caller must hold s.mu.
func (s *StaticDriver) node(el Element) (*html.Node, error) {
	se, ok := el.(staticElement)
	if !ok || se.node == nil {
		return nil, fmt.Errorf("%w: not a static element", ErrStaleElement)
	}
	if se.page != s.page {
		return nil, ErrStaleElement
	}
	return se.node, nil
}

func (s *StaticDriver) Click(ctx context.Context, el Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return err
	}
	if disabled(n) {
		return nil
	}
	switch n.Data {
	case "option":
		selectOption(n)
		return nil
	case "input":
		switch inputType(n) {
		case "checkbox":
			if hasAttr(n, "checked") {
				removeAttr(n, "checked")
			} else {
				setAttr(n, "checked", "checked")
			}
			return nil
		case "radio":
			checkRadio(n)
			return nil
		case "submit", "image":
			return s.submit(ctx, n)
		}
	case "button":
		switch strings.ToLower(attr(n, "type")) {
		case "", "submit":
			return s.submit(ctx, n)
		}
		return nil
	}
	if a := closest(n, "a"); a != nil && hasAttr(a, "href") {
		return s.get(ctx, attr(a, "href"))
	}
	return nil
}

// submit submits the form owning submitter, following the html form
// submission rules for urlencoded forms.
func (s *StaticDriver) submit(ctx context.Context, submitter *html.Node) error {
	form := formOwner(submitter)
	if form == nil {
		return nil
	}
	method := strings.ToUpper(attr(form, "method"))
	if m := attr(submitter, "formmethod"); m != "" {
		method = strings.ToUpper(m)
	}
	if method != http.MethodPost {
		method = http.MethodGet
	}
	action := attr(form, "action")
	if a := attr(submitter, "formaction"); a != "" {
		action = a
	}
	target, err := s.resolve(action)
	if err != nil {
		return err
	}
	data := formData(form, submitter)

	var req *http.Request
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, method, target.String(), strings.NewReader(data.Encode()))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		target.RawQuery = data.Encode()
		target.Fragment = ""
		req, err = http.NewRequestWithContext(ctx, method, target.String(), nil)
		if err != nil {
			return err
		}
	}
	return s.load(ctx, req)
}

func (s *StaticDriver) Type(ctx context.Context, el Element, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return err
	}
	if !editable(n) {
		return nil
	}
	setValue(n, value(n)+text)
	return nil
}

func (s *StaticDriver) Clear(ctx context.Context, el Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return err
	}
	if !editable(n) {
		return nil
	}
	setValue(n, "")
	return nil
}

func (s *StaticDriver) Value(ctx context.Context, el Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return "", err
	}
	return value(n), nil
}

func (s *StaticDriver) Attribute(ctx context.Context, el Element, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return "", err
	}
	return attr(n, name), nil
}

func (s *StaticDriver) Text(ctx context.Context, el Element) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(goquery.NewDocumentFromNode(n).Text()), " "), nil
}

func (s *StaticDriver) Visible(ctx context.Context, el Element) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return false, err
	}
	return visible(n), nil
}

func (s *StaticDriver) Enabled(ctx context.Context, el Element) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.node(el)
	if err != nil {
		return false, err
	}
	return !disabled(n), nil
}

func (s *StaticDriver) Snapshot(ctx context.Context) (Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var buf bytes.Buffer
	if err := html.Render(&buf, s.doc); err != nil {
		return Artifact{}, err
	}
	return Artifact{Ext: "html", Data: buf.Bytes()}, nil
}

func (s *StaticDriver) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
