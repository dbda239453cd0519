// Package driver abstracts the automation endpoint behind a narrow
// capability interface and manages the per-scenario sessions built on it.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jakopako/flowcheck/internal/locator"
)

// A Type names a Driver implementation.
type Type string

const (
	// TypeChrome drives a real chrome, locally or through a remote
	// devtools endpoint.
	TypeChrome Type = "chrome"
	// TypeStatic is a JS-less driver that loads pages over plain HTTP and
	// emulates links and forms on an in-memory DOM.
	TypeStatic Type = "static"
)

const DefaultUserAgent = "Mozilla/5.0"

// ErrStaleElement is returned when an element of a page that has since been
// replaced is used.
var ErrStaleElement = errors.New("element is stale or detached from the document")

// ErrSessionReleased is returned by every operation on a released session.
var ErrSessionReleased = errors.New("session has been released")

// Config is the fixed configuration every session is created with.
type Config struct {
	Type      Type   `yaml:"type" env:"FLOWCHECK_DRIVER" env-default:"chrome"`
	RemoteURL string `yaml:"remote_url" env:"FLOWCHECK_REMOTE_URL"`
	// DisableAutomationFlags hides the usual automation markers (the
	// AutomationControlled blink feature and the enable-automation switch).
	DisableAutomationFlags bool   `yaml:"disable_automation_flags" env:"FLOWCHECK_DISABLE_AUTOMATION_FLAGS" env-default:"true"`
	UserAgent              string `yaml:"user_agent" env-default:"Mozilla/5.0"`
	Headless               bool   `yaml:"headless" env:"FLOWCHECK_HEADLESS" env-default:"true"`
	// ImplicitWait makes every element lookup of a session wait up to this
	// long for at least one match. Zero disables it, leaving the explicit
	// waits as the only waiting mechanism.
	ImplicitWait time.Duration `yaml:"implicit_wait" env-default:"0s"`
	PollInterval time.Duration `yaml:"poll_interval" env-default:"500ms"`
	WindowWidth  int           `yaml:"window_width" env-default:"1920"`
	WindowHeight int           `yaml:"window_height" env-default:"1080"`
	// ArtifactDir is where page snapshots are stored.
	ArtifactDir string `yaml:"artifact_dir" env:"FLOWCHECK_ARTIFACT_DIR" env-default:"artifacts"`
}

// An Element is an opaque handle to a node of the current page. Handles are
// only valid on the driver that returned them.
type Element interface {
	TagName() string
}

// Artifact is a snapshot of the current page, a screenshot or the markup
// depending on the driver.
type Artifact struct {
	Ext  string
	Data []byte
}

// A Driver is the capability interface to one automation endpoint. A driver
// is used by a single session and need not be safe for concurrent use.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	// FindAll returns all elements currently matching loc without waiting.
	FindAll(ctx context.Context, loc locator.Locator) ([]Element, error)
	Click(ctx context.Context, el Element) error
	Type(ctx context.Context, el Element, text string) error
	Clear(ctx context.Context, el Element) error
	// Value returns the current value of a form control.
	Value(ctx context.Context, el Element) (string, error)
	// Attribute returns the value of the attribute or an empty string if
	// the element has no such attribute.
	Attribute(ctx context.Context, el Element, name string) (string, error)
	Text(ctx context.Context, el Element) (string, error)
	Visible(ctx context.Context, el Element) (bool, error)
	Enabled(ctx context.Context, el Element) (bool, error)
	Snapshot(ctx context.Context) (Artifact, error)
	Close() error
}

// A Factory creates a new driver for cfg.
type Factory func(ctx context.Context, cfg Config) (Driver, error)

// NewFactory returns the factory for the driver type of cfg.
func NewFactory(t Type) (Factory, error) {
	switch t {
	case TypeChrome:
		return func(ctx context.Context, cfg Config) (Driver, error) {
			return NewChromeDriver(ctx, cfg)
		}, nil
	case TypeStatic:
		return func(ctx context.Context, cfg Config) (Driver, error) {
			return NewStaticDriver(cfg)
		}, nil
	default:
		return nil, fmt.Errorf("driver type %s does not exist", t)
	}
}

// SessionCreationError is returned when the automation endpoint could not be
// started or reached.
type SessionCreationError struct {
	Type Type
	Err  error
}

func (e *SessionCreationError) Error() string {
	return fmt.Sprintf("could not create %s session: %v", e.Type, e.Err)
}

func (e *SessionCreationError) Unwrap() error {
	return e.Err
}
