package locator

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed contract.yaml
var defaultContract []byte

// Contract is the versioned table of locators the harness uses to talk to
// the application under test. Flows and the inspection utility both read
// their locators from it, so markup drift is a one-place update.
type Contract struct {
	Version string `yaml:"version"`
	Pages   []Page `yaml:"pages"`

	index map[string]Element
}

// Page groups the elements expected on one route of the application.
type Page struct {
	Name     string    `yaml:"name"`
	Title    string    `yaml:"title"`
	Path     string    `yaml:"path"`
	Elements []Element `yaml:"elements"`
}

// Element is a named entry of the contract: one logical UI element and the
// ordered candidate locators that may find it.
type Element struct {
	Name       string    `yaml:"name"`
	Optional   bool      `yaml:"optional,omitempty"`
	Candidates []Locator `yaml:"candidates"`
}

// DefaultContract returns the contract compiled into the binary.
func DefaultContract() (*Contract, error) {
	return ParseContract(defaultContract)
}

// LoadContract reads a contract from path. An empty path returns the
// default contract.
func LoadContract(path string) (*Contract, error) {
	if path == "" {
		return DefaultContract()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading contract file %s: %w", path, err)
	}
	return ParseContract(data)
}

func ParseContract(data []byte) (*Contract, error) {
	var c Contract
	d := yaml.NewDecoder(bytes.NewReader(data))
	d.KnownFields(true)
	if err := d.Decode(&c); err != nil {
		return nil, fmt.Errorf("error decoding contract: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the contract is usable and builds the name index.
func (c *Contract) Validate() error {
	if c.Version == "" {
		return errors.New("contract version cannot be empty")
	}
	c.index = map[string]Element{}
	pages := map[string]bool{}
	for _, p := range c.Pages {
		if p.Name == "" {
			return errors.New("contract page name cannot be empty")
		}
		if strings.Contains(p.Name, ".") {
			return fmt.Errorf("contract page name %q cannot contain a dot", p.Name)
		}
		if pages[p.Name] {
			return fmt.Errorf("duplicate contract page %q", p.Name)
		}
		pages[p.Name] = true
		for _, e := range p.Elements {
			key := p.Name + "." + e.Name
			if e.Name == "" {
				return fmt.Errorf("contract page %q has an element without name", p.Name)
			}
			if _, found := c.index[key]; found {
				return fmt.Errorf("duplicate contract element %q", key)
			}
			if len(e.Candidates) == 0 {
				return fmt.Errorf("contract element %q has no candidates", key)
			}
			for _, l := range e.Candidates {
				if !l.Kind.Valid() {
					return fmt.Errorf("contract element %q: unknown locator kind %q", key, l.Kind)
				}
				if strings.TrimSpace(l.Pattern) == "" {
					return fmt.Errorf("contract element %q: empty locator pattern", key)
				}
			}
			c.index[key] = e
		}
	}
	return nil
}

// Lookup returns the element registered under "page.element".
func (c *Contract) Lookup(name string) (Element, bool) {
	e, ok := c.index[name]
	return e, ok
}

// Candidates returns the candidate locators of "page.element". It panics on
// unknown names since those are programming errors in the flows, not markup
// drift.
func (c *Contract) Candidates(name string) []Locator {
	e, ok := c.index[name]
	if !ok {
		panic(fmt.Sprintf("locator contract %s has no element %q", c.Version, name))
	}
	return e.Candidates
}

// Page returns the page with the given name.
func (c *Contract) Page(name string) (Page, bool) {
	for _, p := range c.Pages {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}
