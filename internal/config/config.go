// Package config loads the flowcheck configuration from a yml file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jakopako/flowcheck/internal/driver"
	"github.com/jakopako/flowcheck/internal/flow"
	"github.com/jakopako/flowcheck/internal/locator"
	"github.com/jakopako/flowcheck/internal/output"
)

// DefaultPath is where the configuration is looked for if no path is given.
const DefaultPath = "flowcheck.yml"

// WaitConfig holds the timing of flows and scenarios.
type WaitConfig struct {
	// Timeout bounds every explicit wait of a flow.
	Timeout time.Duration `yaml:"timeout" env:"FLOWCHECK_TIMEOUT" env-default:"10s"`
	// Settle is slept after navigations and submissions.
	Settle time.Duration `yaml:"settle" env:"FLOWCHECK_SETTLE" env-default:"1s"`
	// Scenario bounds a whole scenario, zero disables the bound.
	Scenario time.Duration `yaml:"scenario" env:"FLOWCHECK_SCENARIO_TIMEOUT" env-default:"2m"`
}

// Config defines the overall structure of the flowcheck configuration.
// Values will be taken from a config yml file or environment variables
// or both.
type Config struct {
	// BaseURL of the application under test. If empty the scenario suite
	// runs against the built-in stub application.
	BaseURL string              `yaml:"base_url" env:"FLOWCHECK_BASE_URL"`
	Driver  driver.Config       `yaml:"driver"`
	Wait    WaitConfig          `yaml:"wait"`
	Account flow.Credential     `yaml:"account"`
	Output  output.WriterConfig `yaml:"output"`
	// ContractPath points to a locator contract replacing the built-in one.
	ContractPath string `yaml:"contract" env:"FLOWCHECK_CONTRACT"`
}

// NewConfig reads the configuration from path and the environment. If path
// is empty or does not exist only the environment is read.
func NewConfig(path string) (*Config, error) {
	var config Config
	if path == "" {
		path = DefaultPath
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		if err := cleanenv.ReadConfig(path, &config); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
	default:
		return nil, err
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if _, err := driver.NewFactory(c.Driver.Type); err != nil {
		return err
	}
	if c.Wait.Timeout < 0 || c.Wait.Settle < 0 || c.Wait.Scenario < 0 {
		return errors.New("wait durations must not be negative")
	}
	if c.Account.Email == "" || c.Account.Password == "" {
		return errors.New("account email and password must be set")
	}
	return nil
}

// Contract returns the locator contract at ContractPath or the built-in one.
func (c *Config) Contract() (*locator.Contract, error) {
	if c.ContractPath == "" {
		return locator.DefaultContract()
	}
	return locator.LoadContract(c.ContractPath)
}

// Flows returns flow helpers for baseURL using the contract and the waits
// of c.
func (c *Config) Flows(baseURL string) (*flow.Flows, error) {
	contract, err := c.Contract()
	if err != nil {
		return nil, err
	}
	return flow.New(baseURL, contract, c.Wait.Timeout, c.Wait.Settle), nil
}
