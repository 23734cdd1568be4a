/*
Copyright 2026 Nscale.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package options

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/nscaledev/uni-library-contract/pkg/scenario"

	"sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

var (
	ErrBaseURL     = errors.New("a base URL is required unless running against the fake")
	ErrCredentials = errors.New("login email and password are required")
)

// Options control a contract run.  Defaults are read from the environment,
// and a .env file if present, then overridden by flags.
type Options struct {
	// BaseURL is the API root, e.g. http://localhost:8080.
	BaseURL string `env:"API_BASE_URL"`
	// Email and Password are the credentials every scenario logs in with.
	Email    string `env:"API_LOGIN_EMAIL"`
	Password string `env:"API_LOGIN_PASSWORD"`

	// RequestTimeout bounds the HTTP exchange, StepTimeout the whole step.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	StepTimeout    time.Duration `env:"STEP_TIMEOUT" envDefault:"30s"`

	// Scenarios selects built in workflows by name, all when empty.
	Scenarios []string `env:"SCENARIOS" envSeparator:","`
	// ScenarioDir adds scenarios defined in YAML or JSON files.
	ScenarioDir string `env:"SCENARIO_DIR"`

	// OpenAPISpec overrides the embedded API description.
	OpenAPISpec string `env:"OPENAPI_SPEC"`
	// SchemaValidation checks every response against the API description.
	SchemaValidation bool `env:"SCHEMA_VALIDATION" envDefault:"true"`

	// Concurrency is how many scenarios may run at once.
	Concurrency int `env:"CONCURRENCY" envDefault:"1"`

	// ValidateOnly checks scenario definitions without sending anything.
	ValidateOnly bool
	// Fake runs against an in process implementation of the API.
	Fake bool

	LogRequests  bool `env:"LOG_REQUESTS"`
	LogResponses bool `env:"LOG_RESPONSES"`

	zapOptions zap.Options
}

// LoadEnvironment populates defaults from the environment.  A missing .env
// file is not an error.
func (o *Options) LoadEnvironment(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading environment file: %w", err)
	}

	if err := env.Parse(o); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}

	return nil
}

// AddFlags registers flags, the current values are used as defaults.
func (o *Options) AddFlags(f *pflag.FlagSet) {
	f.StringVar(&o.BaseURL, "base-url", o.BaseURL, "Library API root URL.")
	f.StringVar(&o.Email, "email", o.Email, "Login email address.")
	f.StringVar(&o.Password, "password", o.Password, "Login password.")
	f.DurationVar(&o.RequestTimeout, "request-timeout", o.RequestTimeout, "Timeout for a single HTTP exchange.")
	f.DurationVar(&o.StepTimeout, "step-timeout", o.StepTimeout, "Timeout for a single scenario step.")
	f.StringSliceVar(&o.Scenarios, "scenario", o.Scenarios, "Built in scenario to run, may be specified more than once.  Runs all when omitted.")
	f.StringVar(&o.ScenarioDir, "scenario-dir", o.ScenarioDir, "Directory of additional scenario definitions.")
	f.StringVar(&o.OpenAPISpec, "openapi-spec", o.OpenAPISpec, "Path to an OpenAPI description to validate responses against.")
	f.BoolVar(&o.SchemaValidation, "schema-validation", o.SchemaValidation, "Validate every response against the OpenAPI description.")
	f.IntVar(&o.Concurrency, "concurrency", o.Concurrency, "Number of scenarios to run concurrently.")
	f.BoolVar(&o.ValidateOnly, "validate-only", o.ValidateOnly, "Check scenario definitions and exit.")
	f.BoolVar(&o.Fake, "fake", o.Fake, "Run against an in process fake of the API.")
	f.BoolVar(&o.LogRequests, "log-requests", o.LogRequests, "Log every request.")
	f.BoolVar(&o.LogResponses, "log-responses", o.LogResponses, "Log every response body.")

	goFlags := flag.NewFlagSet("", flag.ExitOnError)

	o.zapOptions.BindFlags(goFlags)

	f.AddGoFlagSet(goFlags)
}

// SetupLogging installs the global logger.
func (o *Options) SetupLogging() {
	log.SetLogger(zap.New(zap.UseFlagOptions(&o.zapOptions)))
}

// Credentials returns what scenarios authenticate with.
func (o *Options) Credentials() scenario.Credentials {
	return scenario.Credentials{
		Email:    o.Email,
		Password: o.Password,
	}
}

// Validate checks options are coherent for the selected mode.
func (o *Options) Validate() error {
	if o.ValidateOnly {
		return nil
	}

	if o.BaseURL == "" && !o.Fake {
		return ErrBaseURL
	}

	if !o.Fake && (o.Email == "" || o.Password == "") {
		return ErrCredentials
	}

	return nil
}
