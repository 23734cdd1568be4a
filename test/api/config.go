/*
Copyright 2024-2025 the Unikorn Authors.
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

package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/nscaledev/uni-library-contract/pkg/scenario"
)

type TestConfig struct {
	// BaseURL is the API under test, when empty an in process fake is
	// started instead.
	BaseURL        string        `env:"API_BASE_URL"`
	Email          string        `env:"API_LOGIN_EMAIL"`
	Password       string        `env:"API_LOGIN_PASSWORD"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	TestTimeout    time.Duration `env:"TEST_TIMEOUT" envDefault:"5m"`
	// OpenAPISpec overrides the embedded API description.
	OpenAPISpec  string `env:"OPENAPI_SPEC"`
	DebugLogging bool   `env:"DEBUG_LOGGING"`
	LogRequests  bool   `env:"LOG_REQUESTS"`
	LogResponses bool   `env:"LOG_RESPONSES"`
}

// UseFake reports whether the suite runs against the in process fake.
func (c *TestConfig) UseFake() bool {
	return c.BaseURL == ""
}

// Credentials returns the administrator credentials scenarios log in with.
func (c *TestConfig) Credentials() scenario.Credentials {
	return scenario.Credentials{
		Email:    c.Email,
		Password: c.Password,
	}
}

// LoadTestConfig loads configuration from environment variables and .env files.
// Returns an error if required configuration values are missing.
func LoadTestConfig() (*TestConfig, error) {
	loadEnvFile()

	config := &TestConfig{}

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("parsing test configuration: %w", err)
	}

	// Validate required fields
	if err := validateRequiredFields(config); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	envPaths := []string{
		"../../.env",    // From test/api/suites directory
		"../../../.env", // From the repository root
	}

	var envPath string

	for _, path := range envPaths {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				envPath = absPath
				break
			}
		}
	}

	if envPath == "" {
		// .env file not found - this is OK in CI/CD where env vars are set directly
		return
	}

	if err := godotenv.Load(envPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", envPath, err)
	}
}

// validateRequiredFields checks that all required configuration values are
// set.  Nothing is required when running against the fake.
func validateRequiredFields(config *TestConfig) error {
	if config.UseFake() {
		return nil
	}

	var missing []string

	required := map[string]string{
		"API_LOGIN_EMAIL":    config.Email,
		"API_LOGIN_PASSWORD": config.Password,
	}

	for envVar, value := range required {
		if value == "" {
			missing = append(missing, envVar)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s. Please set these environment variables or add them to a .env file", strings.Join(missing, ", "))
	}

	return nil
}
