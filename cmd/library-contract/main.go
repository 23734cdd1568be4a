/*
Copyright 2025 the Unikorn Authors.
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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/nscaledev/uni-library-contract/pkg/constants"
	"github.com/nscaledev/uni-library-contract/pkg/options"
	"github.com/nscaledev/uni-library-contract/pkg/suite"

	cr "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

func main() {
	var options options.Options

	if err := options.LoadEnvironment(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	options.AddFlags(pflag.CommandLine)

	pflag.Parse()

	options.SetupLogging()

	logger := log.Log.WithName("init")
	logger.Info("contract run starting", "application", constants.Application, "version", constants.Version, "revision", constants.Revision)

	if err := options.Validate(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	scenarios, err := suite.Select(options.Scenarios, options.ScenarioDir)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if err := suite.Validate(scenarios); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if options.ValidateOnly {
		fmt.Printf("%d scenarios are valid\n", len(scenarios))
		return
	}

	ctx := cr.SetupSignalHandler()

	s, err := suite.New(ctx, &options)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	report, runErr := s.Run(ctx, scenarios)

	s.Close()

	report.Log(log.Log.WithName("report"))

	if err := report.Write(os.Stdout); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if runErr != nil {
		os.Exit(1)
	}
}
