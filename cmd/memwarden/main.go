/*
 * Copyright 2024 The Memwarden Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is the main package for the Memwarden agent, which runs the
// supervised cache and memory-management stack as a standalone process with
// a metrics endpoint
package main

import (
	"fmt"
	"os"

	"github.com/memwarden/memwarden/pkg/config"
	"github.com/memwarden/memwarden/pkg/observability/logging"
	"github.com/memwarden/memwarden/pkg/observability/logging/logger"
	"github.com/memwarden/memwarden/pkg/observability/metrics"
	"github.com/memwarden/memwarden/pkg/supervisor"
)

var (
	applicationGitCommitID string
	applicationBuildTime   string
)

const (
	applicationName    = "memwarden"
	applicationVersion = "0.9.0"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run owns the full process lifecycle: configuration, logging, the
// supervisor and its shutdown. It returns the process exit code.
func run(args []string) int {
	conf, flags, err := config.Load(applicationName, applicationVersion, args)
	if err != nil {
		fmt.Println("ERROR: could not load configuration:", err.Error())
		if flags == nil || !flags.ValidateConfig {
			printUsage()
		}
		return 1
	}
	if flags.PrintVersion {
		printVersion()
		return 0
	}
	if flags.ValidateConfig {
		fmt.Println("Memwarden configuration validation succeeded.")
		return 0
	}

	logger.SetLogger(logging.New(conf.Logging))
	for _, w := range conf.LoaderWarnings {
		logger.Warn(w, logging.Pairs{})
	}
	logger.Info("application loaded from configuration",
		logging.Pairs{
			"name":      applicationName,
			"version":   applicationVersion,
			"commitID":  applicationGitCommitID,
			"buildTime": applicationBuildTime,
			"logLevel":  conf.Logging.LogLevel,
			"config":    conf.ConfigFilePath(),
		})

	sup, err := supervisor.New(conf)
	if err != nil {
		logger.Error("supervisor initialization failed",
			logging.Pairs{"detail": err.Error()})
		return 1
	}
	sup.Start()
	metrics.ListenAndServe(conf.Metrics.ListenAddress, conf.Metrics.ListenPort)

	awaitShutdown()
	logger.Warn("shutdown requested", logging.Pairs{"source": "signal"})
	sup.Shutdown()
	return 0
}
