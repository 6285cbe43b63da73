// Copyright (c) 2024 TigerDB Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// 		http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lscgzwd/trialsearch/api/http/common"
)

// 版本信息，构建时通过 -ldflags 注入
var (
	Version = "dev"
	GitHash = ""
)

const (
	// Name 应用名称
	Name = "trialsearch"
	// Repository 源码仓库
	Repository = "https://github.com/lscgzwd/trialsearch"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootOptions 所有子命令共享的参数
type rootOptions struct {
	configPath string
	logLevel   string
	out        io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{out: out}

	root := &cobra.Command{
		Use:   Name,
		Short: "Clinical trials search API",
		Long: `trialsearch serves the clinical trials REST API: it translates query
parameters into Elasticsearch requests and shapes the results.

Configuration priority:
  1. Command line flags (highest priority)
  2. Environment variables (TRIALSEARCH_*)
  3. Configuration file
  4. Default values (lowest priority)`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file path (default: auto-detect)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error, silent")

	root.AddCommand(
		newServeCmd(opts),
		newGeoCmd(opts),
		newSchemaCmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func versionInfo() common.VersionInfo {
	return common.VersionInfo{
		Version:     Version,
		GitHash:     GitHash,
		Repository:  Repository,
		Environment: os.Getenv("TRIALSEARCH_ENV"),
	}
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := versionInfo()
			fmt.Fprintf(opts.out, "%s version %s", Name, info.Version)
			if info.GitHash != "" {
				fmt.Fprintf(opts.out, " (%s)", info.GitHash)
			}
			fmt.Fprintln(opts.out)
		},
	}
}
