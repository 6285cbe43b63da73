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
	"os"

	"github.com/spf13/cobra"

	"github.com/lscgzwd/trialsearch/config"
	"github.com/lscgzwd/trialsearch/geo"
)

func newGeoCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "geo",
		Short: "Manage the postal code database",
	}
	cmd.AddCommand(newGeoImportCmd(opts), newGeoCountCmd(opts))
	return cmd
}

func geoConfig(opts *rootOptions, dbPath string) (*geo.Config, error) {
	cfg, err := loadConfig(opts, func(c *config.GlobalConfig) {
		if c.Geo == nil {
			c.Geo = geo.DefaultConfig()
		}
		if dbPath != "" {
			c.Geo.DBPath = dbPath
		}
	})
	if err != nil {
		return nil, err
	}
	if err := initLogger(cfg); err != nil {
		return nil, err
	}
	return cfg.Geo, nil
}

func newGeoImportCmd(opts *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import postal code coordinates from a JSON file",
		Long: `Import reads a JSON object keyed by postal code, for example
  {"20850": {"lat": 39.08, "lon": -77.15}}
and stores every entry in the postal code database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gcfg, err := geoConfig(opts, dbPath)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			r, err := geo.Open(gcfg)
			if err != nil {
				return err
			}
			defer r.Close()

			n, err := r.Import(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("import failed after %d entries: %w", n, err)
			}
			fmt.Fprintf(opts.out, "Imported %d postal codes into %s\n", n, gcfg.DBPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Postal code database path (overrides config)")
	return cmd
}

func newGeoCountCmd(opts *rootOptions) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of stored postal codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gcfg, err := geoConfig(opts, dbPath)
			if err != nil {
				return err
			}
			r, err := geo.Open(gcfg)
			if err != nil {
				return err
			}
			defer r.Close()

			n, err := r.Count()
			if err != nil {
				return err
			}
			fmt.Fprintln(opts.out, n)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "Postal code database path (overrides config)")
	return cmd
}
