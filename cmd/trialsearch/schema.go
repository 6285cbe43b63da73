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

	"github.com/spf13/cobra"

	"github.com/lscgzwd/trialsearch/search/schema"
)

var schemaTypes = []schema.FieldType{
	schema.TypeString,
	schema.TypeFulltext,
	schema.TypeDate,
	schema.TypeLong,
	schema.TypeFloat,
	schema.TypeBoolean,
	schema.TypeGeoPoint,
	schema.TypeNested,
}

func newSchemaCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect the trial field mapping",
	}
	cmd.AddCommand(newSchemaFieldsCmd(opts))
	return cmd
}

func newSchemaFieldsCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "fields [type]",
		Short: "List field paths, optionally only those of one type",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := schema.Default()
			if file != "" {
				var err error
				if s, err = schema.LoadFile(file); err != nil {
					return err
				}
			}

			types := schemaTypes
			if len(args) == 1 {
				t, err := parseFieldType(args[0])
				if err != nil {
					return err
				}
				types = []schema.FieldType{t}
			}

			for _, t := range types {
				fields := s.FieldsByType(t)
				if len(types) > 1 {
					fmt.Fprintf(opts.out, "# %s (%d)\n", t, len(fields))
				}
				for _, f := range fields {
					fmt.Fprintln(opts.out, f)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Mapping JSON file (default: built-in mapping)")
	return cmd
}

func parseFieldType(s string) (schema.FieldType, error) {
	for _, t := range schemaTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown field type %q", s)
}
