// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capitoltrades/pvingest/matcher"
	"github.com/capitoltrades/pvingest/store"
)

var matchThreshold float64

// employersCmd groups the employer -> issuer mapping workflow
var employersCmd = &cobra.Command{
	Use:   "employers",
	Short: "Manage employer to issuer mappings for donation matching",
}

var employersSeedCmd = &cobra.Command{
	Use:   "load-seed",
	Short: "Load the curated seed mappings into the database",
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		n, err := matcher.LoadSeed(context.Background(), s)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load seed mappings")
		}
		log.Info().Int("NumMappings", n).Msg("seed mappings loaded")
	},
}

var employersExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export unmatched employers to a CSV for human review",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		fh, err := os.Create(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not create export file")
		}
		defer fh.Close()

		n, err := matcher.Export(context.Background(), s, fh, matchThreshold)
		if err != nil {
			log.Fatal().Err(err).Msg("could not export unmatched employers")
		}
		log.Info().Int("NumEmployers", n).Str("FileName", args[0]).Msg("unmatched employers exported")
	},
}

var employersImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import human-confirmed employer mappings from a reviewed CSV",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openStore()
		defer s.Close()

		fh, err := os.Open(args[0])
		if err != nil {
			log.Fatal().Err(err).Str("FileName", args[0]).Msg("could not open import file")
		}
		defer fh.Close()

		imported, skipped, err := matcher.Import(context.Background(), s, fh)
		if err != nil {
			log.Fatal().Err(err).Msg("could not import confirmed mappings")
		}
		log.Info().Int("Imported", imported).Int("Skipped", skipped).Msg("confirmed mappings imported")
	},
}

func openStore() *store.Store {
	s, err := store.Open(viper.GetString("db.path"))
	if err != nil {
		log.Fatal().Err(err).Msg("could not open database")
	}
	return s
}

func init() {
	rootCmd.AddCommand(employersCmd)
	employersCmd.AddCommand(employersSeedCmd)
	employersCmd.AddCommand(employersExportCmd)
	employersCmd.AddCommand(employersImportCmd)

	employersExportCmd.Flags().Float64Var(&matchThreshold, "threshold", 0.85, "minimum fuzzy-match score for a suggestion")
}
