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
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capitoltrades/pvingest/store"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Display information about the database",
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := viper.GetString("db.path")

		s, err := store.Open(dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not open database")
		}
		defer s.Close()

		summary, err := s.Summary(dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create database summary document")
		}

		fmt.Print(summary)
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
