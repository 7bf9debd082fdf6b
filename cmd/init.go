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
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capitoltrades/pvingest/store"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database file and run schema migrations",
	Run: func(cmd *cobra.Command, args []string) {
		dbPath := viper.GetString("db.path")

		log.Info().Str("Database", dbPath).Msg("creating database tables")

		s, err := store.Open(dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}
		defer s.Close()

		log.Info().Msg("database tables created")

		// save database settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvingest.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving database path to config file")
		configData, err := toml.Marshal(map[string]any{
			"db": map[string]string{"path": dbPath},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your database has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
