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
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capitoltrades/pvingest/positions"
	"github.com/capitoltrades/pvingest/store"
)

// positionsCmd represents the positions command
var positionsCmd = &cobra.Command{
	Use:   "positions [politician-id...]",
	Short: "Recompute portfolio positions from the trade stream",
	Long: `The positions sub-command derives per-(politician, ticker) holdings from
the stored trade stream via FIFO lot accounting and materializes them to the
positions table. If no arguments are provided every politician with trade
history is recomputed; otherwise only the named politicians are.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		s, err := store.Open(viper.GetString("db.path"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not open database")
		}
		defer s.Close()

		asOf := time.Now().UTC()

		if len(args) == 0 {
			n, err := positions.RunAll(ctx, s, asOf)
			if err != nil {
				log.Fatal().Err(err).Msg("could not recompute positions")
			}
			log.Info().Int("NumPoliticians", n).Msg("positions recomputed")
			return
		}

		for _, politicianID := range args {
			if err := positions.RunFor(ctx, s, politicianID, asOf); err != nil {
				log.Fatal().Err(err).Str("PoliticianID", politicianID).Msg("could not recompute positions")
			}
			log.Info().Str("PoliticianID", politicianID).Msg("positions recomputed")
		}
	},
}

func init() {
	rootCmd.AddCommand(positionsCmd)
}
