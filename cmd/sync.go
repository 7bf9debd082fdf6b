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
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/capitoltrades/pvingest/capitoltrades"
	"github.com/capitoltrades/pvingest/data"
	"github.com/capitoltrades/pvingest/fetch"
	"github.com/capitoltrades/pvingest/ingest"
	"github.com/capitoltrades/pvingest/orchestrator"
	"github.com/capitoltrades/pvingest/quote"
	"github.com/capitoltrades/pvingest/store"
)

var (
	skipListing     bool
	skipTrades      bool
	skipPoliticians bool
	skipCommittees  bool
	skipIssuers     bool
	skipPrices      bool
	dryRun          bool
	batchCap        int
	priceFanOut     int
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Ingest listing pages and run the enrichment pipelines",
	Long: `The sync sub-command runs a full ingest: listing pages plant skeleton rows
for trades, politicians, and issuers; then the trade-detail, politician-detail,
politician-committee, issuer-detail, and price-enrichment pipelines fill them
in, in that order.
Each pipeline checkpoints per row, so an interrupted sync resumes where it
left off on the next run. Individual stages can be skipped with flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		baseURL := os.Getenv("BASE_URL")
		if baseURL == "" {
			baseURL = "https://www.capitoltrades.com"
		}

		s, err := store.Open(viper.GetString("db.path"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not open database")
		}
		defer s.Close()

		fetcher := fetch.New(baseURL, baseURL+"/trades")
		client := capitoltrades.New(baseURL, fetcher)

		var quoteSrc *quote.Source
		if !skipPrices {
			quoteURL := viper.GetString("quote.url")
			if quoteURL == "" {
				log.Warn().Msg("no quote.url configured, skipping price enrichment")
				skipPrices = true
			} else {
				quoteSrc = quote.New(quoteURL, viper.GetString("quote.token"))
			}
		}

		stageOpts := orchestrator.Options{
			BatchCap: batchCap,
			DryRun:   dryRun,
		}
		opts := ingest.Options{
			SkipListing:     skipListing,
			SkipTrades:      skipTrades,
			SkipPoliticians: skipPoliticians,
			SkipCommittees:  skipCommittees,
			SkipIssuers:     skipIssuers,
			SkipPrices:      skipPrices,
			Trades:          stageOpts,
			Politicians:     stageOpts,
			Committees:      stageOpts,
			Issuers:         stageOpts,
			Prices: orchestrator.Options{
				BatchCap:         batchCap,
				DryRun:           dryRun,
				BreakerThreshold: orchestrator.PriceBreakerThreshold,
				Concurrency:      priceFanOut,
			},
		}

		result, err := ingest.Sync(ctx, client, quoteSrc, s, opts)
		if err != nil {
			log.Error().Err(err).Msg("sync did not complete")
		}

		for _, summary := range []*data.RunSummary{result.Listing, result.Trades, result.Politicians, result.Committees, result.Issuers} {
			if summary != nil {
				log.Info().Str("Summary", summary.String()).Msg("pipeline finished")
			}
		}
		if result.Prices != nil {
			for _, summary := range []*data.RunSummary{result.Prices.TradeDate, result.Prices.Current, result.Prices.Benchmark} {
				if summary != nil {
					log.Info().Str("Summary", summary.String()).Msg("pipeline finished")
				}
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVar(&skipListing, "skip-listing", false, "skip the listing ingest stage")
	syncCmd.Flags().BoolVar(&skipTrades, "skip-trades", false, "skip the trade detail stage")
	syncCmd.Flags().BoolVar(&skipPoliticians, "skip-politicians", false, "skip the politician detail stage")
	syncCmd.Flags().BoolVar(&skipCommittees, "skip-committees", false, "skip the politician committee stage")
	syncCmd.Flags().BoolVar(&skipIssuers, "skip-issuers", false, "skip the issuer detail stage")
	syncCmd.Flags().BoolVar(&skipPrices, "skip-prices", false, "skip the price enrichment stage")
	syncCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "report how many rows each enrichment pipeline would process, without fetching details (listing ingest still runs)")
	syncCmd.Flags().IntVar(&batchCap, "batch-cap", 0, "cap the number of rows each pipeline processes; the committee sweep always covers every committee code (0 = no cap)")
	syncCmd.Flags().IntVar(&priceFanOut, "price-fan-out", 3, "concurrent in-flight price fetches")
}
