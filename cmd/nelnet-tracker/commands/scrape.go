package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/Homebrew-Software/nelnet-tracker/lib/dom"
	"github.com/Homebrew-Software/nelnet-tracker/lib/notify"
	"github.com/Homebrew-Software/nelnet-tracker/lib/scrapers/nelnet"
	"github.com/Homebrew-Software/nelnet-tracker/lib/serviceutil"
	"github.com/Homebrew-Software/nelnet-tracker/lib/telemetry"
	"github.com/Homebrew-Software/nelnet-tracker/services/loanrecords"

	"github.com/spf13/cobra"
)

var scrapeHtml *string
var scrapeUrl *string
var scrapeJson *string

func init() {
	scrapeHtml = scrapeCmd.Flags().String("html", "", "Path to a saved copy of the loan details page.")
	scrapeUrl = scrapeCmd.Flags().String("url", "", "Url serving the rendered loan details page.")
	scrapeJson = scrapeCmd.Flags().StringP("json", "j", "", "Path to a JSON file to write to instead of the database.")
	rootCmd.AddCommand(scrapeCmd)
}

func openSource(ctx context.Context) (*dom.StaticSource, error) {
	if *scrapeHtml != "" {
		f, err := os.Open(*scrapeHtml)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return dom.NewStaticSource(f)
	}

	client, err := dom.NewFetchClient()
	if err != nil {
		return nil, err
	}
	return dom.FetchPage(ctx, client, *scrapeUrl)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape (--html <path/to/page.html> | --url <url>) [--json <path/to/out.json>]",
	Short: "Extract a loan snapshot from the loan details page and record it.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if *scrapeHtml == "" && *scrapeUrl == "" {
			serviceutil.Fatal("no page to scrape", fmt.Errorf("provide --html or --url"))
		}

		t, err := telemetry.SetupFromEnv(ctx, "nelnet-tracker")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)

		src, err := openSource(ctx)
		if err != nil {
			serviceutil.Fatal("failed to open loan details page", err)
		}
		slog.Info("loaded page", "title", src.Title())

		snap, err := nelnet.NewScraper(src).Scrape(ctx)
		if err != nil {
			serviceutil.Fatal("failed to scrape snapshot", err)
		}

		if *scrapeJson != "" {
			slog.Info("writing record to file", "path", *scrapeJson)
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				serviceutil.Fatal("failed to serialize snapshot", err)
			}
			err = os.WriteFile(*scrapeJson, data, 0o644)
			if err != nil {
				serviceutil.Fatal("failed to write snapshot", err)
			}
			return
		}

		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		store, err := openStore(cfg)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer store.Close()

		slog.Info("writing record to database", "database", cfg.Database.File)
		err = loanrecords.NewService(store).Push(ctx, snap)
		if err != nil {
			serviceutil.Fatal("failed to persist snapshot", err)
		}

		if cfg.Notify.Enabled() {
			err := notify.SnapshotRecorded(ctx, cfg.Notify, len(snap.Groups), snap.CurrentBalance)
			if err != nil {
				slog.Warn("failed to send notification email", "err", err)
			}
		}
		slog.Info("all done", "groups", len(snap.Groups))
	},
}
