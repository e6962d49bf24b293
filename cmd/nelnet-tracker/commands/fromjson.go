package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"

	"github.com/Homebrew-Software/nelnet-tracker/lib/scrapers/nelnet"
	"github.com/Homebrew-Software/nelnet-tracker/lib/serviceutil"
	"github.com/Homebrew-Software/nelnet-tracker/lib/telemetry"
	"github.com/Homebrew-Software/nelnet-tracker/services/loanrecords"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fromJsonCmd)
}

var fromJsonCmd = &cobra.Command{
	Use:   "from-json <path/to/snapshot.json>",
	Short: "Record a previously extracted snapshot as a database entry.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		t, err := telemetry.SetupFromEnv(ctx, "nelnet-tracker")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer t.Shutdown(context.Background())

		slog.Info("reading snapshot", "path", args[0])
		data, err := os.ReadFile(args[0])
		if err != nil {
			serviceutil.Fatal("failed to read snapshot file", err)
		}
		var snap nelnet.Snapshot
		err = json.Unmarshal(data, &snap)
		if err != nil {
			serviceutil.Fatal("failed to parse snapshot file", err)
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
		slog.Info("all done", "groups", len(snap.Groups))
	},
}
