package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Homebrew-Software/nelnet-tracker/lib/serviceutil"
	"github.com/Homebrew-Software/nelnet-tracker/lib/textutil"
	"github.com/Homebrew-Software/nelnet-tracker/services/loanrecords"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(balancesCmd)
}

var balancesCmd = &cobra.Command{
	Use:   "balances",
	Short: "Show the aggregate balance of all loans over time.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := readConfig()
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		store, err := openStore(cfg)
		if err != nil {
			serviceutil.Fatal("failed to open database", err)
		}
		defer store.Close()

		points, err := loanrecords.NewService(store).Balances(ctx)
		if err != nil {
			serviceutil.Fatal("failed to read balances", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Timestamp", "Balance"})
		for _, p := range points {
			value, err := textutil.ParseDollars(p.Balance)
			if err != nil {
				slog.Warn("unparseable balance", "timestamp", p.Time, "balance", p.Balance)
				t.AppendRow(table.Row{p.Time, p.Balance})
				continue
			}
			t.AppendRow(table.Row{p.Time, fmt.Sprintf("$%.2f", value)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
