package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Homebrew-Software/nelnet-tracker/lib/configutil"
	configsqlite "github.com/Homebrew-Software/nelnet-tracker/lib/configutil/sqlite"
	"github.com/Homebrew-Software/nelnet-tracker/lib/notify"
	"github.com/Homebrew-Software/nelnet-tracker/lib/telemetry"
	"github.com/Homebrew-Software/nelnet-tracker/services/loanrecords/db"

	"github.com/spf13/cobra"
)

const version = "0.4.0"

var verbose *bool

type Config struct {
	Database configsqlite.Struct `json:"database"`
	Notify   notify.Config       `json:"notify"`
}

var rootCmd = &cobra.Command{
	Use:     "nelnet-tracker",
	Short:   "nelnet-tracker records loan-account snapshots for trend analysis.",
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// readConfig loads config.json5, falling back to a database in the
// user config dir when no config file exists.
func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if os.IsNotExist(err) {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, err
		}
		cfg.Database.File = filepath.Join(dir, "nelnet-tracker", "nelnet_records.sqlite3")
		return cfg, nil
	}
	return cfg, err
}

func openStore(cfg Config) (*sql.DB, error) {
	return cfg.Database.OpenDB(db.Schema)
}
