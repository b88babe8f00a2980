// okrboard serves the team OKR dashboard over HTTP and MCP and writes KR
// values back to the spreadsheet.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jaakkos/okrboard/internal/policy"
)

// Version is set by -ldflags at build time.
var Version = "dev"

const configEnv = "OKRBOARD_CONFIG"

var (
	// Global flags
	configPath string
	debug      bool

	logger    *zap.Logger = zap.NewNop()
	closeLogs             = func() {}
	pol       *policy.Policy
)

var rootCmd = &cobra.Command{
	Use:   "okrboard",
	Short: "Team OKR dashboard over a shared spreadsheet",
	Long: `okrboard reads one tab per team from an OKR spreadsheet (a local .xlsx
workbook or a Google Sheet), derives progress for every key result and
serves it as a web dashboard, an MCP tool set and a CLI.

Team members can write updated KR values back to the sheet; every write is
recorded in an append-only audit log.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		pol = policy.New(cfg)
		logger, closeLogs = setupLogger(pol.LogFile(), debug)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
		closeLogs()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "okrboard "+Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $"+configEnv+")")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	setCmd.Flags().StringVar(&actorEmail, "actor", os.Getenv("OKRBOARD_ACTOR"), "Email of the team member making the change (default: $OKRBOARD_ACTOR)")
	setCmd.Flags().StringVar(&note, "note", "", "Note stored with the audit entry")
	syncCmd.Flags().StringVar(&actorEmail, "actor", os.Getenv("OKRBOARD_ACTOR"), "Email of the team member making the change (default: $OKRBOARD_ACTOR)")
	syncCmd.Flags().StringVar(&note, "note", "", "Note stored with the audit entries")
	syncCmd.Flags().StringVar(&syncValue, "value", "", "Value to write everywhere (default: the source KR's current value)")
	auditCmd.Flags().StringVar(&auditFilter.Team, "team", "", "Only changes to this team")
	auditCmd.Flags().StringVar(&auditFilter.KRID, "kr", "", "Only changes to this KR id")
	auditCmd.Flags().StringVar(&auditFilter.Actor, "actor", "", "Only changes made by this email")
	auditCmd.Flags().IntVar(&auditFilter.Limit, "limit", 50, "Maximum number of entries (0 for all)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration from path, $OKRBOARD_CONFIG, or the
// defaults when neither is set.
func loadConfig(path string) (*policy.Config, error) {
	if path == "" {
		path = os.Getenv(configEnv)
	}
	if path == "" {
		cfg := policy.DefaultConfig()
		if cwd, err := os.Getwd(); err == nil {
			cfg.BaseDir = cwd
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("no config file (use --config or $%s): %w", configEnv, err)
		}
		return cfg, nil
	}
	cfg, err := policy.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
