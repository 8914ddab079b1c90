package command

// root.go defines the root command of yamdbctl and opens the database
// for every subcommand.

import (
	"fmt"
	"os"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfg *config.Config
	db  *gorm.DB

	logLevel string // overrides LOG_LEVEL
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "yamdbctl - YaMDB administration tool",
	Long: `yamdbctl performs operator tasks directly against the YaMDB database:
- apply schema migrations
- bulk import the reference CSV dataset
- change user roles
- purge expired confirmation codes

Database settings are read from the environment (DATABASE_DRIVER, DATABASE_URL) or .env.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}

		if _, err := logger.New(cfg.LogLevel, cfg.LogFormat); err != nil {
			return fmt.Errorf("create logger: %w", err)
		}

		db, err = database.ConnectDB(cfg)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			if sqlDB, err := db.DB(); err == nil {
				sqlDB.Close()
			}
		}
		_ = zap.L().Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(setRoleCmd)
	rootCmd.AddCommand(cleanupCodesCmd)
}
