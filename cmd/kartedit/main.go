package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/kartedit/kartedit/internal/config"
	"github.com/kartedit/kartedit/pkg/logging"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	logLevel   string
	jsonLog    bool
	outputPath string
	mapOnly    bool
	noBackup   bool
	backupDir  string
	rootCmd    *cobra.Command
	cfg        config.Config
)

func getBuildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func init() {
	rootCmd = &cobra.Command{
		Use:           "kartedit",
		Short:         "Edit Super Mario Kart cartridge images",
		Long:          `Inspect cartridge images, move tracks in and out of MKT/SMKC files and edit the game texts.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg, err = config.Load(); err != nil {
				return err
			}
			if !cmd.Flags().Changed("log-level") {
				logLevel = cfg.LogLevel
			}
			if !cmd.Flags().Changed("json-log") {
				jsonLog = cfg.JSONLog
			}
			if !cmd.Flags().Changed("backup-dir") {
				backupDir = cfg.BackupDir
			}
			return nil
		},
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("kartedit {{.Version}}\nBuilt: %s\n", getBuildTimestamp()))

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLog, "json-log", false, "Log as JSON")
	rootCmd.PersistentFlags().StringVar(&backupDir, "backup-dir", "", "Directory for backups of overwritten images")

	rootCmd.AddCommand(newInfoCmd(), newVerifyCmd(), newExportCmd(), newImportCmd(), newTextsCmd(), newRestoreCmd())
}

func newLogger() hclog.Logger {
	return logging.NewLoggerWithFormat("kartedit", logLevel, jsonLog, os.Stderr)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
