package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"agrimap/server/config"
	"agrimap/server/internal/database"
)

var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "agrimap",
	Short: "Crowd-sourced agricultural price map server",
	Long:  "Collects price reports, clusters them by location, classifies supply and demand, and suggests where surplus should move.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		l, err := newLogger(cfg.Log.Level)
		if err != nil {
			return err
		}
		logger = l

		if cfg.CitiesFile != "" {
			if err := config.LoadCities(cfg.CitiesFile); err != nil {
				return fmt.Errorf("load cities: %w", err)
			}
			logger.WithField("path", cfg.CitiesFile).Info("Loaded city list")
		}
		return nil
	},
	SilenceUsage: true,
}

func newLogger(level string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	l.SetLevel(lvl)
	return l, nil
}

// openDatabase opens the report store and brings its schema up to date
func openDatabase() (*database.Database, error) {
	dir := filepath.Dir(cfg.Database.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	logger.Infof("Using database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
