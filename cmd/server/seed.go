package main

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"agrimap/server/config"
	"agrimap/server/internal/simulate"
)

var (
	seedCount  int
	seedSpread time.Duration
	seedRandom int64
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert synthetic price reports around CALABARZON cities",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedCount <= 0 {
			return fmt.Errorf("--count must be positive, got %d", seedCount)
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		seed := seedRandom
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		gen := simulate.NewGenerator(seed, config.GetCities(), config.Products)
		gen.Spread = seedSpread

		reports := gen.Reports(seedCount)
		if err := db.InsertReports(cmd.Context(), reports); err != nil {
			return fmt.Errorf("insert reports: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"count":  len(reports),
			"spread": seedSpread.String(),
		}).Info("Seeded price reports")
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedCount, "count", 2000, "number of reports to generate")
	seedCmd.Flags().DurationVar(&seedSpread, "spread", 12*time.Hour, "spread timestamps over this window before now")
	seedCmd.Flags().Int64Var(&seedRandom, "random-seed", 0, "random seed (default: time based)")
	rootCmd.AddCommand(seedCmd)
}
