package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agrimap/server/internal/geometry"
	"agrimap/server/internal/pipeline"
)

var (
	snapshotProduct  string
	snapshotRange    string
	snapshotDistance float64
	snapshotGeoJSON  bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Print the classified clusters and rebalancing pairs as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Keep stdout for the document
		logger.SetOutput(os.Stderr)

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		opts, err := pipeline.OptionsFromConfig(cfg)
		if err != nil {
			return err
		}

		req := pipeline.Request{ProductID: snapshotProduct, MaxDistanceKm: snapshotDistance}
		if snapshotRange != "" {
			rng, err := pipeline.ParseTimeRange(snapshotRange)
			if err != nil {
				return err
			}
			req.Range = rng
		}

		hub := pipeline.NewHub(db, opts, logger, nil)
		snap, err := hub.Snapshot(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("compute snapshot: %w", err)
		}

		var out any = snap
		if snapshotGeoJSON {
			fc := geometry.ClusterFeatures(snap.Clusters)
			fc.Features = append(fc.Features, geometry.PairFeatures(snap.Pairs).Features...)
			out = fc
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotProduct, "product", "", "product id (default: all products)")
	snapshotCmd.Flags().StringVar(&snapshotRange, "range", "", "time range: today, 1h, 6h, 24h, 7d, 30d")
	snapshotCmd.Flags().Float64Var(&snapshotDistance, "max-distance-km", 0, "rebalancing distance bound (default from config)")
	snapshotCmd.Flags().BoolVar(&snapshotGeoJSON, "geojson", false, "print a GeoJSON feature collection instead")
	rootCmd.AddCommand(snapshotCmd)
}
