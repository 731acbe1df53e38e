package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/tilesweep/internal/config"
	"github.com/sells-group/tilesweep/internal/export"
	"github.com/sells-group/tilesweep/internal/geodesy"
	"github.com/sells-group/tilesweep/internal/tiles"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Enumerate the tile centers of a sweep",
	Long:  "Prints the tile centers inside the circle in sweep order, or writes them as GeoJSON with --geojson.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		radius, _ := cmd.Flags().GetFloat64("radius-km")
		tileKm, _ := cmd.Flags().GetFloat64("tile-km")
		out, _ := cmd.Flags().GetString("geojson")

		grid, err := tiles.NewGrid(geodesy.Point(lat, lon), radius, tileKm)
		if err != nil {
			return eris.Wrap(config.ErrConfig, err.Error())
		}

		if out != "" {
			if err := export.WriteFile(out, export.GridGeoJSON(grid)); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "Wrote %d tile centers to %s\n", grid.Count(), out)
			return nil
		}
		fmt.Fprintln(cmd.ErrOrStderr(), gridHeadline(grid))
		formatGrid(cmd.OutOrStdout(), grid)
		return nil
	},
}

func init() {
	gridCmd.Flags().Float64("lat", 0, "center latitude in degrees")
	gridCmd.Flags().Float64("lon", 0, "center longitude in degrees")
	gridCmd.Flags().Float64("radius-km", 0, "sweep radius in km")
	gridCmd.Flags().Float64("tile-km", 2.0, "ground size of one tile in km")
	gridCmd.Flags().String("geojson", "", "write a GeoJSON FeatureCollection to this file")

	_ = gridCmd.MarkFlagRequired("lat")
	_ = gridCmd.MarkFlagRequired("lon")
	_ = gridCmd.MarkFlagRequired("radius-km")

	rootCmd.AddCommand(gridCmd)
}

// gridHeadline summarizes the lattice parameters in one line.
func gridHeadline(grid *tiles.Grid) string {
	c := grid.Center()
	return fmt.Sprintf("%d tiles within %s km of (%.6f, %.6f), tile %s km",
		grid.Count(), tiles.FormatKm(grid.RadiusKm()), c.Lat, c.Lon, tiles.FormatKm(grid.TileKm()))
}

// formatGrid writes one row per tile center to w.
func formatGrid(out io.Writer, grid *tiles.Grid) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INDEX\tLAT\tLON")
	for tc := range grid.Tiles() {
		_, _ = fmt.Fprintf(w, "%d\t%.6f\t%.6f\n", tc.Index, tc.Point.Lat, tc.Point.Lon)
	}
	_ = w.Flush()
}
