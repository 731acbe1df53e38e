package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/tilesweep/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export saved tiles of a sweep as GeoJSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		out, _ := cmd.Flags().GetString("out")

		fc, err := export.ArtifactsGeoJSON(dir)
		if err != nil {
			return err
		}

		if out == "" || out == "-" {
			data, err := export.Marshal(fc)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := export.WriteFile(out, fc); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %d saved tiles to %s\n", len(fc.Features), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dir", "", "sweep output directory")
	exportCmd.Flags().String("out", "", "output file (default stdout)")
	_ = exportCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(exportCmd)
}
