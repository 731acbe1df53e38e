package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Inspect and reset sweep progress",
	Long:  "Commands for listing, viewing and deleting persisted sweep progress records.",
}

// -- progress list --

var progressListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sweeps with recorded progress",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openProgress(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		recs, err := st.List(ctx)
		if err != nil {
			return eris.Wrap(err, "progress list")
		}

		format, _ := cmd.Flags().GetString("format")
		if format != "table" {
			return encode(cmd.OutOrStdout(), format, recs)
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No sweeps found.")
			return nil
		}
		formatRecordList(cmd.OutOrStdout(), recs)
		return nil
	},
}

// -- progress show --

var progressShowCmd = &cobra.Command{
	Use:   "show <sweep-id>",
	Short: "Show the full progress record of a sweep",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openProgress(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		rec, err := st.Load(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "progress show")
		}
		if rec == nil {
			return eris.Errorf("progress show: no record for sweep %s", args[0])
		}

		format, _ := cmd.Flags().GetString("format")
		return encode(cmd.OutOrStdout(), format, rec)
	},
}

// -- progress reset --

var progressResetCmd = &cobra.Command{
	Use:   "reset <sweep-id>",
	Short: "Delete the progress record of a sweep so it starts over",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openProgress(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Delete(ctx, args[0]); err != nil {
			return eris.Wrap(err, "progress reset")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", args[0])
		return nil
	},
}

func init() {
	progressListCmd.Flags().String("format", "table", "output format (table, json, yaml)")
	progressShowCmd.Flags().String("format", "json", "output format (json, yaml)")

	progressCmd.AddCommand(progressListCmd)
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressResetCmd)
	rootCmd.AddCommand(progressCmd)
}
