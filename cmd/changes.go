package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var changesCmd = &cobra.Command{
	Use:   "changes",
	Short: "Show recent duplicate group changes between scans (default 50)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		db, err := openExistingDB(resolveDBPath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()
		changes, err := db.ListRecentChanges(cmd.Context(), limit)
		if err != nil {
			return err
		}
		for _, c := range changes {
			ts := c.OccurredAt.Local().Format("2006-01-02 15:04:05")
			fmt.Printf("%s  %-7s  run=%d  %s  %s  %s  imagesets=%d\n", ts, c.ChangeType, c.RunID, c.Root, shortHash(c.Fingerprint), c.Name, c.Containers)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(changesCmd)
	changesCmd.Flags().String("dbpath", "", "Path to SQLite DB file (default: db.path from config, else xcdupes.sqlite)")
	changesCmd.Flags().Int("limit", 50, "Number of recent changes to show")
}
