package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sw33tLie/xcdupes/pkg/storage"
)

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the xcdupes scan history database",
}

// shellCmd represents the shell command
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive shell to the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath := resolveDBPath(cmd)
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("database file not found: %s", dbPath)
		}

		// Check if sqlite3 is in PATH
		sqlitePath, err := exec.LookPath("sqlite3")
		if err != nil {
			return fmt.Errorf("sqlite3 command not found in your PATH. Please install it to use the db shell")
		}

		// Print schema first
		fmt.Println("--> Database schema:")
		schemaCmd := exec.Command(sqlitePath, dbPath, ".schema")
		schemaCmd.Stdout = os.Stdout
		schemaCmd.Stderr = os.Stderr
		if err := schemaCmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: couldn't retrieve schema: %v\n", err)
		}
		fmt.Println("\n--> Starting interactive shell... (Ctrl+D to exit)")

		c := exec.Command(sqlitePath, dbPath)
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr

		return c.Run()
	},
}

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints statistics about the scanned roots in the database.",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openExistingDB(resolveDBPath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats(cmd.Context())
		if err != nil {
			return err
		}

		if len(stats) == 0 {
			fmt.Println("No data in the database to generate stats.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ROOT\tRUNS\tLAST RUN\tGROUPS\t")

		var totalRuns, totalGroups int
		for _, s := range stats {
			fmt.Fprintf(w, "%s\t%d\t%s\t%d\t\n", s.Root, s.RunCount, s.LastRunAt.Local().Format("2006-01-02 15:04:05"), s.LastGroups)
			totalRuns += s.RunCount
			totalGroups += s.LastGroups
		}

		fmt.Fprintln(w, " \t \t \t \t")
		fmt.Fprintf(w, "TOTAL\t%d\t\t%d\t\n", totalRuns, totalGroups)

		w.Flush()

		return nil
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded scans (default 20)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		db, err := openExistingDB(resolveDBPath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		runs, err := db.ListRuns(cmd.Context(), limit)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RUN\tFINISHED\tDURATION\tFILES\tSKIPPED\tGROUPS\tROOT\t")
		for _, r := range runs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%s\t\n",
				r.ID, r.FinishedAt.Local().Format("2006-01-02 15:04:05"), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Hashed, r.Skipped, r.Groups, r.Root)
		}
		return w.Flush()
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Print the duplicate groups of a recorded scan (default: latest)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		runID, _ := cmd.Flags().GetInt64("run")
		db, err := openExistingDB(resolveDBPath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()

		if runID <= 0 {
			runs, err := db.ListRuns(cmd.Context(), 1)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No scans recorded yet.")
				return nil
			}
			runID = runs[0].ID
		}

		groups, err := db.ListGroups(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			fmt.Printf("Run #%d reported no duplicates.\n", runID)
			return nil
		}
		for _, g := range groups {
			fmt.Println(titleStyle.Render(fmt.Sprintf("Group %d", g.ID)) + "  " + mutedStyle.Render(g.Fingerprint) + "  " + g.Name)
			for _, o := range g.Occurrences {
				scale := o.Scale
				if scale == "" {
					scale = "-"
				}
				fmt.Printf("  %-3s %s\n", scale, o.Path)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(shellCmd)
	dbCmd.AddCommand(statsCmd)
	dbCmd.AddCommand(runsCmd)
	dbCmd.AddCommand(groupsCmd)
	dbCmd.PersistentFlags().String("dbpath", "", "Path to SQLite DB file (default: db.path from config, else xcdupes.sqlite)")
	runsCmd.Flags().Int("limit", 20, "Number of recent runs to show")
	groupsCmd.Flags().Int64("run", 0, "Run ID to print (default: latest)")
}

// resolveDBPath prefers the --dbpath flag, then the db.path config key.
func resolveDBPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("dbpath"); p != "" {
		return p
	}
	if p := viper.GetString("db.path"); p != "" {
		return p
	}
	return defaultDBPath
}

func openExistingDB(dbPath string) (*storage.DB, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("database not found: %s", dbPath)
	}
	return storage.Open(dbPath)
}
