package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sw33tLie/xcdupes/internal/utils"
	"github.com/sw33tLie/xcdupes/pkg/dupes"
	"github.com/sw33tLie/xcdupes/pkg/report"
	"github.com/sw33tLie/xcdupes/pkg/storage"
)

const defaultDBPath = "xcdupes.sqlite"

// scanCmd implements: xcdupes scan [path]
//
//	--output string      CSV file or folder for the report
//	--concurrency int    Files hashed in parallel (0 = one per CPU)
//	--exclude strings    Glob patterns to skip, relative to the scan root
//	--extended           Append catalog/file/size/referenced columns
//	--db                 Record the run and print changes since the last one
//	--reveal             Open the report's folder when done
var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan asset catalogs for duplicate images",
	Long: `Scan a .xcassets catalog, or a folder containing catalogs, for images whose
decoded pixels are identical across different imagesets.

When no path is given and the terminal is interactive, you are prompted for it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		var root string
		if len(args) == 1 {
			root = args[0]
		} else {
			if !isInteractive() {
				return fmt.Errorf("no catalog path given. See 'xcdupes scan --help'")
			}
			in, err := promptScanInput(!cmd.Flags().Changed("output"))
			if err != nil {
				return err
			}
			root = in.root
			if !cmd.Flags().Changed("output") {
				output = in.output
			}
		}

		root, err := resolveRoot(root)
		if err != nil {
			return err
		}
		outPath, err := report.ResolveOutputPath(output)
		if err != nil {
			return fmt.Errorf("could not prepare output location: %w", err)
		}

		return runScan(cmd.Context(), root, outPath, scanSettingsFromConfig(cmd))
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringP("output", "o", "", "CSV file path or folder to save results (default: ./duplicate_assets.csv)")
	scanCmd.Flags().IntP("concurrency", "c", 0, "Number of files hashed in parallel (0 = one per CPU)")
	scanCmd.Flags().StringSlice("exclude", nil, "Glob patterns to skip, relative to the scan root (e.g. 'Pods/**')")
	scanCmd.Flags().Bool("extended", false, "Append catalog, file, width, height and referenced columns to the report")
	scanCmd.Flags().Bool("reveal", false, "Open the report's folder in the file browser when done")
	scanCmd.Flags().Bool("db", false, "Record the run in the database and print changes since the previous run")
	scanCmd.Flags().String("dbpath", defaultDBPath, "Path to SQLite DB file")

	viper.BindPFlag("scan.concurrency", scanCmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("scan.exclude", scanCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("report.extended", scanCmd.Flags().Lookup("extended"))
	viper.BindPFlag("report.reveal", scanCmd.Flags().Lookup("reveal"))
	viper.BindPFlag("db.path", scanCmd.Flags().Lookup("dbpath"))
}

// scanSettings are the resolved flag and config values for a scan.
type scanSettings struct {
	concurrency int
	exclude     []string
	extended    bool
	reveal      bool
	useDB       bool
	dbPath      string
}

func scanSettingsFromConfig(cmd *cobra.Command) scanSettings {
	useDB, _ := cmd.Flags().GetBool("db")

	var exclude []string
	for _, e := range viper.GetStringSlice("scan.exclude") {
		exclude = append(exclude, utils.SplitList(e)...)
	}

	return scanSettings{
		concurrency: viper.GetInt("scan.concurrency"),
		exclude:     exclude,
		extended:    viper.GetBool("report.extended"),
		reveal:      viper.GetBool("report.reveal"),
		useDB:       useDB,
		dbPath:      viper.GetString("db.path"),
	}
}

// resolveRoot expands and validates the scan root, returning an absolute path.
func resolveRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", fmt.Errorf("no path entered")
	}
	expanded, err := homedir.Expand(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		return "", fmt.Errorf("invalid path %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("invalid path %s: not a folder", root)
	}
	return filepath.Abs(expanded)
}

// runScan collects, collapses and reports duplicates under root.
func runScan(ctx context.Context, root, outPath string, s scanSettings) error {
	started := time.Now()
	utils.Log.Infof("Scanning for assets in: %s", root)

	idx, stats, err := dupes.Collect(ctx, root, dupes.Options{
		Concurrency: s.concurrency,
		Exclude:     s.exclude,
		Log:         utils.Log,
	})
	if err != nil {
		return err
	}
	groups := dupes.Collapse(idx)
	if len(groups) == 0 {
		utils.Log.Info("No duplicate assets found.")
	}

	utils.Log.Infof("Saving results to: %s", outPath)
	if err := report.WriteFile(outPath, groups, report.Options{Extended: s.extended}); err != nil {
		return err
	}
	printSummary(stats, groups, outPath)

	if s.useDB {
		run := storage.Run{
			Root:       root,
			StartedAt:  started,
			FinishedAt: time.Now(),
			Catalogs:   stats.Catalogs,
			ImageSets:  stats.ImageSets,
			Hashed:     stats.Hashed,
			Skipped:    stats.Skipped,
		}
		if err := recordRun(ctx, s.dbPath, run, groups); err != nil {
			return err
		}
	}

	if s.reveal {
		if err := revealInFileBrowser(outPath); err != nil {
			utils.Log.Warnf("Could not open file browser: %v", err)
		}
	}
	return nil
}

// recordRun stores the run under the DB lock and prints what changed.
func recordRun(ctx context.Context, dbPath string, run storage.Run, groups []dupes.ReportGroup) error {
	lock, err := utils.NewDBLock(dbPath)
	if err != nil {
		return err
	}
	if err := lock.Lock(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := db.SaveRun(ctx, run, groups)
	if err != nil {
		return err
	}
	if res.FirstRun {
		utils.Log.Infof("First scan of %s recorded as run #%d", run.Root, res.RunID)
		return nil
	}
	if len(res.Changes) == 0 {
		utils.Log.Infof("No changes since the previous scan (run #%d)", res.RunID)
		return nil
	}
	printChanges(res.Changes)
	return nil
}

func printSummary(stats dupes.Stats, groups []dupes.ReportGroup, outPath string) {
	fmt.Println(successStyle.Render(fmt.Sprintf("✅ Duplicate list saved successfully! Groups written: %d", len(groups))))
	fmt.Println(mutedStyle.Render(fmt.Sprintf("   catalogs %d · imagesets %d · files hashed %d · skipped %d",
		stats.Catalogs, stats.ImageSets, stats.Hashed, stats.Skipped)))
	if stats.Skipped > 0 {
		fmt.Println(warningStyle.Render("   some files could not be read or decoded; rerun with -l debug to list them"))
	}
	fmt.Println("   " + titleStyle.Render(outPath))
}

func printChanges(changes []storage.Change) {
	for _, c := range changes {
		var emoji string
		switch c.ChangeType {
		case storage.ChangeAdded:
			emoji = "🆕"
		case storage.ChangeRemoved:
			emoji = "✅"
		}
		fmt.Printf("%s  %-7s  %s  %s  (%d imagesets)\n", emoji, c.ChangeType, shortHash(c.Fingerprint), c.Name, c.Containers)
	}
}

func shortHash(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
