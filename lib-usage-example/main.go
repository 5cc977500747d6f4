package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sw33tLie/xcdupes/pkg/dupes"
	"github.com/sw33tLie/xcdupes/pkg/report"
)

func main() {
	// Usage: go run *.go -root ./MyApp -csv

	rootFlag := flag.String("root", "", "Folder containing .xcassets catalogs")
	csvFlag := flag.Bool("csv", false, "Print the CSV report instead of a summary")

	// Parse the command-line flags
	flag.Parse()

	if *rootFlag == "" {
		fmt.Println("Root is required. Please provide it using -root flag.")
		return
	}

	idx, stats, err := dupes.Collect(context.Background(), *rootFlag, dupes.Options{})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	groups := dupes.Collapse(idx)

	if *csvFlag {
		if err := report.Write(os.Stdout, groups, report.Options{}); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%d imagesets, %d files hashed\n", stats.ImageSets, stats.Hashed)
	for _, g := range groups {
		fmt.Println(g.ID, g.Name, g.Fingerprint[:12])
		for _, o := range g.Occurrences {
			fmt.Println("  ", o.Container, o.Scale)
		}
	}
}
