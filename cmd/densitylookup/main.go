// Command densitylookup resolves object labels against a density table and
// shows which fallback tier answered.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"weight-estimator/internal/density"
	"weight-estimator/internal/logging"
)

func main() {
	table := flag.String("table", "data/density_db.json", "Path to the density table (JSON or YAML)")
	list := flag.Bool("list", false, "List the labels in the table")
	logLevel := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	logger, err := logging.New("densitylookup", *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	resolver := density.NewResolver(os.DirFS(filepath.Dir(*table)), filepath.Base(*table), logger)

	if *list {
		t, err := resolver.Table()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read table: %v\n", err)
			os.Exit(1)
		}
		for _, label := range t.Labels() {
			d, _ := t.Lookup(label)
			fmt.Printf("%-20s %8.3f g/cm^3\n", label, d)
		}
		if d, ok := t.Lookup(density.DefaultKey); ok {
			fmt.Printf("%-20s %8.3f g/cm^3\n", "("+density.DefaultKey+")", d)
		}
		return
	}

	if flag.NArg() == 0 {
		fmt.Println("Usage: densitylookup [-table path] [-list] <label>...")
		fmt.Printf("Fallback order: %v\n", density.Tiers())
		os.Exit(1)
	}

	for _, label := range flag.Args() {
		l := resolver.Resolve(label)
		fmt.Printf("%-20s %8.3f g/cm^3  (%s)\n", label, l.Density, l.Tier)
	}
}
