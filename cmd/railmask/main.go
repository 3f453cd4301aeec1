// Command railmask writes single channel track masks for annotated images
// of one or more data chunks.
//
// Usage: railmask [-config config.yaml] [-out masks] <chunk> [chunk...]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"rail-labeler/internal/config"
	"rail-labeler/internal/labels"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "Path to the YAML configuration (defaults when empty)")
	outDir := flag.String("out", "pixelmasks", "Output directory, relative to each chunk")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] [-out dir] <chunk> [chunk...]\n", os.Args[0])
		os.Exit(1)
	}

	for _, chunk := range flag.Args() {
		// every chunk gets a fresh configuration since the converter
		// rewrites its paths
		cfg, err := config.LoadOrDefault(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		conv, err := labels.NewConverter(cfg, nil, chunk)
		if err != nil {
			log.Fatalf("Failed to open %s: %v", chunk, err)
		}
		out := filepath.Join(chunk, *outDir)
		if err := conv.TrackMasks(out); err != nil {
			log.Fatalf("Failed to write masks for %s: %v", chunk, err)
		}
		log.Printf("Masks for %s written to %s", chunk, out)
	}
}
