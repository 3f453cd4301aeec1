// Command railyolo writes YOLO bounding box labels for the switches of a
// data chunk.
//
// Usage: railyolo [-config config.yaml] [-kinds fork,merge] [-directions left,right] -out <dir> <chunk>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"rail-labeler/internal/config"
	"rail-labeler/internal/labels"
	"rail-labeler/internal/scene"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	configPath := flag.String("config", "", "Path to the YAML configuration (defaults when empty)")
	kindList := flag.String("kinds", "", "Comma separated switch kinds: fork, merge, unknown")
	dirList := flag.String("directions", "", "Comma separated switch directions: left, right, unknown")
	outDir := flag.String("out", "", "Output directory for the labels")
	flag.Parse()

	if flag.NArg() != 1 || *outDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [-config file] [-kinds k,...] [-directions d,...] -out <dir> <chunk>\n", os.Args[0])
		os.Exit(1)
	}

	var kinds []scene.SwitchKind
	for _, s := range split(*kindList) {
		k, err := scene.ParseSwitchKind(s)
		if err != nil {
			log.Fatalf("Invalid kind: %v", err)
		}
		kinds = append(kinds, k)
	}
	var dirs []scene.SwitchDirection
	for _, s := range split(*dirList) {
		d, err := scene.ParseSwitchDirection(s)
		if err != nil {
			log.Fatalf("Invalid direction: %v", err)
		}
		dirs = append(dirs, d)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	conv, err := labels.NewConverter(cfg, nil, flag.Arg(0))
	if err != nil {
		log.Fatalf("Failed to open %s: %v", flag.Arg(0), err)
	}
	if err := conv.SwitchLabels(*outDir, kinds, dirs); err != nil {
		log.Fatalf("Failed to write labels: %v", err)
	}
	log.Printf("Switch labels written to %s", *outDir)
}

func split(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(strings.ToLower(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
