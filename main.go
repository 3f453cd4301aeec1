// Package main runs a headless annotation session on one data chunk. It
// reads commands, one event per line, from a script or stdin and applies
// them to the session, saving on navigation and exit.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"rail-labeler/internal/app"
	"rail-labeler/internal/autolabel"
	"rail-labeler/internal/config"
	"rail-labeler/internal/dataset"
	"rail-labeler/internal/prefs"
	"rail-labeler/internal/version"
)

const appTitle = "Rail Labeler"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appPrefs := prefs.Load()

	datasetPath := flag.String("dataset", appPrefs.String(prefs.KeyLastDataset), "Path to the data chunk")
	configPath := flag.String("config", "", "Path to the YAML configuration (defaults when empty)")
	modelDir := flag.String("model", "", "Directory with config.yaml and model.onnx for auto labeling")
	displayPath := flag.String("display", "", "Write the rendered overlay to this image on DISPLAY")
	scriptPath := flag.String("script", "", "Command script (stdin when empty)")
	start := flag.Int("start", -1, "Image index to open (last image when negative)")
	showVersion := flag.Bool("version", false, "Print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", appTitle, version.String())
		return
	}
	if *datasetPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -dataset <chunk> [-config file] [-model dir] [-display out.png] [-script file]\n", os.Args[0])
		os.Exit(1)
	}
	log.Printf("Starting %s %s", appTitle, version.String())

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	root, err := filepath.Abs(*datasetPath)
	if err != nil {
		log.Fatalf("Invalid dataset path: %v", err)
	}
	data, err := dataset.Open(root, cfg)
	if err != nil {
		log.Fatalf("Failed to open dataset %s: %v", root, err)
	}
	cam, err := data.Camera()
	if err != nil {
		log.Fatalf("Failed to load camera: %v", err)
	}

	index := *start
	if index < 0 {
		index = 0
		if appPrefs.String(prefs.KeyLastDataset) == root {
			index = appPrefs.Int(prefs.KeyLastImage, 0)
		}
	}
	appPrefs.SetString(prefs.KeyLastDataset, root)

	hub := app.NewHub()
	// the list views stand in for the target lists of a window
	app.NewTrackListView(hub)
	app.NewSwitchListView(hub)

	session, err := app.NewSession(hub, cfg, data, cam, appPrefs)
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	session.SetDisplayPath(*displayPath)

	if dir := modelPath(*modelDir, cfg); dir != "" {
		detector, net, err := autolabel.OpenDir(dir)
		if err != nil {
			log.Fatalf("Failed to load model: %v", err)
		}
		defer net.Close()
		session.SetDetector(detector)
	}

	if err := session.Start(index); err != nil {
		log.Fatalf("Failed to open image %d: %v", index, err)
	}

	var script io.Reader = os.Stdin
	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			log.Fatalf("Failed to open script: %v", err)
		}
		defer f.Close()
		script = f
	}

	n, runErr := app.RunScript(script, session)
	log.Printf("Executed %d commands", n)
	if !session.Closed() {
		hub.Post(app.EventExit, nil)
	}
	if runErr != nil {
		log.Printf("Script stopped: %v", runErr)
	}
}

func modelPath(flagDir string, cfg *config.Config) string {
	if flagDir != "" {
		return flagDir
	}
	return cfg.Autolabel.Model
}
