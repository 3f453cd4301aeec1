// Command yolo2rail turns YOLO switch labels back into scene annotations.
//
// Usage: yolo2rail -labels <dir> -images <dir> -out <dir>
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"rail-labeler/internal/config"
	"rail-labeler/internal/labels"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	labelDir := flag.String("labels", "", "Directory with YOLO labels and labels.txt")
	imageDir := flag.String("images", "", "Directory with the labeled images")
	outDir := flag.String("out", "", "Directory for the annotations")
	exts := flag.String("ext", strings.Join(config.Default().Data.Paths.Extensions, ","), "Comma separated image extensions")
	flag.Parse()

	if *labelDir == "" || *imageDir == "" || *outDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -labels <dir> -images <dir> -out <dir> [-ext jpg,png]\n", os.Args[0])
		os.Exit(1)
	}

	n, err := labels.ReverseSwitchLabels(labels.ReverseOptions{
		LabelDir:   *labelDir,
		ImageDir:   *imageDir,
		OutDir:     *outDir,
		Extensions: strings.Split(*exts, ","),
	})
	if err != nil {
		log.Fatalf("Conversion stopped after %d annotations: %v", n, err)
	}
}
