// Command sheetscan grades photographed answer sheets against an answer key
// and prints one summary document per sheet.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"omr-grader/internal/grading"
	"omr-grader/internal/layout"
	"omr-grader/internal/ocr"
	"omr-grader/internal/photo"
	"omr-grader/internal/scan"
	"omr-grader/internal/sheetid"
	"omr-grader/internal/version"
	"omr-grader/internal/vision"
)

func main() {
	imagePath := flag.String("i", "", "Path to a sheet image, or a directory of images")
	keyPath := flag.String("k", "", "Path to the answer key (JSON array of 1-4)")
	layoutArg := flag.String("l", "", "Only accept this layout: a built-in name (A4, A5) or a layout file (JSON)")
	capture := flag.Int("capture", 0, "Read a master sheet and write its first N answers to the -k file")
	useOCR := flag.Bool("ocr", false, "Fall back to OCR of the printed sheet code")
	detail := flag.Bool("detail", false, "Include per-question verdicts in the output")
	verbose := flag.Bool("v", false, "Log pipeline progress")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}
	if *imagePath == "" || *keyPath == "" {
		fmt.Println("Usage: sheetscan -i <image|dir> -k <key.json> [-l <name|layout.json>] [-capture N] [-ocr] [-detail] [-v]")
		os.Exit(1)
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	logger := log.Default()
	if !*verbose {
		logger = log.New(io.Discard, "", 0)
	}

	opts := []scan.Option{
		scan.WithLogger(logger),
		scan.WithCodeReader(sheetid.NewQRReader()),
	}

	if *layoutArg != "" {
		spec, err := selectLayout(*layoutArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load layout: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, scan.WithLayouts(spec))
	} else if err := layout.ValidateRegistry(); err != nil {
		fmt.Fprintf(os.Stderr, "Layouts are ambiguous: %v\n", err)
		os.Exit(1)
	}

	if *useOCR {
		engine, err := ocr.NewEngine()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to start OCR: %v\n", err)
			os.Exit(1)
		}
		defer engine.Close()
		opts = append(opts, scan.WithTextReader(engine))
	}

	markers := vision.NewMarkerDetector()
	defer markers.Close()
	circles := vision.NewCircleDetector(vision.DefaultCircleParams())
	scanner := scan.New(markers, circles, opts...)

	if *capture > 0 {
		if err := captureKey(scanner, *imagePath, *keyPath, *capture); err != nil {
			fmt.Fprintf(os.Stderr, "Key capture failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	key, err := grading.LoadKey(*keyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load answer key: %v\n", err)
		os.Exit(1)
	}

	paths, err := imagePaths(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list images: %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	failed := 0
	for _, path := range paths {
		summary, err := gradeFile(scanner, path, key, *detail)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		if err := enc.Encode(summary); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write result: %v\n", err)
			os.Exit(1)
		}
	}
	if failed > 0 {
		os.Exit(2)
	}
}

// sheetResult is the summary document plus the file it came from.
type sheetResult struct {
	grading.Summary
	File       string   `json:"originalFilename"`
	Layout     string   `json:"layout"`
	Percent    float64  `json:"percent"`
	Advisories []string `json:"advisories,omitempty"`

	Questions []grading.QuestionVerdict `json:"questions,omitempty"`
}

// selectLayout returns the built-in layout named arg, or else loads arg as a
// layout file.
func selectLayout(arg string) (*layout.Spec, error) {
	if spec := layout.GetSpec(arg); spec != nil {
		return spec, nil
	}
	return layout.LoadFromFile(arg)
}

func gradeFile(scanner *scan.Scanner, path string, key grading.Key, detail bool) (*sheetResult, error) {
	src, err := loadMat(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	report, err := scanner.Scan(src, key)
	if err != nil {
		return nil, explain(err)
	}

	summary := report.Summary()
	res := &sheetResult{
		Summary: summary,
		File:    path,
		Layout:  report.Layout,
		Percent: summary.Percent(),
	}
	for _, a := range report.Advisories {
		res.Advisories = append(res.Advisories, a.String())
	}
	if detail {
		res.Questions = report.Verdicts
	}
	return res, nil
}

func captureKey(scanner *scan.Scanner, imagePath, keyPath string, questions int) error {
	src, err := loadMat(imagePath)
	if err != nil {
		return err
	}
	defer src.Close()

	key, report, err := scanner.CaptureKey(src, questions)
	if err != nil {
		return explain(err)
	}
	if err := key.SaveToFile(keyPath); err != nil {
		return fmt.Errorf("failed to save key: %w", err)
	}
	fmt.Printf("Captured %d answers from %s sheet into %s\n", len(key), report.Layout, keyPath)
	return nil
}

func imagePaths(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	paths, err := photo.ListDir(path)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images in %s", path)
	}
	return paths, nil
}

// explain adds a hint for the failures a user can act on.
func explain(err error) error {
	switch {
	case errors.Is(err, layout.ErrLayoutUnresolved):
		return fmt.Errorf("%w (are at least two corner markers visible?)", err)
	case errors.Is(err, grading.ErrAnswerKeyMismatch):
		return fmt.Errorf("%w (does the key match this sheet size?)", err)
	default:
		return err
	}
}
