package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/attendance"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/forms"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var detectCmd = &cobra.Command{
	Use:   "detect <section> <image|folder> [image|folder...]",
	Short: "Detect and recognize faces in classroom photos",
	Long: `Send one or more photos to the recognition service and print the names
identified in each. The annotated images returned by the service are saved
to the output folder as processed_<name>.jpg.

Folders are searched non-recursively unless -r is given.
Supported formats: jpg, jpeg, png, bmp, webp, heic, heif, tiff

With --roster, the identified names are checked against a YAML roster and an
attendance report is printed:

  section: A
  students:
    - Jane Doe
    - John Smith

Example:
  face-attendance detect A class.jpg
  face-attendance detect -r --roster roster-a.yaml A /path/to/photos
  face-attendance detect --out results --max-size 1280 A class1.jpg class2.jpg`,
	Args: cobra.MinimumNArgs(2),
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	detectCmd.Flags().BoolP("recursive", "r", false, "Search for photos recursively in subdirectories")
	detectCmd.Flags().String("out", constants.DefaultOutputDir, "Folder for the annotated images")
	detectCmd.Flags().Int("max-size", 0, "Downscale saved images to fit this many pixels (0 keeps the original size)")
	detectCmd.Flags().String("roster", "", "YAML roster to check attendance against")
	detectCmd.Flags().Int("concurrency", constants.DefaultConcurrency, "Number of photos processed in parallel")
}

// isImageFile checks if a file has a supported image extension
func isImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	supported := map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".bmp":  true,
		".webp": true,
		".heic": true,
		".heif": true,
		".tiff": true,
		".tif":  true,
	}
	return supported[ext]
}

// collectImages expands the given files and folders into a list of image paths.
func collectImages(paths []string, recursive bool) ([]string, error) {
	var filePaths []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}

		if !info.IsDir() {
			if !isImageFile(p) {
				return nil, fmt.Errorf("%s is not a supported image", p)
			}
			filePaths = append(filePaths, p)
			continue
		}

		if recursive {
			err := filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && isImageFile(d.Name()) {
					filePaths = append(filePaths, path)
				}
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("cannot walk folder %s: %w", p, err)
			}
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read folder %s: %w", p, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && isImageFile(entry.Name()) {
				filePaths = append(filePaths, filepath.Join(p, entry.Name()))
			}
		}
	}
	return filePaths, nil
}

// processedName is the file name an annotated copy of path is saved under.
func processedName(path string) string {
	base := filepath.Base(path)
	return constants.ProcessedPrefix + strings.TrimSuffix(base, filepath.Ext(base)) + ".jpg"
}

// outputPaths reserves one output file per input. Inputs sharing a base name
// (mon/class.jpg, tue/class.jpg, class.png) get _2, _3... suffixes in input
// order. Names are compared case-insensitively.
func outputPaths(files []string, outDir string) []string {
	taken := make(map[string]struct{}, len(files))
	paths := make([]string, len(files))
	for i, file := range files {
		name := processedName(file)
		stem := strings.TrimSuffix(name, ".jpg")
		for n := 2; ; n++ {
			if _, dup := taken[strings.ToLower(name)]; !dup {
				break
			}
			name = fmt.Sprintf("%s_%d.jpg", stem, n)
		}
		taken[strings.ToLower(name)] = struct{}{}
		paths[i] = filepath.Join(outDir, name)
	}
	return paths
}

// detectOutcome is the result of processing one photo.
type detectOutcome struct {
	path   string
	output string
	names  []string
	err    error
}

// detectImage runs one photo through its own detection form and saves the
// annotated image to output.
func detectImage(ctx context.Context, detector forms.Detector, cfg *config.Config, path, section, output string, maxSize int) detectOutcome {
	outcome := detectOutcome{path: path}

	f, err := os.Open(path) //nolint:gosec // user-provided image path
	if err != nil {
		outcome.err = fmt.Errorf("cannot open image: %w", err)
		return outcome
	}
	defer f.Close()

	upload := recognition.Upload{Filename: filepath.Base(path), Content: f}
	if err := forms.ValidateDetect(recognition.DetectRequest{File: upload, Section: section}); err != nil {
		outcome.err = err
		return outcome
	}

	form := forms.NewDetectAndRecognize(detector, logger)
	form.SetFailedMessage(cfg.Defaults.Messages.DetectFailed)
	if err := form.Submit(ctx, upload, section); err != nil {
		outcome.err = fmt.Errorf("%s: %w", form.View().Error, err)
		return outcome
	}
	outcome.names = form.View().Names

	data, err := form.Result().ImageBytes()
	if err != nil {
		outcome.err = err
		return outcome
	}
	data, err = recognition.ResizeJPEG(data, maxSize)
	if err != nil {
		outcome.err = err
		return outcome
	}

	outcome.output = output
	if err := os.WriteFile(outcome.output, data, 0600); err != nil {
		outcome.err = fmt.Errorf("cannot save annotated image: %w", err)
		outcome.output = ""
	}
	return outcome
}

// detectAll processes photos with at most concurrency requests in flight.
// Outcomes are returned in input order.
func detectAll(ctx context.Context, detector forms.Detector, cfg *config.Config, files []string, section, outDir string, maxSize, concurrency int, onDone func()) []detectOutcome {
	outcomes := make([]detectOutcome, len(files))
	outputs := outputPaths(files, outDir)

	var g errgroup.Group
	g.SetLimit(max(1, concurrency))
	for i, path := range files {
		g.Go(func() error {
			outcomes[i] = detectImage(ctx, detector, cfg, path, section, outputs[i], maxSize)
			if onDone != nil {
				onDone()
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func printAttendance(report attendance.Report) {
	fmt.Printf("\nAttendance for section %s\n", report.Section)
	fmt.Printf("  Present (%d):\n", len(report.Present))
	for _, name := range report.Present {
		fmt.Printf("    %s\n", name)
	}
	fmt.Printf("  Absent (%d):\n", len(report.Absent))
	for _, name := range report.Absent {
		fmt.Printf("    %s\n", name)
	}
	if len(report.Unrecognized) > 0 {
		fmt.Printf("  Not on roster (%d):\n", len(report.Unrecognized))
		for _, name := range report.Unrecognized {
			fmt.Printf("    %s\n", name)
		}
	}
	if report.UnknownFaces > 0 {
		fmt.Printf("  Unknown faces: %d\n", report.UnknownFaces)
	}
}

func runDetect(cmd *cobra.Command, args []string) error {
	section := args[0]
	recursive := mustGetBool(cmd, "recursive")
	outDir := mustGetString(cmd, "out")
	maxSize := mustGetInt(cmd, "max-size")
	rosterPath := mustGetString(cmd, "roster")
	concurrency := mustGetInt(cmd, "concurrency")

	if strings.TrimSpace(section) == "" {
		return errors.New("section is required")
	}

	cfg := config.Load()

	var roster *attendance.Roster
	if rosterPath != "" {
		var err error
		roster, err = attendance.LoadRoster(rosterPath)
		if err != nil {
			return err
		}
		if roster.Section != "" && roster.Section != section {
			fmt.Printf("Warning: roster is for section %s, detecting for section %s\n", roster.Section, section)
		}
	}

	files, err := collectImages(args[1:], recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No image files found.")
		return nil
	}

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	client, err := newRecognitionClient(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d image(s), section %s\n\n", len(files), section)

	bar := newProgressBar(len(files), "Detecting faces", "photos")
	outcomes := detectAll(cmd.Context(), client, cfg, files, section, outDir, maxSize, concurrency, func() { bar.Add(1) })
	fmt.Println()
	fmt.Println()

	var identified []string
	var failed int
	for _, o := range outcomes {
		name := filepath.Base(o.path)
		if o.err != nil {
			failed++
			fmt.Printf("Failed: %s: %v\n", name, o.err)
			continue
		}
		identified = append(identified, o.names...)
		if len(o.names) == 0 {
			fmt.Printf("%s: no faces identified (saved %s)\n", name, o.output)
			continue
		}
		fmt.Printf("%s: %s (saved %s)\n", name, strings.Join(o.names, ", "), o.output)
	}

	if failed == len(outcomes) {
		return errors.New("no images were processed successfully")
	}

	if roster != nil {
		printAttendance(roster.Check(identified, cfg.Defaults.UnknownLabel))
	}

	fmt.Printf("\nDone! Processed %d of %d image(s)\n", len(outcomes)-failed, len(outcomes))
	return nil
}
