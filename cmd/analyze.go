package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/glowteam/skinscan/internal/config"
	"github.com/glowteam/skinscan/internal/metrics"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Analyze a face photo or a directory of photos",
	Long: `Analyze one face photo, or every photo in a directory, and print
the skin scores. With --subject the results are anchored against and
appended to that subject's scan history, so repeated runs stabilize.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("subject", "", "Subject key for history anchoring and persistence")
	analyzeCmd.Flags().String("provider", "", "Refinement provider: openai, gemini (overrides REFINE_PROVIDER)")
	analyzeCmd.Flags().Bool("json", false, "Print full records as JSON instead of a summary")
	analyzeCmd.Flags().Int("limit", 0, "Limit number of photos to process (0 = no limit)")
}

// imageExtensions are the decodable photo formats.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true,
}

// collectPhotos returns the analyzable files under path: the file
// itself, or the image files directly inside the directory.
func collectPhotos(path string, limit int) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", path, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
		if limit > 0 && len(files) >= limit {
			break
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no image files found in %s", path)
	}
	return files, nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	subject := mustGetString(cmd, "subject")
	asJSON := mustGetBool(cmd, "json")
	limit := mustGetInt(cmd, "limit")
	providerName := cfg.Refine.Provider
	if name := mustGetString(cmd, "provider"); name != "" {
		providerName = name
	}

	files, err := collectPhotos(args[0], limit)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, cleanup, err := newAnalyzer(ctx, cfg, providerName)
	if err != nil {
		return err
	}
	defer cleanup()

	var bar *progressbar.ProgressBar
	if len(files) > 1 && !asJSON {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Analyzing photos"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("photos"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	var failed int
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			fmt.Printf("Warning: cannot read %s: %v\n", file, err)
			failed++
			continue
		}

		m, err := a.Analyze(ctx, data, subject)
		if err != nil {
			fmt.Printf("Warning: failed to analyze %s: %v\n", file, err)
			failed++
			continue
		}

		if bar != nil {
			bar.Add(1)
			continue
		}
		if asJSON {
			printRecordJSON(m)
		} else {
			printRecordSummary(file, m)
		}
	}

	if bar != nil {
		fmt.Println()
		fmt.Printf("Analyzed %d photos (%d failed)\n", len(files)-failed, failed)
	}
	if failed == len(files) {
		return fmt.Errorf("all %d photos failed", failed)
	}
	return nil
}

func printRecordJSON(m *metrics.SkinMetrics) {
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		fmt.Printf("Warning: cannot encode record: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func printRecordSummary(file string, m *metrics.SkinMetrics) {
	fmt.Printf("%s\n", file)
	if !m.FaceFound {
		fmt.Printf("  no face found, neutral scores reported\n")
		return
	}

	fmt.Printf("  overall: %d\n", m.Overall)
	for _, name := range metrics.MetricNames {
		if v, ok := m.Scores.Get(name); ok {
			fmt.Printf("  %-13s %d\n", name+":", v)
		}
	}
	if m.Refined {
		fmt.Printf("  refined by external model")
		if m.SkinAge > 0 {
			fmt.Printf(", estimated skin age %d", m.SkinAge)
		}
		fmt.Println()
		if m.Summary != "" {
			fmt.Printf("  %s\n", m.Summary)
		}
	} else if m.RefineError != "" {
		fmt.Printf("  refinement unavailable: %s\n", m.RefineError)
	}
}
