package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/glowteam/skinscan/internal/analyzer"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Run the frame quality gate on a photo",
	Long: `Check whether a photo is suitable for analysis: face present,
captured at a reasonable distance, and neither underexposed nor blown
out. Prints the verdict and the rejection reason if any.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	a := analyzer.New(analyzer.Options{})
	v, err := a.Validate(data, nil)
	if err != nil {
		return err
	}

	if v.Acceptable {
		fmt.Printf("OK: frame is suitable for analysis\n")
	} else {
		fmt.Printf("REJECTED: %s\n", v.Reason)
	}
	if v.FaceCenter != nil {
		fmt.Printf("  face center: %d, %d\n", v.FaceCenter.X, v.FaceCenter.Y)
	}
	return nil
}
