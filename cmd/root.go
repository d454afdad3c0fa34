package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "skinscan",
	Short: "A skin analysis engine for face photos",
	Long: `SkinScan analyzes face photos and scores skin health across acne,
redness, texture, wrinkles, hydration and more. Results are stabilized
against the subject's recent scan history and can optionally be refined
by an external vision model (OpenAI, Gemini).`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
