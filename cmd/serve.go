package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/glowteam/skinscan/internal/config"
	"github.com/glowteam/skinscan/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the SkinScan web server.
The server exposes the analysis pipeline over a JSON API: frame
validation, full scans, per-subject history and engine configuration.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("provider", "", "Refinement provider: openai, gemini (overrides REFINE_PROVIDER)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	providerName := cfg.Refine.Provider
	if name := mustGetString(cmd, "provider"); name != "" {
		providerName = name
	}

	ctx := context.Background()
	a, cleanup, err := newAnalyzer(ctx, cfg, providerName)
	if err != nil {
		return err
	}
	defer cleanup()

	server := web.NewServer(cfg, a)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	return server.Start()
}
