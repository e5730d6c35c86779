package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/facerec/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recognition HTTP server",
	Long: `Start the recognition HTTP server. POST an image as the "image" field of a
multipart form to /recognize_face (or /api/v1/recognize) to identify the
largest face in it.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (default from WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	host, port := cfg.Web.Host, cfg.Web.Port
	if v := mustGetString(cmd, "host"); v != "" {
		host = v
	}
	if v := mustGetInt(cmd, "port"); v > 0 {
		port = v
	}

	p, b, err := openPipeline(cfg, cfg.Recognition.UpsampleBatch)
	if err != nil {
		return err
	}
	defer b.Close()

	server := web.NewServer(cfg, p, host, port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Model %s with %d labels, threshold %.2f\n", p.Model().ID, p.Model().Classes(), p.Threshold())
	fmt.Printf("Starting face recognition API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
