package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/forms"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/kozaktomas/face-attendance/internal/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web server",
	Long: `Start the Face Attendance web server.
The web server provides browser forms for detecting and recognizing faces
in a classroom photo and for registering new people.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies")
}

// resolveServeFlags lets explicitly set flags win over environment values.
func resolveServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Web.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Web.Host = mustGetString(cmd, "host")
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}
}

// formsFactory builds the form pair of a new browser session.
func formsFactory(cfg *config.Config, client *recognition.Client) func() (*forms.DetectAndRecognize, *forms.RegisterPerson) {
	return func() (*forms.DetectAndRecognize, *forms.RegisterPerson) {
		detect := forms.NewDetectAndRecognize(client, logger)
		detect.SetFailedMessage(cfg.Defaults.Messages.DetectFailed)

		register := forms.NewRegisterPerson(client, logger)
		register.SetFailedMessage(cfg.Defaults.Messages.RegisterFailed)
		return detect, register
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	resolveServeFlags(cmd, cfg)

	client, err := newRecognitionClient(cfg)
	if err != nil {
		return err
	}

	server, err := web.NewServer(cfg, formsFactory(cfg, client), logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

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

	fmt.Printf("Starting Face Attendance Web UI on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Printf("Recognition service: %s\n", client.URL)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
