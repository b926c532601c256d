package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/logging"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	captureDir string
	logger     *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Face detection and registration client for classroom attendance",
	Long: `Face Attendance talks to a face detection and recognition service.
It submits classroom photos to find out who is present, registers new
people with their contact and section, and serves a small web UI for both.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&captureDir, "capture", "", "Directory to save API responses for testing")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	cfg := config.Load()
	logger = logging.New(cfg.Log.Level, cfg.Log.File)
}

// newRecognitionClient connects to the recognition service described by cfg.
func newRecognitionClient(cfg *config.Config) (*recognition.Client, error) {
	client, err := recognition.NewClientWithCapture(cfg.Recognition.URL, cfg.Recognition.Timeout, captureDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create recognition client: %w", err)
	}
	client.SetEndpoints(cfg.Defaults.Endpoints.Detect, cfg.Defaults.Endpoints.Register)
	return client, nil
}
