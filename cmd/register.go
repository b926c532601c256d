package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/forms"
	"github.com/kozaktomas/face-attendance/internal/recognition"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <image>",
	Short: "Register a person with the recognition service",
	Long: `Register a new person from a photo of their face.

Example:
  face-attendance register jane.jpg --name "Jane Doe" --contact 5551234 --section A`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().String("name", "", "Name of the person")
	registerCmd.Flags().String("contact", "", "Numeric contact of the person")
	registerCmd.Flags().String("section", "", "Section the person belongs to")
	_ = registerCmd.MarkFlagRequired("name")
	_ = registerCmd.MarkFlagRequired("contact")
	_ = registerCmd.MarkFlagRequired("section")
}

func runRegister(cmd *cobra.Command, args []string) error {
	path := args[0]
	label := mustGetString(cmd, "name")
	contact := mustGetString(cmd, "contact")
	section := mustGetString(cmd, "section")

	f, err := os.Open(path) //nolint:gosec // user-provided image path
	if err != nil {
		return fmt.Errorf("cannot open image: %w", err)
	}
	defer f.Close()

	upload := recognition.Upload{Filename: filepath.Base(path), Content: f}
	req := recognition.RegisterRequest{File: upload, Label: label, Contact: contact, Section: section}
	if err := forms.ValidateRegister(req); err != nil {
		return err
	}

	cfg := config.Load()
	client, err := newRecognitionClient(cfg)
	if err != nil {
		return err
	}

	form := forms.NewRegisterPerson(client, logger)
	form.SetFailedMessage(cfg.Defaults.Messages.RegisterFailed)

	err = form.Submit(cmd.Context(), upload, label, contact, section)
	fmt.Fprintln(cmd.OutOrStdout(), form.View().Message)
	if err != nil {
		return fmt.Errorf("registering %s: %w", label, err)
	}
	return nil
}
