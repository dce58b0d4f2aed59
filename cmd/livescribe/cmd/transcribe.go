package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/service"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe <file.wav>",
	Short: "Transcribe a WAV file",
	Long: `Transcribes a 16 kHz mono WAV file with the configured model
and prints the text. With a transcript store configured the text is stored
under the session "file-<name>".`,
	Args: cobra.ExactArgs(1),
	RunE: runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("could not load config", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	console := events.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())
	svc, err := service.FromConfig(cfg, service.Options{Listener: console})
	if err != nil {
		printError("could not create service", err)
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		svc.Close(closeCtx)
	}()

	if err := svc.LoadModel(ctx); err != nil {
		return err
	}
	_, err = svc.TranscribeFile(ctx, args[0])
	return err
}
