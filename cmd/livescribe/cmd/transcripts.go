package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msto63/livescribe/internal/transcript"
	"github.com/msto63/livescribe/pkg/core/config"
)

var transcriptsCmd = &cobra.Command{
	Use:   "transcripts [session-id]",
	Short: "Show stored transcripts",
	Long: `Without argument lists the stored sessions (SQLite store only).
With a session id prints the transcript of that session.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTranscripts,
}

func init() {
	rootCmd.AddCommand(transcriptsCmd)
}

func runTranscripts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("could not load config", err)
		return err
	}
	if cfg.Transcript.Store == config.StoreNone {
		return fmt.Errorf("no transcript store configured")
	}

	store, err := transcript.Open(cfg.Transcript.Store, cfg.Transcript.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		segs, err := store.Segments(ctx, args[0])
		if err != nil {
			return err
		}
		for _, seg := range segs {
			fmt.Fprintf(out, "%s [%d] %s\n", seg.CreatedAt.Local().Format("15:04:05"), seg.Seq, seg.Text)
		}
		return nil
	}

	sqlStore, ok := store.(*transcript.SQLiteStore)
	if !ok {
		return fmt.Errorf("listing sessions requires the sqlite store")
	}
	sessions, err := sqlStore.Sessions(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTARTED\tSEGMENTS")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Segments)
	}
	return w.Flush()
}
