package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msto63/livescribe/internal/audio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio input devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := audio.ListInputDevices()
		if err != nil {
			printError("could not list devices", err)
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DEFAULT\tNAME\tCHANNELS\tRATE")
		for _, d := range devices {
			mark := ""
			if d.IsDefault {
				mark = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%.0f\n", mark, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
