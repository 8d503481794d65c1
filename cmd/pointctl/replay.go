package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pointdash/pointdash/internal/replay"
)

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>...",
	Short: "Play gesture scripts against the graph engine",
	Long: `Each script starts a fresh view, feeds it the recorded pointer, wheel and
highlight steps with a simulated clock, prints the resulting event trace and
checks the script's expectations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		log := loggerFor(cmd)
		out := cmd.OutOrStdout()

		failed := 0
		for _, path := range args {
			s, err := replay.LoadFile(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			r, err := replay.Run(s, log)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(r); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "== %s\n%s", s.Name, r.TraceString())
			}

			if err := replay.Check(s, r); err != nil {
				failed++
				fmt.Fprintf(out, "FAIL %s\n%v\n", s.Name, err)
				continue
			}
			fmt.Fprintf(out, "ok   %s\n", s.Name)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scripts failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().Bool("json", false, "Print the full result as JSON")
	rootCmd.AddCommand(replayCmd)
}
