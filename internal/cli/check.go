package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/frk/httpmock/mockfile"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <mockfile>...",
		Short: "Validate mock files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var failed int
			for _, path := range args {
				f, err := mockfile.Load(path)
				if err != nil {
					failed += 1
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s\n%v\n", path, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok   %s (%d routes)\n", path, len(f.Routes))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d mock files are invalid", failed, len(args))
			}
			return nil
		},
	}
}
