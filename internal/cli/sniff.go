package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	officetext "github.com/asalih/go-officetext"
)

func newSniffCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sniff [files...]",
		Short: "Print the detected type of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, file := range args {
				data, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				t := officetext.Sniff(data)
				a.logger.Debug("sniffed", "file", file, "type", t)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", file, t)
			}
			return nil
		},
	}
}
