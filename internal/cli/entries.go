package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/asalih/go-officetext/mscfb"
)

func newEntriesCommand(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "entries [file]",
		Short: "List the storages and streams of a compound file",
		Long: `List the storages and streams of a compound file (doc, ppt, xls,
msi and other OLE2 files) in tree order.

Output formats:
  table   path, type, size, start sector, modification time and CLSID
          (default)
  yaml    every directory field`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cd, err := a.openCompound(args[0])
			if err != nil {
				return err
			}

			var entries []*mscfb.Entry
			err = cd.Walk(func(e *mscfb.Entry) error {
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}

			switch output {
			case "yaml":
				enc := yaml.NewEncoder(cmd.OutOrStdout())
				defer enc.Close()
				return enc.Encode(entries)
			case "table", "":
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PATH\tTYPE\tSIZE\tSTART\tMODIFIED\tCLSID")
				for _, e := range entries {
					size, modified := "-", "-"
					if !e.IsStorage() {
						size = fmt.Sprint(e.StreamLen)
					}
					if t := e.Modified(); !t.IsZero() {
						modified = t.Format(time.RFC3339)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", e.Path, e.ObjType, size, e.StartSector, modified, e.CLSID)
				}
				return tw.Flush()
			default:
				return fmt.Errorf("unknown output format %q", output)
			}
		},
	}

	cmd.Flags().StringVar(&output, "output", "table", "output format: table or yaml")
	return cmd
}

func newCatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cat [file] [stream-path]",
		Short: "Write the raw bytes of one stream of a compound file",
		Long: `Write the raw bytes of one stream of a compound file to standard output.

Stream paths are absolute and use "/" between storage names, as printed by
the entries command.

Examples:
  officetext cat deck.ppt "/Current User" | xxd`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cd, err := a.openCompound(args[0])
			if err != nil {
				return err
			}

			stream, err := cd.OpenStream(args[1])
			if err != nil {
				return err
			}
			_, err = stream.WriteTo(cmd.OutOrStdout())
			return err
		},
	}
}

func (a *app) openCompound(file string) (*mscfb.CompoundDocument, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	cd, err := mscfb.Open(data, a.cfg.Validation)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	a.logger.Debug("opened compound file",
		"file", file,
		"version", cd.Header.Version,
		"entries", len(cd.Entries()),
	)
	return cd, nil
}
