package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	officetext "github.com/asalih/go-officetext"
	"github.com/asalih/go-officetext/internal/config"
	"github.com/asalih/go-officetext/mscfb"
)

type extractFlags struct {
	maxChars       int
	maxPDFPages    int
	maxSST         int
	delimiter      string
	keepBlankCells bool
	drawings       bool
	xmlMaxFileLen  int64
	docType        string
	strict         bool

	jobs      int
	outputDir string
}

type extractResult struct {
	text string
	err  error
}

func newExtractCommand(a *app) *cobra.Command {
	f := &extractFlags{}

	cmd := &cobra.Command{
		Use:   "extract [files...]",
		Short: "Print the text of one or more documents",
		Long: `Print the text of one or more documents.

With more than one file every text is preceded by a "==> name <==" line.
With --output-dir the text of each file is written to <name>.txt in that
directory instead. Files are processed in parallel, --jobs at a time; a
file that fails does not stop the others.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options(cmd, a.cfg.Options)
			if err != nil {
				return err
			}

			results := a.extractAll(args, opts, f.jobs)
			return a.writeResults(cmd, args, results, f.outputDir)
		},
	}

	defaults := config.Default().Options
	flags := cmd.Flags()
	flags.IntVarP(&f.maxChars, "max-chars", "n", defaults.MaxChars, "stop after this many characters (0 = no limit)")
	flags.IntVar(&f.maxPDFPages, "max-pdf-pages", defaults.MaxPDFPages, "read at most this many PDF pages (0 = all)")
	flags.IntVar(&f.maxSST, "max-sst", defaults.MaxSST, "decode at most this many XLS shared strings")
	flags.StringVarP(&f.delimiter, "delimiter", "d", defaults.Delimiter, "spreadsheet cell delimiter")
	flags.BoolVar(&f.keepBlankCells, "keep-blank-cells", defaults.KeepBlankCells, "emit blank XLS cells")
	flags.BoolVar(&f.drawings, "drawings", defaults.IncludeDrawings, "include text of PPT drawings")
	flags.Int64Var(&f.xmlMaxFileLen, "xml-max-file-len", defaults.XMLMaxFileLen, "read at most this many bytes of each OOXML part")
	flags.StringVarP(&f.docType, "type", "t", "", "document type, skips detection (doc, ppt, xls, docx, pptx, xlsx, pdf)")
	flags.BoolVar(&f.strict, "strict", false, "reject compound files that deviate from the format")
	flags.IntVarP(&f.jobs, "jobs", "j", runtime.NumCPU(), "number of files processed at once")
	flags.StringVarP(&f.outputDir, "output-dir", "o", "", "write <name>.txt files to this directory")

	return cmd
}

// options overlays the flags given on the command line onto base.
func (f *extractFlags) options(cmd *cobra.Command, base officetext.Options) (officetext.Options, error) {
	opts := base
	changed := cmd.Flags().Changed

	if changed("max-chars") {
		opts.MaxChars = f.maxChars
	}
	if changed("max-pdf-pages") {
		opts.MaxPDFPages = f.maxPDFPages
	}
	if changed("max-sst") {
		opts.MaxSST = f.maxSST
	}
	if changed("delimiter") {
		opts.Delimiter = f.delimiter
	}
	if changed("keep-blank-cells") {
		opts.KeepBlankCells = f.keepBlankCells
	}
	if changed("drawings") {
		opts.IncludeDrawings = f.drawings
	}
	if changed("xml-max-file-len") {
		opts.XMLMaxFileLen = f.xmlMaxFileLen
	}
	if changed("type") {
		t, err := officetext.ParseDocumentType(f.docType)
		if err != nil {
			return opts, err
		}
		opts.Type = t
	}
	if changed("strict") {
		opts.Validation = mscfb.ValidationPermissive
		if f.strict {
			opts.Validation = mscfb.ValidationStrict
		}
	}
	return opts, nil
}

// extractAll extracts every file, at most jobs at a time. Results keep the
// order of files.
func (a *app) extractAll(files []string, opts officetext.Options, jobs int) []extractResult {
	results := make([]extractResult, len(files))

	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			results[i] = a.extractFile(file, opts)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (a *app) extractFile(file string, opts officetext.Options) extractResult {
	data, err := os.ReadFile(file)
	if err != nil {
		return extractResult{err: err}
	}

	opts.Logger = a.logger.With(slog.String("file", file))
	t, text, err := officetext.ExtractText(data, opts)
	if err != nil {
		a.logger.Warn("extraction failed", slog.String("file", file), slog.String("type", t.String()), slog.Any("err", err))
		return extractResult{err: fmt.Errorf("%s: %w", file, err)}
	}
	a.logger.Info("extracted", slog.String("file", file), slog.String("type", t.String()), slog.Int("bytes", len(text)))
	return extractResult{text: text}
}

func (a *app) writeResults(cmd *cobra.Command, files []string, results []extractResult, outputDir string) error {
	out := cmd.OutOrStdout()

	var errs []error
	for i, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
			continue
		}

		if outputDir != "" {
			if err := writeText(outputDir, files[i], res.text); err != nil {
				errs = append(errs, err)
			}
			continue
		}

		if len(files) > 1 {
			fmt.Fprintf(out, "==> %s <==\n", files[i])
		}
		fmt.Fprint(out, res.text)
		if len(files) > 1 && !strings.HasSuffix(res.text, "\n") {
			fmt.Fprintln(out)
		}
	}
	return errors.Join(errs...)
}

func writeText(dir, file, text string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := filepath.Join(dir, filepath.Base(file)+".txt")
	return os.WriteFile(name, []byte(text), 0o644)
}
