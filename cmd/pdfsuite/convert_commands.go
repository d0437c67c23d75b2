package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pdfsuite/internal/desktop"
	"pdfsuite/internal/ipc"
	"pdfsuite/internal/models"
	"pdfsuite/internal/queue"
	"pdfsuite/internal/render"
)

// toPDFFilters are offered by the file picker for convert --pick
func toPDFFilters() []desktop.Filter {
	strip := func(exts []string) []string {
		out := make([]string, len(exts))
		for i, e := range exts {
			out[i] = strings.TrimPrefix(e, ".")
		}
		return out
	}
	return []desktop.Filter{
		{Label: "Office Documents", Extensions: strip(models.OfficeExtensions)},
		{Label: "Images", Extensions: strip(models.ImageExtensions)},
		{Label: "HTML", Extensions: strip(models.HTMLExtensions)},
		{Label: "E-mail", Extensions: strip(models.EmailExtensions)},
		desktop.AllFiles,
	}
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var recursive, pick bool

	cmd := &cobra.Command{
		Use:   "convert [paths...]",
		Short: "Convert Office documents, images, HTML and e-mail files to PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !pick {
				return errors.New("give at least one file or directory, or use --pick")
			}
			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()

			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				inputs := append([]string{}, args...)
				if pick {
					picked, err := api.OpenFileDialog(cmd.Context(), toPDFFilters())
					if err != nil {
						return err
					}
					inputs = append(inputs, picked...)
				}
				if len(inputs) == 0 {
					fmt.Fprintln(out, "No files selected")
					return nil
				}

				files, err := queue.Discover(inputs, recursive)
				if err != nil {
					return err
				}

				q := queue.New(api, queue.WithLogger(ctx.logger(false)))
				added, rejected := q.AddPaths(queue.Paths(files))
				for _, err := range rejected {
					fmt.Fprintf(errOut, "Skipped: %v\n", err)
				}
				if len(added) == 0 {
					return errors.New("no convertible files found")
				}

				fmt.Fprintf(out, "Found %d files to convert (%s total)\n", len(added), humanize.Bytes(uint64(queue.TotalSize(files))))
				bar := attachProgress(q, len(added), "Converting", errOut)
				res := q.RunAll(cmd.Context())
				_ = bar.Finish()

				fmt.Fprintln(out)
				fmt.Fprintln(out, renderRecords(res.Records, ctx.verbose()))
				return reportBatch(out, res)
			})
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories")
	cmd.Flags().BoolVar(&pick, "pick", false, "Choose files with the system file dialog")
	return cmd
}

func newConvertHTMLCommand(ctx *commandContext) *cobra.Command {
	var (
		file      string
		fromStdin bool
		inline    string
	)

	cmd := &cobra.Command{
		Use:   "convert-html",
		Short: "Render an HTML file or HTML markup to PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := 0
			for _, set := range []bool{file != "", fromStdin, inline != ""} {
				if set {
					sources++
				}
			}
			if sources != 1 {
				return errors.New("give exactly one of --file, --stdin or --html")
			}

			var (
				desc models.Descriptor
				name string
			)
			switch {
			case file != "":
				desc = models.Descriptor{Kind: models.KindHTMLFile, SourcePath: file}
				name = displayName(file)
			case fromStdin:
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				desc = models.Descriptor{Kind: models.KindHTMLString, Content: string(data)}
				name = "Pasted HTML"
			default:
				desc = models.Descriptor{Kind: models.KindHTMLString, Content: inline}
				name = "Pasted HTML"
			}

			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				q := queue.New(api, queue.WithLogger(ctx.logger(false)))
				rec := q.RunImmediate(cmd.Context(), name, desc)
				return reportRecord(cmd.OutOrStdout(), rec, ctx.verbose())
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "HTML file to render")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read HTML markup from standard input")
	cmd.Flags().StringVar(&inline, "html", "", "HTML markup to render")
	return cmd
}

func newFromPDFCommand(ctx *commandContext) *cobra.Command {
	var (
		target    string
		pageRange string
		scale     float64
	)

	cmd := &cobra.Command{
		Use:   "from-pdf <pdf>",
		Short: "Convert a PDF to Word (docx) or to one PNG per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()

			switch strings.ToLower(strings.TrimSpace(target)) {
			case "docx", "word":
				return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
					q := queue.New(api, queue.WithLogger(ctx.logger(false)))
					rec := q.RunImmediate(cmd.Context(), displayName(pdfPath), models.Descriptor{
						Kind:       models.KindPDFToOffice,
						SourcePath: pdfPath,
					})
					return reportRecord(out, rec, ctx.verbose())
				})
			case "png", "image", "images":
				return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
					q := queue.New(api, queue.WithLogger(ctx.logger(false)))
					bar := attachProgress(q, -1, "Exporting pages", cmd.ErrOrStderr())
					res, err := q.ExportPages(cmd.Context(), render.NewFitzRenderer(), pdfPath, queue.PageOptions{
						PageRange: pageRange,
						Scale:     scale,
					})
					_ = bar.Finish()
					if err != nil {
						return err
					}
					fmt.Fprintln(out)
					fmt.Fprintln(out, renderRecords(res.Records, ctx.verbose()))
					return reportBatch(out, res)
				})
			default:
				return fmt.Errorf("unsupported target %q: use docx or png", target)
			}
		},
	}

	cmd.Flags().StringVarP(&target, "to", "t", "docx", "Output format: docx or png")
	cmd.Flags().StringVar(&pageRange, "range", "", "Pages to export as images, e.g. 2-5 (default all)")
	cmd.Flags().Float64Var(&scale, "scale", render.DefaultScale, "Image scale, 1.0 = 72 dpi")
	return cmd
}

func reportRecord(out io.Writer, rec models.JobRecord, verbose bool) error {
	fmt.Fprintln(out, renderRecords([]models.JobRecord{rec}, verbose))
	if rec.Status != models.StatusDone {
		if verbose {
			return errors.New("conversion failed")
		}
		return fmt.Errorf("conversion failed: %s", rec.Error)
	}
	if info, err := os.Stat(rec.OutputPath); err == nil {
		fmt.Fprintf(out, "Saved %s (%s)\n", rec.OutputPath, humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func reportBatch(out io.Writer, res queue.BatchResult) error {
	fmt.Fprintf(out, "Succeeded: %d  Failed: %d\n", res.Succeeded, res.Failed)
	if res.OpenedDir != "" {
		fmt.Fprintf(out, "Opened %s\n", res.OpenedDir)
	}
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", res.Failed, res.Succeeded+res.Failed)
	}
	return nil
}
