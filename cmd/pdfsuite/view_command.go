package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pdfsuite/internal/converter"
	"pdfsuite/internal/ipc"
	"pdfsuite/internal/models"
	"pdfsuite/internal/render"
	"pdfsuite/internal/settings"
)

func newViewCommand(ctx *commandContext) *cobra.Command {
	var (
		page    int
		scale   float64
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "view <pdf>",
		Short: "Show a PDF's page count and optionally render one page to PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pdfPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve %s: %w", args[0], err)
			}
			if !models.KindPDFToImage.AcceptsPath(pdfPath) {
				return models.InvalidInput(fmt.Sprintf("not a PDF file: %s", pdfPath), nil)
			}
			out := cmd.OutOrStdout()

			return ctx.withAPI(cmd.Context(), func(api ipc.API) error {
				data, err := api.ReadFileBytes(cmd.Context(), pdfPath)
				if err != nil {
					return err
				}
				doc, err := render.NewFitzRenderer().Open(data)
				if err != nil {
					return err
				}
				defer doc.Close()

				total := doc.PageCount()
				if err := rememberRecent(cmd, api, pdfPath); err != nil {
					logger := ctx.logger(false)
					logger.Warn().Err(err).Msg("failed to update recent files")
				}

				rows := [][]string{
					{"File", pdfPath},
					{"Size", humanize.Bytes(uint64(len(data)))},
					{"Pages", strconv.Itoa(total)},
				}

				if page > 0 {
					if page > total {
						return models.InvalidInput(fmt.Sprintf("page must be between 1 and %d", total), nil)
					}
					png, err := doc.RenderPNG(page, scale)
					if err != nil {
						return err
					}
					target := outPath
					if target == "" {
						target = converter.PageImageName(pdfPath, page)
					}
					if err := os.WriteFile(target, png, 0o644); err != nil {
						return fmt.Errorf("write %s: %w", target, err)
					}
					rows = append(rows, []string{"Rendered", fmt.Sprintf("page %d -> %s", page, target)})
				}

				fmt.Fprintln(out, renderTable([]string{"Property", "Value"}, rows, nil))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "Page to render (1-based)")
	cmd.Flags().Float64Var(&scale, "scale", render.DefaultScale, "Render scale, 1.0 = 72 dpi")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "PNG file for the rendered page")
	return cmd
}

// rememberRecent moves path to the front of the recent files list
func rememberRecent(cmd *cobra.Command, api ipc.API, path string) error {
	st, err := api.GetSettings(cmd.Context())
	if err != nil {
		return err
	}
	recent := settings.AddRecent(st.RecentFiles, path)
	_, err = api.SetSettings(cmd.Context(), settings.Patch{RecentFiles: &recent})
	return err
}
