// Command listas generates the address list archive from CSV files on disk.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/listas/internal/archive"
	"github.com/JonMunkholm/listas/internal/config"
	"github.com/JonMunkholm/listas/internal/core"
	"github.com/JonMunkholm/listas/internal/logging"
	"github.com/JonMunkholm/listas/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	// Flag defaults follow the server's PIPELINE_* settings.
	pc, cfgErr := config.LoadPipeline()
	if cfgErr != nil {
		pc = config.PipelineConfig{Workers: 1, ArchiveName: archive.FileName}
	}

	root := &cobra.Command{
		Use:           "listas",
		Short:         "Turn address CSV lists into formatted spreadsheets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Setup(logLevel, "text", cmd.ErrOrStderr())
			if cfgErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", cfgErr)
			}
			return cfgErr
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level: debug, info, warn, error")

	root.AddCommand(newGenerateCmd(pc), newInspectCmd())
	return root
}

func newGenerateCmd(pc config.PipelineConfig) *cobra.Command {
	var (
		outputPath string
		workers    int
	)

	cmd := &cobra.Command{
		Use:   "generate FILE...",
		Short: "Build the archive with one spreadsheet per CSV file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, err := readUploads(args)
			if err != nil {
				return report(cmd, err)
			}

			svc := pipeline.NewService(pipeline.Options{Workers: workers})
			res, err := svc.Generate(cmd.Context(), uploads)
			if err != nil {
				return report(cmd, err)
			}

			if err := writeAtomic(outputPath, res.Archive); err != nil {
				return report(cmd, fmt.Errorf("failed to write output: %w", err))
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d sheets, %d rows\n", outputPath, len(res.Entries), res.Rows)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", pc.ArchiveName, "Output archive path")
	cmd.Flags().IntVar(&workers, "workers", pc.Workers, "Files rendered in parallel")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect FILE...",
		Short: "List the files and the sheets they would produce",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uploads, err := readUploads(args)
			if err != nil {
				return report(cmd, err)
			}

			files, err := pipeline.NewService(pipeline.Options{}).Inspect(uploads)
			if err != nil {
				return report(cmd, err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(files); err != nil {
					return err
				}
			} else {
				printSummaries(out, files)
			}

			for _, f := range files {
				if !f.OK() {
					return fmt.Errorf("%s: %w", f.Name, f.Err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func readUploads(paths []string) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, &pipeline.FileError{File: p, Err: err}
		}
		uploads = append(uploads, pipeline.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

// writeAtomic writes r to a temporary file next to path and renames it, so a
// failed run never leaves a truncated archive behind.
func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".listas-*.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func printSummaries(w io.Writer, files []pipeline.FileSummary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSIZE\tROWS\tENTRY\tSTATUS")
	for _, f := range files {
		status := "ok"
		if !f.OK() {
			status = f.Code + " " + f.Error
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\n", f.Name, f.Size, f.Rows, f.Entry, status)
	}
	tw.Flush()
}

// report prints the user-facing message for err and returns it for the exit code.
func report(cmd *cobra.Command, err error) error {
	fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n  %v\n", core.FormatUserError(err), err)
	return err
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
