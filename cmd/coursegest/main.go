// Package main is the coursegest command line. It reads one lab-schedule
// workbook or one yearbook document and writes the extracted records to the
// configured store, or prints them with --dry-run.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/coursegest/internal/config"
	"github.com/dgallion1/coursegest/internal/store"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coursegest",
		Short: "Import lab schedules and yearbooks into the course store",
		Long: `coursegest extracts structured course data from the files faculty staff
already maintain. The labs command reads a spreadsheet of floating lab-session
tables; the yearbook command reads a yearbook document of per-semester course
tables with prerequisite and corequisite relations.

Both commands are safe to re-run: lab semesters are replaced wholesale and
yearbook documents are merged.`,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "YAML config file (environment variables override it)")
	root.PersistentFlags().Bool("dry-run", false, "write to an in-memory store and print the result")
	root.PersistentFlags().String("format", "json", "dry-run output format: json or yaml")
	root.PersistentFlags().BoolP("verbose", "v", false, "log extraction progress to stderr")

	root.AddCommand(newLabsCmd(), newYearbookCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of coursegest",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coursegest %s\n", version)
		},
	}
}

// session is the store and settings one command runs against.
type session struct {
	cfg    config.Config
	store  store.Store
	mem    *store.Memory
	log    *slog.Logger
	format string
}

// openSession loads configuration and opens the target store. A dry run
// always uses a memory store and skips backend validation.
func openSession(cmd *cobra.Command) (*session, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	format, _ := cmd.Flags().GetString("format")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if format != "json" && format != "yaml" {
		return nil, fmt.Errorf("unknown --format %q (want json or yaml)", format)
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	s := &session{
		cfg:    cfg,
		log:    slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})),
		format: format,
	}

	if dryRun {
		s.mem = store.NewMemory()
		s.store = s.mem
		return s, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	st, err := store.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	s.store = st
	return s, nil
}

// finish prints the dry-run documents, if any, followed by OK.
func (s *session) finish(w io.Writer) error {
	if s.mem != nil {
		docs := s.mem.Snapshot()
		s.log.Info("dry run complete", "documents", len(docs), "writes", s.mem.Writes())
		if err := writeSnapshot(w, docs, s.format); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, "OK")
	return nil
}

func (s *session) close() {
	if err := s.store.Close(); err != nil {
		s.log.Warn("close store", "error", err)
	}
}

// openInput opens path for reading; the caller closes it.
func openInput(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "coursegest:", err)
		os.Exit(1)
	}
}
