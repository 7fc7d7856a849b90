package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dgallion1/coursegest/internal/labs"
	"github.com/dgallion1/coursegest/internal/parser"
	"github.com/dgallion1/coursegest/internal/pipeline"
)

func newLabsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labs <file> <year_id> <year_label> <semester>",
		Short: "Import a lab-schedule workbook for one semester",
		Long: `Labs reads a workbook (.xlsx, .xlsm, .csv, .html, .md), finds every
captioned lab table on every sheet and replaces the semester document
lab_schedule/{year_id}/semesters/{semester} with the courses it found.
The year label is merged into lab_schedule/{year_id}.`,
		Args: cobra.ExactArgs(4),
		RunE: runLabs,
	}
}

func runLabs(cmd *cobra.Command, args []string) error {
	file, yearID, yearLabel := args[0], args[1], args[2]
	semester, err := strconv.Atoi(args[3])
	if err != nil {
		return fmt.Errorf("semester must be a number, got %q", args[3])
	}
	target := labs.Target{YearID: yearID, YearLabel: yearLabel, Semester: semester}
	if err := target.Validate(); err != nil {
		return err
	}
	if _, err := parser.ForWorkbook(file); err != nil {
		return err
	}
	cmd.SilenceUsage = true

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	f, err := openInput(file)
	if err != nil {
		return err
	}
	defer f.Close()
	wb, err := parser.OpenWorkbook(f, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	st, err := labs.NewIngester(s.store, s.log, pipeline.LabsOptions(s.cfg)).Run(cmd.Context(), wb, target)
	if err != nil {
		return err
	}
	for _, d := range st.Dropped {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped uncaptioned table: sheet %q row %d\n", d.Sheet, d.HeaderRow)
	}
	return s.finish(cmd.OutOrStdout())
}
