package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/coursegest/internal/parser"
	"github.com/dgallion1/coursegest/internal/yearbook"
)

func newYearbookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "yearbook <file> <yearbook_id> <yearbook_label>",
		Short: "Import a yearbook document",
		Long: `Yearbook reads a .docx yearbook, tracks the active semester from its
"סמסטר N" headings and merges every course row of every course table into
yearbooks/{yearbook_id}/requiredCourses/semester_N/courses/{code}, with one
relations document per prerequisite or corequisite code.`,
		Args: cobra.ExactArgs(3),
		RunE: runYearbook,
	}
}

func runYearbook(cmd *cobra.Command, args []string) error {
	file := args[0]
	target := yearbook.Target{YearbookID: args[1], Label: args[2]}
	if err := target.Validate(); err != nil {
		return err
	}
	if _, err := parser.ForDocument(file); err != nil {
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
	doc, err := parser.OpenDocument(f, file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	st, err := yearbook.NewIngester(s.store, s.log).Run(cmd.Context(), doc, target)
	if err != nil {
		return err
	}
	if st.Unresolved > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d relation names could not be resolved\n", st.Unresolved)
	}
	return s.finish(cmd.OutOrStdout())
}
