package main

import (
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"shufflebench/internal/relation"
	"shufflebench/internal/ui"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [file...]",
	Short: "Check generated relations for size and value domain",
	Long: `Decodes relation files and checks that their size is a whole number of tuples
and that every element lies in the generation domain. Without arguments the
configured relations in the output directory are checked, each with its own type.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().String("type", "", "Element type of the given files (int, float, double)")
	verifyCmd.Flags().String("dir", "", "Directory of the configured relations (default generate.dir)")
	verifyCmd.Flags().StringArray("relation", nil, "Relation as name=type:count, repeatable")
}

type verifyTarget struct {
	path string
	typ  relation.DataType
	// want is the expected tuple count, zero if unknown.
	want int64
}

func runVerify(cmd *cobra.Command, args []string) error {
	var targets []verifyTarget
	if len(args) > 0 {
		typeName, _ := cmd.Flags().GetString("type")
		if typeName == "" {
			return errors.New("--type is required when files are given")
		}
		t, err := relation.ParseDataType(typeName)
		if err != nil {
			return err
		}
		for _, a := range args {
			targets = append(targets, verifyTarget{path: a, typ: t})
		}
	} else {
		specs, err := relationsFromFlags(cmd)
		if err != nil {
			return err
		}
		dir := stringSetting(cmd, "dir", "generate.dir")
		for _, s := range specs {
			targets = append(targets, verifyTarget{path: filepath.Join(dir, s.Name), typ: s.Type, want: s.Count})
		}
	}

	var (
		rows [][]string
		errs error
	)
	for _, tg := range targets {
		stats, err := relation.Verify(tg.path, tg.typ)
		if err == nil && tg.want != 0 && stats.Tuples != tg.want {
			err = errors.Newf("%s: expected %d tuples, found %d", tg.path, tg.want, stats.Tuples)
		}
		if err != nil {
			errs = errors.CombineErrors(errs, err)
		}
		rows = append(rows, []string{
			tg.path,
			tg.typ.String(),
			humanize.Comma(stats.Tuples),
			humanize.IBytes(uint64(stats.Bytes)),
			fmt.Sprintf("%g", stats.Min),
			fmt.Sprintf("%g", stats.Max),
			ui.Status(err),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Table([]string{"File", "Type", "Tuples", "Size", "Min", "Max", "Status"}, rows))
	return errs
}
