package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/gbcsv"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/merge"
)

func newCmdMerge() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "merge",
		Short:    "Merge per-chunk summary or CPS CSVs for one alpha into contiguous rows",
		ArgsName: "in-path...",
	}
	out := cmd.Flags.String("out", "", "output path for the merged CSV")
	cpsFlag := cmd.Flags.Bool("cps", false, "merge CPS CSVs instead of summary CSVs")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return gberrors.New(gberrors.Argument, "merge takes one or more input CSV paths")
		}
		if *out == "" {
			return gberrors.New(gberrors.Argument, "--out is required")
		}
		ctx := vcontext.Background()

		if *cpsFlag {
			var rows []gbcsv.CPSRow
			for _, path := range argv {
				chunk, err := gbcsv.ReadCPSRows(ctx, path)
				if err != nil {
					return err
				}
				rows = append(rows, chunk...)
			}
			merged, gaps, err := merge.MergeCPSAlpha(rows)
			if err != nil {
				return err
			}
			for _, gap := range gaps {
				fmt.Fprintln(env.Stderr, gap)
			}
			w, err := gbcsv.OpenCPSWriter(ctx, *out, false, false)
			if err != nil {
				return err
			}
			if err := w.WriteRow(merged); err != nil {
				w.Close()
				return err
			}
			return w.Close()
		}

		var rows []aggregate.Row
		var model gbcsv.Model
		var variant gbcsv.Variant
		for i, path := range argv {
			chunk, m, v, err := gbcsv.ReadSummaryRows(ctx, path)
			if err != nil {
				return err
			}
			if i == 0 {
				model, variant = m, v
			}
			rows = append(rows, chunk...)
		}
		result, err := merge.MergeAlpha(rows)
		if err != nil {
			return err
		}
		for _, gap := range result.Gaps {
			fmt.Fprintln(env.Stderr, gap)
		}
		w, err := gbcsv.OpenSummaryWriter(ctx, *out, model, variant, false, false)
		if err != nil {
			return err
		}
		for _, row := range result.Rows {
			if err := w.WriteRow(row); err != nil {
				w.Close()
				return err
			}
		}
		return w.Close()
	})
	return cmd
}
