package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/gbio"
	"github.com/grailbio/gbsieve/primestore"
	"github.com/grailbio/gbsieve/sieve"
)

func newCmdSieve() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sieve",
		Short:    "Sieve a limit and write the bitmap and raw prime stream",
		ArgsName: "bitmap-out raw-out",
	}
	limit := cmd.Flags.Uint64("limit", 0, "sieve every integer in [2, limit]")
	gzipped := cmd.Flags.Bool("gzip", false, "gzip-frame both output files")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return gberrors.New(gberrors.Argument, "sieve takes bitmap-out and raw-out, got %v", argv)
		}
		if *limit == 0 {
			return gberrors.New(gberrors.Argument, "--limit is required")
		}
		ctx := vcontext.Background()
		bm, err := sieve.Sieve(*limit, 0)
		if err != nil {
			return err
		}
		w, err := gbio.CreateWriter(ctx, argv[0], *gzipped)
		if err != nil {
			return err
		}
		if _, err := w.Write(bm.Bytes()); err != nil {
			w.Close()
			return gberrors.Wrap(gberrors.IO, err, "sieve: write bitmap")
		}
		if err := w.Close(); err != nil {
			return err
		}
		n, err := primestore.Write(ctx, argv[1], bm, *gzipped)
		if err != nil {
			return err
		}
		fmt.Fprintf(env.Stdout, "wrote %s (%d bytes) and %s (%d bytes)\n", argv[0], len(bm.Bytes()), argv[1], n)
		return nil
	})
	return cmd
}
