package cmd

import (
	"fmt"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"

	"github.com/grailbio/gbsieve/aggregate"
	"github.com/grailbio/gbsieve/certify"
	"github.com/grailbio/gbsieve/gberrors"
	"github.com/grailbio/gbsieve/primestore"
)

func newCmdCertify() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "certify",
		Short:    "Independently verify a bitmap, raw stream, or summary CSV",
		ArgsName: "path",
	}
	kind := cmd.Flags.String("kind", "", "bitmap, stream, or summary")
	limit := cmd.Flags.Uint64("limit", 0, "sieve limit (bitmap/stream kinds)")
	alpha := cmd.Flags.Float64("alpha", 0.5, "alpha the summary was generated with (summary kind)")
	rawPath := cmd.Flags.String("raw", "", "prime raw stream (summary kind)")
	hlMode := cmd.Flags.Bool("hl-a", false, "summary was generated in HL-A mode (summary kind)")
	tolerance := cmd.Flags.Float64("tolerance", certify.DefaultTolerance, "HL-A tolerance band (summary kind)")

	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return gberrors.New(gberrors.Argument, "certify takes one path argument, got %v", argv)
		}
		ctx := vcontext.Background()
		path := argv[0]

		var message string
		var err error
		switch *kind {
		case "bitmap":
			if *limit == 0 {
				return gberrors.New(gberrors.Argument, "--limit is required for --kind=bitmap")
			}
			message, err = certify.Bitmap(ctx, path, *limit, 0, 4)
		case "stream":
			if *limit == 0 {
				return gberrors.New(gberrors.Argument, "--limit is required for --kind=stream")
			}
			message, err = certify.Stream(ctx, path, *limit)
		case "summary":
			if *rawPath == "" {
				return gberrors.New(gberrors.Argument, "--raw is required for --kind=summary")
			}
			var stream *primestore.Stream
			stream, err = primestore.Open(ctx, *rawPath)
			if err != nil {
				return err
			}
			defer stream.Close()
			cfg := aggregate.Config{EulerCap: true, Compat: aggregate.CompatCurrent, HLMode: *hlMode}
			message, err = certify.Summary(ctx, path, *alpha, stream, cfg, *tolerance)
		default:
			return gberrors.New(gberrors.Argument, "--kind: unknown value %q", *kind)
		}
		if err != nil {
			fmt.Fprintf(env.Stderr, "ERROR: %s\n", err)
			return err
		}
		fmt.Fprintln(env.Stdout, message)
		return nil
	})
	return cmd
}
