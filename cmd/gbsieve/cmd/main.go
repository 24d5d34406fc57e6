// Package cmd implements the gbsieve dispatcher's subcommands.
package cmd

import (
	"log"

	"v.io/x/lib/cmdline"
)

// Run parses argv and dispatches to the matching subcommand.
func Run() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "gbsieve",
			Short:    "Sieve-theoretic Goldbach conjecture computation pipeline",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdSieve(),
				newCmdSummary(),
				newCmdMerge(),
				newCmdCertify(),
			},
		})
}
