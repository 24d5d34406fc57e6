// Command gbsieve is the single-binary dispatcher for the sieve, summary,
// merge, and certify verbs, wrapping v.io/x/lib/cmdline the way bio-pamtool
// wraps its view/flagstat/convert/checksum verbs.
package main

import (
	"github.com/grailbio/gbsieve/cmd/gbsieve/cmd"
)

func main() {
	cmd.Run()
}
