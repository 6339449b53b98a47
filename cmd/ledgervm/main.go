// Command ledgervm is the host façade CLI: initialize, mine_block,
// get_block_height, check, launch, eval, eval_raw, repl, execute (spec
// §6.1). Modeled on the teacher's cmd/dwscript entry point.
package main

import (
	"os"

	"github.com/ledgervm/ledgervm/cmd/ledgervm/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
