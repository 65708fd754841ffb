// Command indexutil inspects and edits the shared rotation index and runs
// the PostgreSQL schema migrations for the index table.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
