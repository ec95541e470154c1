// Command inheritctl loads a manifest into a hierarchy of levels and answers
// lookups against it: explicit bindings, conversions and reservations. It can
// also print and persist inventory snapshots of the hierarchy.
package main

import (
	"fmt"
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
