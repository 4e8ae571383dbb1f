// Command barsync runs the offline mutation queue and sync engine for
// the bar-inventory client and provides queue inspection tooling.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
