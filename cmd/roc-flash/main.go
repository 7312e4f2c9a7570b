// Command roc-flash would program the card's flash memory. Flashing
// is hardware I/O specific to the card's flash controller and is out
// of scope for this driver; this stub keeps the argument-parsing and
// exit-code contract of the other roc-* utilities without attempting
// the write.
//
// Usage: roc-flash --id=12345 --file=/path/to/image
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sy-c/readoutcard/internal/roccli"
)

func main() {
	id := flag.String("id", "", "card id: serial number, PCI address DDDD:BB:DD.F, or #sequence")
	file := flag.String("file", "", "path of the flash image to program")
	flag.Parse()

	if _, err := roccli.ParseCardId(*id); err != nil {
		fmt.Fprintf(os.Stderr, "roc-flash: %v\n", err)
		os.Exit(1)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "roc-flash: --file is required")
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "roc-flash: flashing is not supported by this driver")
	os.Exit(1)
}
