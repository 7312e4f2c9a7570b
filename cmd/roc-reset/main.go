// Command roc-reset resets a CRU DMA channel.
//
// Usage: roc-reset --id=12345 --channel=0 --reset=internal
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sy-c/readoutcard/internal/roccli"
	"github.com/sy-c/readoutcard/pkg/card"
)

func main() {
	id := flag.String("id", "", "card id: serial number, PCI address DDDD:BB:DD.F, or #sequence")
	channel := flag.Int("channel", 0, "DMA channel number")
	resetLevel := flag.String("reset", "internal", "reset level: nothing, internal")
	flag.Parse()

	cid, err := roccli.ParseCardId(*id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-reset: %v\n", err)
		os.Exit(1)
	}
	level, err := roccli.ParseResetLevel(*resetLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-reset: %v\n", err)
		os.Exit(1)
	}

	params := card.Parameters{
		CardId:        cid,
		ChannelNumber: *channel,
		Buffer:        card.BufferParameters{Kind: card.BufferNull},
		ResetLevel:    level,
	}

	ch, err := card.Open(params, roccli.NewScanner())
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-reset: opening channel: %v\n", err)
		os.Exit(1)
	}
	defer ch.Close()

	if err := ch.ResetChannel(level); err != nil {
		fmt.Fprintf(os.Stderr, "roc-reset: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("reset: OK")
}
