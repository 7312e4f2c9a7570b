// Command roc-status reports telemetry for a CRU channel:
// feature-gated identity fields, dropped packets, and queue occupancy.
//
// Usage: roc-status --id=12345 --channel=0
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
	flag.Parse()

	cid, err := roccli.ParseCardId(*id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-status: %v\n", err)
		os.Exit(1)
	}

	params := card.Parameters{
		CardId:        cid,
		ChannelNumber: *channel,
		Buffer:        card.BufferParameters{Kind: card.BufferNull},
	}

	ch, err := card.Open(params, roccli.NewScanner())
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-status: opening channel: %v\n", err)
		os.Exit(1)
	}
	defer ch.Close()

	if serial, ok, err := ch.GetSerial(); err != nil {
		fmt.Fprintf(os.Stderr, "roc-status: reading serial: %v\n", err)
	} else if ok {
		fmt.Printf("serial: %d\n", serial)
	} else {
		fmt.Println("serial: unavailable")
	}

	if temp, ok, err := ch.GetTemperature(); err != nil {
		fmt.Fprintf(os.Stderr, "roc-status: reading temperature: %v\n", err)
	} else if ok {
		fmt.Printf("temperature: %.1f\n", temp)
	} else {
		fmt.Println("temperature: unavailable")
	}

	if fw, ok, err := ch.GetFirmwareInfo(); err != nil {
		fmt.Fprintf(os.Stderr, "roc-status: reading firmware info: %v\n", err)
	} else if ok {
		fmt.Printf("firmware: %s\n", fw)
	} else {
		fmt.Println("firmware: unavailable")
	}

	if dropped, err := ch.GetDroppedPackets(); err != nil {
		fmt.Fprintf(os.Stderr, "roc-status: reading dropped packets: %v\n", err)
	} else {
		fmt.Printf("dropped packets: %d\n", dropped)
	}

	fmt.Printf("ready queue size: %d\n", ch.GetReadyQueueSize())
	fmt.Printf("transfer queue available: %d\n", ch.GetTransferQueueAvailable())
}
