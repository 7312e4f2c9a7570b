// Command roc-config configures and starts a CRU DMA channel against
// a Null buffer, for validating that a card accepts a given data
// source and DMA page size before a real readout run allocates a
// buffer.
//
// Usage: roc-config --id=12345 --channel=0 --source=internal --page-size=8192
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/sy-c/readoutcard/internal/roccli"
	"github.com/sy-c/readoutcard/pkg/bar"
	"github.com/sy-c/readoutcard/pkg/card"
)

func main() {
	id := flag.String("id", "", "card id: serial number, PCI address DDDD:BB:DD.F, or #sequence")
	channel := flag.Int("channel", 0, "DMA channel number")
	source := flag.String("source", "internal", "data source: internal, fee, ddg")
	pageSize := flag.Uint64("page-size", 8192, "DMA page size in bytes")
	flag.Parse()

	cid, err := roccli.ParseCardId(*id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-config: %v\n", err)
		os.Exit(1)
	}
	dataSource, err := parseDataSource(*source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-config: %v\n", err)
		os.Exit(1)
	}

	params := card.Parameters{
		CardId:        cid,
		ChannelNumber: *channel,
		DataSource:    dataSource,
		DmaPageSize:   *pageSize,
		Buffer:        card.BufferParameters{Kind: card.BufferNull},
	}

	ch, err := card.Open(params, roccli.NewScanner())
	if err != nil {
		fmt.Fprintf(os.Stderr, "roc-config: opening channel: %v\n", err)
		os.Exit(1)
	}
	defer ch.Close()

	if err := ch.StartDma(); err != nil {
		fmt.Fprintf(os.Stderr, "roc-config: starting DMA: %v\n", err)
		os.Exit(1)
	}
	if err := ch.StopDma(); err != nil {
		fmt.Fprintf(os.Stderr, "roc-config: stopping DMA: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("config: OK")
}

func parseDataSource(s string) (card.DataSource, error) {
	switch s {
	case "internal":
		return card.DataSourceInternal, nil
	case "fee":
		return card.DataSourceFee, nil
	case "ddg":
		return card.DataSourceDdg, nil
	default:
		return bar.DataSourceInternal, fmt.Errorf("--source %q is not one of internal, fee, ddg", s)
	}
}
