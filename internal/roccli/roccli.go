// Package roccli holds the flag-parsing helpers shared by the roc-*
// command-line utilities. Every utility accepts --id; roc-reset,
// roc-status and roc-config also accept --channel; only roc-reset
// accepts --reset. roc-flash takes --id and --file only.
package roccli

import (
	"fmt"
	"strconv"

	"github.com/sy-c/readoutcard/pkg/card"
	"github.com/sy-c/readoutcard/pkg/cardid"
)

// CruVendorId and CruDeviceIds scope cardid.Scanner to this card
// family. The values are placeholders for a PCI vendor/device pair;
// a real deployment would set these to the CRU's registered IDs.
const CruVendorId = "1d9b"

var CruDeviceIds = []string{"0031", "0032"}

// ParseCardId parses a --id value as a PCI address, a "#N" sequence
// number, or a decimal serial number, in that preference order.
func ParseCardId(s string) (cardid.CardId, error) {
	if s == "" {
		return cardid.CardId{}, fmt.Errorf("--id is required")
	}
	if cardid.ValidateAddress(s) {
		return cardid.FromAddress(s), nil
	}
	if n, ok := cardid.ParseSequenceNumber(s); ok {
		return cardid.FromSequenceNumber(n), nil
	}
	serial, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return cardid.CardId{}, fmt.Errorf("--id %q is neither a PCI address, a #sequence, nor a serial number", s)
	}
	return cardid.FromSerial(int32(serial)), nil
}

// ParseResetLevel parses a --reset value into Parameters.ResetLevel.
func ParseResetLevel(s string) (card.ResetLevel, error) {
	switch s {
	case "nothing", "":
		return card.ResetNothing, nil
	case "internal":
		return card.ResetInternal, nil
	default:
		return 0, fmt.Errorf("--reset %q is not supported; this card accepts nothing or internal", s)
	}
}

// NewScanner builds the cardid.Scanner every roc-* utility resolves
// --id against.
func NewScanner() *cardid.Scanner {
	return cardid.NewScanner(CruVendorId, CruDeviceIds)
}
