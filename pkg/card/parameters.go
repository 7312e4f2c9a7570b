package card

import (
	"fmt"

	"github.com/sy-c/readoutcard/pkg/bar"
	"github.com/sy-c/readoutcard/pkg/bufprovider"
	"github.com/sy-c/readoutcard/pkg/cardid"
)

// DataSource selects where the card sources its payload from. Diu and
// Siu exist in the wire encoding (bar.DataSource) but are rejected at
// construction for this card family.
type DataSource = bar.DataSource

const (
	DataSourceInternal = bar.DataSourceInternal
	DataSourceFee      = bar.DataSourceFee
	DataSourceDdg      = bar.DataSourceDdg
)

// ResetLevel is the argument to DmaChannel.ResetChannel.
type ResetLevel int

const (
	ResetNothing ResetLevel = iota
	ResetInternal
	// resetUnsupported is any level beyond the two this card accepts;
	// callers construct it only by passing an out-of-range int, which
	// ResetChannel rejects.
)

// BufferKind tags which BufferProvider variant Parameters.Buffer
// selects.
type BufferKind int

const (
	BufferNull BufferKind = iota
	BufferMemory
	BufferFile
)

// BufferParameters is the tagged union backing a channel's buffer:
// exactly one of the Memory or File fields is meaningful, selected by
// Kind.
type BufferParameters struct {
	Kind BufferKind

	// BufferMemory
	MemorySize uint64

	// BufferFile
	FilePath string
	FileSize uint64
}

// defaultDmaPageSize is the DMA page size assumed when Parameters
// leaves DmaPageSize at zero.
const defaultDmaPageSize = 8192

// maxLinks bounds the fixed-size link table.
const maxLinks = 32

// fallbackMaxSuperpageDescriptors is used when BAR0 reports zero,
// meaning the firmware build predates that register.
const fallbackMaxSuperpageDescriptors = 512

// Parameters configures a DmaChannel.
type Parameters struct {
	CardId        cardid.CardId
	ChannelNumber int
	DataSource    DataSource
	DmaPageSize   uint64
	Buffer        BufferParameters
	ResetLevel    ResetLevel
}

// validate checks the parts of Parameters that don't require hardware
// access. Buffer acquisition and card probing happen in New and
// newChannelCore.
func (p Parameters) validate() error {
	prefix := channelPrefix(p.CardId, p.ChannelNumber)

	if p.ChannelNumber != 0 {
		return newFieldError(prefix, KindParameter, "unsupported channel number", "channelNumber", int64(p.ChannelNumber))
	}
	switch p.DataSource {
	case DataSourceInternal, DataSourceFee, DataSourceDdg:
	case bar.DataSourceDiu, bar.DataSourceSiu:
		return newFieldError(prefix, KindParameter, fmt.Sprintf("unsupported data source %s", p.DataSource), "dataSource", int64(p.DataSource))
	default:
		return newFieldError(prefix, KindParameter, fmt.Sprintf("unknown data source %s", p.DataSource), "dataSource", int64(p.DataSource))
	}
	if p.Buffer.Kind != BufferNull && p.Buffer.Kind != BufferMemory && p.Buffer.Kind != BufferFile {
		return newError(prefix, KindParameter, "missing buffer parameters")
	}
	return nil
}

// effectiveDmaPageSize returns DmaPageSize, defaulted, without
// validating it: a non-8KiB size is warned about, never rejected.
func (p Parameters) effectiveDmaPageSize() uint64 {
	if p.DmaPageSize == 0 {
		return defaultDmaPageSize
	}
	return p.DmaPageSize
}

func (p Parameters) acquireBuffer() (bufprovider.Provider, error) {
	prefix := channelPrefix(p.CardId, p.ChannelNumber)
	switch p.Buffer.Kind {
	case BufferMemory:
		return bufprovider.NewMemory(p.Buffer.MemorySize)
	case BufferFile:
		return bufprovider.NewFile(p.Buffer.FilePath, p.Buffer.FileSize)
	case BufferNull:
		return bufprovider.NewNull(), nil
	default:
		return nil, newError(prefix, KindParameter, "missing buffer parameters")
	}
}

func channelPrefix(id cardid.CardId, channel int) string {
	return fmt.Sprintf("card %s channel %d", id.String(), channel)
}
