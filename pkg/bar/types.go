// Package bar defines the CtrlBar (BAR0) and ConfigBar (BAR2)
// capability interfaces the DMA channel engine is built against, plus
// one concrete implementation backed by a memory-mapped PCI BAR
// (pkg/barwin) and one in-memory simulation used by tests. The CLI
// utilities always open a real card.
package bar

import "fmt"

// LinkId identifies one optical link on the card.
type LinkId uint16

// DataSource selects where the card sources its payload data from.
type DataSource int

const (
	DataSourceInternal DataSource = iota
	DataSourceFee
	DataSourceDdg
	DataSourceDiu
	DataSourceSiu
)

func (d DataSource) String() string {
	switch d {
	case DataSourceInternal:
		return "Internal"
	case DataSourceFee:
		return "Fee"
	case DataSourceDdg:
		return "Ddg"
	case DataSourceDiu:
		return "Diu"
	case DataSourceSiu:
		return "Siu"
	default:
		return fmt.Sprintf("DataSource(%d)", int(d))
	}
}

// FeatureMask records which optional firmware features are present.
// A "standalone" build of the firmware disables some of these.
type FeatureMask struct {
	Standalone   bool
	FirmwareInfo bool
	Serial       bool
	Temperature  bool
	DataSelection bool
	ChipId       bool
}

// DisabledFeatures lists which of firmware-info, serial-number,
// temperature and data-selection are off, for the construction-time
// debug log a standalone firmware build produces. ChipId is not
// reported.
func (f FeatureMask) DisabledFeatures() []string {
	var disabled []string
	add := func(name string, enabled bool) {
		if !enabled {
			disabled = append(disabled, name)
		}
	}
	add("firmware-info", f.FirmwareInfo)
	add("serial-number", f.Serial)
	add("temperature", f.Temperature)
	add("data-selection", f.DataSelection)
	return disabled
}

// CtrlBar is BAR0: data-taking control and the superpage descriptor
// FIFO.
type CtrlBar interface {
	GetFirmwareFeatures() (FeatureMask, error)
	GetMaxSuperpageDescriptors() (uint32, error)
	SetDataSource(selector uint32) error
	StartDmaEngine() error
	StopDmaEngine() error
	ResetCard() error
	ResetDataGeneratorCounter() error
	ResetInternalCounters() error
	PushSuperpageDescriptor(link LinkId, dmaPages uint32, busAddr uint64) error
	GetSuperpageCount(link LinkId) (uint32, error)
	GetSuperpageSize(link LinkId) (uint32, error)
	GetSuperpageFifoEmptyCounter(link LinkId) (uint32, error)
	GetEndpointNumber() (uint32, error)
	GetDebugModeEnabled() (bool, error)
	SetDebugModeEnabled(enabled bool) error
	DataGeneratorInjectError() error
	Close() error
}

// ConfigBar is BAR2: link enumeration and telemetry.
type ConfigBar interface {
	GetDataTakingLinks() ([]LinkId, error)
	EnableDataTaking() error
	DisableDataTaking() error
	GetDroppedPackets(endpoint uint32) (int32, error)
	GetSerial() (int32, bool, error)
	GetTemperature() (float32, bool, error)
	GetFirmwareInfo() (string, bool, error)
	GetCardId() (string, bool, error)
	ReadRegister(wordIndex uint32) (uint32, error)
	Close() error
}

// Data source selector values written to BAR0, as used by
// CtrlBar.SetDataSource. These mirror the CRU firmware's register
// encoding, as used by the reference codebase's CruBar0.
const (
	DataSourceSelectInternal uint32 = 0x0
	DataSourceSelectGbt      uint32 = 0x1
)
