package bar

import (
	"fmt"
	"math"

	"github.com/sy-c/readoutcard/pkg/barwin"
)

// Feature mask bits within ctrlFeatureMask.
const (
	featureBitStandalone     uint32 = 1 << 0
	featureBitFirmwareInfo   uint32 = 1 << 1
	featureBitSerial         uint32 = 1 << 2
	featureBitTemperature    uint32 = 1 << 3
	featureBitDataSelection  uint32 = 1 << 4
	featureBitChipId         uint32 = 1 << 5
)

// PcieCtrlBar is the real CtrlBar backed by a memory-mapped BAR0.
type PcieCtrlBar struct {
	win *barwin.Window
}

// NewPcieCtrlBar wraps an already-opened BAR0 window.
func NewPcieCtrlBar(win *barwin.Window) *PcieCtrlBar {
	return &PcieCtrlBar{win: win}
}

func (c *PcieCtrlBar) Close() error { return c.win.Close() }

func (c *PcieCtrlBar) GetFirmwareFeatures() (FeatureMask, error) {
	raw, err := c.win.ReadRegister(ctrlFeatureMask)
	if err != nil {
		return FeatureMask{}, err
	}
	return FeatureMask{
		Standalone:    raw&featureBitStandalone != 0,
		FirmwareInfo:  raw&featureBitFirmwareInfo != 0,
		Serial:        raw&featureBitSerial != 0,
		Temperature:   raw&featureBitTemperature != 0,
		DataSelection: raw&featureBitDataSelection != 0,
		ChipId:        raw&featureBitChipId != 0,
	}, nil
}

func (c *PcieCtrlBar) GetMaxSuperpageDescriptors() (uint32, error) {
	return c.win.ReadRegister(ctrlMaxSuperpageDescs)
}

func (c *PcieCtrlBar) SetDataSource(selector uint32) error {
	return c.win.WriteRegister(ctrlDataSourceSelect, selector)
}

func (c *PcieCtrlBar) StartDmaEngine() error {
	return c.win.WriteRegister(ctrlDmaEngineControl, dmaEngineStartBit)
}

func (c *PcieCtrlBar) StopDmaEngine() error {
	return c.win.WriteRegister(ctrlDmaEngineControl, 0)
}

func (c *PcieCtrlBar) ResetCard() error {
	return c.win.WriteRegister(ctrlResetCard, 1)
}

func (c *PcieCtrlBar) ResetDataGeneratorCounter() error {
	return c.win.WriteRegister(ctrlResetDataGenCounter, 1)
}

func (c *PcieCtrlBar) ResetInternalCounters() error {
	return c.win.WriteRegister(ctrlResetInternalCounter, 1)
}

func (c *PcieCtrlBar) PushSuperpageDescriptor(link LinkId, dmaPages uint32, busAddr uint64) error {
	// The real FIFO takes a (link, pageCount, address) descriptor in
	// one burst; this BAR abstraction models the "push" side as two
	// register writes: one encoding the link id and page count, then
	// one carrying the low 32 bits of the bus address.
	word := (uint32(link) << 24) | (dmaPages & 0x00ffffff)
	if err := c.win.WriteRegister(ctrlSuperpageFifoPush, word); err != nil {
		return err
	}
	return c.win.WriteRegister(ctrlSuperpageFifoPush+4, uint32(busAddr))
}

func (c *PcieCtrlBar) GetSuperpageCount(link LinkId) (uint32, error) {
	return c.win.ReadRegister(linkRegister(link, ctrlLinkCountOff))
}

func (c *PcieCtrlBar) GetSuperpageSize(link LinkId) (uint32, error) {
	return c.win.ReadRegister(linkRegister(link, ctrlLinkSizeOff))
}

func (c *PcieCtrlBar) GetSuperpageFifoEmptyCounter(link LinkId) (uint32, error) {
	return c.win.ReadRegister(linkRegister(link, ctrlLinkEmptyFifoOff))
}

func (c *PcieCtrlBar) GetEndpointNumber() (uint32, error) {
	return c.win.ReadRegister(ctrlEndpointNumber)
}

func (c *PcieCtrlBar) GetDebugModeEnabled() (bool, error) {
	v, err := c.win.ReadRegister(ctrlDebugModeEnabled)
	return v != 0, err
}

func (c *PcieCtrlBar) SetDebugModeEnabled(enabled bool) error {
	var v uint32
	if enabled {
		v = 1
	}
	return c.win.WriteRegister(ctrlDebugModeEnabled, v)
}

func (c *PcieCtrlBar) DataGeneratorInjectError() error {
	return c.win.WriteRegister(ctrlInjectError, 1)
}

// PcieConfigBar is the real ConfigBar backed by a memory-mapped BAR2.
type PcieConfigBar struct {
	win      *barwin.Window
	features FeatureMask
}

// NewPcieConfigBar wraps an already-opened BAR2 window. features
// gates which optional telemetry registers a standalone firmware
// build leaves unreadable.
func NewPcieConfigBar(win *barwin.Window, features FeatureMask) *PcieConfigBar {
	return &PcieConfigBar{win: win, features: features}
}

func (c *PcieConfigBar) Close() error { return c.win.Close() }

func (c *PcieConfigBar) GetDataTakingLinks() ([]LinkId, error) {
	bitmap, err := c.win.ReadRegister(configDataTakingBitmap)
	if err != nil {
		return nil, err
	}
	var links []LinkId
	for i := 0; i < 32; i++ {
		if bitmap&(1<<uint(i)) != 0 {
			links = append(links, LinkId(i))
		}
	}
	return links, nil
}

func (c *PcieConfigBar) EnableDataTaking() error {
	bitmap, err := c.win.ReadRegister(configDataTakingBitmap)
	if err != nil {
		return err
	}
	return c.win.WriteRegister(configDataTakingBitmap, bitmap|(1<<31))
}

func (c *PcieConfigBar) DisableDataTaking() error {
	bitmap, err := c.win.ReadRegister(configDataTakingBitmap)
	if err != nil {
		return err
	}
	return c.win.WriteRegister(configDataTakingBitmap, bitmap&^(uint32(1)<<31))
}

func (c *PcieConfigBar) GetDroppedPackets(endpoint uint32) (int32, error) {
	addr := configDroppedPkEp0
	if endpoint == 1 {
		addr = configDroppedPkEp1
	}
	v, err := c.win.ReadRegister(addr)
	return int32(v), err
}

func (c *PcieConfigBar) GetSerial() (int32, bool, error) {
	if !c.features.Serial {
		return 0, false, nil
	}
	v, err := c.win.ReadRegister(configSerial)
	return int32(v), true, err
}

func (c *PcieConfigBar) GetTemperature() (float32, bool, error) {
	if !c.features.Temperature {
		return 0, false, nil
	}
	raw, err := c.win.ReadRegister(configTemperature)
	if err != nil {
		return 0, true, err
	}
	return math.Float32frombits(raw), true, nil
}

func (c *PcieConfigBar) GetFirmwareInfo() (string, bool, error) {
	if !c.features.FirmwareInfo {
		return "", false, nil
	}
	raw, err := c.win.ReadRegister(configFirmwareInfoLo)
	if err != nil {
		return "", true, err
	}
	return fmt.Sprintf("%d.%d.%d", raw>>16, (raw>>8)&0xff, raw&0xff), true, nil
}

func (c *PcieConfigBar) GetCardId() (string, bool, error) {
	if !c.features.ChipId {
		return "", false, nil
	}
	raw, err := c.win.ReadRegister(configCardIdLo)
	if err != nil {
		return "", true, err
	}
	return fmt.Sprintf("%08x", raw), true, nil
}

func (c *PcieConfigBar) ReadRegister(wordIndex uint32) (uint32, error) {
	return c.win.ReadRegister(wordIndex * 4)
}
