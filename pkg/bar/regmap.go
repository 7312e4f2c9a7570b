package bar

// Register byte offsets within BAR0 (CtrlBar) and BAR2 (ConfigBar).
// The orbit counter addresses are fixed by the firmware's register
// map; the rest follow the same per-endpoint layout style.
const (
	ctrlFeatureMask          uint32 = 0x00
	ctrlMaxSuperpageDescs    uint32 = 0x04
	ctrlDataSourceSelect     uint32 = 0x08
	ctrlDmaEngineControl     uint32 = 0x0c
	ctrlResetCard            uint32 = 0x10
	ctrlResetDataGenCounter  uint32 = 0x14
	ctrlResetInternalCounter uint32 = 0x18
	ctrlEndpointNumber       uint32 = 0x1c
	ctrlDebugModeEnabled     uint32 = 0x20
	ctrlInjectError          uint32 = 0x24
	ctrlSuperpageFifoPush    uint32 = 0x28 // descriptor write port

	// Per-link register banks, indexed by LinkId starting at
	// ctrlLinkBankBase + linkId*ctrlLinkBankStride.
	ctrlLinkBankBase      uint32 = 0x1000
	ctrlLinkBankStride    uint32 = 0x10
	ctrlLinkCountOff      uint32 = 0x0
	ctrlLinkSizeOff       uint32 = 0x4
	ctrlLinkEmptyFifoOff  uint32 = 0x8

	configDataTakingBitmap uint32 = 0x00
	configDroppedPkEp0     uint32 = 0x04
	configDroppedPkEp1     uint32 = 0x08
	configSerial           uint32 = 0x0c
	configTemperature      uint32 = 0x10
	configFirmwareInfoLo   uint32 = 0x14
	configCardIdLo         uint32 = 0x18

	// DMA engine control bits.
	dmaEngineStartBit uint32 = 1 << 0

	// Orbit counter addresses are byte addresses into BAR2; register
	// access is 32-bit, hence the /4 in OrbitCounterWord.
	orbitCounterEndpoint0 uint32 = 0x64002C
	orbitCounterEndpoint1 uint32 = 0x74002C
)

func linkRegister(link LinkId, fieldOffset uint32) uint32 {
	return ctrlLinkBankBase + uint32(link)*ctrlLinkBankStride + fieldOffset
}

// OrbitCounterWord returns BAR2's 32-bit register index holding the
// first-orbit counter for endpoint, and whether endpoint names one of
// the CRU's two DMA engines. Register access is 32-bit, hence the /4
// against the byte addresses above.
func OrbitCounterWord(endpoint uint32) (uint32, bool) {
	switch endpoint {
	case 0:
		return orbitCounterEndpoint0 / 4, true
	case 1:
		return orbitCounterEndpoint1 / 4, true
	default:
		return 0, false
	}
}
