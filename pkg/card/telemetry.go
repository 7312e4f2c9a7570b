package card

import "github.com/sy-c/readoutcard/pkg/bar"

// Endpoint identifies one of the two independent DMA engines on the
// card.
type Endpoint uint32

const (
	Endpoint0 Endpoint = 0
	Endpoint1 Endpoint = 1
)

// AreSuperpageFifosHealthy checks every link's empty-FIFO counter for
// an increase since the last check, logging (rate-limited) and
// returning false if any link stalled.
func (c *DmaChannel) AreSuperpageFifosHealthy() bool {
	if c.state != stateStarted || !c.firstSuperpagePushed {
		return true
	}

	healthy := true
	for _, l := range c.links {
		current, err := c.ctrl.GetSuperpageFifoEmptyCounter(bar.LinkId(l.id))
		if err != nil {
			c.log.Errorf("reading empty FIFO counter for link %d: %v", l.id, err)
			continue
		}
		previous, seen := c.emptyFifoCounters[l.id]
		if seen && current > previous {
			if c.healthLimiter.Allow() {
				c.log.Warnf("link %d superpage FIFO emptied at least once since last check", l.id)
			}
			healthy = false
		}
		c.emptyFifoCounters[l.id] = current
	}
	return healthy
}

// GetTransferQueueAvailable returns the aggregate free slots across
// every link queue.
func (c *DmaChannel) GetTransferQueueAvailable() int64 { return c.linkQueuesTotalAvailable }

// IsTransferQueueEmpty reports whether no superpage is currently
// in flight on any link.
func (c *DmaChannel) IsTransferQueueEmpty() bool {
	return c.linkQueuesTotalAvailable == int64(c.cLink)*int64(len(c.links))
}

// GetReadyQueueSize returns the number of completed superpages
// waiting to be popped.
func (c *DmaChannel) GetReadyQueueSize() int { return c.readyQueue.Size() }

// IsReadyQueueFull reports whether the ready queue is at capacity.
func (c *DmaChannel) IsReadyQueueFull() bool { return c.readyQueue.IsFull() }

// GetDroppedPackets reads BAR2's dropped-packet counter for the
// endpoint BAR0 reports this channel as wired to.
func (c *DmaChannel) GetDroppedPackets() (int32, error) {
	endpoint, err := c.ctrl.GetEndpointNumber()
	if err != nil {
		return 0, c.wrapErr(KindUnsupportedCard, "reading endpoint number", err)
	}
	v, err := c.config.GetDroppedPackets(endpoint)
	if err != nil {
		return 0, c.wrapErr(KindUnsupportedCard, "reading dropped packets", err)
	}
	return v, nil
}

// GetSerial returns the card's serial number, or ok=false if the
// firmware feature is absent.
func (c *DmaChannel) GetSerial() (int32, bool, error) {
	if !c.features.Serial {
		return 0, false, nil
	}
	v, ok, err := c.config.GetSerial()
	if err != nil {
		return 0, false, c.wrapErr(KindUnsupportedCard, "reading serial", err)
	}
	return v, ok, nil
}

// GetTemperature returns the card's temperature reading, or ok=false
// if the firmware feature is absent.
func (c *DmaChannel) GetTemperature() (float32, bool, error) {
	if !c.features.Temperature {
		return 0, false, nil
	}
	v, ok, err := c.config.GetTemperature()
	if err != nil {
		return 0, false, c.wrapErr(KindUnsupportedCard, "reading temperature", err)
	}
	return v, ok, nil
}

// GetFirmwareInfo returns the card's firmware version string, or
// ok=false if the firmware feature is absent.
func (c *DmaChannel) GetFirmwareInfo() (string, bool, error) {
	if !c.features.FirmwareInfo {
		return "", false, nil
	}
	v, ok, err := c.config.GetFirmwareInfo()
	if err != nil {
		return "", false, c.wrapErr(KindUnsupportedCard, "reading firmware info", err)
	}
	return v, ok, nil
}

// GetCardId returns the card's chip id, or ok=false if the firmware
// feature is absent.
func (c *DmaChannel) GetCardId() (string, bool, error) {
	if !c.features.ChipId {
		return "", false, nil
	}
	v, ok, err := c.config.GetCardId()
	if err != nil {
		return "", false, c.wrapErr(KindUnsupportedCard, "reading card id", err)
	}
	return v, ok, nil
}

// GetCounterFirstOrbit reads the first-orbit counter for ep, or -1 for
// any endpoint other than 0 or 1.
func (c *DmaChannel) GetCounterFirstOrbit(ep Endpoint) (int64, error) {
	word, ok := bar.OrbitCounterWord(uint32(ep))
	if !ok {
		return -1, nil
	}
	v, err := c.config.ReadRegister(word)
	if err != nil {
		return -1, c.wrapErr(KindUnsupportedCard, "reading orbit counter", err)
	}
	return int64(v), nil
}

// InjectError tells the card's data generator to inject a
// corruption, but only when the channel is not sourcing from Fee
// hardware. The original CruDmaChannel::injectError's equivalent
// check reads "!mDataSource == DataSource::Fee", almost certainly a
// typo for "mDataSource != DataSource::Fee"; this implements the
// corrected comparison.
func (c *DmaChannel) InjectError() (bool, error) {
	if c.dataSource == DataSourceFee {
		return false, nil
	}
	if err := c.ctrl.DataGeneratorInjectError(); err != nil {
		return false, c.wrapErr(KindUnsupportedCard, "injecting error", err)
	}
	return true, nil
}
