package card

import (
	"time"

	"github.com/sy-c/readoutcard/pkg/bar"
	"github.com/sy-c/readoutcard/pkg/superpage"
)

// startDmaSettleDelay is the post-arm settle sleep the firmware needs
// before data taking can be safely enabled.
const startDmaSettleDelay = 10 * time.Millisecond

// resetStepDelay separates the three steps of the card reset sequence.
const resetStepDelay = 100 * time.Millisecond

// StartDma arms the DMA engine and begins data taking. Calling it
// while already Started is a no-op that logs a warning.
func (c *DmaChannel) StartDma() error {
	if c.state == stateStarted {
		c.log.Warn("startDma called while already started")
		return nil
	}

	gbt := c.dataSource != DataSourceInternal
	if !gbt {
		enabled, err := c.ctrl.GetDebugModeEnabled()
		if err != nil {
			return c.wrapErr(KindUnsupportedCard, "reading debug mode", err)
		}
		if !enabled {
			c.debugRegisterDirty = true
		}
		if err := c.ctrl.SetDebugModeEnabled(true); err != nil {
			return c.wrapErr(KindUnsupportedCard, "enabling debug mode", err)
		}
	}

	if c.features.DataSelection {
		sel := bar.DataSourceSelectGbt
		if !gbt {
			sel = bar.DataSourceSelectInternal
		}
		if err := c.ctrl.SetDataSource(sel); err != nil {
			return c.wrapErr(KindUnsupportedCard, "selecting data source", err)
		}
	} else {
		c.log.Warn("firmware does not support data selection; selector write was skipped")
	}

	if gbt {
		if err := c.config.DisableDataTaking(); err != nil {
			return c.wrapErr(KindUnsupportedCard, "disabling data taking before reset", err)
		}
	}

	if err := c.resetCru(); err != nil {
		return err
	}

	c.readyQueue.DrainAll()
	for _, l := range c.links {
		l.queue.DrainAll()
		l.superpageCounter = 0
	}
	c.linkQueuesTotalAvailable = int64(c.cLink) * int64(len(c.links))

	if err := c.ctrl.StartDmaEngine(); err != nil {
		return c.wrapErr(KindUnsupportedCard, "arming DMA engine", err)
	}
	time.Sleep(startDmaSettleDelay)

	if gbt {
		if err := c.config.EnableDataTaking(); err != nil {
			return c.wrapErr(KindUnsupportedCard, "enabling data taking", err)
		}
	}

	c.state = stateStarted
	return nil
}

// resetCru is the card reset sequence shared by StartDma and
// ResetChannel(Internal).
func (c *DmaChannel) resetCru() error {
	if err := c.ctrl.ResetDataGeneratorCounter(); err != nil {
		return c.wrapErr(KindUnsupportedCard, "resetting data generator counter", err)
	}
	time.Sleep(resetStepDelay)
	if err := c.ctrl.ResetCard(); err != nil {
		return c.wrapErr(KindUnsupportedCard, "resetting card", err)
	}
	time.Sleep(resetStepDelay)
	if err := c.ctrl.ResetInternalCounters(); err != nil {
		return c.wrapErr(KindUnsupportedCard, "resetting internal counters", err)
	}
	return nil
}

// PushSuperpage accepts a client-built superpage request, validates
// it, and dispatches it to the least-loaded link. Returns (false, nil)
// if the channel is not Started.
func (c *DmaChannel) PushSuperpage(p superpage.Page) (bool, error) {
	if c.state != stateStarted {
		return false, nil
	}

	if err := superpage.Validate(p, c.buffer.Size(), c.dmaPageSize); err != nil {
		return false, c.wrapErr(KindSuperpage, "invalid superpage", err)
	}

	if c.linkQueuesTotalAvailable == 0 {
		return false, c.newErr(KindQueueFull, "transfer queue full")
	}

	l := c.linkByIndex(c.findLeastLoaded())
	if l.queue.IsFull() {
		return false, c.newErr(KindQueueFull, "link queue full")
	}

	if err := l.queue.PushBack(p); err != nil {
		return false, c.wrapErr(KindQueueFull, "link queue full", err)
	}
	c.linkQueuesTotalAvailable--

	dmaPages := uint32(p.Size / c.dmaPageSize)
	busAddr := c.buffer.BusOffsetAddress(p.Offset)
	if err := c.ctrl.PushSuperpageDescriptor(bar.LinkId(l.id), dmaPages, busAddr); err != nil {
		return false, c.wrapErr(KindUnsupportedCard, "pushing superpage descriptor", err)
	}

	c.firstSuperpagePushed = true
	return true, nil
}

// FillSuperpages harvests completions from every link in enumeration
// order, transferring them to the ready queue.
func (c *DmaChannel) FillSuperpages() error {
	for _, l := range c.links {
		if err := c.fillOneLink(l); err != nil {
			return err
		}
	}
	return nil
}

func (c *DmaChannel) fillOneLink(l *link) error {
	hwCount, err := c.ctrl.GetSuperpageCount(bar.LinkId(l.id))
	if err != nil {
		return c.wrapErr(KindUnsupportedCard, "reading superpage count", err)
	}

	available := int64(hwCount) - int64(l.superpageCounter)
	if available < 0 {
		available = 0
	}
	if available > int64(l.queue.Size()) {
		return c.newFieldErr(KindFirmwareInvariantViolation,
			"firmware reports more completions than were ever pushed on this link", "linkId", int64(l.id))
	}

	for available > 0 {
		if c.readyQueue.IsFull() {
			// Back-pressure the card; the next fillSuperpages call
			// resumes from here.
			return nil
		}
		if err := c.transferToReady(l, false); err != nil {
			return err
		}
		available--
	}
	return nil
}

// transferToReady is the link-to-ready transfer helper. reclaim=false
// marks the superpage as completed by hardware; reclaim=true returns
// it unfilled, for StopDma's drain.
func (c *DmaChannel) transferToReady(l *link, reclaim bool) error {
	p, err := l.queue.FrontPeek()
	if err != nil {
		return c.wrapErr(KindQueueEmpty, "link queue empty during transfer", err)
	}

	if reclaim {
		p.Ready = false
		p.Received = 0
	} else {
		p.Ready = true
		hwSize, err := c.ctrl.GetSuperpageSize(bar.LinkId(l.id))
		if err != nil {
			return c.wrapErr(KindUnsupportedCard, "reading superpage size", err)
		}
		if hwSize == 0 {
			p.Received = p.Size
		} else {
			p.Received = uint64(hwSize)
		}
	}
	p.LinkId = l.id

	if err := c.readyQueue.PushBack(p); err != nil {
		return c.wrapErr(KindQueueFull, "ready queue full", err)
	}
	if _, err := l.queue.PopFront(); err != nil {
		return c.wrapErr(KindQueueEmpty, "link queue empty during transfer", err)
	}
	l.superpageCounter++
	c.linkQueuesTotalAvailable++
	return nil
}

// GetSuperpage peeks the head of the ready queue without removing it.
func (c *DmaChannel) GetSuperpage() (superpage.Page, error) {
	p, err := c.readyQueue.FrontPeek()
	if err != nil {
		return superpage.Page{}, c.wrapErr(KindQueueEmpty, "ready queue empty", err)
	}
	return p, nil
}

// PopSuperpage removes and returns the head of the ready queue.
func (c *DmaChannel) PopSuperpage() (superpage.Page, error) {
	p, err := c.readyQueue.PopFront()
	if err != nil {
		return superpage.Page{}, c.wrapErr(KindQueueEmpty, "ready queue empty", err)
	}
	return p, nil
}

// StopDma disarms the DMA engine, drains any latched completions, and
// reclaims every in-flight superpage without loss. A second call
// after StopDma is a no-op.
func (c *DmaChannel) StopDma() error {
	if c.state != stateStarted {
		return nil
	}

	if err := c.ctrl.StopDmaEngine(); err != nil {
		return c.wrapErr(KindUnsupportedCard, "disarming DMA engine", err)
	}
	if err := c.config.DisableDataTaking(); err != nil {
		return c.wrapErr(KindUnsupportedCard, "disabling data taking", err)
	}

	if err := c.FillSuperpages(); err != nil {
		return err
	}

	for _, l := range c.links {
		for !l.queue.IsEmpty() {
			if err := c.transferToReady(l, true); err != nil {
				return err
			}
		}
	}

	c.state = stateStopped
	return nil
}

// ResetChannel applies level to the channel.
func (c *DmaChannel) ResetChannel(level ResetLevel) error {
	switch level {
	case ResetNothing:
		return nil
	case ResetInternal:
		if c.state != stateStopped {
			return c.newErr(KindState, "reset requires the channel to be stopped")
		}
		return c.resetCru()
	default:
		return c.newErr(KindParameter, "CRU supports only internal reset")
	}
}
