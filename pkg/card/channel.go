// Package card implements the DMA channel engine: the multi-link
// superpage scheduler, its bookkeeping queues, card lifecycle
// (start/stop/reset), and the construction-time buffer validation
// that together drive one CRU DMA channel.
package card

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sy-c/readoutcard/pkg/bar"
	"github.com/sy-c/readoutcard/pkg/barwin"
	"github.com/sy-c/readoutcard/pkg/bufprovider"
	"github.com/sy-c/readoutcard/pkg/cardid"
	"github.com/sy-c/readoutcard/pkg/superpage"
)

// dmaState is the channel's lifecycle state.
type dmaState int

const (
	stateUnknown dmaState = iota
	stateStopped
	stateStarted
)

func (s dmaState) String() string {
	switch s {
	case stateStopped:
		return "Stopped"
	case stateStarted:
		return "Started"
	default:
		return "Unknown"
	}
}

// bytesPerSanitySegment bounds the scatter-gather sanity check: a
// buffer backed by neither hugepages nor an IOMMU fragments into
// roughly one segment per base page, so a genuinely contiguous (or
// IOMMU-assembled) buffer should need far fewer than one segment per
// 2 MiB.
const bytesPerSanitySegment = 2 * 1024 * 1024

// DmaChannel owns the link table, the ready queue, and the BAR
// handles for one CRU DMA channel, and exposes PushSuperpage/
// FillSuperpages/Get-PopSuperpage/StartDma/StopDma/ResetChannel plus
// telemetry, mirroring the reference codebase's CruDmaChannel.
type DmaChannel struct {
	prefix        string
	cardId        cardid.CardId
	channelNumber int

	ctrl   bar.CtrlBar
	config bar.ConfigBar
	buffer bufprovider.Provider

	dmaPageSize uint64
	dataSource  DataSource
	features    bar.FeatureMask

	links      []*link
	cLink      int
	cReady     int
	readyQueue *superpage.Queue

	linkQueuesTotalAvailable int64

	state                dmaState
	firstSuperpagePushed bool
	debugRegisterDirty   bool
	emptyFifoCounters    map[LinkId]uint32

	healthLimiter *rate.Limiter
	log           *logrus.Entry
}

// Open resolves params.CardId to a physical PCIe device, opens its
// BAR0/BAR2 windows, and constructs a DmaChannel against them. Use New
// directly, against a bar.CtrlBar/bar.ConfigBar pair of the caller's
// choosing (real or simulated), to skip PCI resolution entirely.
func Open(params Parameters, scanner *cardid.Scanner) (*DmaChannel, error) {
	prefix := channelPrefix(params.CardId, params.ChannelNumber)

	desc, err := resolveDescriptor(params.CardId, scanner)
	if err != nil {
		return nil, wrapError(prefix, KindParameter, "resolving card id", err)
	}

	ctrl, config, err := openBars(desc)
	if err != nil {
		return nil, wrapError(prefix, KindUnsupportedCard, "opening BARs", err)
	}

	ch, err := New(params, ctrl, config)
	if err != nil {
		ctrl.Close()
		config.Close()
		return nil, err
	}
	return ch, nil
}

// resolveDescriptor resolves id to a CardDescriptor. A serial-tagged id
// has no sysfs-visible form, so it is resolved by probing every
// candidate's BAR2 serial register in turn, the way the reference
// codebase's card-by-serial lookup walks every enumerated card asking
// for its serial before settling on one.
func resolveDescriptor(id cardid.CardId, scanner *cardid.Scanner) (cardid.CardDescriptor, error) {
	if !id.HasSerial {
		return scanner.Resolve(id)
	}
	return scanner.ResolveBySerial(id, func(candidate cardid.CardDescriptor) (int32, bool, error) {
		ctrl, config, err := openBars(candidate)
		if err != nil {
			return 0, false, err
		}
		defer ctrl.Close()
		defer config.Close()
		return config.GetSerial()
	})
}

// openBars opens BAR0 and BAR2 for desc and wraps them as bar.CtrlBar
// and bar.ConfigBar, closing whatever it already opened on failure.
func openBars(desc cardid.CardDescriptor) (bar.CtrlBar, bar.ConfigBar, error) {
	ctrlWin, err := barwin.Open(desc.SysfsPath, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("opening BAR0: %w", err)
	}
	configWin, err := barwin.Open(desc.SysfsPath, 2)
	if err != nil {
		ctrlWin.Close()
		return nil, nil, fmt.Errorf("opening BAR2: %w", err)
	}

	ctrl := bar.NewPcieCtrlBar(ctrlWin)
	features, err := ctrl.GetFirmwareFeatures()
	if err != nil {
		ctrlWin.Close()
		configWin.Close()
		return nil, nil, fmt.Errorf("reading firmware features: %w", err)
	}
	config := bar.NewPcieConfigBar(configWin, features)
	return ctrl, config, nil
}

// New performs the construction-time pre-flight (firmware feature and
// link enumeration, buffer validation) against an already-opened BAR
// pair, and leaves the returned channel in the Stopped state. ctrl and
// config may be real (pkg/bar.PcieCtrlBar/PcieConfigBar) or simulated
// (pkg/bar.SimCtrlBar/SimConfigBar).
func New(params Parameters, ctrl bar.CtrlBar, config bar.ConfigBar) (*DmaChannel, error) {
	prefix := channelPrefix(params.CardId, params.ChannelNumber)
	log := logrus.WithFields(logrus.Fields{"card": params.CardId.String(), "channel": params.ChannelNumber})

	if err := params.validate(); err != nil {
		return nil, err
	}

	buffer, err := params.acquireBuffer()
	if err != nil {
		return nil, err
	}

	ch, err := newChannelCore(prefix, params, ctrl, config, buffer, log)
	if err != nil {
		buffer.Close()
		return nil, err
	}
	return ch, nil
}

func newChannelCore(prefix string, params Parameters, ctrl bar.CtrlBar, config bar.ConfigBar, buffer bufprovider.Provider, log *logrus.Entry) (*DmaChannel, error) {
	dmaPageSize := params.effectiveDmaPageSize()
	if dmaPageSize != defaultDmaPageSize {
		log.Warnf("dma page size %d is not the default %d; behavior is unsupported, not specified", dmaPageSize, defaultDmaPageSize)
	}

	features, err := ctrl.GetFirmwareFeatures()
	if err != nil {
		return nil, wrapError(prefix, KindUnsupportedCard, "reading firmware features", err)
	}
	if features.Standalone {
		if disabled := features.DisabledFeatures(); len(disabled) > 0 {
			log.Debugf("standalone firmware build, disabled features: %v", disabled)
		}
	}

	maxSuperpageDescriptors, err := ctrl.GetMaxSuperpageDescriptors()
	if err != nil {
		return nil, wrapError(prefix, KindUnsupportedCard, "reading max superpage descriptors", err)
	}
	cLink := int(maxSuperpageDescriptors)
	if cLink == 0 {
		cLink = fallbackMaxSuperpageDescriptors
	}

	linkIds, err := config.GetDataTakingLinks()
	if err != nil {
		return nil, wrapError(prefix, KindNoLinksEnabled, "reading data taking links", err)
	}
	if len(linkIds) == 0 {
		return nil, newError(prefix, KindNoLinksEnabled, "no links enabled")
	}
	if len(linkIds) > maxLinks {
		return nil, newFieldError(prefix, KindUnsupportedCard, "more links than supported", "links", int64(len(linkIds)))
	}

	links := make([]*link, 0, len(linkIds))
	for _, id := range linkIds {
		links = append(links, newLink(LinkId(id), cLink))
	}
	cReady := cLink * len(links)
	readyQueue := superpage.NewQueue(cReady)

	if err := checkScatterGather(prefix, buffer); err != nil {
		return nil, err
	}
	if err := checkMemoryMapping(prefix, buffer, log); err != nil {
		return nil, err
	}

	ch := &DmaChannel{
		prefix:                   prefix,
		cardId:                   params.CardId,
		channelNumber:            params.ChannelNumber,
		ctrl:                     ctrl,
		config:                   config,
		buffer:                   buffer,
		dmaPageSize:              dmaPageSize,
		dataSource:               params.DataSource,
		features:                 features,
		links:                    links,
		cLink:                    cLink,
		cReady:                   cReady,
		readyQueue:               readyQueue,
		linkQueuesTotalAvailable: int64(cLink) * int64(len(links)),
		state:                    stateStopped,
		emptyFifoCounters:        make(map[LinkId]uint32, len(links)),
		healthLimiter:            rate.NewLimiter(rate.Every(10*time.Second), 1),
		log:                      log,
	}
	return ch, nil
}

// checkScatterGather rejects a buffer whose scatter-gather list is too
// fragmented for the DMA engine to walk efficiently.
func checkScatterGather(prefix string, buffer bufprovider.Provider) error {
	size := buffer.Size()
	if size == 0 {
		return nil
	}
	sgListSize, err := buffer.ScatterGatherListSize()
	if err != nil {
		return wrapError(prefix, KindBufferConfig, "computing scatter-gather list size", err)
	}
	limit := size / bytesPerSanitySegment
	if limit == 0 {
		limit = 1
	}
	if uint64(sgListSize) > limit {
		return newFieldError(prefix, KindBufferConfig,
			"scatter-gather list implies no IOMMU and no hugepages", "sgListSize", int64(sgListSize))
	}
	return nil
}

// checkMemoryMapping rejects a buffer that is backed by neither
// hugepages nor an IOMMU, mirroring the reference codebase's
// validateBufferSize guard against silently fragmented DMA transfers.
func checkMemoryMapping(prefix string, buffer bufprovider.Provider, log *logrus.Entry) error {
	if buffer.Size() == 0 {
		return nil
	}
	kib, found, err := bufprovider.PageSizeKiBForAddress(buffer.Address())
	if err != nil {
		log.Warnf("could not inspect memory mapping: %v", err)
		return nil
	}
	if !found {
		log.Warn("buffer address not found in process memory map")
		return nil
	}
	if kib > 4 {
		log.Debugf("buffer is hugepage-backed (%d KiB pages)", kib)
		return nil
	}
	if bufprovider.IommuEnabled() {
		log.Warn("buffer is not hugepage-backed, but IOMMU is enabled; continuing")
		return nil
	}
	return newError(prefix, KindBufferConfig,
		"buffer is not hugepage-backed and IOMMU is disabled; run roc-setup-hugetlbfs")
}

// Close stops DMA if still running, clears debug mode if this channel
// set it, logs any entries left in the ready queue, and releases the
// buffer and BAR handles, mirroring CruDmaChannel's destructor.
func (c *DmaChannel) Close() error {
	if c.state == stateStarted {
		if err := c.StopDma(); err != nil {
			c.log.Errorf("stopDma during close: %v", err)
		}
	}
	if c.debugRegisterDirty {
		if err := c.ctrl.SetDebugModeEnabled(false); err != nil {
			c.log.Errorf("clearing debug mode during close: %v", err)
		}
		c.debugRegisterDirty = false
	}
	if c.readyQueue.Size() > 0 {
		c.log.Infof("closing channel with %d unconsumed superpages in the ready queue", c.readyQueue.Size())
	}

	var firstErr error
	if err := c.ctrl.Close(); err != nil {
		firstErr = err
	}
	if err := c.config.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := c.buffer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (c *DmaChannel) linkByIndex(i int) *link { return c.links[i] }

func (c *DmaChannel) findLeastLoaded() int {
	best := 0
	for i := 1; i < len(c.links); i++ {
		if c.links[i].queue.Size() < c.links[best].queue.Size() {
			best = i
		}
	}
	return best
}

func (c *DmaChannel) newErr(kind Kind, message string) *Error {
	return newError(c.prefix, kind, message)
}

func (c *DmaChannel) newFieldErr(kind Kind, message, field string, value int64) *Error {
	return newFieldError(c.prefix, kind, message, field, value)
}

func (c *DmaChannel) wrapErr(kind Kind, message string, cause error) *Error {
	return wrapError(c.prefix, kind, message, cause)
}
