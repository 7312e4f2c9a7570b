package bar

import "sync"

// SimCtrlBar is an in-memory stand-in for BAR0, used by card package
// tests. It lets a
// test script advance per-link counters the way real firmware would,
// asynchronously with respect to the driver thread.
type SimCtrlBar struct {
	mu sync.Mutex

	Features               FeatureMask
	MaxSuperpageDescriptors uint32
	DataSource             uint32
	DmaEngineStarted       bool
	ResetCount             int
	DebugModeEnabled       bool
	Endpoint               uint32
	InjectedErrors         int

	superpageCount      map[LinkId]uint32
	superpageSize       map[LinkId]uint32
	emptyFifoCounter    map[LinkId]uint32
	pushedDescriptors   []PushedDescriptor
}

// PushedDescriptor records one call to PushSuperpageDescriptor, for
// assertions in tests.
type PushedDescriptor struct {
	Link     LinkId
	DmaPages uint32
	BusAddr  uint64
}

// NewSimCtrlBar creates a simulated BAR0 with the given feature mask
// and max descriptor count.
func NewSimCtrlBar(features FeatureMask, maxSuperpageDescriptors uint32) *SimCtrlBar {
	return &SimCtrlBar{
		Features:                features,
		MaxSuperpageDescriptors: maxSuperpageDescriptors,
		superpageCount:          make(map[LinkId]uint32),
		superpageSize:           make(map[LinkId]uint32),
		emptyFifoCounter:        make(map[LinkId]uint32),
	}
}

func (s *SimCtrlBar) Close() error { return nil }

func (s *SimCtrlBar) GetFirmwareFeatures() (FeatureMask, error) {
	return s.Features, nil
}

func (s *SimCtrlBar) GetMaxSuperpageDescriptors() (uint32, error) {
	return s.MaxSuperpageDescriptors, nil
}

func (s *SimCtrlBar) SetDataSource(selector uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DataSource = selector
	return nil
}

func (s *SimCtrlBar) StartDmaEngine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DmaEngineStarted = true
	return nil
}

func (s *SimCtrlBar) StopDmaEngine() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DmaEngineStarted = false
	return nil
}

func (s *SimCtrlBar) ResetCard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ResetCount++
	return nil
}

func (s *SimCtrlBar) ResetDataGeneratorCounter() error { return nil }

func (s *SimCtrlBar) ResetInternalCounters() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for link := range s.superpageCount {
		s.superpageCount[link] = 0
	}
	return nil
}

func (s *SimCtrlBar) PushSuperpageDescriptor(link LinkId, dmaPages uint32, busAddr uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushedDescriptors = append(s.pushedDescriptors, PushedDescriptor{Link: link, DmaPages: dmaPages, BusAddr: busAddr})
	return nil
}

// PushedDescriptors returns a copy of the descriptors pushed so far.
func (s *SimCtrlBar) PushedDescriptors() []PushedDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PushedDescriptor, len(s.pushedDescriptors))
	copy(out, s.pushedDescriptors)
	return out
}

// CompleteSuperpage simulates the card finishing one more superpage
// on link, advancing its hardware completion counter by one and
// recording the filled size it will report via GetSuperpageSize.
func (s *SimCtrlBar) CompleteSuperpage(link LinkId, filledSize uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.superpageCount[link]++
	s.superpageSize[link] = filledSize
}

func (s *SimCtrlBar) GetSuperpageCount(link LinkId) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.superpageCount[link], nil
}

func (s *SimCtrlBar) GetSuperpageSize(link LinkId) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.superpageSize[link], nil
}

// SetEmptyFifoCounter lets a test simulate the FIFO-empty stall
// counter advancing.
func (s *SimCtrlBar) SetEmptyFifoCounter(link LinkId, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emptyFifoCounter[link] = value
}

func (s *SimCtrlBar) GetSuperpageFifoEmptyCounter(link LinkId) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emptyFifoCounter[link], nil
}

func (s *SimCtrlBar) GetEndpointNumber() (uint32, error) {
	return s.Endpoint, nil
}

func (s *SimCtrlBar) GetDebugModeEnabled() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DebugModeEnabled, nil
}

func (s *SimCtrlBar) SetDebugModeEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DebugModeEnabled = enabled
	return nil
}

func (s *SimCtrlBar) DataGeneratorInjectError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.InjectedErrors++
	return nil
}

// SimConfigBar is an in-memory stand-in for BAR2.
type SimConfigBar struct {
	mu sync.Mutex

	Links           []LinkId
	DataTaking      bool
	DroppedPackets  map[uint32]int32
	Serial          int32
	HasSerial       bool
	Temperature     float32
	HasTemperature  bool
	FirmwareInfo    string
	HasFirmwareInfo bool
	CardId          string
	HasCardId       bool
	Registers       map[uint32]uint32
}

// NewSimConfigBar creates a simulated BAR2 enumerating the given
// links.
func NewSimConfigBar(links []LinkId) *SimConfigBar {
	return &SimConfigBar{
		Links:          links,
		DroppedPackets: make(map[uint32]int32),
		Registers:      make(map[uint32]uint32),
	}
}

func (s *SimConfigBar) Close() error { return nil }

func (s *SimConfigBar) GetDataTakingLinks() ([]LinkId, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LinkId, len(s.Links))
	copy(out, s.Links)
	return out, nil
}

func (s *SimConfigBar) EnableDataTaking() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DataTaking = true
	return nil
}

func (s *SimConfigBar) DisableDataTaking() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DataTaking = false
	return nil
}

func (s *SimConfigBar) GetDroppedPackets(endpoint uint32) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.DroppedPackets[endpoint], nil
}

func (s *SimConfigBar) GetSerial() (int32, bool, error) {
	return s.Serial, s.HasSerial, nil
}

func (s *SimConfigBar) GetTemperature() (float32, bool, error) {
	return s.Temperature, s.HasTemperature, nil
}

func (s *SimConfigBar) GetFirmwareInfo() (string, bool, error) {
	return s.FirmwareInfo, s.HasFirmwareInfo, nil
}

func (s *SimConfigBar) GetCardId() (string, bool, error) {
	return s.CardId, s.HasCardId, nil
}

// SetRegister lets a test pre-load a word for ReadRegister, e.g. the
// first-orbit counter registers OrbitCounterWord resolves.
func (s *SimConfigBar) SetRegister(wordIndex uint32, value uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Registers[wordIndex] = value
}

func (s *SimConfigBar) ReadRegister(wordIndex uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Registers[wordIndex], nil
}
