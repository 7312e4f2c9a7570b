// Package cardid resolves a CardId (the tagged value a caller supplies
// in Parameters.cardId) to a CardDescriptor naming the sysfs path of a
// specific PCIe device, the way the reference codebase's pkg/device
// resolves a Hailo chardev name to a device path before opening it.
package cardid

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CardId is the tagged union accepted by Parameters.cardId: exactly one
// of Serial, Address, or SequenceNumber is set.
type CardId struct {
	Serial         int32
	HasSerial      bool
	Address        string // "DDDD:BB:DD.F"
	SequenceNumber int
	HasSequence    bool
}

// FromSerial builds a CardId identifying a card by its serial number.
func FromSerial(serial int32) CardId { return CardId{Serial: serial, HasSerial: true} }

// FromAddress builds a CardId identifying a card by PCI address.
func FromAddress(address string) CardId { return CardId{Address: address} }

// FromSequenceNumber builds a CardId identifying the Nth enumerated
// card (0-based), independent of serial or bus address.
func FromSequenceNumber(n int) CardId { return CardId{SequenceNumber: n, HasSequence: true} }

func (c CardId) String() string {
	switch {
	case c.HasSerial:
		return fmt.Sprintf("serial=%d", c.Serial)
	case c.Address != "":
		return fmt.Sprintf("address=%s", c.Address)
	case c.HasSequence:
		return fmt.Sprintf("sequence=%d", c.SequenceNumber)
	default:
		return "unset"
	}
}

// CardDescriptor names a resolved PCIe card: its sysfs device
// directory, under which pkg/card opens BAR0 and BAR2 with
// pkg/barwin, and its PCI address. This is the output of
// createCardDescriptor in the original implementation.
type CardDescriptor struct {
	SysfsPath string // e.g. "/sys/bus/pci/devices/0000:01:00.0"
	Address   string // "DDDD:BB:DD.F"
}

// pciAddressPattern matches a PCI address of the form
// "DDDD:BB:DD.F" (domain:bus:device.function).
var pciAddressPattern = regexp.MustCompile(`^[0-9a-fA-F]{4}:[0-9a-fA-F]{2}:[0-9a-fA-F]{2}\.[0-9a-fA-F]$`)

// ValidateAddress reports whether address is a well-formed PCI address.
func ValidateAddress(address string) bool {
	return pciAddressPattern.MatchString(address)
}

// Scanner enumerates CRU cards under sysfs, falling back to nothing if
// sysfs is unavailable (e.g. running under a container without a PCI
// bus mounted) rather than guessing /dev paths, since a CRU has no
// fixed chardev naming convention the way a Hailo accelerator does.
type Scanner struct {
	sysfsPath string
	vendorId  string
	deviceIds []string
}

// NewScanner creates a Scanner for devices matching vendorId and any
// of deviceIds (lowercase hex, no "0x" prefix), searched under
// /sys/bus/pci/devices.
func NewScanner(vendorId string, deviceIds []string) *Scanner {
	return &Scanner{
		sysfsPath: "/sys/bus/pci/devices",
		vendorId:  strings.ToLower(vendorId),
		deviceIds: deviceIds,
	}
}

// Scan lists every matching card, ordered by PCI address, for use by
// sequence-number resolution and by ResolveBySerial.
func (s *Scanner) Scan() ([]CardDescriptor, error) {
	entries, err := os.ReadDir(s.sysfsPath)
	if err != nil {
		return nil, fmt.Errorf("cardid: read %s: %w", s.sysfsPath, err)
	}

	var found []CardDescriptor
	for _, entry := range entries {
		address := entry.Name()
		if !ValidateAddress(address) {
			continue
		}
		devPath := filepath.Join(s.sysfsPath, address)
		if s.vendorId != "" && !s.matchesVendorAndDevice(devPath) {
			continue
		}
		found = append(found, CardDescriptor{SysfsPath: devPath, Address: address})
	}

	sort.Slice(found, func(i, j int) bool { return found[i].Address < found[j].Address })
	return found, nil
}

func (s *Scanner) matchesVendorAndDevice(devPath string) bool {
	vendor, err := readHexIdFile(filepath.Join(devPath, "vendor"))
	if err != nil || vendor != s.vendorId {
		return false
	}
	if len(s.deviceIds) == 0 {
		return true
	}
	device, err := readHexIdFile(filepath.Join(devPath, "device"))
	if err != nil {
		return false
	}
	for _, want := range s.deviceIds {
		if device == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func readHexIdFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(data))
	id = strings.TrimPrefix(strings.ToLower(id), "0x")
	return id, nil
}

// Resolve turns a CardId into a CardDescriptor. Serial-number
// resolution requires probing each candidate card's
// ConfigBar, which this package cannot do on its own; callers that
// construct a CardId from a serial must resolve it via
// ResolveBySerial instead, passing a lookup function supplied by
// pkg/card once BAR access is available.
func (s *Scanner) Resolve(id CardId) (CardDescriptor, error) {
	switch {
	case id.Address != "":
		if !ValidateAddress(id.Address) {
			return CardDescriptor{}, fmt.Errorf("cardid: %q is not a valid PCI address (want DDDD:BB:DD.F)", id.Address)
		}
		return CardDescriptor{SysfsPath: filepath.Join(s.sysfsPath, id.Address), Address: id.Address}, nil
	case id.HasSequence:
		all, err := s.Scan()
		if err != nil {
			return CardDescriptor{}, err
		}
		if id.SequenceNumber < 0 || id.SequenceNumber >= len(all) {
			return CardDescriptor{}, fmt.Errorf("cardid: sequence number %d out of range (found %d cards)", id.SequenceNumber, len(all))
		}
		return all[id.SequenceNumber], nil
	case id.HasSerial:
		return CardDescriptor{}, fmt.Errorf("cardid: serial-number resolution requires probing card firmware; use ResolveBySerial")
	default:
		return CardDescriptor{}, fmt.Errorf("cardid: empty CardId")
	}
}

// ResolveBySerial scans for a card whose ConfigBar-reported serial
// (via readSerial, typically pkg/card's own BAR2 probe) matches
// id.Serial. Kept separate from Resolve because it is the only
// resolution path that needs live hardware access rather than sysfs
// metadata alone.
func (s *Scanner) ResolveBySerial(id CardId, readSerial func(CardDescriptor) (int32, bool, error)) (CardDescriptor, error) {
	all, err := s.Scan()
	if err != nil {
		return CardDescriptor{}, err
	}
	for _, candidate := range all {
		serial, ok, err := readSerial(candidate)
		if err != nil || !ok {
			continue
		}
		if serial == id.Serial {
			return candidate, nil
		}
	}
	return CardDescriptor{}, fmt.Errorf("cardid: no card with serial %d found", id.Serial)
}

// ParseSequenceNumber parses a CLI-supplied "--id" value of the form
// "#N" as a sequence number, for the roc-* utilities.
func ParseSequenceNumber(s string) (int, bool) {
	if !strings.HasPrefix(s, "#") {
		return 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil {
		return 0, false
	}
	return n, true
}
