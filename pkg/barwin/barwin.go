// Package barwin memory-maps a PCIe Base Address Register window and
// exposes 32-bit register access against it. It is the lowest layer
// behind the CtrlBar/ConfigBar capability handles in pkg/bar: those
// interfaces describe what the card lets the driver do, this package
// is one concrete way to actually reach the registers.
package barwin

import (
	"encoding/binary"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Window is a memory-mapped PCI BAR.
type Window struct {
	path string
	mem  []byte
}

// Open memory-maps the PCI resource file for BAR index (0, 2, ...) of
// the device at sysfsDevPath (e.g. "/sys/bus/pci/devices/0000:01:00.0").
func Open(sysfsDevPath string, barIndex int) (*Window, error) {
	path := filepath.Join(sysfsDevPath, fmt.Sprintf("resource%d", barIndex))
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("barwin: open %s: %w", path, err)
	}
	defer unix.Close(fd)

	var stat unix.Stat_t
	if err := unix.Fstat(fd, &stat); err != nil {
		return nil, fmt.Errorf("barwin: stat %s: %w", path, err)
	}
	size := int(stat.Size)
	if size == 0 {
		return nil, fmt.Errorf("barwin: %s reports zero size", path)
	}

	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("barwin: mmap %s: %w", path, err)
	}

	return &Window{path: path, mem: mem}, nil
}

// Close unmaps the BAR window.
func (w *Window) Close() error {
	if w.mem == nil {
		return nil
	}
	err := unix.Munmap(w.mem)
	w.mem = nil
	return err
}

// Size returns the mapped window size in bytes.
func (w *Window) Size() int {
	return len(w.mem)
}

// ReadRegister reads the 32-bit little-endian register at byteOffset.
func (w *Window) ReadRegister(byteOffset uint32) (uint32, error) {
	if err := w.checkBounds(byteOffset); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(w.mem[byteOffset : byteOffset+4]), nil
}

// WriteRegister writes the 32-bit little-endian register at byteOffset.
func (w *Window) WriteRegister(byteOffset uint32, value uint32) error {
	if err := w.checkBounds(byteOffset); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(w.mem[byteOffset:byteOffset+4], value)
	return nil
}

func (w *Window) checkBounds(byteOffset uint32) error {
	if int(byteOffset)+4 > len(w.mem) {
		return fmt.Errorf("barwin: offset 0x%x out of range for %s (size %d)", byteOffset, w.path, len(w.mem))
	}
	return nil
}
