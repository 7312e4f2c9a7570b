// Package bufprovider implements the BufferProvider capability:
// client-registered host memory that the card DMAs into, with a
// scatter-gather list size and a bus-offset translator. Three variants
// are supported, chosen once at construction, matching the
// Parameters.bufferParameters tagged union: Memory, File, Null.
package bufprovider

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Provider is the BufferProvider capability used by pkg/card.
type Provider interface {
	Address() uintptr
	Size() uint64
	ScatterGatherListSize() (int, error)
	BusOffsetAddress(offset uint64) uint64
	Close() error
}

// memoryProvider wraps an anonymous mmap'd region, standing in for
// buffer_parameters::Memory{addr, size} — a region the caller already
// registered with the PCI device.
type memoryProvider struct {
	data []byte
}

// NewMemory allocates (via anonymous mmap, for page alignment) a
// buffer of size bytes and wraps it as a BufferProvider. In the
// reference C++ implementation this wraps a pre-existing PDA-registered
// region; here the mmap call stands in for "host memory already
// usable by the device", the same role unix.Mmap plays in the
// reference codebase's own buffer allocator.
func NewMemory(size uint64) (Provider, error) {
	if size == 0 {
		return nil, fmt.Errorf("bufprovider: memory buffer size cannot be zero")
	}
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("bufprovider: mmap: %w", err)
	}
	return &memoryProvider{data: data}, nil
}

func (p *memoryProvider) Address() uintptr { return addressOf(p.data) }
func (p *memoryProvider) Size() uint64     { return uint64(len(p.data)) }

func (p *memoryProvider) ScatterGatherListSize() (int, error) {
	return scatterGatherListSize(p.Address(), p.Size())
}

func (p *memoryProvider) BusOffsetAddress(offset uint64) uint64 {
	return uint64(p.Address()) + offset
}

func (p *memoryProvider) Close() error {
	if p.data == nil {
		return nil
	}
	err := unix.Munmap(p.data)
	p.data = nil
	return err
}

// fileProvider wraps a memory-mapped file, standing in for
// buffer_parameters::File{path, size} — typically a file on
// hugetlbfs.
type fileProvider struct {
	data []byte
	fd   int
}

// NewFile opens and mmaps path, growing/truncating it to size, and
// wraps it as a BufferProvider.
func NewFile(path string, size uint64) (Provider, error) {
	if size == 0 {
		return nil, fmt.Errorf("bufprovider: file buffer size cannot be zero")
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0600)
	if err != nil {
		return nil, fmt.Errorf("bufprovider: open %s: %w", path, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bufprovider: truncate %s: %w", path, err)
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bufprovider: mmap %s: %w", path, err)
	}
	return &fileProvider{data: data, fd: fd}, nil
}

func (p *fileProvider) Address() uintptr { return addressOf(p.data) }
func (p *fileProvider) Size() uint64     { return uint64(len(p.data)) }

func (p *fileProvider) ScatterGatherListSize() (int, error) {
	return scatterGatherListSize(p.Address(), p.Size())
}

func (p *fileProvider) BusOffsetAddress(offset uint64) uint64 {
	return uint64(p.Address()) + offset
}

func (p *fileProvider) Close() error {
	if p.data == nil {
		return nil
	}
	err := unix.Munmap(p.data)
	p.data = nil
	unix.Close(p.fd)
	return err
}

// nullProvider is buffer_parameters::Null: no backing memory at all.
// Used in tests of construction-time validation that don't exercise
// DMA itself.
type nullProvider struct{}

// NewNull returns the Null BufferProvider variant.
func NewNull() Provider { return nullProvider{} }

func (nullProvider) Address() uintptr                      { return 0 }
func (nullProvider) Size() uint64                          { return 0 }
func (nullProvider) ScatterGatherListSize() (int, error)    { return 0, nil }
func (nullProvider) BusOffsetAddress(offset uint64) uint64 { return offset }
func (nullProvider) Close() error                          { return nil }
