//go:build unit

package superpage

import (
	"strings"
	"testing"
)

func TestValidateRejectsZeroSize(t *testing.T) {
	err := Validate(Page{Offset: 0, Size: 0}, 1<<20, 8192)
	if err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestValidateRejectsSizeNotAMultipleOf32KiB(t *testing.T) {
	err := Validate(Page{Offset: 0, Size: SizeGranularity - 4}, 1<<20, 8192)
	if err == nil {
		t.Fatal("expected error for size not a multiple of 32 KiB")
	}
}

func TestValidateRejectsMisalignedOffset(t *testing.T) {
	err := Validate(Page{Offset: 2, Size: SizeGranularity}, 1<<20, 8192)
	if err == nil {
		t.Fatal("expected error for misaligned offset")
	}
}

func TestValidateRejectsRangeExceedingBuffer(t *testing.T) {
	bufferSize := uint64(1 << 20)
	size := uint64(SizeGranularity)
	err := Validate(Page{Offset: bufferSize - size + 4, Size: size}, bufferSize, 8192)
	if err == nil {
		t.Fatal("expected error for range exceeding buffer size")
	}
}

func TestValidateRejectsSizeNotMultipleOfDmaPageSize(t *testing.T) {
	err := Validate(Page{Offset: 0, Size: SizeGranularity}, 1<<20, SizeGranularity+1)
	if err == nil {
		t.Fatal("expected error when DMA page size does not divide size")
	}
}

func TestValidateAcceptsWellFormedSuperpage(t *testing.T) {
	err := Validate(Page{Offset: 256 * 1024, Size: 256 * 1024}, 1<<20, 8192)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvariantErrorMessageIncludesReason(t *testing.T) {
	err := &InvariantError{Field: "size", Value: 0, Reason: "size must be non-zero"}
	msg := err.Error()
	if !strings.Contains(msg, err.Reason) {
		t.Fatalf("Error() = %q, want it to include reason %q", msg, err.Reason)
	}
}
