//go:build unit

package bar

import "testing"

func TestSimCtrlBarTracksPushedDescriptors(t *testing.T) {
	s := NewSimCtrlBar(FeatureMask{}, 16)
	if err := s.PushSuperpageDescriptor(0, 4, 0x1000); err != nil {
		t.Fatalf("PushSuperpageDescriptor: %v", err)
	}
	if err := s.PushSuperpageDescriptor(1, 8, 0x2000); err != nil {
		t.Fatalf("PushSuperpageDescriptor: %v", err)
	}

	pushed := s.PushedDescriptors()
	if len(pushed) != 2 {
		t.Fatalf("len(PushedDescriptors()) = %d, want 2", len(pushed))
	}
	if pushed[0].Link != 0 || pushed[0].DmaPages != 4 || pushed[0].BusAddr != 0x1000 {
		t.Errorf("pushed[0] = %+v", pushed[0])
	}
	if pushed[1].Link != 1 || pushed[1].DmaPages != 8 || pushed[1].BusAddr != 0x2000 {
		t.Errorf("pushed[1] = %+v", pushed[1])
	}
}

func TestSimCtrlBarCompleteSuperpageAdvancesCount(t *testing.T) {
	s := NewSimCtrlBar(FeatureMask{}, 16)
	s.CompleteSuperpage(3, 256)
	s.CompleteSuperpage(3, 512)

	count, err := s.GetSuperpageCount(3)
	if err != nil || count != 2 {
		t.Fatalf("GetSuperpageCount(3) = (%d, %v), want (2, nil)", count, err)
	}
	size, err := s.GetSuperpageSize(3)
	if err != nil || size != 512 {
		t.Fatalf("GetSuperpageSize(3) = (%d, %v), want (512, nil)", size, err)
	}
}

func TestSimCtrlBarResetInternalCountersClearsSuperpageCounts(t *testing.T) {
	s := NewSimCtrlBar(FeatureMask{}, 16)
	s.CompleteSuperpage(0, 100)
	if err := s.ResetInternalCounters(); err != nil {
		t.Fatalf("ResetInternalCounters: %v", err)
	}
	count, _ := s.GetSuperpageCount(0)
	if count != 0 {
		t.Errorf("GetSuperpageCount(0) after reset = %d, want 0", count)
	}
}

func TestSimConfigBarEnableDisableDataTaking(t *testing.T) {
	s := NewSimConfigBar([]LinkId{0, 1})
	if s.DataTaking {
		t.Fatal("expected DataTaking to start false")
	}
	if err := s.EnableDataTaking(); err != nil {
		t.Fatalf("EnableDataTaking: %v", err)
	}
	if !s.DataTaking {
		t.Fatal("expected DataTaking true after EnableDataTaking")
	}
	if err := s.DisableDataTaking(); err != nil {
		t.Fatalf("DisableDataTaking: %v", err)
	}
	if s.DataTaking {
		t.Fatal("expected DataTaking false after DisableDataTaking")
	}
}

func TestSimConfigBarRegisterRoundTrip(t *testing.T) {
	s := NewSimConfigBar([]LinkId{0})
	s.SetRegister(0x74002C/4, 0xDEADBEEF)

	v, err := s.ReadRegister(0x74002C / 4)
	if err != nil {
		t.Fatalf("ReadRegister: %v", err)
	}
	if v != 0xDEADBEEF {
		t.Fatalf("ReadRegister = 0x%x, want 0xDEADBEEF", v)
	}
}

func TestSimConfigBarFeatureGatedFieldsReportAbsence(t *testing.T) {
	s := NewSimConfigBar([]LinkId{0})
	if _, ok, _ := s.GetSerial(); ok {
		t.Error("expected GetSerial to report absent when HasSerial is false")
	}
	if _, ok, _ := s.GetTemperature(); ok {
		t.Error("expected GetTemperature to report absent when HasTemperature is false")
	}
}
