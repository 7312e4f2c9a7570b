//go:build unit

package bar

import "testing"

func TestDataSourceString(t *testing.T) {
	cases := map[DataSource]string{
		DataSourceInternal: "Internal",
		DataSourceFee:      "Fee",
		DataSourceDdg:      "Ddg",
		DataSourceDiu:      "Diu",
		DataSourceSiu:      "Siu",
		DataSource(99):     "DataSource(99)",
	}
	for ds, want := range cases {
		if got := ds.String(); got != want {
			t.Errorf("DataSource(%d).String() = %q, want %q", int(ds), got, want)
		}
	}
}

func TestFeatureMaskDisabledFeatures(t *testing.T) {
	mask := FeatureMask{FirmwareInfo: true}
	disabled := mask.DisabledFeatures()

	want := map[string]bool{"serial-number": true, "temperature": true, "data-selection": true}
	if len(disabled) != len(want) {
		t.Fatalf("DisabledFeatures() = %v, want 3 entries", disabled)
	}
	for _, name := range disabled {
		if !want[name] {
			t.Errorf("unexpected disabled feature %q", name)
		}
	}
}

func TestFeatureMaskAllEnabledHasNoDisabledFeatures(t *testing.T) {
	mask := FeatureMask{FirmwareInfo: true, Serial: true, Temperature: true, DataSelection: true}
	if got := mask.DisabledFeatures(); len(got) != 0 {
		t.Errorf("DisabledFeatures() = %v, want none", got)
	}
}

func TestOrbitCounterWord(t *testing.T) {
	word0, ok := OrbitCounterWord(0)
	if !ok || word0 != 0x64002C/4 {
		t.Errorf("OrbitCounterWord(0) = (0x%x, %v), want (0x%x, true)", word0, ok, 0x64002C/4)
	}
	word1, ok := OrbitCounterWord(1)
	if !ok || word1 != 0x74002C/4 {
		t.Errorf("OrbitCounterWord(1) = (0x%x, %v), want (0x%x, true)", word1, ok, 0x74002C/4)
	}
	if _, ok := OrbitCounterWord(2); ok {
		t.Error("OrbitCounterWord(2) reported ok=true, want false")
	}
}

func TestLinkRegisterIsDistinctPerLink(t *testing.T) {
	a := linkRegister(0, ctrlLinkCountOff)
	b := linkRegister(1, ctrlLinkCountOff)
	if a == b {
		t.Errorf("linkRegister(0, ...) == linkRegister(1, ...) == 0x%x", a)
	}
	if a != ctrlLinkBankBase {
		t.Errorf("linkRegister(0, countOff) = 0x%x, want 0x%x", a, ctrlLinkBankBase)
	}
}
