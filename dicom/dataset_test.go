package dicom

import (
	"errors"
	"sync"
	"testing"
)

func TestTagString(t *testing.T) {
	tests := []struct {
		tag  Tag
		want string
	}{
		{TagRows, "(0028,0010)"},
		{TagPixelData, "(7FE0,0010)"},
		{NewTag(0x0008, 0x0018), "(0008,0018)"},
	}
	for _, tt := range tests {
		if got := tt.tag.String(); got != tt.want {
			t.Errorf("%#x.String() = %q, want %q", uint32(tt.tag), got, tt.want)
		}
	}
}

func TestDatasetInt(t *testing.T) {
	ds := NewDataset()
	ds.Set(TagRows, 512)
	ds.Set(TagNumberOfFrames, " 12 ")
	ds.Set(TagColumns, []int{256, 1})
	ds.Set(TagPhotometricInterpretation, "RGB")

	tests := []struct {
		name    string
		tag     Tag
		want    int
		wantErr error
	}{
		{"int", TagRows, 512, nil},
		{"integer string", TagNumberOfFrames, 12, nil},
		{"multi-valued", TagColumns, 256, nil},
		{"not a number", TagPhotometricInterpretation, 0, ErrAttributeType},
		{"absent", TagBitsStored, 0, ErrAttributeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ds.Int(tt.tag)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Int(%s) err = %v, want %v", tt.tag, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Int(%s) = %d, want %d", tt.tag, got, tt.want)
			}
		})
	}
}

func TestDatasetString(t *testing.T) {
	ds := NewDataset()
	ds.Set(TagSpecificCharacterSet, []string{"", "ISO 2022 IR 87"})
	got, err := ds.String(TagSpecificCharacterSet)
	if err != nil {
		t.Fatal(err)
	}
	if got != `\ISO 2022 IR 87` {
		t.Errorf("String = %q", got)
	}
	if _, err := ds.String(TagRows); !errors.Is(err, ErrAttributeNotFound) {
		t.Errorf("absent String err = %v", err)
	}
}

func TestDatasetReference(t *testing.T) {
	ds := NewDataset()
	if ds.Has(TagPixelData) {
		t.Fatal("empty dataset reports PixelData")
	}
	ref := Reference{Path: "a.dcm", Offset: 10, Length: 20}
	ds.SetReference(TagPixelData, ref)
	got, ok := ds.Reference(TagPixelData)
	if !ok || got != ref {
		t.Errorf("Reference = %v, %v; want %v", got, ok, ref)
	}
	if !ds.Has(TagPixelData) {
		t.Error("Has(PixelData) = false after SetReference")
	}

	tags := ds.Tags()
	if len(tags) != 1 || tags[0] != TagPixelData {
		t.Errorf("Tags = %v", tags)
	}

	ds.Delete(TagPixelData)
	if _, ok := ds.Reference(TagPixelData); ok {
		t.Error("reference survived Delete")
	}
}

func TestDatasetClose(t *testing.T) {
	ds := NewDataset()
	ds.Set(TagRows, 1)
	if err := ds.Close(); err != nil {
		t.Fatal(err)
	}
	if ds.Has(TagRows) {
		t.Error("value survived Close")
	}
	ds.Set(TagRows, 2)
	if ds.Has(TagRows) {
		t.Error("Set after Close stored a value")
	}
	if err := ds.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestDatasetConcurrent(t *testing.T) {
	ds := NewDataset()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				ds.Set(NewTag(0x0009, uint16(i)), j)
				_, _ = ds.Int(NewTag(0x0009, uint16(i)))
				_ = ds.Tags()
			}
		}()
	}
	wg.Wait()
	if n := len(ds.Tags()); n != 8 {
		t.Errorf("len(Tags) = %d, want 8", n)
	}
}

func TestReferenceValid(t *testing.T) {
	tests := []struct {
		ref  Reference
		want bool
	}{
		{Reference{Path: "a", Offset: 0, Length: 1}, true},
		{Reference{Path: "", Offset: 0, Length: 1}, false},
		{Reference{Path: "a", Offset: -1, Length: 1}, false},
		{Reference{Path: "a", Offset: 0, Length: 0}, false},
	}
	for _, tt := range tests {
		if got := tt.ref.Valid(); got != tt.want {
			t.Errorf("%v.Valid() = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestTransferSyntaxClassification(t *testing.T) {
	if !IsEncapsulated(JPEGBaseline8Bit) || IsEncapsulated(ExplicitVRLittleEndian) {
		t.Error("IsEncapsulated misclassifies")
	}
	if !IsBigEndian(ExplicitVRBigEndian) || IsBigEndian(ImplicitVRLittleEndian) {
		t.Error("IsBigEndian misclassifies")
	}
	if !IsImplicitVR(ImplicitVRLittleEndian) {
		t.Error("IsImplicitVR(implicit) = false")
	}
	if KnownTransferSyntax("1.2.3") {
		t.Error("unknown syntax reported as known")
	}
}

func TestLookupCharacterSet(t *testing.T) {
	cs, ok := LookupCharacterSet(`ISO_IR 144\ISO 2022 IR 100`)
	if !ok || cs.Name != "ISO_IR 144" {
		t.Fatalf("LookupCharacterSet = %v, %v", cs, ok)
	}
	// "Да" in ISO 8859-5.
	got, err := cs.Decode([]byte{0xB4, 0xD0})
	if err != nil || got != "Да" {
		t.Errorf("Decode = %q, %v", got, err)
	}
	if _, ok := LookupCharacterSet("ISO_IR 999"); ok {
		t.Error("unknown term found")
	}
	plain, _ := DefaultCharacterSet.Decode([]byte("abc"))
	if plain != "abc" {
		t.Errorf("default Decode = %q", plain)
	}
}
