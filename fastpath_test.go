package pixeldata

import (
	"errors"
	"sync"
	"testing"
)

func TestFastCacheHitSkipsOpener(t *testing.T) {
	data := []byte{9, 8, 7, 6}
	repo := newFakeRepo(true)
	entry := &fakeEntry{data: data}
	repo.put("1.2.3.4", entry)
	op := &fakeOpener{data: []byte{1, 1, 1, 1}}

	b := New(newGeometry(2, 2, 8, 1, "MONOCHROME2"),
		WithOpener(op), WithReference(testRef), WithCacheRepository(repo))
	defer b.Close()

	got, err := b.Lock()
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 9 {
		t.Errorf("Lock() returned %v, want fast cache bytes", got)
	}
	if _, err := b.Lock(); err != nil {
		t.Fatal(err)
	}
	if entry.loadCount() != 1 {
		t.Errorf("entry loaded %d times, want 1 for nested locks", entry.loadCount())
	}
	if b.Size() != len(data) {
		t.Errorf("Size() = %d, want entry length %d", b.Size(), len(data))
	}

	for range 2 {
		if _, err := b.Unlock(); err != nil {
			t.Fatal(err)
		}
	}
	if op.opens() != 0 {
		t.Errorf("opener called %d times on a fast cache hit", op.opens())
	}
	if entry.releaseCount() != 1 {
		t.Errorf("entry released %d times, want 1", entry.releaseCount())
	}
	if b.Pixels() != nil {
		t.Error("Pixels() after unlock should be nil")
	}
}

func TestFastCacheLoadFailureFallsBack(t *testing.T) {
	repo := newFakeRepo(true)
	entry := &fakeEntry{data: []byte{9, 9, 9, 9}, loadErr: errors.New("evicted")}
	repo.put("1.2.3.4", entry)
	op := &fakeOpener{data: []byte{1, 2, 3, 4}}

	b := New(newGeometry(2, 2, 8, 1, "MONOCHROME2"),
		WithOpener(op), WithReference(testRef), WithCacheRepository(repo))
	defer b.Close()

	got, err := b.Lock()
	if err != nil {
		t.Fatalf("Lock() = %v, want fallback to region", err)
	}
	if got[0] != 1 {
		t.Errorf("Lock() returned %v, want region bytes", got)
	}
	if op.opens() != 1 || !op.calls[0].fullLoad {
		t.Errorf("opener calls = %+v, want one full load", op.calls)
	}
	if entry.releaseCount() != 1 {
		t.Errorf("failed entry released %d times, want 1", entry.releaseCount())
	}
	b.l.mu.Lock()
	cleared := b.l.entry == nil
	b.l.mu.Unlock()
	if !cleared {
		t.Error("failed entry still referenced")
	}
	if _, err := b.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestFastCacheDisabledOrMiss(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		id      string
		want    int // retrieves
	}{
		{"disabled", false, "1.2.3.4", 0},
		{"miss", true, "other", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo(tt.enabled)
			repo.put(tt.id, &fakeEntry{data: []byte{9, 9, 9, 9}})
			op := &fakeOpener{data: []byte{1, 2, 3, 4}}
			b := New(newGeometry(2, 2, 8, 1, "MONOCHROME2"),
				WithOpener(op), WithReference(testRef), WithCacheRepository(repo))
			defer b.Close()

			got, err := b.Lock()
			if err != nil {
				t.Fatal(err)
			}
			if got[0] != 1 {
				t.Errorf("Lock() returned %v, want region bytes", got)
			}
			if repo.retrieves != tt.want {
				t.Errorf("Retrieve called %d times, want %d", repo.retrieves, tt.want)
			}
			if _, err := b.Unlock(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestFastCacheNotConsultedWhileRegionOpen(t *testing.T) {
	repo := newFakeRepo(true)
	op := &fakeOpener{data: []byte{1, 2, 3, 4}}
	b := New(newGeometry(2, 2, 8, 1, "MONOCHROME2"),
		WithOpener(op), WithReference(testRef), WithCacheRepository(repo))
	defer b.Close()

	if err := b.LoadPixels(); err != nil {
		t.Fatal(err)
	}
	repo.put("1.2.3.4", &fakeEntry{data: []byte{9, 9, 9, 9}})
	got, err := b.Lock()
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 1 {
		t.Errorf("Lock() used the fast cache while a region was open")
	}
	if _, err := b.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestFastCacheDescriber(t *testing.T) {
	repo := newFakeRepo(true)
	want := &Description{Rows: 2, Columns: 2, SamplesPerPixel: 1, BitsAllocated: 8, Photometric: PhotometricMonochrome2}
	repo.put("1.2.3.4", &describingEntry{fakeEntry: fakeEntry{data: make([]byte, 4)}, desc: want})

	b := New(newGeometry(64, 64, 16, 1, "MONOCHROME2"), WithCacheRepository(repo))
	defer b.Close()
	if err := b.LoadPixels(); err != nil {
		t.Fatal(err)
	}
	got, err := b.Description()
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("Description() = %+v, want the entry's description", got)
	}
}

func TestFastCacheExplicitImageID(t *testing.T) {
	repo := newFakeRepo(true)
	repo.put("frame-7", &fakeEntry{data: []byte{5}})
	b := New(newGeometry(1, 1, 8, 1, "MONOCHROME2"), WithCacheRepository(repo), WithImageID("frame-7"))
	defer b.Close()

	got, err := b.Lock()
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != 5 {
		t.Errorf("Lock() = %v, want entry bytes", got)
	}
	if _, err := b.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestFastCacheConcurrent(t *testing.T) {
	repo := newFakeRepo(true)
	repo.put("1.2.3.4", &fakeEntry{data: make([]byte, 4)})
	b := New(newGeometry(2, 2, 8, 1, "MONOCHROME2"), WithCacheRepository(repo))
	defer b.Close()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if _, err := b.Lock(); err != nil {
					t.Error(err)
					return
				}
				if _, err := b.Unlock(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if b.RefCount() != 0 {
		t.Errorf("RefCount() = %d, want 0", b.RefCount())
	}
}
