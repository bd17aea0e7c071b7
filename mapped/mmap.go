package mapped

// advice is a paging hint for a mapped window.
type advice int

const (
	adviceWillNeed advice = iota
	adviceDontNeed
)

// mapping is one mapped window of a file. data covers the whole window,
// starting at an aligned offset.
type mapping struct {
	data []byte
	addr uintptr // platform view address, when the platform needs it
	h    uintptr // platform mapping handle, when the platform needs it
}
