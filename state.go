package pixeldata

// State is the lifecycle state of a PixelBuffer.
type State uint32

const (
	// StateUnresolved means no backing store has been chosen.
	StateUnresolved State = iota

	// StateResolving means backing-store selection is in progress.
	StateResolving

	// StateResolved means a backing store is open and nothing is locked.
	StateResolved

	// StateLocked means at least one caller holds a lock.
	StateLocked

	// StateReleased means the backing store was freed by UnlockAndClean.
	// The next load resolves from scratch.
	StateReleased

	// StateDisposed is terminal.
	StateDisposed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateLocked:
		return "locked"
	case StateReleased:
		return "released"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
