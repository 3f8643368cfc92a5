package editor

// State is the complete mutable state of one editing session. The zero
// value is the state on launch.
type State struct {
	Input         string
	Output        string
	Busy          bool
	Status        string
	CopyConfirmed bool
	Dark          bool
}

// BusyStatus is shown while an optimization request is in flight.
const BusyStatus = "Sending code to server..."
