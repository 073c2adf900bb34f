package handoff

import (
	"fmt"
	"strings"

	"github.com/randomizedcoder/handoff/internal/errs"
)

// WaitMode selects how Send and Recv wait when the queue is full or empty.
// It is fixed when the queue is created.
type WaitMode int

const (
	// BusySpin polls the live count without ever parking the goroutine.
	// A waiting side occupies a CPU core until the condition changes.
	BusySpin WaitMode = iota

	// CondVar parks the waiting side on a condition variable until the
	// opposite side signals a full-to-not-full or empty-to-not-empty change.
	CondVar
)

// String returns the canonical name of the wait mode.
func (m WaitMode) String() string {
	switch m {
	case BusySpin:
		return "busy-spin"
	case CondVar:
		return "condvar"
	default:
		return fmt.Sprintf("WaitMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m WaitMode) MarshalText() ([]byte, error) {
	if m != BusySpin && m != CondVar {
		return nil, errs.WrapInvalid(errs.ErrInvalidConfig, "handoff", "WaitMode.MarshalText", m.String())
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *WaitMode) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "busy-spin", "busyspin", "busy", "spin":
		*m = BusySpin
	case "condvar", "cond", "sleep":
		*m = CondVar
	default:
		return errs.WrapInvalid(errs.ErrInvalidConfig, "handoff", "WaitMode.UnmarshalText",
			fmt.Sprintf("unknown wait mode %q", text))
	}
	return nil
}

// Topology selects how many goroutines may use each side of the queue.
type Topology int

const (
	// SPSC allows exactly one sending and one receiving goroutine.
	SPSC Topology = iota

	// MPMC allows any number of sending and receiving goroutines.
	MPMC
)

// String returns the canonical name of the topology.
func (t Topology) String() string {
	switch t {
	case SPSC:
		return "spsc"
	case MPMC:
		return "mpmc"
	default:
		return fmt.Sprintf("Topology(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Topology) MarshalText() ([]byte, error) {
	if t != SPSC && t != MPMC {
		return nil, errs.WrapInvalid(errs.ErrInvalidConfig, "handoff", "Topology.MarshalText", t.String())
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Topology) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "spsc":
		*t = SPSC
	case "mpmc":
		*t = MPMC
	default:
		return errs.WrapInvalid(errs.ErrInvalidConfig, "handoff", "Topology.UnmarshalText",
			fmt.Sprintf("unknown topology %q", text))
	}
	return nil
}
