package handoff

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// gate is the pair of blocking notification channels used by CondVar queues:
// room signals "a slot became free", elem signals "an element became live".
// Neither mutex guards buffer data in SPSC mode; both exist to make the
// check-then-wait on the live count atomic with respect to the signal.
// In MPMC mode each mutex also serializes its side's critical section.
type gate struct {
	_      cpu.CacheLinePad
	roomMu sync.Mutex
	room   *sync.Cond

	_      cpu.CacheLinePad
	elemMu sync.Mutex
	elem   *sync.Cond
}

func newGate() *gate {
	g := &gate{}
	g.room = sync.NewCond(&g.roomMu)
	g.elem = sync.NewCond(&g.elemMu)
	return g
}

func (g *gate) notifyRoom() {
	g.roomMu.Lock()
	g.room.Signal()
	g.roomMu.Unlock()
}

func (g *gate) notifyElem() {
	g.elemMu.Lock()
	g.elem.Signal()
	g.elemMu.Unlock()
}
