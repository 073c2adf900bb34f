package harness

// channelQueue wraps a buffered channel as the baseline backend.
//
// This is the standard library approach: every transfer is a blocking
// channel send or receive, waking the other side through the runtime.
type channelQueue chan int64

// Send blocks until v is buffered.
func (c channelQueue) Send(v int64) {
	c <- v
}

// Recv blocks until a value is available.
func (c channelQueue) Recv() int64 {
	return <-c
}

func newChannelBackend(cfg Config) *backend {
	ch := make(channelQueue, cfg.Capacity)
	b := &backend{control: ch, release: func() {}}
	for i := 0; i < cfg.Producers; i++ {
		b.producers = append(b.producers, ch)
	}
	for i := 0; i < cfg.Consumers; i++ {
		b.consumers = append(b.consumers, ch)
	}
	return b
}
