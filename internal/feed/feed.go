// Package feed delivers live surveillance frames over NATS.
//
// The feed is a plain publish/subscribe topic carrying opaque text frames;
// decoding belongs to the sighting package. The connection is a small state
// machine, Connecting -> Open -> Closed: a transport error or a close from
// the remote side is terminal, the consumer simply stops receiving frames
// and keeps whatever in-memory state it has.
package feed

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/nats-io/nats.go"
)

// State is the connection lifecycle state.
type State int32

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Conn is a subscription to the live feed. Frames are consumed from the
// Frames channel by one dedicated processing goroutine; the channel is
// closed when the connection reaches Closed.
type Conn struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	frames chan []byte
	state  atomic.Int32

	done      chan struct{}
	closeOnce sync.Once
}

// Dial connects to the NATS server and subscribes to the feed subject.
// There is no reconnect: if the transport drops, the connection closes.
func Dial(url, subject string) (*Conn, error) {
	c := &Conn{
		frames: make(chan []byte, 64),
		done:   make(chan struct{}),
	}
	c.state.Store(int32(Connecting))

	nc, err := nats.Connect(url,
		nats.NoReconnect(),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Printf("feed connection closed")
			c.shutdown()
		}),
		nats.ErrorHandler(func(nc *nats.Conn, _ *nats.Subscription, err error) {
			// Errors are terminal: stop consuming, keep in-memory state.
			log.Printf("feed error: %v", err)
			nc.Close()
		}),
	)
	if err != nil {
		c.state.Store(int32(Closed))
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}
	c.nc = nc

	msgs := make(chan *nats.Msg, 64)
	sub, err := nc.ChanSubscribe(subject, msgs)
	if err != nil {
		nc.Close()
		c.state.Store(int32(Closed))
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	c.sub = sub
	c.state.Store(int32(Open))
	log.Printf("feed open: %s %s", url, subject)

	go c.pump(msgs)
	return c, nil
}

// pump forwards subscription messages onto the frames channel until the
// connection shuts down.
func (c *Conn) pump(msgs <-chan *nats.Msg) {
	defer close(c.frames)
	for {
		select {
		case <-c.done:
			return
		case m, ok := <-msgs:
			if !ok {
				return
			}
			select {
			case c.frames <- m.Data:
			case <-c.done:
				return
			}
		}
	}
}

// Frames returns the channel of raw feed frames.
func (c *Conn) Frames() <-chan []byte {
	return c.frames
}

// State returns the current connection state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Close tears the subscription and connection down. Safe to call more than
// once and from the NATS closed handler.
func (c *Conn) Close() {
	c.shutdown()
	if c.nc != nil && !c.nc.IsClosed() {
		c.nc.Close()
	}
}

func (c *Conn) shutdown() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(Closed))
		if c.sub != nil {
			_ = c.sub.Unsubscribe()
		}
		close(c.done)
	})
}
