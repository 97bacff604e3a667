// Package memory implements the message broker interface inside one process. It lets the wallet and the explorer run
// in a single binary and it is the broker used by the services tests.
package memory

import (
	"sync"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/msg"
)

// QueueSize is the number of messages a network queue holds before senders block.
const QueueSize = 256

// Memory keeps one queue per network for requests and another one for events.
type Memory struct {
	mu     sync.Mutex
	reqs   map[string]chan msg.WalletReq
	events map[string]chan types.Trans
	done   chan struct{}
	closed bool
}

var _ msg.MsgBroker = (*Memory)(nil)

// New returns an empty broker.
func New() *Memory {
	return &Memory{
		reqs:   make(map[string]chan msg.WalletReq),
		events: make(map[string]chan types.Trans),
		done:   make(chan struct{}),
	}
}

// Setup has nothing to declare.
func (m *Memory) Setup() error { return nil }

// Close stops the consumers. Undelivered messages are dropped.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.done)
	}

	return nil
}

func queue[T any](m *Memory, qs map[string]chan T, net string) (chan T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, msg.ErrClosed
	}

	q, ok := qs[net]
	if !ok {
		q = make(chan T, QueueSize)
		qs[net] = q
	}

	return q, nil
}

func send[T any](m *Memory, qs map[string]chan T, net string, vs ...T) error {
	q, err := queue(m, qs, net)
	if err != nil {
		return err
	}

	for _, v := range vs {
		select {
		case q <- v:
		case <-m.done:
			return msg.ErrClosed
		}
	}

	return nil
}

// consume moves messages from the queue to the returned channel, waiting for mut between messages.
func consume[T any](m *Memory, qs map[string]chan T, net string, mut *sync.Mutex) (<-chan T, <-chan error, error) {
	q, err := queue(m, qs, net)
	if err != nil {
		return nil, nil, err
	}

	out := make(chan T)
	errs := make(chan error)

	go func() {
		defer close(out)

		for {
			select {
			case v := <-q:
				select {
				case out <- v:
				case <-m.done:
					return
				}

				mut.Lock() // wait for the consumer to finish processing the message
			case <-m.done:
				return
			}
		}
	}()

	return out, errs, nil
}

// SendRequest queues a wallet request for the explorer of net.
func (m *Memory) SendRequest(net string, r msg.WalletReq) error {
	return send(m, m.reqs, net, r)
}

// SendTrans queues transaction events for the wallet.
func (m *Memory) SendTrans(net string, t []types.Trans) error {
	return send(m, m.events, net, t...)
}

// GetReqs delivers the wallet requests of net.
func (m *Memory) GetReqs(net string, mut *sync.Mutex) (<-chan msg.WalletReq, <-chan error, error) {
	return consume(m, m.reqs, net, mut)
}

// GetEvents delivers the transaction events of net.
func (m *Memory) GetEvents(net string, mut *sync.Mutex) (<-chan types.Trans, <-chan error, error) {
	return consume(m, m.events, net, mut)
}
