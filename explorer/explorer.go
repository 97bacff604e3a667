// Package explorer implements the checkpoint explorer microservice. The explorer scans the transactions of the
// networks checkpoints and sends events when a monitored address is the sender or the recipient of a transaction.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ne "github.com/tarancss/suiadp/explorer/netexplorer"
	"github.com/tarancss/suiadp/lib/block"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/msg"
	"github.com/tarancss/suiadp/lib/store"
)

// DefaultRate is the minimum time between two checkpoint reads of one network.
const DefaultRate = 200 * time.Millisecond

// Explorer implements an explorer service.
type Explorer struct {
	db   store.DB
	bc   map[string]block.Chain // map of network clients
	mu   sync.Mutex
	nem  map[string]*ne.NetExplorer // map of net explorers
	mb   msg.MsgBroker
	rate time.Duration
	poll time.Duration // wait when idle, 0 means the network's average checkpoint interval
}

// Option configures an Explorer.
type Option func(*Explorer)

// WithRate sets the minimum time between two checkpoint reads.
func WithRate(d time.Duration) Option {
	return func(e *Explorer) { e.rate = d }
}

// WithPoll sets how long to wait when there is nothing to explore or the next checkpoint is not available yet.
func WithPoll(d time.Duration) Option {
	return func(e *Explorer) { e.poll = d }
}

// New instantiates a new explorer service.
func New(db store.DB, mb msg.MsgBroker, bc map[string]block.Chain, opts ...Option) *Explorer {
	e := &Explorer{
		db:   db,
		bc:   bc,
		nem:  make(map[string]*ne.NetExplorer),
		mb:   mb,
		rate: DefaultRate,
	}

	for _, o := range opts {
		o(e)
	}

	return e
}

// NetExplorer returns the explorer state of net, nil if it is not being explored.
func (e *Explorer) NetExplorer(net string) *ne.NetExplorer {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.nem[net]
}

// Setup loads the explorer state of net from the store. Exploring starts at the latest checkpoint when none was saved.
func (e *Explorer) Setup(ctx context.Context, net string) (*ne.NetExplorer, error) {
	c, ok := e.bc[net]
	if !ok {
		return nil, fmt.Errorf("network %s is not configured", net)
	}

	addrs, err := e.db.GetAddresses([]string{net})
	if err != nil {
		return nil, fmt.Errorf("cannot load listened addresses: %w", err)
	}

	if len(addrs) == 0 || len(addrs[0].Addr) == 0 {
		logx.Info("EXPLORER", "[", net, "] No listened addresses to explore in DB.")
	}

	var start uint64

	if _, err = e.db.LoadExplorer(net); errors.Is(err, store.ErrDataNotFound) {
		if start, err = c.LatestCheckpoint(ctx); err != nil {
			return nil, fmt.Errorf("cannot get latest checkpoint: %w", err)
		}
	}

	nexp, err := ne.New(net, c.MaxBlocks(), addrs, e.db, start)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.nem[net] = nexp
	e.mu.Unlock()

	return nexp, nil
}

// Explore starts a go routine for each network available. The exploration of each network is controlled by a
// NetExplorer (see package explorer/netexplorer) holding the addresses being monitored and the last checkpoints
// scanned. The explorer consumes wallet requests to monitor new addresses. The returned channel receives a message
// once every network explorer has stopped.
func (e *Explorer) Explore(ctx context.Context) chan string {
	ret := make(chan string, 1)
	// channel to wait for network explorers
	w := make(chan string, len(e.bc))
	started := 0

	for net := range e.bc {
		if _, err := e.Setup(ctx, net); err != nil {
			logx.Error("EXPLORER", "[", net, "] Cannot set up explorer: ", err)

			continue
		}
		// pending requests in the broker queues are processed before exploring
		if err := e.ManageWalletRequests(net); err != nil {
			logx.Error("EXPLORER", "[", net, "] Cannot consume wallet requests from broker: ", err)

			continue
		}

		e.ExploreChain(ctx, net, w)
		started++
	}

	go func() {
		for i := 1; i <= started; i++ {
			logx.Info("EXPLORER", "Explore, channel ", i, "/", started, " returned: ", <-w)
		}
		ret <- "Done!"
	}()

	return ret
}

// StopExplorer will send termination signals to all network explorer go routines.
func (e *Explorer) StopExplorer() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, nexp := range e.nem {
		nexp.Stop()
	}
}

// wait sleeps for d unless the context is done first.
func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// ExploreChain starts a network explorer go routine for network 'net' which must have been Setup. When the routine
// ends, it reports through 'ret' so the calling routine can control graceful termination. A network without
// monitored addresses is not scanned.
func (e *Explorer) ExploreChain(ctx context.Context, net string, ret chan string) {
	nexp := e.NetExplorer(net)
	c := e.bc[net]

	idle := e.poll
	if idle == 0 {
		idle = time.Duration(c.AvgBlock()) * time.Second
	}

	logx.Info("EXPLORER", "[", net, "] Exploring at checkpoint ", nexp.Next(), "...")

	go func() {
		var err error

		defer func() {
			errSave := e.db.SaveExplorer(net, nexp.ToStore())
			ret <- fmt.Sprintf("[%s] Done! err:%v save:%v", net, err, errSave)
		}()

		for nexp.Status() == ne.WORK {
			if nexp.Len() == 0 {
				logx.Debug("EXPLORER", "[", net, "] Waiting for something to explore")

				if !wait(ctx, idle) {
					return
				}

				continue
			}

			if !wait(ctx, e.rate) {
				return
			}

			var cp *types.Checkpoint
			if cp, err = c.GetCheckpoint(ctx, nexp.Next()); err != nil {
				if errors.Is(err, types.ErrNoCheckpoint) {
					err = nil

					if !wait(ctx, idle) {
						return
					}

					continue
				}

				logx.Error("EXPLORER", "[", net, "] GetCheckpoint ", nexp.Next(), ": ", err)
				nexp.Stop()

				return
			}

			logx.Debug("EXPLORER", "[", net, "] Parsing checkpoint ", cp.SequenceNumber, " digest:", cp.Digest,
				" previous:", cp.PreviousDigest)

			if !nexp.Chained(cp.PreviousDigest) {
				err = fmt.Errorf("checkpoint %d is not chained to the last one scanned", cp.SequenceNumber)
				logx.Error("EXPLORER", "[", net, "] ", err)
				nexp.Stop()

				return
			}

			var txs []types.Trans
			if txs, err = c.DecodeTxs(ctx, cp); err != nil {
				logx.Error("EXPLORER", "[", net, "] DecodeTxs: ", err)
				nexp.Stop()

				return
			}

			nexp.UpdateChain(cp.Digest)

			if r := nexp.ScanTxs(txs); len(r) > 0 {
				err = e.mb.SendTrans(net, r)
				logx.Info("EXPLORER", "[", net, "] Sending ", len(r), " events, err:", err)
			}

			if errSave := e.db.SaveExplorer(net, nexp.ToStore()); errSave != nil {
				logx.Error("EXPLORER", "[", net, "] Error saving NetExplorer to DB: ", errSave)

				break
			}
		}
	}()
}

// ManageWalletRequests starts a go routine to receive and manage wallet requests for objects (addresses, ...) to be
// monitored in network 'net'.
func (e *Explorer) ManageWalletRequests(net string) error {
	nexp := e.NetExplorer(net)
	if nexp == nil {
		return fmt.Errorf("explorer: network %s is not set up", net)
	}

	mut := new(sync.Mutex)
	mut.Lock()

	reqCh, errCh, err := e.mb.GetReqs(net, mut)
	if err != nil {
		return fmt.Errorf("explorer: cannot get requests: %w", err)
	}

	go func() {
		logx.Info("EXPLORER", "[", net, "] Start listening to wallet request channel")

		for {
			select {
			case req, ok := <-reqCh:
				if !ok {
					logx.Info("EXPLORER", "[", net, "] Stop listening to wallet request channel")

					return
				}

				e.manage(net, nexp, req)
				mut.Unlock()
			case err, ok := <-errCh:
				if !ok {
					return
				}

				logx.Warn("EXPLORER", "[", net, "] Received error ", err)
			}
		}
	}()

	return nil
}

func (e *Explorer) manage(net string, nexp *ne.NetExplorer, req msg.WalletReq) {
	logx.Debug("EXPLORER", "[", net, "] Received request ", req)

	if !req.Valid(net) {
		logx.Warn("EXPLORER", "[", net, "] Ignoring request with wrong net, type, object or action: ", req)

		return
	}

	if req.Type == msg.TX {
		logx.Warn("EXPLORER", "[", net, "] Listening to transactions is not supported: ", req.Obj)

		return
	}

	a := store.Address{Addr: req.Obj}

	if req.Act == msg.LISTEN {
		if _, err := e.db.AddAddress(a, net); err != nil {
			logx.Error("EXPLORER", "[", net, "] Error adding WalletReq address to DB: ", err)
		}

		nexp.Add(req.Obj, ne.Listen)
		logx.Info("EXPLORER", "[", net, "] Added object ", req.Obj)

		return
	}

	if err := e.db.RemoveAddress(a, net); err != nil {
		logx.Warn("EXPLORER", "[", net, "] Error deleting WalletReq address from DB: ", err)
	}

	if _, ok := nexp.Del(req.Obj); !ok {
		logx.Warn("EXPLORER", "[", net, "] WalletReq address ", req.Obj, " not found in NetExplorer. Ignoring...")
	}

	logx.Info("EXPLORER", "[", net, "] Removed object ", req.Obj)
}
