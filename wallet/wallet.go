// Package wallet implements the wallet microservice.
//
// This microservice implements a RESTful API for clients to read balances and coins of Sui addresses in several
// networks, send SUI from the accounts of an HD wallet and ask the explorer service to monitor addresses.
package wallet

import (
	"context"
	"sync"

	"github.com/tarancss/hd"

	"github.com/tarancss/suiadp/lib/block"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/engine"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/msg"
	"github.com/tarancss/suiadp/lib/store"
	"github.com/tarancss/suiadp/lib/store/db"
)

// Wallet contains the data necessary to deliver the service
type Wallet struct {
	db   store.DB                   // db connection
	bc   map[string]block.Chain     // network clients
	opts map[string][]engine.Option // engine options per network
	hd   *hd.HdWallet               // HD wallet
	mb   msg.MsgBroker
	mu   sync.Mutex // serializes transfers so one sender never picks the same gas coin twice
	srv  servers
}

// Option configures a Wallet.
type Option func(*Wallet)

// WithEngineOptions sets the transfer options used in network net.
func WithEngineOptions(net string, opts ...engine.Option) Option {
	return func(w *Wallet) { w.opts[net] = append(w.opts[net], opts...) }
}

// New returns a pointer to a new Wallet service
func New(dbConn store.DB, mb msg.MsgBroker, bc map[string]block.Chain, hdw *hd.HdWallet, opts ...Option) *Wallet {
	w := &Wallet{
		db:   dbConn,
		mb:   mb,
		bc:   bc,
		hd:   hdw,
		opts: make(map[string][]engine.Option),
	}

	for _, o := range opts {
		o(w)
	}

	return w
}

// StopWallet shuts down the http servers implementing the RESTful API and closes gracefully the connections to
// message broker and database.
func (w *Wallet) StopWallet(ctx context.Context) {
	w.shutdown(ctx)

	if w.mb != nil {
		if err := w.mb.Close(); err != nil {
			logx.Error("WALLET", "Error closing message broker: ", err)
		}
	}

	if err := db.Close(w.db); err != nil {
		logx.Error("WALLET", "Error disconnecting database: ", err)
	}
}

// ManageEvents starts go routines to consume the message broker queues for events sent by the explorer service.
// Events of transfers sent by the wallet update their stored status.
func (w *Wallet) ManageEvents() error {
	for net := range w.bc {
		mut := new(sync.Mutex)
		mut.Lock()

		eveCh, errCh, err := w.mb.GetEvents(net, mut)
		if err != nil {
			return err
		}

		go func() {
			logx.Info("WALLET", "[", net, "] Start listening to explorer event channel")

			for eve := range eveCh {
				w.event(net, eve)
				mut.Unlock()
			}

			logx.Info("WALLET", "[", net, "] Stop listening to explorer event channel")
		}()

		go func() {
			for err := range errCh {
				logx.Warn("WALLET", "[", net, "] Received error ", err)
			}
		}()
	}

	return nil
}

// event records the status of a transfer event in the store if it was sent by the wallet.
func (w *Wallet) event(net string, eve types.Trans) {
	logx.Info("WALLET", "[", net, "] Received event ", eve.Digest, " from ", eve.From, " to ", eve.To)

	ts, err := w.db.GetTransfers(net, eve.From)
	if err != nil {
		logx.Error("WALLET", "[", net, "] Cannot read transfers: ", err)

		return
	}

	for _, t := range ts {
		if t.Digest != eve.Digest {
			continue
		}

		status := store.TransferConfirmed
		if eve.Status == types.TrxFailed {
			status = store.TransferFailed
		}

		if t.Status == status {
			return
		}

		t.Status = status
		if err = w.db.SaveTransfer(net, t); err != nil {
			logx.Error("WALLET", "[", net, "] Cannot update transfer ", t.ID, ": ", err)
		}

		return
	}
}
