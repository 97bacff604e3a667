// Package netexplorer keeps the exploring state of one network: the next checkpoint to scan, the digests of the
// last checkpoints scanned and the objects being monitored.
package netexplorer

import (
	"errors"
	"sync"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/store"
)

// Status possible values, control whether a NetExplorer is working or is/has to stop
const (
	WORK int = 0
	STOP int = 1
)

// Listen is the value stored for listened addresses.
const Listen = "listen"

// NetExplorer contains the fields and data structures required to manage the exploring of a network.
type NetExplorer struct {
	l          sync.Mutex // l guards every field
	status     int
	Checkpoint uint64            // next checkpoint to scan
	Digests    []string          // digests of the last checkpoints scanned, a ring
	Idx        int               // index of the last checkpoint's digest in Digests
	Map        map[string]string // monitored addresses
}

// New gets the listened addresses and returns a NetExplorer. The state saved in db is resumed; when there is none
// exploring starts at checkpoint start. max is the number of digests kept.
func New(net string, max int, l []store.ListenedAddresses, db store.DB, start uint64) (*NetExplorer, error) {
	if max < 1 {
		max = 1
	}

	ne := &NetExplorer{status: WORK, Checkpoint: start, Digests: make([]string, max)}

	s, err := db.LoadExplorer(net)
	switch {
	case errors.Is(err, store.ErrDataNotFound):
	case err != nil:
		return nil, err
	default:
		ne.FromStore(s)

		if len(ne.Digests) != max {
			logx.Warn("EXPLORER", "[", net, "] Saved digests do not match ", max, " checkpoints. Resetting chain")

			ne.Digests, ne.Idx = make([]string, max), 0
		}
	}

	ne.Map = make(map[string]string)

	for _, la := range l {
		if la.Net != net && la.Net != "" {
			continue
		}

		for _, a := range la.Addr {
			ne.Map[a.Addr] = Listen
		}
	}

	logx.Debug("EXPLORER", "[", net, "] netexplorer.New at checkpoint ", ne.Checkpoint, " listening ", len(ne.Map))

	return ne, nil
}

// ScanTxs returns the transactions whose sender or recipient is being monitored.
func (n *NetExplorer) ScanTxs(txs []types.Trans) []types.Trans {
	n.l.Lock()
	defer n.l.Unlock()

	var r []types.Trans

	for _, tx := range txs {
		if _, ok := n.Map[tx.From]; ok {
			r = append(r, tx)
		} else if _, ok = n.Map[tx.To]; ok && tx.To != "" {
			r = append(r, tx)
		}
	}

	return r
}

// Chained checks if the supplied digest is the last checkpoint's digest. Anything chains to an empty ring.
func (n *NetExplorer) Chained(previous string) bool {
	n.l.Lock()
	defer n.l.Unlock()

	return n.Digests[n.Idx] == previous || n.Digests[n.Idx] == ""
}

// UpdateChain records the digest of the checkpoint just scanned and moves to the next one.
func (n *NetExplorer) UpdateChain(digest string) {
	n.l.Lock()
	defer n.l.Unlock()

	n.Checkpoint++
	n.Idx = (n.Idx + 1) % len(n.Digests)
	n.Digests[n.Idx] = digest
}

// Next returns the sequence number of the next checkpoint to scan.
func (n *NetExplorer) Next() uint64 {
	n.l.Lock()
	defer n.l.Unlock()

	return n.Checkpoint
}

// Add adds an object and its value to the monitoring map
func (n *NetExplorer) Add(obj, value string) {
	n.l.Lock()
	n.Map[obj] = value
	n.l.Unlock()
}

// Del deletes a monitored object from the map returning its value and an ok flag.
func (n *NetExplorer) Del(obj string) (value string, ok bool) {
	n.l.Lock()
	defer n.l.Unlock()

	value, ok = n.Map[obj]
	delete(n.Map, obj)

	return
}

// Len returns the number of monitored objects.
func (n *NetExplorer) Len() int {
	n.l.Lock()
	defer n.l.Unlock()

	return len(n.Map)
}

// ToStore returns a copy of the state to be saved to store
func (n *NetExplorer) ToStore() store.NetExplorer {
	n.l.Lock()
	defer n.l.Unlock()

	m := make(map[string]string, len(n.Map))
	for k, v := range n.Map {
		m[k] = v
	}

	return store.NetExplorer{
		Checkpoint: n.Checkpoint,
		Digests:    append([]string(nil), n.Digests...),
		Idx:        n.Idx,
		Map:        m,
	}
}

// FromStore loads the NetExplorer with the values read from store
func (n *NetExplorer) FromStore(s store.NetExplorer) {
	n.l.Lock()
	defer n.l.Unlock()

	n.Checkpoint = s.Checkpoint
	n.Digests = s.Digests
	n.Idx = s.Idx
	n.Map = s.Map

	if n.Idx < 0 || n.Idx >= len(n.Digests) {
		n.Idx = 0
	}
}

// Stop sets status to STOP
func (n *NetExplorer) Stop() {
	n.l.Lock()
	n.status = STOP
	n.l.Unlock()
}

// Start sets status to WORK
func (n *NetExplorer) Start() {
	n.l.Lock()
	n.status = WORK
	n.l.Unlock()
}

// Status returns the current NetExplorer status
func (n *NetExplorer) Status() int {
	n.l.Lock()
	defer n.l.Unlock()

	return n.status
}
