// Package bolt implements the store interface on an embedded bbolt database file. It needs no server and is the
// default store of the services.
package bolt

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/store"
)

// Top level buckets. Addresses and transfers have one nested bucket per network.
var (
	addrBucket = []byte("addr")
	explBucket = []byte("expl")
	txBucket   = []byte("tx")
)

// Bolt implements a store on a bbolt file.
type Bolt struct {
	db *bolt.DB
}

// New opens (or creates) the database file at path.
func New(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second}) //nolint:gomnd // 5 seconds timeout
	if err != nil {
		return nil, fmt.Errorf("cannot open bolt DB in %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{addrBucket, explBucket, txBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("cannot create buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close closes the database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// AddAddress saves an address if the address does not already exist, and returns its id.
func (b *Bolt) AddAddress(a store.Address, net string) (id []byte, err error) {
	err = b.db.Update(func(tx *bolt.Tx) error {
		nb, err := tx.Bucket(addrBucket).CreateBucketIfNotExists([]byte(net))
		if err != nil {
			return err
		}

		if v := nb.Get([]byte(a.Addr)); v != nil {
			var old store.Address
			if err = json.Unmarshal(v, &old); err != nil {
				return err
			}

			logx.Info("STORE", "[", net, "] Address was already listened: ", a.Addr)

			id = old.ID

			return nil
		}

		u := uuid.New()
		a.ID = u[:]

		v, err := json.Marshal(a)
		if err != nil {
			return err
		}

		id = a.ID

		return nb.Put([]byte(a.Addr), v)
	})

	return id, err
}

// RemoveAddress deletes an address from the database.
func (b *Bolt) RemoveAddress(a store.Address, net string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		nb := tx.Bucket(addrBucket).Bucket([]byte(net))
		if nb == nil || nb.Get([]byte(a.Addr)) == nil {
			return store.ErrAddrNotFound
		}

		return nb.Delete([]byte(a.Addr))
	})
}

// GetAddresses returns the addresses monitored for the networks indicated in the nets slice, or for all networks
// when it is empty.
func (b *Bolt) GetAddresses(nets []string) (addrs []store.ListenedAddresses, err error) {
	addrs = []store.ListenedAddresses{}

	err = b.db.View(func(tx *bolt.Tx) error {
		top := tx.Bucket(addrBucket)

		return top.ForEach(func(k, v []byte) error {
			net := string(k)
			if v != nil || (len(nets) > 0 && !slices.Contains(nets, net)) {
				return nil
			}

			la := store.ListenedAddresses{Net: net}

			err := top.Bucket(k).ForEach(func(_, v []byte) error {
				var a store.Address
				if err := json.Unmarshal(v, &a); err != nil {
					return err
				}

				la.Addr = append(la.Addr, a)

				return nil
			})

			addrs = append(addrs, la)

			return err
		})
	})

	return addrs, err
}

// SaveTransfer inserts or updates a transfer record.
func (b *Bolt) SaveTransfer(net string, t store.Transfer) error {
	v, err := json.Marshal(t)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		nb, err := tx.Bucket(txBucket).CreateBucketIfNotExists([]byte(net))
		if err != nil {
			return err
		}

		return nb.Put([]byte(t.ID), v)
	})
}

// GetTransfers returns the transfers of a network sent from or to addr, or all of them when addr is empty.
func (b *Bolt) GetTransfers(net, addr string) (ts []store.Transfer, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		nb := tx.Bucket(txBucket).Bucket([]byte(net))
		if nb == nil {
			return nil
		}

		return nb.ForEach(func(_, v []byte) error {
			var t store.Transfer
			if err := json.Unmarshal(v, &t); err != nil {
				return err
			}

			if addr == "" || t.From == addr || t.To == addr {
				ts = append(ts, t)
			}

			return nil
		})
	})

	slices.SortFunc(ts, func(a, b store.Transfer) int { return int(a.Created - b.Created) })

	return ts, err
}

// LoadExplorer loads from db the NetExplorer for the indicated network.
func (b *Bolt) LoadExplorer(net string) (ne store.NetExplorer, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(explBucket).Get([]byte(net))
		if v == nil {
			return store.ErrDataNotFound
		}

		return json.Unmarshal(v, &ne)
	})

	return ne, err
}

// SaveExplorer saves to db the NetExplorer for the indicated network.
func (b *Bolt) SaveExplorer(net string, ne store.NetExplorer) error {
	v, err := json.Marshal(ne)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(explBucket).Put([]byte(net), v)
	})
}

// DeleteExplorer deletes from db the NetExplorer for the indicated network.
func (b *Bolt) DeleteExplorer(net string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(explBucket).Delete([]byte(net))
	})
}
