// Package postgres implements the store interface for PostgreSQL.
package postgres

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tarancss/suiadp/lib/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS addresses (
	net     TEXT NOT NULL,
	address TEXT NOT NULL,
	name    TEXT NOT NULL DEFAULT '',
	id      BYTEA NOT NULL,
	PRIMARY KEY (net, address)
);
CREATE TABLE IF NOT EXISTS explorers (
	net   TEXT PRIMARY KEY,
	state JSONB NOT NULL
);
CREATE TABLE IF NOT EXISTS transfers (
	id         TEXT PRIMARY KEY,
	net        TEXT NOT NULL,
	digest     TEXT NOT NULL DEFAULT '',
	sender     TEXT NOT NULL,
	recipient  TEXT NOT NULL,
	amount     NUMERIC(20) NOT NULL,
	gas_price  NUMERIC(20) NOT NULL,
	gas_budget NUMERIC(20) NOT NULL,
	status     TEXT NOT NULL,
	error      TEXT NOT NULL DEFAULT '',
	created    BIGINT NOT NULL
);`

// Postgres implements a connection to a PostgreSQL database.
type Postgres struct {
	db *sql.DB
}

// New returns a postgres client connection to the specified database in 'connection' and creates the tables.
func New(connection string) (*Postgres, error) {
	db, err := sql.Open("postgres", connection)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to DB in %s: %w", connection, err)
	}

	if _, err = db.Exec(schema); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("cannot create tables: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close will close any database connection.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// AddAddress saves an address if the address does not already exist.
func (p *Postgres) AddAddress(a store.Address, net string) (id []byte, err error) {
	u := uuid.New()

	err = p.db.QueryRow(`INSERT INTO addresses (net, address, name, id) VALUES ($1, $2, $3, $4)
		ON CONFLICT (net, address) DO UPDATE SET net = EXCLUDED.net RETURNING id`,
		net, a.Addr, a.Name, u[:]).Scan(&id)

	return id, err
}

// RemoveAddress deletes an address from the database.
func (p *Postgres) RemoveAddress(a store.Address, net string) error {
	res, err := p.db.Exec(`DELETE FROM addresses WHERE net = $1 AND address = $2`, net, a.Addr)
	if err != nil {
		return err
	}

	if n, _ := res.RowsAffected(); n != 1 {
		return store.ErrAddrNotFound
	}

	return nil
}

// GetAddresses returns the addresses monitored for the networks in nets, or for all networks if empty.
func (p *Postgres) GetAddresses(nets []string) ([]store.ListenedAddresses, error) {
	rows, err := p.db.Query(`SELECT net, address, name, id FROM addresses
		WHERE cardinality($1::text[]) = 0 OR net = ANY($1) ORDER BY net, address`, pq.Array(nets))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	addrs := []store.ListenedAddresses{}

	for rows.Next() {
		var net string

		var a store.Address
		if err = rows.Scan(&net, &a.Addr, &a.Name, &a.ID); err != nil {
			return nil, err
		}

		if len(addrs) == 0 || addrs[len(addrs)-1].Net != net {
			addrs = append(addrs, store.ListenedAddresses{Net: net})
		}

		addrs[len(addrs)-1].Addr = append(addrs[len(addrs)-1].Addr, a)
	}

	return addrs, rows.Err()
}

// SaveTransfer inserts or updates a transfer record.
func (p *Postgres) SaveTransfer(net string, t store.Transfer) error {
	_, err := p.db.Exec(`INSERT INTO transfers
		(id, net, digest, sender, recipient, amount, gas_price, gas_budget, status, error, created)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET digest = EXCLUDED.digest, status = EXCLUDED.status, error = EXCLUDED.error,
		gas_price = EXCLUDED.gas_price`,
		t.ID, net, t.Digest, t.From, t.To, fmt.Sprint(t.Amount), fmt.Sprint(t.GasPrice), fmt.Sprint(t.GasBudget),
		t.Status, t.Error, t.Created)

	return err
}

// GetTransfers returns the transfers of a network sent from or to addr, or all of them when addr is empty.
func (p *Postgres) GetTransfers(net, addr string) ([]store.Transfer, error) {
	rows, err := p.db.Query(`SELECT id, net, digest, sender, recipient, amount, gas_price, gas_budget, status, error,
		created FROM transfers WHERE net = $1 AND ($2 = '' OR sender = $2 OR recipient = $2) ORDER BY created`,
		net, addr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ts []store.Transfer

	for rows.Next() {
		var t store.Transfer
		if err = rows.Scan(&t.ID, &t.Net, &t.Digest, &t.From, &t.To, &t.Amount, &t.GasPrice, &t.GasBudget, &t.Status,
			&t.Error, &t.Created); err != nil {
			return nil, err
		}

		ts = append(ts, t)
	}

	return ts, rows.Err()
}

// LoadExplorer loads from db the NetExplorer for the indicated network.
func (p *Postgres) LoadExplorer(net string) (ne store.NetExplorer, err error) {
	var b []byte

	err = p.db.QueryRow(`SELECT state FROM explorers WHERE net = $1`, net).Scan(&b)
	if errors.Is(err, sql.ErrNoRows) {
		return ne, store.ErrDataNotFound
	}

	if err != nil {
		return ne, err
	}

	err = json.Unmarshal(b, &ne)

	return ne, err
}

// SaveExplorer saves to db the NetExplorer for the indicated network.
func (p *Postgres) SaveExplorer(net string, ne store.NetExplorer) error {
	b, err := json.Marshal(ne)
	if err != nil {
		return err
	}

	_, err = p.db.Exec(`INSERT INTO explorers (net, state) VALUES ($1, $2)
		ON CONFLICT (net) DO UPDATE SET state = EXCLUDED.state`, net, b)

	return err
}

// DeleteExplorer deletes from db the NetExplorer for the indicated network.
func (p *Postgres) DeleteExplorer(net string) error {
	_, err := p.db.Exec(`DELETE FROM explorers WHERE net = $1`, net)

	return err
}
