// Package store defines the interface for database implementations to the wallet and explorer microservices.
package store

import (
	"errors"
)

// DB defines required methods for wallets and explorers
type DB interface {
	// methods for wallet service
	AddAddress(a Address, net string) ([]byte, error)
	RemoveAddress(a Address, net string) error
	GetAddresses(nets []string) ([]ListenedAddresses, error)
	SaveTransfer(net string, t Transfer) error
	GetTransfers(net, addr string) ([]Transfer, error)
	// methods for explorer service
	LoadExplorer(net string) (NetExplorer, error)
	SaveExplorer(net string, ne NetExplorer) error
	DeleteExplorer(net string) error
	// Close releases the database connection. Must be called at termination time.
	Close() error
}

// Errors returned
var (
	ErrAddrNotFound = errors.New("address was not found in store")
	ErrDataNotFound = errors.New("data was not found in store")
)
