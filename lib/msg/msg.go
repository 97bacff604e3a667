// Package msg defines the interface for the message brokers that connect the wallet and the explorer services.
package msg

import (
	"errors"
	"sync"

	"github.com/tarancss/suiadp/lib/block/types"
)

// Types of object for wallet requests.
const (
	EXIT    = -1
	ADDRESS = 0
	TX      = 1
)

// Actions to be applied to objects for wallet requests.
const (
	LISTEN   = 0
	UNLISTEN = 1
)

// ErrClosed is returned when using a broker after Close.
var ErrClosed = errors.New("message broker is closed")

// WalletReq defines the message that wallet service publishes to explorer to ask to explore an object.
type WalletReq struct {
	Net  string `json:"net"`
	Type int    `json:"type"` // type of object
	Obj  string `json:"obj"`
	Act  int    `json:"act"` // action to be applied
}

// Valid reports whether the request is addressed to net and carries a known type and action.
func (r WalletReq) Valid(net string) bool {
	return r.Net == net && (r.Type == ADDRESS || r.Type == TX) && r.Obj != "" && (r.Act == LISTEN || r.Act == UNLISTEN)
}

// MsgBroker is implemented by the brokers. Consumers pass a locked mutex to GetEvents and GetReqs and unlock it once
// they have dealt with each message; only then the broker acknowledges it and delivers the next one.
type MsgBroker interface {
	Setup() error
	Close() error

	// methods for wallet service
	SendRequest(net string, r WalletReq) error
	GetEvents(net string, mut *sync.Mutex) (<-chan types.Trans, <-chan error, error)

	// methods for explorer service
	GetReqs(net string, mut *sync.Mutex) (<-chan WalletReq, <-chan error, error)
	SendTrans(net string, t []types.Trans) error
}
