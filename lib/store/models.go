package store

// Address contains the fields for an address save to DB.
type Address struct {
	ID   []byte `json:"id"`
	Name string `json:"name"`
	Addr string `json:"addr"`
}

// ListenedAddresses contains the fields of monitored objects saved to DB.
type ListenedAddresses struct {
	Net  string    `json:"net"`
	Addr []Address `json:"addresses"`
}

// NetExplorer contains the fields for a NetExplorer type saved to DB: the next checkpoint to scan, a ring of the
// last checkpoint digests with the index of the newest one, and the listened addresses.
type NetExplorer struct {
	Checkpoint uint64            `json:"checkpoint" bson:"checkpoint"`
	Digests    []string          `json:"digests" bson:"digests"`
	Idx        int               `json:"idx" bson:"idx"`
	Map        map[string]string `json:"map" bson:"map"`
}

// Transfer status values.
const (
	TransferSubmitted = "submitted"
	TransferConfirmed = "confirmed"
	TransferFailed    = "failed"
)

// Transfer is a transfer sent by the wallet service. Amount, GasPrice and GasBudget are in MIST.
type Transfer struct {
	ID        string `json:"id" bson:"_id"`
	Net       string `json:"net" bson:"net"`
	Digest    string `json:"digest,omitempty" bson:"digest,omitempty"`
	From      string `json:"from" bson:"from"`
	To        string `json:"to" bson:"to"`
	Amount    uint64 `json:"amount" bson:"amount"`
	GasPrice  uint64 `json:"gasPrice" bson:"gasPrice"`
	GasBudget uint64 `json:"gasBudget" bson:"gasBudget"`
	Status    string `json:"status" bson:"status"`
	Error     string `json:"error,omitempty" bson:"error,omitempty"`
	Created   int64  `json:"created" bson:"created"` // unix seconds
}
