package types

import (
	"encoding/json"
)

// ExecuteMode tells the node how long to wait before replying to a transaction submission.
type ExecuteMode string

// Execution wait modes.
const (
	WaitForEffectsCert    ExecuteMode = "WaitForEffectsCert"
	WaitForLocalExecution ExecuteMode = "WaitForLocalExecution"
)

// ResponseOptions selects the detail included in transaction responses.
type ResponseOptions struct {
	ShowInput          bool `json:"showInput,omitempty"`
	ShowRawInput       bool `json:"showRawInput,omitempty"`
	ShowEffects        bool `json:"showEffects,omitempty"`
	ShowEvents         bool `json:"showEvents,omitempty"`
	ShowObjectChanges  bool `json:"showObjectChanges,omitempty"`
	ShowBalanceChanges bool `json:"showBalanceChanges,omitempty"`
}

// FullContent requests every detail of a transaction response.
func FullContent() ResponseOptions {
	return ResponseOptions{
		ShowInput:          true,
		ShowRawInput:       true,
		ShowEffects:        true,
		ShowEvents:         true,
		ShowObjectChanges:  true,
		ShowBalanceChanges: true,
	}
}

// Execution status values reported in effects.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ExecutionStatus is the outcome of executing a transaction.
type ExecutionStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// GasCostSummary is the gas charged for a transaction.
type GasCostSummary struct {
	ComputationCost         U64 `json:"computationCost"`
	StorageCost             U64 `json:"storageCost"`
	StorageRebate           U64 `json:"storageRebate"`
	NonRefundableStorageFee U64 `json:"nonRefundableStorageFee"`
}

// Total returns computation plus storage cost minus the rebate, floored at zero.
func (g GasCostSummary) Total() uint64 {
	c := uint64(g.ComputationCost) + uint64(g.StorageCost)
	if r := uint64(g.StorageRebate); r < c {
		return c - r
	}

	return 0
}

// OwnedObjectRef is an object reference together with its owner.
type OwnedObjectRef struct {
	Owner     json.RawMessage `json:"owner"`
	Reference ObjectRef       `json:"reference"`
}

// Effects are the execution effects of a transaction.
type Effects struct {
	MessageVersion    string           `json:"messageVersion"`
	Status            ExecutionStatus  `json:"status"`
	ExecutedEpoch     U64              `json:"executedEpoch"`
	GasUsed           GasCostSummary   `json:"gasUsed"`
	TransactionDigest string           `json:"transactionDigest"`
	GasObject         *OwnedObjectRef  `json:"gasObject,omitempty"`
	Created           []OwnedObjectRef `json:"created,omitempty"`
	Mutated           []OwnedObjectRef `json:"mutated,omitempty"`
	Deleted           []ObjectRef      `json:"deleted,omitempty"`
}

// Succeeded reports whether the effects carry a success status.
func (e *Effects) Succeeded() bool {
	return e != nil && e.Status.Status == StatusSuccess
}

// GasData is the gas section of transaction data as returned by the node.
type GasData struct {
	Payment []ObjectRef `json:"payment"`
	Owner   string      `json:"owner"`
	Price   U64         `json:"price"`
	Budget  U64         `json:"budget"`
}

// TxData is the part of transaction input we read back.
type TxData struct {
	MessageVersion string  `json:"messageVersion"`
	Sender         string  `json:"sender"`
	GasData        GasData `json:"gasData"`
}

// TxBlock is the transaction input of a response.
type TxBlock struct {
	Data         TxData   `json:"data"`
	TxSignatures []string `json:"txSignatures"`
}

// BalanceChange is a coin balance delta caused by a transaction. Amount is signed.
type BalanceChange struct {
	Owner    json.RawMessage `json:"owner"`
	CoinType string          `json:"coinType"`
	Amount   string          `json:"amount"`
}

// AddressOwner returns the owning address when the change belongs to an address, or "" otherwise.
func (b BalanceChange) AddressOwner() string {
	var o struct {
		AddressOwner string `json:"AddressOwner"`
	}

	if err := json.Unmarshal(b.Owner, &o); err != nil {
		return ""
	}

	return o.AddressOwner
}

// TxResponse is the node's reply for an executed or queried transaction.
type TxResponse struct {
	Digest                  string          `json:"digest"`
	Transaction             *TxBlock        `json:"transaction,omitempty"`
	Effects                 *Effects        `json:"effects,omitempty"`
	BalanceChanges          []BalanceChange `json:"balanceChanges,omitempty"`
	TimestampMs             *U64            `json:"timestampMs,omitempty"`
	Checkpoint              *U64            `json:"checkpoint,omitempty"`
	ConfirmedLocalExecution *bool           `json:"confirmedLocalExecution,omitempty"`
	Errors                  []string        `json:"errors,omitempty"`
}
