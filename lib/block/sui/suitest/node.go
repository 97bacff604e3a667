// Package suitest provides a fake Sui full node speaking JSON-RPC over httptest. It keeps coins per owner, executes
// signed SUI transfers, and seals executed transactions into checkpoints.
package suitest

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/txn"
)

// JSON-RPC error codes returned by the node.
const (
	CodeInvalidParams = -32602
	CodeInternal      = -32603
	CodeConflict      = -32002
)

// Submission records one sui_executeTransactionBlock call.
type Submission struct {
	TxBytes    []byte
	Intent     txn.TransferIntent
	Signatures []string
	Mode       string
	Digest     string
	Err        error
}

// Node is a fake full node. Exported fields may be changed by tests before calls are made.
type Node struct {
	*httptest.Server

	mu sync.Mutex

	// Version is reported by rpc.discover.
	Version string
	// GasPrice is the reference gas price.
	GasPrice uint64
	// PageSize is the maximum number of coins per suix_getCoins page.
	PageSize int
	// Digest, when set, is returned for every executed transaction instead of the real digest.
	Digest string
	// ExecStatus is the effects status of executed transactions ("success" when empty).
	ExecStatus string
	// Fail makes a method return an internal error.
	Fail map[string]bool

	coins       map[types.Address][]types.Coin
	metadata    map[string]types.CoinMetadata
	supply      map[string]uint64
	spent       map[types.ObjectRef]bool
	txs         map[string]types.TxResponse
	pending     []string
	checkpoints []types.Checkpoint
	submissions []Submission
	calls       map[string]int
	nextID      uint64
}

// NewNode starts a fake node. Close it when done.
func NewNode() *Node {
	n := &Node{
		Version:  "1.38.0",
		GasPrice: 750,
		PageSize: 50,
		Fail:     map[string]bool{},
		coins:    map[types.Address][]types.Coin{},
		metadata: map[string]types.CoinMetadata{},
		supply:   map[string]uint64{},
		spent:    map[types.ObjectRef]bool{},
		txs:      map[string]types.TxResponse{},
		calls:    map[string]int{},
	}

	n.metadata[types.SuiCoinType] = types.CoinMetadata{Name: "Sui", Symbol: "SUI", Decimals: 9, Description: ""}
	n.supply[types.SuiCoinType] = 10_000_000_000 * types.MistPerSui

	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))

	return n
}

func hash(parts ...[]byte) (d [32]byte) {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(p)
	}

	copy(d[:], h.Sum(nil))

	return d
}

// AddCoin gives owner a new coin of coinType ("" for SUI) with the given balance.
func (n *Node) AddCoin(owner types.Address, coinType string, balance uint64) types.Coin {
	if coinType == "" {
		coinType = types.SuiCoinType
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++

	id := make([]byte, 8)
	binary.BigEndian.PutUint64(id, n.nextID)

	var oid types.ObjectID
	copy(oid[24:], id)

	c := types.Coin{
		CoinType:            coinType,
		CoinObjectID:        oid,
		Version:             1,
		Digest:              hash([]byte("coin"), id),
		Balance:             types.U64(balance),
		PreviousTransaction: base58.Encode(make([]byte, 32)),
	}
	n.coins[owner] = append(n.coins[owner], c)

	return c
}

// AddCoinType registers metadata and supply for a coin type.
func (n *Node) AddCoinType(coinType string, md types.CoinMetadata, supply uint64) {
	n.mu.Lock()
	n.metadata[coinType] = md
	n.supply[coinType] = supply
	n.mu.Unlock()
}

// AddTx stores a transaction response and queues it for the next checkpoint.
func (n *Node) AddTx(tx types.TxResponse) {
	n.mu.Lock()
	n.txs[tx.Digest] = tx
	n.pending = append(n.pending, tx.Digest)
	n.mu.Unlock()
}

// Seal puts every pending transaction into a new checkpoint and returns it.
func (n *Node) Seal() types.Checkpoint {
	n.mu.Lock()
	defer n.mu.Unlock()

	seq := uint64(len(n.checkpoints))

	var prev string
	if seq > 0 {
		prev = n.checkpoints[seq-1].Digest
	}

	num := make([]byte, 8)
	binary.BigEndian.PutUint64(num, seq)
	d := hash([]byte("checkpoint"), num, []byte(prev))

	cp := types.Checkpoint{
		Epoch:          1,
		SequenceNumber: types.U64(seq),
		Digest:         base58.Encode(d[:]),
		PreviousDigest: prev,
		TimestampMs:    types.U64(1_700_000_000_000 + seq*250),
		Transactions:   n.pending,
	}

	for _, dg := range n.pending {
		tx := n.txs[dg]
		s := types.U64(seq)
		tx.Checkpoint = &s
		n.txs[dg] = tx
	}

	n.pending = nil
	n.checkpoints = append(n.checkpoints, cp)

	return cp
}

// ReplaceCheckpoint overwrites a sealed checkpoint, to simulate a node that changed its history.
func (n *Node) ReplaceCheckpoint(cp types.Checkpoint) {
	n.mu.Lock()
	n.checkpoints[cp.SequenceNumber] = cp
	n.mu.Unlock()
}

// Submissions returns the executed submissions, successful or not.
func (n *Node) Submissions() []Submission {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]Submission(nil), n.submissions...)
}

// Calls returns how many times method was called.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.calls[method]
}

type request struct {
	Version string            `json:"jsonrpc"`
	ID      json.RawMessage   `json:"id"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	var req request
	if err = json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	res := response{Version: "2.0", ID: req.ID}

	result, rerr := n.dispatch(req.Method, req.Params)
	if rerr != nil {
		res.Error = rerr
	} else {
		res.Result = result
	}

	w.Header().Set("Content-Type", "application/json")

	// a nil result must still be sent as "result":null
	if rerr == nil && result == nil {
		_, _ = fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%s,"result":null}`, req.ID)

		return
	}

	_ = json.NewEncoder(w).Encode(res)
}

func param[T any](params []json.RawMessage, i int) (v T, err error) {
	if i >= len(params) {
		return v, fmt.Errorf("missing param %d", i)
	}

	err = json.Unmarshal(params[i], &v)

	return v, err
}

func invalid(err error) *rpcError {
	return &rpcError{Code: CodeInvalidParams, Message: err.Error()}
}

func (n *Node) dispatch(method string, params []json.RawMessage) (interface{}, *rpcError) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.calls[method]++

	if n.Fail[method] {
		return nil, &rpcError{Code: CodeInternal, Message: "internal error"}
	}

	switch method {
	case "rpc.discover":
		return map[string]interface{}{
			"openrpc": "1.2.6",
			"info":    map[string]string{"title": "Sui JSON-RPC", "version": n.Version},
			"methods": []interface{}{},
		}, nil
	case "suix_getReferenceGasPrice":
		return strconv.FormatUint(n.GasPrice, 10), nil
	case "suix_getCoins":
		return n.getCoins(params)
	case "suix_getBalance":
		return n.getBalance(params)
	case "suix_getAllBalances":
		return n.getAllBalances(params)
	case "suix_getCoinMetadata":
		ct, err := param[string](params, 0)
		if err != nil {
			return nil, invalid(err)
		}

		if md, ok := n.metadata[ct]; ok {
			return md, nil
		}

		return nil, nil
	case "suix_getTotalSupply":
		ct, err := param[string](params, 0)
		if err != nil {
			return nil, invalid(err)
		}

		s, ok := n.supply[ct]
		if !ok {
			return nil, invalid(fmt.Errorf("unknown coin type %s", ct))
		}

		return types.Supply{Value: types.NewBigInt(s)}, nil
	case "sui_executeTransactionBlock":
		return n.execute(params)
	case "sui_getTransactionBlock":
		d, err := param[string](params, 0)
		if err != nil {
			return nil, invalid(err)
		}

		tx, ok := n.txs[d]
		if !ok {
			return nil, invalid(fmt.Errorf("could not find the referenced transaction %s", d))
		}

		return tx, nil
	case "sui_multiGetTransactionBlocks":
		ds, err := param[[]string](params, 0)
		if err != nil {
			return nil, invalid(err)
		}

		out := make([]types.TxResponse, 0, len(ds))
		for _, d := range ds {
			if tx, ok := n.txs[d]; ok {
				out = append(out, tx)
			}
		}

		return out, nil
	case "sui_getLatestCheckpointSequenceNumber":
		if len(n.checkpoints) == 0 {
			return nil, invalid(fmt.Errorf("no checkpoints"))
		}

		return strconv.Itoa(len(n.checkpoints) - 1), nil
	case "sui_getCheckpoint":
		s, err := param[string](params, 0)
		if err != nil {
			return nil, invalid(err)
		}

		seq, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, invalid(err)
		}

		if seq >= uint64(len(n.checkpoints)) {
			return nil, invalid(fmt.Errorf("checkpoint %d not found", seq))
		}

		return n.checkpoints[seq], nil
	}

	return nil, &rpcError{Code: -32601, Message: "method not found: " + method}
}

func ownerParam(params []json.RawMessage) (types.Address, *rpcError) {
	s, err := param[string](params, 0)
	if err != nil {
		return types.Address{}, invalid(err)
	}

	a, err := types.ParseAddress(s)
	if err != nil {
		return types.Address{}, invalid(err)
	}

	return a, nil
}

func (n *Node) getCoins(params []json.RawMessage) (interface{}, *rpcError) {
	owner, rerr := ownerParam(params)
	if rerr != nil {
		return nil, rerr
	}

	ct, _ := param[*string](params, 1)
	cursor, _ := param[*string](params, 2)
	limit, _ := param[*int](params, 3)

	coinType := types.SuiCoinType
	if ct != nil {
		coinType = *ct
	}

	size := n.PageSize
	if limit != nil && *limit > 0 && *limit < size {
		size = *limit
	}

	var all []types.Coin

	for _, c := range n.coins[owner] {
		if c.CoinType == coinType {
			all = append(all, c)
		}
	}

	start := 0

	if cursor != nil {
		for i, c := range all {
			if c.CoinObjectID.String() == *cursor {
				start = i + 1
			}
		}
	}

	end := min(start+size, len(all))
	page := types.CoinPage{Data: append([]types.Coin{}, all[start:end]...), HasNextPage: end < len(all)}

	if page.HasNextPage {
		next := all[end-1].CoinObjectID.String()
		page.NextCursor = &next
	}

	return page, nil
}

func (n *Node) balances(owner types.Address) map[string]*types.Balance {
	m := map[string]*types.Balance{}

	for _, c := range n.coins[owner] {
		b, ok := m[c.CoinType]
		if !ok {
			b = &types.Balance{CoinType: c.CoinType, TotalBalance: types.NewBigInt(0)}
			m[c.CoinType] = b
		}

		b.CoinObjectCount++
		b.TotalBalance = types.NewBigInt(b.TotalBalance.Uint64() + uint64(c.Balance))
	}

	return m
}

func (n *Node) getBalance(params []json.RawMessage) (interface{}, *rpcError) {
	owner, rerr := ownerParam(params)
	if rerr != nil {
		return nil, rerr
	}

	coinType := types.SuiCoinType
	if ct, _ := param[*string](params, 1); ct != nil {
		coinType = *ct
	}

	if b, ok := n.balances(owner)[coinType]; ok {
		return b, nil
	}

	return types.Balance{CoinType: coinType, TotalBalance: types.NewBigInt(0)}, nil
}

func (n *Node) getAllBalances(params []json.RawMessage) (interface{}, *rpcError) {
	owner, rerr := ownerParam(params)
	if rerr != nil {
		return nil, rerr
	}

	m := n.balances(owner)
	out := make([]types.Balance, 0, len(m))

	for _, b := range m {
		out = append(out, *b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CoinType < out[j].CoinType })

	return out, nil
}

// execute verifies and applies a signed transfer. Coin refs are not bumped after use, so a coin keeps being listed
// with the version already spent and any later use of it is rejected as a conflict.
func (n *Node) execute(params []json.RawMessage) (interface{}, *rpcError) {
	var st txn.SignedTransaction

	var err error

	if st.TxBytes, err = param[string](params, 0); err != nil {
		return nil, invalid(err)
	}

	if st.Signatures, err = param[[]string](params, 1); err != nil {
		return nil, invalid(err)
	}

	mode, _ := param[string](params, 3)

	sub := Submission{Signatures: st.Signatures, Mode: mode}
	sub.TxBytes, _ = base64.StdEncoding.DecodeString(st.TxBytes)

	defer func() { n.submissions = append(n.submissions, sub) }()

	if _, _, err = st.Verify(); err != nil {
		sub.Err = err

		return nil, invalid(err)
	}

	if sub.Intent, err = txn.DecodeTransfer(sub.TxBytes); err != nil {
		sub.Err = err

		return nil, invalid(err)
	}

	ti := sub.Intent
	if n.spent[ti.GasCoin] {
		sub.Err = fmt.Errorf("object %s version %d already used", ti.GasCoin.ObjectID, ti.GasCoin.Version)

		return nil, &rpcError{Code: CodeConflict, Message: "Transaction validator signing failed due to issues " +
			"with transaction inputs: " + sub.Err.Error()}
	}

	found := false

	for _, c := range n.coins[ti.Sender] {
		if c.Ref() == ti.GasCoin {
			found = true
		}
	}

	if !found {
		sub.Err = fmt.Errorf("gas coin %s not owned by %s", ti.GasCoin.ObjectID, ti.Sender)

		return nil, invalid(sub.Err)
	}

	n.spent[ti.GasCoin] = true

	digest := txn.Digest(sub.TxBytes).String()
	if n.Digest != "" {
		digest = n.Digest
	}

	sub.Digest = digest

	status := n.ExecStatus
	if status == "" {
		status = types.StatusSuccess
	}

	gas := types.GasCostSummary{ComputationCost: types.U64(ti.GasPrice), StorageCost: 1976000, StorageRebate: 978120}
	fx := &types.Effects{
		MessageVersion:    "v1",
		Status:            types.ExecutionStatus{Status: status},
		ExecutedEpoch:     1,
		GasUsed:           gas,
		TransactionDigest: digest,
		GasObject:         &types.OwnedObjectRef{Owner: ownerJSON(ti.Sender), Reference: ti.GasCoin},
	}

	if status != types.StatusSuccess {
		fx.Status.Error = "InsufficientGas"
	}

	tx := types.TxResponse{
		Digest: digest,
		Transaction: &types.TxBlock{
			Data: types.TxData{
				MessageVersion: "v1",
				Sender:         ti.Sender.String(),
				GasData: types.GasData{
					Payment: []types.ObjectRef{ti.GasCoin},
					Owner:   ti.Sender.String(),
					Price:   types.U64(ti.GasPrice),
					Budget:  types.U64(ti.GasBudget),
				},
			},
			TxSignatures: st.Signatures,
		},
		Effects: fx,
		BalanceChanges: []types.BalanceChange{
			{
				Owner:    ownerJSON(ti.Sender),
				CoinType: types.SuiCoinType,
				Amount:   "-" + strconv.FormatUint(ti.Amount+gas.Total(), 10),
			},
			{
				Owner:    ownerJSON(ti.Recipient),
				CoinType: types.SuiCoinType,
				Amount:   strconv.FormatUint(ti.Amount, 10),
			},
		},
	}

	n.txs[digest] = tx
	n.pending = append(n.pending, digest)

	return tx, nil
}

func ownerJSON(a types.Address) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"AddressOwner":%q}`, a.String()))
}
