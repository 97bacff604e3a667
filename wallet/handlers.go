package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/tarancss/suiadp/lib/block"
	"github.com/tarancss/suiadp/lib/block/sui"
	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/engine"
	"github.com/tarancss/suiadp/lib/keys"
	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/msg"
	"github.com/tarancss/suiadp/lib/store"
)

// TxReq is a request to send SUI. Wallet, Change and ID select the HD wallet account the transfer is sent from.
// Amount is in SUI; nil GasBudget and GasPrice use the network's configuration.
type TxReq struct {
	Wallet    uint32  `json:"wallet"`
	Change    uint8   `json:"change"`
	ID        uint32  `json:"id"`
	Net       string  `json:"net"` // network to submit the transaction to
	To        string  `json:"to"`
	Amount    float64 `json:"amount"`
	GasBudget *uint64 `json:"gasBudget,omitempty"`
	GasPrice  *uint64 `json:"gasPrice,omitempty"`
}

// Errors returned to client requests.
var (
	ErrBadMethod  = errors.New("bad method in request")
	ErrBadrequest = errors.New("bad request")
	ErrChange     = errors.New("invalid change: has to be either 0 /1 or external / change")
	ErrMissingNet = errors.New("undefined network - missing query: ?net=<network>")
	ErrNoHash     = errors.New("a 32-byte base58 digest is required")
	ErrNoNet      = errors.New("network not available")
)

// Response defines the data structure returned to the client making the http request.
type Response struct {
	Body  string `json:"body"`
	Error string `json:"error,omitempty"`
}

// reply writes the response. A body that is not a string is sent JSON encoded.
func reply(rw http.ResponseWriter, r *http.Request, status int, body interface{}, err error) {
	var res Response

	if err != nil {
		res.Error = err.Error()
	} else if s, ok := body.(string); ok {
		res.Body = s
	} else if body != nil {
		tmp, _ := json.Marshal(body)
		res.Body = string(tmp)
	}

	logx.Debug("WALLET", "httpreq from ", r.RemoteAddr, " ", r.Method, " ", r.RequestURI, " status:", status,
		" err:", err)

	rw.Header().Set("Content-Type", "application/json;charset=utf8")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(&res)
}

// chainStatus returns the status code for an error returned by a network call.
func chainStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrUnknownCoinType), errors.Is(err, types.ErrNoTrx):
		return http.StatusNotFound
	case errors.Is(err, types.ErrBadAddress), errors.Is(err, types.ErrBadDigest):
		return http.StatusBadRequest
	}

	return http.StatusBadGateway
}

// network returns the client of the only net in the query.
func (w *Wallet) network(r *http.Request) (string, block.Chain, int, error) {
	nets := r.Form["net"]
	if len(nets) != 1 {
		return "", nil, http.StatusBadRequest, ErrMissingNet
	}

	c, ok := w.bc[nets[0]]
	if !ok {
		return nets[0], nil, http.StatusNotFound, ErrNoNet
	}

	return nets[0], c, http.StatusOK, nil
}

// networks returns the configured networks in nets, or all of them, sorted by name.
func (w *Wallet) networks(nets []string) []string {
	names := make([]string, 0, len(w.bc))

	for name := range w.bc {
		if len(nets) == 0 || slices.Contains(nets, name) {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	return names
}

// homeHandler just replies a welcome message to the client.
func (w *Wallet) homeHandler(rw http.ResponseWriter, r *http.Request) {
	reply(rw, r, http.StatusOK, "Hello, this is your Sui wallet adaptor!", nil)
}

// networkInfo describes an available network.
type networkInfo struct {
	Net        string `json:"net"`
	APIVersion string `json:"apiVersion"`
}

// networksHandler replies the networks available to the wallet.
func (w *Wallet) networksHandler(rw http.ResponseWriter, r *http.Request) {
	nl := make([]networkInfo, 0, len(w.bc))

	for _, net := range w.networks(nil) {
		nl = append(nl, networkInfo{Net: net, APIVersion: w.bc[net].APIVersion()})
	}

	reply(rw, r, http.StatusOK, nl, nil)
}

// addrBalance is the balance of an address in one network.
type addrBalance struct {
	Net      string `json:"net"`
	CoinType string `json:"coinType"`
	Bal      string `json:"bal"`   // in the coin's smallest unit
	Coins    int    `json:"coins"` // number of coin objects
}

// addrBalHandler replies the balance of the address in the networks queried (?net=, all by default) for the coin
// type queried (?coin=, SUI by default).
func (w *Wallet) addrBalHandler(rw http.ResponseWriter, r *http.Request) {
	var bals []addrBalance

	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	owner, err := types.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	coinType := r.Form.Get("coin")

	for _, name := range w.networks(r.Form["net"]) {
		b, err := w.bc[name].Balance(r.Context(), owner, coinType)
		if err != nil {
			logx.Warn("WALLET", "error getting balance for network ", name, ": ", err)
			reply(rw, r, chainStatus(err), nil, err)

			return
		}

		bals = append(bals, addrBalance{Net: name, CoinType: b.CoinType, Bal: b.TotalBalance.String(),
			Coins: b.CoinObjectCount})
	}

	reply(rw, r, http.StatusOK, bals, nil)
}

// coinsHandler replies one page of the coins of an address (?net=, ?coin=, ?cursor=, ?limit=).
func (w *Wallet) coinsHandler(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	owner, err := types.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	_, c, status, err := w.network(r)
	if err != nil {
		reply(rw, r, status, nil, err)

		return
	}

	var limit uint64 = sui.DefaultPageSize
	if l := r.Form.Get("limit"); l != "" {
		if limit, err = strconv.ParseUint(l, 10, 16); err != nil || limit == 0 {
			reply(rw, r, http.StatusBadRequest, nil, ErrBadrequest)

			return
		}
	}

	var cursor *string
	if cur := r.Form.Get("cursor"); cur != "" {
		cursor = &cur
	}

	page, err := c.CoinPage(r.Context(), owner, r.Form.Get("coin"), cursor, uint(limit))
	if err != nil {
		reply(rw, r, chainStatus(err), nil, err)

		return
	}

	reply(rw, r, http.StatusOK, page, nil)
}

// coinInfo is the metadata and total supply of a coin type.
type coinInfo struct {
	types.CoinMetadata
	Supply string `json:"supply"`
}

// coinHandler replies the metadata and total supply of a coin type in the network queried.
func (w *Wallet) coinHandler(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	_, c, status, err := w.network(r)
	if err != nil {
		reply(rw, r, status, nil, err)

		return
	}

	coinType := mux.Vars(r)["coinType"]

	md, err := c.CoinMetadata(r.Context(), coinType)
	if err != nil {
		reply(rw, r, chainStatus(err), nil, err)

		return
	}

	s, err := c.TotalSupply(r.Context(), coinType)
	if err != nil {
		reply(rw, r, chainStatus(err), nil, err)

		return
	}

	reply(rw, r, http.StatusOK, coinInfo{CoinMetadata: md, Supply: s.Value.String()}, nil)
}

// parseChange decodes the change branch of an HD account.
func parseChange(s string) (uint8, error) {
	switch s {
	case "0", "external":
		return keys.External, nil
	case "1", "change":
		return keys.Change, nil
	}

	return 0, ErrChange
}

// hdKey derives the key pair of the HD account from the query (?wallet=, ?change=, ?id=).
func (w *Wallet) hdKey(r *http.Request) (keys.KeyPair, error) {
	for _, k := range []string{"wallet", "change", "id"} {
		if len(r.Form[k]) == 0 {
			return nil, ErrBadrequest
		}
	}

	wallet, err := strconv.ParseUint(r.Form.Get("wallet"), 0, 32)
	if err != nil {
		return nil, ErrBadrequest
	}

	change, err := parseChange(r.Form.Get("change"))
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseUint(r.Form.Get("id"), 0, 32)
	if err != nil {
		return nil, ErrBadrequest
	}

	return keys.FromHD(w.hd, uint32(wallet), change, uint32(id))
}

// hdAddrHandler replies the Sui address of the HD wallet account requested.
func (w *Wallet) hdAddrHandler(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	kp, err := w.hdKey(r)
	if err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	reply(rw, r, http.StatusOK, keys.Address(kp).String(), nil)
}

// listenHandler sends a wallet request message to the broker to start (POST) or stop (DELETE) monitoring an
// address. A request accepted status will be replied or an error otherwise.
func (w *Wallet) listenHandler(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	addr, err := types.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	net, _, status, err := w.network(r)
	if err != nil {
		reply(rw, r, status, nil, err)

		return
	}

	wr := msg.WalletReq{Net: net, Type: msg.ADDRESS, Obj: addr.String()}

	switch r.Method {
	case http.MethodPost:
		wr.Act = msg.LISTEN
	case http.MethodDelete:
		wr.Act = msg.UNLISTEN
	default:
		reply(rw, r, http.StatusBadRequest, nil, ErrBadMethod)

		return
	}

	if err = w.mb.SendRequest(net, wr); err != nil {
		reply(rw, r, http.StatusServiceUnavailable, nil, err)

		return
	}

	reply(rw, r, http.StatusAccepted, wr.Obj, nil)
}

// getAddrHandler replies the addresses being monitored for the network queried, or for all the networks.
func (w *Wallet) getAddrHandler(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	nets, ok := r.Form["net"]
	if ok && len(nets) != 1 {
		reply(rw, r, http.StatusBadRequest, nil, ErrMissingNet)

		return
	}

	addrs, err := w.db.GetAddresses(nets)
	if err != nil {
		reply(rw, r, http.StatusInternalServerError, nil, err)

		return
	}

	reply(rw, r, http.StatusOK, addrs, nil)
}

// sendStatus returns the status code for a failed transfer.
func sendStatus(err error) int {
	switch engine.KindOf(err) {
	case engine.KindNetwork, engine.KindConnection:
		return http.StatusBadGateway
	case engine.KindExecutionFailure:
		return http.StatusUnprocessableEntity
	case engine.KindNoFunds:
		return http.StatusPaymentRequired
	}

	return http.StatusBadRequest
}

// sendHandler sends SUI from an HD wallet account and replies the transfer record. Every transfer that reaches the
// network is saved to the store.
func (w *Wallet) sendHandler(rw http.ResponseWriter, r *http.Request) {
	var txReq TxReq

	if err := json.NewDecoder(r.Body).Decode(&txReq); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	c, ok := w.bc[txReq.Net]
	if !ok {
		reply(rw, r, http.StatusNotFound, nil, ErrNoNet)

		return
	}

	kp, err := keys.FromHD(w.hd, txReq.Wallet, txReq.Change, txReq.ID)
	if err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	e := engine.NewWithClient(c, kp, w.opts[txReq.Net]...)

	w.mu.Lock()
	res, err := e.TransferSui(r.Context(), engine.TransferRequest{
		Recipient: txReq.To,
		Amount:    txReq.Amount,
		GasBudget: txReq.GasBudget,
		GasPrice:  txReq.GasPrice,
	})
	w.mu.Unlock()

	t := store.Transfer{
		ID:      uuid.NewString(),
		Net:     txReq.Net,
		From:    e.Sender().String(),
		To:      txReq.To,
		Status:  store.TransferConfirmed,
		Created: time.Now().Unix(),
	}

	if res != nil {
		t.Digest = res.Digest
		t.To = res.Intent.Recipient.String()
		t.Amount = res.Intent.Amount
		t.GasPrice = res.Intent.GasPrice
		t.GasBudget = res.Intent.GasBudget
	}

	if err != nil {
		t.Status = store.TransferFailed
		t.Error = err.Error()

		var ee *engine.Error
		if !errors.As(err, &ee) || ee.Stage < engine.StageSigned {
			// nothing was sent
			reply(rw, r, sendStatus(err), nil, err)

			return
		}
	}

	if errSave := w.db.SaveTransfer(txReq.Net, t); errSave != nil {
		logx.Error("WALLET", "[", txReq.Net, "] Cannot save transfer ", t.Digest, ": ", errSave)
	}

	if err != nil {
		reply(rw, r, sendStatus(err), nil, err)

		return
	}

	reply(rw, r, http.StatusAccepted, t, nil)
}

// transfersHandler replies the transfers sent in the network queried, from or to ?address= if given.
func (w *Wallet) transfersHandler(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	net, _, status, err := w.network(r)
	if err != nil {
		reply(rw, r, status, nil, err)

		return
	}

	addr := r.Form.Get("address")
	if addr != "" {
		a, err := types.ParseAddress(addr)
		if err != nil {
			reply(rw, r, http.StatusBadRequest, nil, err)

			return
		}

		addr = a.String()
	}

	ts, err := w.db.GetTransfers(net, addr)
	if err != nil {
		reply(rw, r, http.StatusInternalServerError, nil, err)

		return
	}

	reply(rw, r, http.StatusOK, ts, nil)
}

// txHandler gets the details of the transaction in the network queried.
func (w *Wallet) txHandler(rw http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, err)

		return
	}

	digest := mux.Vars(r)["digest"]
	if _, err := types.ParseDigest(digest); err != nil {
		reply(rw, r, http.StatusBadRequest, nil, ErrNoHash)

		return
	}

	_, c, status, err := w.network(r)
	if err != nil {
		reply(rw, r, status, nil, err)

		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout*time.Second)
	defer cancel()

	res, err := c.GetTransaction(ctx, digest, types.ResponseOptions{ShowInput: true, ShowEffects: true,
		ShowBalanceChanges: true})
	if err != nil {
		reply(rw, r, chainStatus(err), nil, err)

		return
	}

	tx, err := sui.DecodeTx(res)
	if err != nil {
		reply(rw, r, http.StatusBadGateway, nil, err)

		return
	}

	reply(rw, r, http.StatusOK, tx, nil)
}
