package sui

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tarancss/suiadp/lib/block/types"
)

// multiGetLimit is the maximum number of digests per sui_multiGetTransactionBlocks call.
const multiGetLimit = 50

// LatestCheckpoint returns the sequence number of the latest executed checkpoint.
func (c *Client) LatestCheckpoint(ctx context.Context) (uint64, error) {
	var n types.U64
	if err := c.call(ctx, &n, "sui_getLatestCheckpointSequenceNumber"); err != nil {
		return 0, err
	}

	return uint64(n), nil
}

// GetCheckpoint returns the checkpoint with sequence number seq, or ErrNoCheckpoint if it does not exist yet.
func (c *Client) GetCheckpoint(ctx context.Context, seq uint64) (*types.Checkpoint, error) {
	var cp *types.Checkpoint
	if err := c.call(ctx, &cp, "sui_getCheckpoint", strconv.FormatUint(seq, 10)); err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, types.ErrNoCheckpoint
		}

		return nil, err
	}

	if cp == nil {
		return nil, types.ErrNoCheckpoint
	}

	return cp, nil
}

// MultiGetTransactions returns the transactions with the given digests, in order.
func (c *Client) MultiGetTransactions(ctx context.Context, digests []string,
	opts types.ResponseOptions) ([]types.TxResponse, error) {
	res := make([]types.TxResponse, 0, len(digests))

	for i := 0; i < len(digests); i += multiGetLimit {
		end := min(i+multiGetLimit, len(digests))

		var part []types.TxResponse
		if err := c.call(ctx, &part, "sui_multiGetTransactionBlocks", digests[i:end], opts); err != nil {
			return nil, err
		}

		res = append(res, part...)
	}

	return res, nil
}

// DecodeTxs fetches the transactions of a checkpoint and simplifies them.
func (c *Client) DecodeTxs(ctx context.Context, cp *types.Checkpoint) ([]types.Trans, error) {
	if cp == nil {
		return nil, types.ErrNoCheckpoint
	}

	if len(cp.Transactions) == 0 {
		return nil, nil
	}

	res, err := c.MultiGetTransactions(ctx, cp.Transactions,
		types.ResponseOptions{ShowInput: true, ShowEffects: true, ShowBalanceChanges: true})
	if err != nil {
		return nil, errors.Wrapf(err, "checkpoint %d", cp.SequenceNumber)
	}

	txs := make([]types.Trans, 0, len(res))

	for i := range res {
		t, err := DecodeTx(&res[i])
		if err != nil {
			return nil, err
		}

		t.Checkpoint = uint64(cp.SequenceNumber)
		if t.TS == 0 {
			t.TS = uint64(cp.TimestampMs)
		}

		txs = append(txs, t)
	}

	return txs, nil
}

// DecodeTx simplifies a transaction response. The recipient is the first address other than the sender that
// received a positive balance change. A transaction that only moves coins back to its sender has an empty To.
func DecodeTx(r *types.TxResponse) (t types.Trans, err error) {
	if r.Transaction == nil || r.Transaction.Data.Sender == "" {
		return t, errors.Wrap(types.ErrNoSender, r.Digest)
	}

	t.Digest = r.Digest
	t.From = r.Transaction.Data.Sender
	t.Price = uint64(r.Transaction.Data.GasData.Price)
	t.Status = types.TrxPending

	if r.Effects != nil {
		t.Gas = r.Effects.GasUsed.Total()

		t.Status = types.TrxFailed
		if r.Effects.Succeeded() {
			t.Status = types.TrxSuccess
		}
	}

	if r.TimestampMs != nil {
		t.TS = uint64(*r.TimestampMs)
	}

	if r.Checkpoint != nil {
		t.Checkpoint = uint64(*r.Checkpoint)
	}

	for _, bc := range r.BalanceChanges {
		owner := bc.AddressOwner()
		if owner == "" || owner == t.From || strings.HasPrefix(bc.Amount, "-") || bc.Amount == "0" {
			continue
		}

		t.To = owner
		t.CoinType = bc.CoinType
		t.Value = bc.Amount

		break
	}

	return t, nil
}
