package sui

import (
	"context"

	"github.com/pkg/errors"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/txn"
)

// ReferenceGasPrice returns the reference gas price of the current epoch in MIST.
func (c *Client) ReferenceGasPrice(ctx context.Context) (uint64, error) {
	var p types.U64
	if err := c.call(ctx, &p, "suix_getReferenceGasPrice"); err != nil {
		return 0, err
	}

	return uint64(p), nil
}

// Execute submits a signed transaction and waits according to mode.
func (c *Client) Execute(ctx context.Context, st *txn.SignedTransaction, opts types.ResponseOptions,
	mode types.ExecuteMode) (*types.TxResponse, error) {
	if st == nil {
		return nil, errors.New("nil signed transaction")
	}

	var res types.TxResponse
	if err := c.call(ctx, &res, "sui_executeTransactionBlock", st.TxBytes, st.Signatures, opts, mode); err != nil {
		return nil, err
	}

	return &res, nil
}

// GetTransaction returns the transaction with the given digest.
func (c *Client) GetTransaction(ctx context.Context, digest string, opts types.ResponseOptions) (*types.TxResponse,
	error) {
	if _, err := types.ParseDigest(digest); err != nil {
		return nil, err
	}

	var res *types.TxResponse
	if err := c.call(ctx, &res, "sui_getTransactionBlock", digest, opts); err != nil {
		return nil, err
	}

	if res == nil {
		return nil, errors.Wrap(types.ErrNoTrx, digest)
	}

	return res, nil
}
