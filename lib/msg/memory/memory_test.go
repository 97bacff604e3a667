package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/msg"
)

func TestRequests(t *testing.T) {
	m := New()
	defer m.Close()

	require.NoError(t, m.Setup())

	mut := new(sync.Mutex)
	mut.Lock()

	reqs, _, err := m.GetReqs("testnet", mut)
	require.NoError(t, err)

	first := msg.WalletReq{Net: "testnet", Type: msg.ADDRESS, Obj: "0x1", Act: msg.LISTEN}
	second := msg.WalletReq{Net: "testnet", Type: msg.ADDRESS, Obj: "0x1", Act: msg.UNLISTEN}
	require.NoError(t, m.SendRequest("testnet", first))
	require.NoError(t, m.SendRequest("testnet", second))
	require.NoError(t, m.SendRequest("devnet", first))

	assert.Equal(t, first, <-reqs)

	// the next request waits until the previous one is released
	select {
	case r := <-reqs:
		t.Fatalf("got %+v before unlocking", r)
	case <-time.After(50 * time.Millisecond):
	}

	mut.Unlock()
	assert.Equal(t, second, <-reqs)
	mut.Unlock()
}

func TestEvents(t *testing.T) {
	m := New()

	mut := new(sync.Mutex)
	mut.Lock()

	eves, _, err := m.GetEvents("testnet", mut)
	require.NoError(t, err)

	txs := []types.Trans{{Digest: "a", Checkpoint: 1}, {Digest: "b", Checkpoint: 1}}
	require.NoError(t, m.SendTrans("testnet", txs))

	for _, tx := range txs {
		assert.Equal(t, tx, <-eves)
		mut.Unlock()
	}

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, ok := <-eves
	assert.False(t, ok)

	assert.ErrorIs(t, m.SendTrans("testnet", txs), msg.ErrClosed)
	_, _, err = m.GetReqs("testnet", mut)
	assert.ErrorIs(t, err, msg.ErrClosed)
}

func TestValid(t *testing.T) {
	assert.True(t, msg.WalletReq{Net: "n", Type: msg.TX, Obj: "x", Act: msg.UNLISTEN}.Valid("n"))
	assert.False(t, msg.WalletReq{Net: "n", Type: msg.ADDRESS, Obj: "x"}.Valid("m"))
	assert.False(t, msg.WalletReq{Net: "n", Type: 7, Obj: "x"}.Valid("n"))
	assert.False(t, msg.WalletReq{Net: "n", Type: msg.ADDRESS}.Valid("n"))
	assert.False(t, msg.WalletReq{Net: "n", Type: msg.ADDRESS, Obj: "x", Act: 3}.Valid("n"))
}
