package netexplorer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarancss/suiadp/lib/block/types"
	"github.com/tarancss/suiadp/lib/store"
	"github.com/tarancss/suiadp/lib/store/bolt"
)

func newStore(t *testing.T) store.DB {
	t.Helper()

	s, err := bolt.New(filepath.Join(t.TempDir(), "ne.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

// TestChain makes sure the digest ring and its index behave correctly.
func TestChain(t *testing.T) {
	const maxBlocks = 4

	ne, err := New("net", maxBlocks, nil, newStore(t), 0)
	require.NoError(t, err)

	steps := []struct {
		previous string
		chained  bool
		digest   string
	}{
		{"digest0", true, "digest1"},
		{"digest1", true, "digest2"},
		{"digest2", true, "digest3"},
		{"digest3", true, "digest4"},
		{"digest4", true, "digest5"},
		{"digest5", true, "digest6"},
		{"digest6bis", false, "digest6bis"},
		{"digest6", true, "digest7"},
		{"digest7", true, "digest8"},
		{"digest8", true, "digest9"},
	}

	for _, s := range steps {
		require.Equal(t, s.chained, ne.Chained(s.previous), s.previous)

		if s.chained {
			ne.UpdateChain(s.digest)
		}
	}

	assert.Equal(t, uint64(9), ne.Next())
	assert.Equal(t, 1, ne.Idx)
	assert.Equal(t, []string{"digest8", "digest9", "digest6", "digest7"}, ne.Digests)
}

func TestAddDel(t *testing.T) {
	ne, err := New("net", 4, nil, newStore(t), 0)
	require.NoError(t, err)

	steps := []struct {
		op, obj, value string
		ok             bool
	}{
		{"del", "object1", "", false},
		{"add", "object1", "value1", false},
		{"add", "object2", "value2", false},
		{"del", "object3", "", false},
		{"del", "object1", "value1", true},
		{"add", "object1", "value1", false},
		{"add", "object2", "value2-again", false},
		{"add", "object4", "value4", false},
		{"del", "object5", "", false},
	}

	for _, s := range steps {
		if s.op == "add" {
			ne.Add(s.obj, s.value)

			continue
		}

		v, ok := ne.Del(s.obj)
		assert.Equal(t, s.ok, ok, s.obj)
		assert.Equal(t, s.value, v, s.obj)
	}

	assert.Equal(t, 3, ne.Len())
}

func TestResume(t *testing.T) {
	db := newStore(t)

	require.NoError(t, db.SaveExplorer("net", store.NetExplorer{
		Checkpoint: 12, Digests: []string{"a", "b", "c"}, Idx: 2, Map: map[string]string{"0xold": Listen},
	}))

	la := []store.ListenedAddresses{{Net: "net", Addr: []store.Address{{Addr: "0x1"}}}, {Net: "other",
		Addr: []store.Address{{Addr: "0x9"}}}}

	ne, err := New("net", 3, la, db, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), ne.Next())
	assert.True(t, ne.Chained("c"))
	assert.False(t, ne.Chained("b"))
	assert.Equal(t, map[string]string{"0x1": Listen}, ne.Map)

	// a different ring size restarts the chain but keeps the cursor
	ne, err = New("net", 5, nil, db, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(12), ne.Next())
	assert.True(t, ne.Chained("anything"))

	fresh, err := New("fresh", 3, nil, db, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), fresh.Next())
}

func TestScanTxs(t *testing.T) {
	ne, err := New("net", 2, nil, newStore(t), 0)
	require.NoError(t, err)

	ne.Add("0xa", Listen)

	txs := []types.Trans{
		{Digest: "1", From: "0xa", To: "0xb"},
		{Digest: "2", From: "0xc", To: "0xa"},
		{Digest: "3", From: "0xc", To: "0xd"},
		{Digest: "4", From: "0xc"},
	}

	r := ne.ScanTxs(txs)
	require.Len(t, r, 2)
	assert.Equal(t, "1", r[0].Digest)
	assert.Equal(t, "2", r[1].Digest)

	ne.Stop()
	assert.Equal(t, STOP, ne.Status())
	ne.Start()
	assert.Equal(t, WORK, ne.Status())

	saved := ne.ToStore()
	ne.Add("0xe", Listen)
	assert.Len(t, saved.Map, 1)
}
