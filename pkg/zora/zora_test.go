package zora

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizmora/pkg/errno"
	"prizmora/pkg/ipfs"
	"prizmora/pkg/metrics"
)

var base = big.NewInt(8453)

type recordingPinner struct {
	inner *ipfs.MemoryCAS
	files int
	jsons []any
	err   error
}

func (p *recordingPinner) PinFile(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	p.files++
	if p.err != nil {
		return "", p.err
	}
	return p.inner.PinFile(ctx, name, contentType, r)
}

func (p *recordingPinner) PinJSON(ctx context.Context, v any) (string, error) {
	p.jsons = append(p.jsons, v)
	return p.inner.PinJSON(ctx, v)
}

type fakeFactory struct {
	dep    Deployment
	err    error
	calls  int
	params CreateCoinParams
}

func (f *fakeFactory) CreateCoin(ctx context.Context, w Wallet, params CreateCoinParams) (Deployment, error) {
	f.calls++
	f.params = params
	return f.dep, f.err
}

func newWallet(t *testing.T, chain *big.Int) *KeyWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w, err := NewKeyWallet("0x"+hex.EncodeToString(crypto.FromECDSA(key)), chain)
	require.NoError(t, err)
	return w
}

func newPinner(t *testing.T) *recordingPinner {
	t.Helper()
	cas, err := ipfs.NewMemoryCAS(16)
	require.NoError(t, err)
	return &recordingPinner{inner: cas}
}

func fixedNow() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

func TestMintPreconditionOrder(t *testing.T) {
	pinner := newPinner(t)
	factory := &fakeFactory{}

	m := NewMinter(Options{Factory: factory, Pinner: pinner, ChainID: base})
	_, err := m.Mint(context.Background(), MintRequest{})
	assert.Equal(t, errno.KindWalletNotConnected, errno.KindOf(err))

	m = NewMinter(Options{Wallet: newWallet(t, big.NewInt(1)), Factory: factory, Pinner: pinner, ChainID: base})
	_, err = m.Mint(context.Background(), MintRequest{Title: "a", Symbol: "A"})
	assert.Equal(t, errno.KindWalletNotConnected, errno.KindOf(err))

	m = NewMinter(Options{Wallet: newWallet(t, base), Pinner: pinner, ChainID: base})
	_, err = m.Mint(context.Background(), MintRequest{})
	assert.Equal(t, errno.KindNetworkUnavailable, errno.KindOf(err))
	assert.Equal(t, http.StatusServiceUnavailable, errno.StatusOf(err))

	assert.Zero(t, pinner.files)
	assert.Zero(t, factory.calls)
}

func TestMintEmptyTitleUploadsNothing(t *testing.T) {
	pinner := newPinner(t)
	factory := &fakeFactory{}
	m := NewMinter(Options{Wallet: newWallet(t, base), Factory: factory, Pinner: pinner, ChainID: base})

	res, err := m.Mint(context.Background(), MintRequest{Content: []byte("png"), ContentType: "image/png", Symbol: "FUSE"})
	require.Error(t, err)
	assert.Equal(t, errno.KindInvalidInput, errno.KindOf(err))
	assert.False(t, res.Success)
	assert.Zero(t, pinner.files)
	assert.Empty(t, pinner.jsons)
	assert.Zero(t, factory.calls)
}

func TestMintSuccess(t *testing.T) {
	pinner := newPinner(t)
	coin := common.HexToAddress("0x00000000000000000000000000000000000000c0")
	hash := common.HexToHash("0xabc1")
	factory := &fakeFactory{dep: Deployment{Hash: hash, Address: coin}}
	wallet := newWallet(t, base)
	referrer := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	m := NewMinter(Options{
		Wallet: wallet, Factory: factory, Pinner: pinner, ChainID: base,
		PlatformReferrer: referrer, Metrics: metrics.New(), Now: fixedNow,
	})

	creator := "0x00000000000000000000000000000000000000bb"
	res, err := m.Mint(context.Background(), MintRequest{
		Content: []byte("fused image"), ContentType: "image/png",
		Title: "Sunset", Symbol: "SUN", Description: "two photos", Creator: creator,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, hash.Hex(), res.Hash)
	assert.Equal(t, coin.Hex(), res.Address)

	contentCID, err := ipfs.CIDv1RawSHA256([]byte("fused image"))
	require.NoError(t, err)
	require.Len(t, pinner.jsons, 1)
	meta := BuildMetadata("Sunset", "SUN", "two photos", "image/png", contentCID.String(), fixedNow())
	assert.Equal(t, meta, pinner.jsons[0])
	assert.Equal(t, "ipfs://"+contentCID.String(), meta.Image)
	assert.Equal(t, "2025-03-01T12:00:00.000Z", meta.Properties.CreationDate)

	assert.Equal(t, common.HexToAddress(creator), factory.params.PayoutRecipient)
	assert.Equal(t, referrer, factory.params.PlatformReferrer)
	assert.Equal(t, "Sunset", factory.params.Name)
	assert.Regexp(t, `^ipfs://b`, factory.params.URI)
}

func TestMintDefaultsCreatorToWallet(t *testing.T) {
	factory := &fakeFactory{}
	wallet := newWallet(t, base)
	m := NewMinter(Options{Wallet: wallet, Factory: factory, Pinner: newPinner(t), ChainID: base})

	_, err := m.Mint(context.Background(), MintRequest{Content: []byte("x"), ContentType: "image/png", Title: "t", Symbol: "T"})
	require.NoError(t, err)
	assert.Equal(t, wallet.Address(), factory.params.PayoutRecipient)
}

func TestMintInvalidMetadataSkipsMetadataPin(t *testing.T) {
	pinner := newPinner(t)
	factory := &fakeFactory{}
	m := NewMinter(Options{Wallet: newWallet(t, base), Factory: factory, Pinner: pinner, ChainID: base})

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err := m.Mint(context.Background(), MintRequest{Content: []byte("x"), ContentType: "image/png", Title: string(long), Symbol: "T"})
	assert.Equal(t, errno.KindInvalidMetadata, errno.KindOf(err))
	assert.Equal(t, http.StatusUnprocessableEntity, errno.StatusOf(err))
	assert.Empty(t, pinner.jsons)
	assert.Zero(t, factory.calls)
}

func TestMintSubmitErrors(t *testing.T) {
	cases := []struct {
		err  error
		kind errno.Kind
		msg  string
	}{
		{errors.New("User rejected the request."), errno.KindUserRejected, MsgUserRejected},
		{errors.New("insufficient funds for gas * price + value"), errno.KindInsufficientFunds, MsgInsufficientFunds},
		{errors.New("execution reverted"), errno.KindUnknown, "Error creating coin. execution reverted"},
	}
	for _, c := range cases {
		factory := &fakeFactory{err: c.err}
		m := NewMinter(Options{Wallet: newWallet(t, base), Factory: factory, Pinner: newPinner(t), ChainID: base})

		res, err := m.Mint(context.Background(), MintRequest{Content: []byte("x"), ContentType: "image/png", Title: "t", Symbol: "T"})
		assert.Equal(t, c.kind, errno.KindOf(err))
		assert.False(t, res.Success)
		assert.Equal(t, c.msg, res.Error)
		assert.Equal(t, 1, factory.calls)
	}
}

func TestValidatorIPFSURI(t *testing.T) {
	v := NewValidator()
	id, err := ipfs.CIDv1RawSHA256([]byte("x"))
	require.NoError(t, err)

	good := BuildMetadata("n", "S", "", "image/png", id.String(), fixedNow())
	assert.NoError(t, v.Struct(good))

	bad := good
	bad.Image = "https://example.com/x.png"
	assert.Error(t, v.Struct(bad))

	bad = good
	bad.Content.URI = "ipfs://not-a-cid"
	assert.Error(t, v.Struct(bad))
}

func coinCreatedLog(t *testing.T, coin common.Address) *types.Log {
	t.Helper()
	ev := parsedABI.Events[eventCoinCreated]
	data, err := ev.Inputs.NonIndexed().Pack(
		WETHBase, "ipfs://meta", "Sunset", "SUN", coin,
		common.HexToAddress("0x00000000000000000000000000000000000000dd"), "4",
	)
	require.NoError(t, err)
	return &types.Log{
		Topics: []common.Hash{ev.ID, {}, {}, {}},
		Data:   data,
	}
}

func TestCoinAddressFromReceipt(t *testing.T) {
	coin := common.HexToAddress("0x1234567890123456789012345678901234567890")
	other := &types.Log{Topics: []common.Hash{common.HexToHash("0x01")}, Data: []byte{1, 2}}
	receipt := &types.Receipt{Logs: []*types.Log{other, coinCreatedLog(t, coin)}}

	addr, ok := CoinAddressFromReceipt(receipt)
	require.True(t, ok)
	assert.Equal(t, coin, addr)

	again, ok := CoinAddressFromReceipt(receipt)
	require.True(t, ok)
	assert.Equal(t, addr, again)

	_, ok = CoinAddressFromReceipt(&types.Receipt{Logs: []*types.Log{other}})
	assert.False(t, ok)
	_, ok = CoinAddressFromReceipt(nil)
	assert.False(t, ok)
}

type fakeReceipts struct {
	receipt *types.Receipt
	err     error
}

func (f fakeReceipts) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return f.receipt, f.err
}

func TestMinterLookup(t *testing.T) {
	coin := common.HexToAddress("0x1234567890123456789012345678901234567890")
	m := NewMinter(Options{Receipts: fakeReceipts{receipt: &types.Receipt{Logs: []*types.Log{coinCreatedLog(t, coin)}}}})
	hash := common.HexToHash("0x01").Hex()

	addr, err := m.Lookup(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, coin.Hex(), addr)

	_, err = m.Lookup(context.Background(), "0x12")
	assert.Equal(t, errno.KindInvalidInput, errno.KindOf(err))

	m = NewMinter(Options{Receipts: fakeReceipts{receipt: &types.Receipt{}}})
	_, err = m.Lookup(context.Background(), hash)
	assert.Equal(t, http.StatusNotFound, errno.StatusOf(err))

	m = NewMinter(Options{})
	_, err = m.Lookup(context.Background(), hash)
	assert.Equal(t, errno.KindNetworkUnavailable, errno.KindOf(err))
}
