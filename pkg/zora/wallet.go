package zora

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet 已连接的签名账户
type Wallet interface {
	Address() common.Address
	// ChainID 钱包当前所在网络
	ChainID() *big.Int
	Transactor(ctx context.Context) (*bind.TransactOpts, error)
}

// KeyWallet 使用服务端配置的私钥签名
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewKeyWallet hexKey 可带 0x 前缀；chainID 为签名时使用的网络
func NewKeyWallet(hexKey string, chainID *big.Int) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse wallet private key: %w", err)
	}
	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: new(big.Int).Set(chainID),
	}, nil
}

func (w *KeyWallet) Address() common.Address { return w.address }

func (w *KeyWallet) ChainID() *big.Int { return new(big.Int).Set(w.chainID) }

func (w *KeyWallet) Transactor(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, w.chainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx
	return opts, nil
}
