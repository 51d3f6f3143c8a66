package zora

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

// CreateCoinParams 链上创建币的参数
type CreateCoinParams struct {
	Name             string
	Symbol           string
	URI              string
	PayoutRecipient  common.Address
	PlatformReferrer common.Address
}

// Deployment 创建结果
type Deployment struct {
	Hash    common.Hash
	Address common.Address
}

// CoinFactory 提交创建币交易
type CoinFactory interface {
	CreateCoin(ctx context.Context, wallet Wallet, params CreateCoinParams) (Deployment, error)
}

// Backend ethclient 满足的链访问接口
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// EthFactory 通过 go-ethereum 调用 Zora 币工厂合约
type EthFactory struct {
	address  common.Address
	backend  Backend
	contract *bind.BoundContract
}

func NewEthFactory(address common.Address, backend Backend) *EthFactory {
	return &EthFactory{
		address:  address,
		backend:  backend,
		contract: bind.NewBoundContract(address, parsedABI, backend, backend, backend),
	}
}

// Dial 连接 RPC 并读取网络 ID
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, *big.Int, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rpc: %w", err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("read chain id: %w", err)
	}
	return client, chainID, nil
}

// CreateCoin 发送 deploy 交易并等待上链，新币地址取自回执日志
func (f *EthFactory) CreateCoin(ctx context.Context, wallet Wallet, params CreateCoinParams) (Deployment, error) {
	opts, err := wallet.Transactor(ctx)
	if err != nil {
		return Deployment{}, err
	}

	owners := []common.Address{params.PayoutRecipient}
	tx, err := f.contract.Transact(opts, methodDeploy,
		params.PayoutRecipient,
		owners,
		params.URI,
		params.Name,
		params.Symbol,
		params.PlatformReferrer,
		WETHBase,
		defaultTickLower,
		big.NewInt(0),
	)
	if err != nil {
		return Deployment{}, err
	}
	zap.L().Info("coin deploy submitted", zap.String("tx", tx.Hash().Hex()), zap.String("factory", f.address.Hex()))

	receipt, err := bind.WaitMined(ctx, f.backend, tx)
	if err != nil {
		return Deployment{Hash: tx.Hash()}, fmt.Errorf("wait for coin deploy: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Deployment{Hash: tx.Hash()}, errors.New("coin deploy transaction reverted")
	}
	addr, ok := CoinAddressFromReceipt(receipt)
	if !ok {
		return Deployment{Hash: tx.Hash()}, errors.New("coin creation failed or result is incomplete")
	}
	return Deployment{Hash: tx.Hash(), Address: addr}, nil
}

// ReceiptFetcher 按交易哈希读取回执
type ReceiptFetcher interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// LookupCoinAddress 事后根据交易哈希查询新币地址，不影响铸币主流程
func LookupCoinAddress(ctx context.Context, fetcher ReceiptFetcher, hash common.Hash) (common.Address, error) {
	receipt, err := fetcher.TransactionReceipt(ctx, hash)
	if err != nil {
		return common.Address{}, fmt.Errorf("fetch receipt: %w", err)
	}
	addr, ok := CoinAddressFromReceipt(receipt)
	if !ok {
		return common.Address{}, errors.New("no CoinCreated event in receipt")
	}
	return addr, nil
}
