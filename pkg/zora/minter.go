package zora

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"prizmora/models"
	"prizmora/pkg/errno"
	"prizmora/pkg/ipfs"
	"prizmora/pkg/metrics"
)

const (
	MsgUserRejected      = "Transaction was rejected in your wallet."
	MsgInsufficientFunds = "Insufficient funds in your wallet."
	msgCreateFailed      = "Error creating coin. "

	defaultMintTimeout = 3 * time.Minute
)

// MintRequest 一次铸币请求
type MintRequest struct {
	Content     []byte
	ContentType string
	FileName    string
	Title       string
	Symbol      string
	Description string
	// Creator 收益接收人与币的 owner，为空时使用钱包地址
	Creator string
}

// Options 铸币流程依赖，Wallet 或 Factory 为空表示未连接
type Options struct {
	Wallet           Wallet
	Factory          CoinFactory
	Receipts         ReceiptFetcher
	Pinner           ipfs.Pinner
	ChainID          *big.Int
	PlatformReferrer common.Address
	Timeout          time.Duration
	Metrics          *metrics.Metrics
	Now              func() time.Time
}

// Minter 内容固定 -> 元数据 -> 链上创建
type Minter struct {
	opts     Options
	validate *validator.Validate
}

func NewMinter(opts Options) *Minter {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultMintTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Minter{opts: opts, validate: NewValidator()}
}

// Mint 执行铸币流程
//
// 任一步失败立即返回，已固定的内容不回滚，也不重试。
// 返回的 error 为 *errno.Error，result 中的 Error 为展示给用户的文案。
func (m *Minter) Mint(ctx context.Context, req MintRequest) (models.CoinCreationResult, error) {
	if err := m.precheck(req); err != nil {
		return m.fail(err)
	}

	creator := m.opts.Wallet.Address()
	if req.Creator != "" {
		if !common.IsHexAddress(req.Creator) {
			return m.fail(errno.New(errno.KindInvalidInput, "creator address is invalid"))
		}
		creator = common.HexToAddress(req.Creator)
	}
	if len(req.Content) == 0 {
		return m.fail(errno.New(errno.KindInvalidInput, "content is required"))
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.Timeout)
	defer cancel()

	name := req.FileName
	if name == "" {
		name = "prizmora-" + m.opts.Now().UTC().Format("20060102150405") + ".png"
	}
	contentCID, err := m.opts.Pinner.PinFile(ctx, name, req.ContentType, bytes.NewReader(req.Content))
	if err != nil {
		return m.fail(errno.Wrap(errno.KindUpstreamUnavailable, "failed to upload content to IPFS", err))
	}

	meta := BuildMetadata(req.Title, req.Symbol, req.Description, req.ContentType, contentCID, m.opts.Now())
	if err := m.validate.Struct(meta); err != nil {
		return m.fail(errno.Wrap(errno.KindInvalidMetadata, "invalid coin metadata", err))
	}

	metaCID, err := m.opts.Pinner.PinJSON(ctx, meta)
	if err != nil {
		return m.fail(errno.Wrap(errno.KindUpstreamUnavailable, "failed to upload metadata to IPFS", err))
	}
	zap.L().Info("coin metadata pinned", zap.String("content", contentCID), zap.String("metadata", metaCID))

	dep, err := m.opts.Factory.CreateCoin(ctx, m.opts.Wallet, CreateCoinParams{
		Name:             req.Title,
		Symbol:           req.Symbol,
		URI:              ipfs.URI(metaCID),
		PayoutRecipient:  creator,
		PlatformReferrer: m.opts.PlatformReferrer,
	})
	if err != nil {
		res, e := m.fail(ClassifySubmitError(err))
		if dep.Hash != (common.Hash{}) {
			res.Hash = dep.Hash.Hex()
		}
		return res, e
	}

	m.opts.Metrics.Mint("success")
	zap.L().Info("coin created", zap.String("tx", dep.Hash.Hex()), zap.String("coin", dep.Address.Hex()))
	return models.CoinCreationResult{
		Success: true,
		Hash:    dep.Hash.Hex(),
		Address: dep.Address.Hex(),
	}, nil
}

// precheck 顺序：钱包 -> 网络 -> 标题与代号
func (m *Minter) precheck(req MintRequest) *errno.Error {
	if m.opts.Wallet == nil {
		return errno.New(errno.KindWalletNotConnected, "wallet is not connected")
	}
	if m.opts.ChainID != nil && m.opts.Wallet.ChainID().Cmp(m.opts.ChainID) != 0 {
		return errno.New(errno.KindWalletNotConnected, "wallet is connected to the wrong network").
			WithDetails("expected chain " + m.opts.ChainID.String() + ", got " + m.opts.Wallet.ChainID().String())
	}
	if m.opts.Factory == nil || m.opts.Pinner == nil {
		return errno.New(errno.KindNetworkUnavailable, "network client is not available")
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Symbol) == "" {
		return errno.New(errno.KindInvalidInput, "title and symbol are required")
	}
	return nil
}

func (m *Minter) fail(err *errno.Error) (models.CoinCreationResult, error) {
	m.opts.Metrics.Mint(string(err.Kind))
	zap.L().Warn("mint failed", zap.String("kind", string(err.Kind)), zap.String("details", err.Details), zap.String("msg", err.Message))
	return models.CoinCreationResult{Success: false, Error: err.Message}, err
}

// ClassifySubmitError 把链上提交错误映射成用户可读的类别
func ClassifySubmitError(err error) *errno.Error {
	if e, ok := errno.As(err); ok {
		return e
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "user rejected"), strings.Contains(msg, "user denied"):
		return errno.Wrap(errno.KindUserRejected, MsgUserRejected, err)
	case strings.Contains(msg, "insufficient funds"):
		return errno.Wrap(errno.KindInsufficientFunds, MsgInsufficientFunds, err)
	default:
		return errno.Wrap(errno.KindUnknown, msgCreateFailed+err.Error(), err)
	}
}

// Lookup 按交易哈希查询币地址
func (m *Minter) Lookup(ctx context.Context, hash string) (string, error) {
	if m.opts.Receipts == nil {
		return "", errno.New(errno.KindNetworkUnavailable, "network client is not available")
	}
	if len(strings.TrimPrefix(hash, "0x")) != 2*common.HashLength {
		return "", errno.New(errno.KindInvalidInput, "transaction hash is invalid")
	}
	addr, err := LookupCoinAddress(ctx, m.opts.Receipts, common.HexToHash(hash))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", errno.Wrap(errno.KindNetworkUnavailable, "receipt lookup timed out", err)
		}
		return "", errno.Wrap(errno.KindUnknown, "coin address not found", err).WithStatus(http.StatusNotFound)
	}
	return addr.Hex(), nil
}
