package zora

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// CoinAddressFromReceipt 从交易回执的 CoinCreated 日志中取出新币地址
//
// 纯函数，可对同一回执重复调用；回执为空或找不到事件时返回 false。
func CoinAddressFromReceipt(receipt *types.Receipt) (common.Address, bool) {
	if receipt == nil {
		zap.L().Warn("receipt is nil")
		return common.Address{}, false
	}
	ev := parsedABI.Events[eventCoinCreated]
	for _, lg := range receipt.Logs {
		if lg == nil || len(lg.Topics) == 0 || lg.Topics[0] != ev.ID {
			continue
		}
		out := make(map[string]any)
		if err := parsedABI.UnpackIntoMap(out, eventCoinCreated, lg.Data); err != nil {
			zap.L().Warn("unpack CoinCreated log failed", zap.String("tx", lg.TxHash.Hex()), zap.Error(err))
			continue
		}
		if coin, ok := out["coin"].(common.Address); ok {
			return coin, true
		}
	}
	return common.Address{}, false
}
