package zora

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// factoryABI Zora 币工厂 deploy 方法与 CoinCreated 事件
const factoryABI = `[
  {"type":"function","name":"deploy","stateMutability":"payable",
   "inputs":[
     {"name":"payoutRecipient","type":"address"},
     {"name":"owners","type":"address[]"},
     {"name":"uri","type":"string"},
     {"name":"name","type":"string"},
     {"name":"symbol","type":"string"},
     {"name":"platformReferrer","type":"address"},
     {"name":"currency","type":"address"},
     {"name":"tickLower","type":"int24"},
     {"name":"orderSize","type":"uint256"}],
   "outputs":[{"name":"coin","type":"address"},{"name":"coinsPurchased","type":"uint256"}]},
  {"type":"event","name":"CoinCreated","anonymous":false,
   "inputs":[
     {"name":"caller","type":"address","indexed":true},
     {"name":"payoutRecipient","type":"address","indexed":true},
     {"name":"platformReferrer","type":"address","indexed":true},
     {"name":"currency","type":"address","indexed":false},
     {"name":"uri","type":"string","indexed":false},
     {"name":"name","type":"string","indexed":false},
     {"name":"symbol","type":"string","indexed":false},
     {"name":"coin","type":"address","indexed":false},
     {"name":"pool","type":"address","indexed":false},
     {"name":"version","type":"string","indexed":false}]}
]`

const (
	methodDeploy     = "deploy"
	eventCoinCreated = "CoinCreated"
)

var (
	// WETHBase Base 主网 WETH，作为默认交易对货币
	WETHBase = common.HexToAddress("0x4200000000000000000000000000000000000006")
	// defaultTickLower WETH 交易对的默认起始 tick
	defaultTickLower = big.NewInt(-199200)

	parsedABI = mustParseABI(factoryABI)
)

func mustParseABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return a
}
