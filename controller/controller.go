package controller

import (
	"prizmora/pkg/cdn"
	"prizmora/pkg/coins"
	"prizmora/pkg/fusion"
	"prizmora/pkg/ipfs"
	"prizmora/pkg/sse"
	"prizmora/pkg/zora"
)

// Handler 持有各接口依赖，字段为空时对应接口返回不可用
type Handler struct {
	Fusion  *fusion.Orchestrator
	Mirror  cdn.Mirror
	Pinner  ipfs.Pinner
	Gateway string
	Coins   *coins.Adapter
	Minter  *zora.Minter
	Hub     *sse.Hub
	// DevMode 开发模式下镜像失败时返回原图地址
	DevMode bool
}
