package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNotFound   = errors.New("ipfs: not found")
	ErrInvalidCID = errors.New("ipfs: invalid cid")
	ErrEmpty      = errors.New("ipfs: empty content")
)

// Pinner 把内容固定到内容寻址存储，返回 CID
//
// 约定：相同字节多次固定必须返回相同 CID，已固定的内容不可变。
type Pinner interface {
	PinFile(ctx context.Context, name, contentType string, r io.Reader) (string, error)
	PinJSON(ctx context.Context, v any) (string, error)
}

// CanonicalJSON 以确定的字节序列化 JSON：对象键排序，无多余空白
//
// 逻辑相同的 JSON 文档固定后得到相同 CID。
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// URI 返回 ipfs://<cid>
func URI(cid string) string {
	return "ipfs://" + cid
}

// GatewayURL 根据网关地址拼出 HTTP 访问链接，网关为空时使用 Pinata 公共网关
func GatewayURL(gateway, cid string) string {
	if gateway == "" {
		return "https://gateway.pinata.cloud/ipfs/" + cid
	}
	gateway = strings.TrimRight(gateway, "/")
	if !strings.HasPrefix(gateway, "http://") && !strings.HasPrefix(gateway, "https://") {
		gateway = "https://" + gateway
	}
	return fmt.Sprintf("%s/ipfs/%s", gateway, cid)
}
