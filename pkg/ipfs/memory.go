package ipfs

import (
	"bytes"
	"context"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// MemoryCAS 进程内内容寻址存储，未配置 Pinata 时使用
//
// CID 为 CIDv1 raw + sha2-256，由写入字节直接导出；容量有限，超出后按 LRU 淘汰。
type MemoryCAS struct {
	blocks *lru.Cache[string, []byte]
}

func NewMemoryCAS(size int) (*MemoryCAS, error) {
	if size <= 0 {
		size = 512
	}
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCAS{blocks: c}, nil
}

// CIDv1RawSHA256 由内容计算 CID
func CIDv1RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Put 幂等写入
func (m *MemoryCAS) Put(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	id, err := CIDv1RawSHA256(data)
	if err != nil {
		return "", err
	}
	key := id.String()
	if old, ok := m.blocks.Get(key); ok {
		if !bytes.Equal(old, data) {
			return "", fmt.Errorf("ipfs: immutable object mismatch for %s", key)
		}
		return key, nil
	}
	m.blocks.Add(key, bytes.Clone(data))
	return key, nil
}

func (m *MemoryCAS) Get(id string) ([]byte, error) {
	if _, err := cid.Decode(id); err != nil {
		return nil, ErrInvalidCID
	}
	data, ok := m.blocks.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(data), nil
}

func (m *MemoryCAS) Has(id string) bool {
	return m.blocks.Contains(id)
}

func (m *MemoryCAS) PinFile(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return m.Put(data)
}

func (m *MemoryCAS) PinJSON(ctx context.Context, v any) (string, error) {
	data, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return m.Put(data)
}
