package util

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var ErrInvalidDataURL = errors.New("invalid data url")

func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// ParseDataURL 解析 base64 编码的 data URI，返回内容与 MIME 类型
func ParseDataURL(s string) ([]byte, string, error) {
	if !IsDataURL(s) {
		return nil, "", ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, "", ErrInvalidDataURL
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return nil, "", ErrInvalidDataURL
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURL
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// DataURL 把字节编码为 data URI
func DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
