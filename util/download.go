package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxDownloadSize 下载图片的最大字节数
const MaxDownloadSize = 32 << 20

// FetchImage 读取图片内容，支持 data URI 与 http(s) 链接
//
// 返回图片字节和 MIME 类型；远程图片的 MIME 取自 Content-Type，缺省时按内容探测。
func FetchImage(ctx context.Context, client *http.Client, imageURL string) ([]byte, string, error) {
	if IsDataURL(imageURL) {
		return ParseDataURL(imageURL)
	}
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build download request: %w", err)
	}
	// 发送HTTP请求
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	// 检查响应状态码
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download image: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("read image body: %w", err)
	}
	if len(body) > MaxDownloadSize {
		return nil, "", fmt.Errorf("image exceeds %d bytes", MaxDownloadSize)
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(body)
	}
	return body, mime, nil
}
