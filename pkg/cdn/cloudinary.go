package cdn

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"prizmora/util"
)

// ErrNotConfigured 凭据缺失或为占位值
var ErrNotConfigured = errors.New("cdn: cloudinary credentials are missing or placeholders")

var placeholders = map[string]struct{}{
	"your-cloud-name": {},
	"your-api-key":    {},
	"your-api-secret": {},
	"your_cloud_name": {},
	"your_api_key":    {},
	"your_api_secret": {},
}

// Mirror 把图片复制到 CDN，返回新的公开地址
type Mirror interface {
	Configured() bool
	Upload(ctx context.Context, imageURL string) (string, error)
}

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string
}

// Cloudinary 签名上传，一次请求完成
type Cloudinary struct {
	conf       Config
	httpClient *http.Client
	now        func() time.Time
}

func NewCloudinary(conf Config, httpClient *http.Client) *Cloudinary {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if conf.BaseURL == "" {
		conf.BaseURL = "https://api.cloudinary.com"
	}
	return &Cloudinary{conf: conf, httpClient: httpClient, now: time.Now}
}

// ValidConfig 三项凭据都存在且不是占位值
func ValidConfig(cloudName, apiKey, apiSecret string) bool {
	for _, v := range []string{cloudName, apiKey, apiSecret} {
		if v == "" {
			return false
		}
		if _, ok := placeholders[v]; ok {
			return false
		}
	}
	return true
}

func (c *Cloudinary) Configured() bool {
	return ValidConfig(c.conf.CloudName, c.conf.APIKey, c.conf.APISecret)
}

// Sign 按 Cloudinary 规则生成签名：参数按字母序拼接后追加 secret，取 sha1
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(params[k])
	}
	sb.WriteString(secret)
	sum := sha1.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Upload 下载（或解码）原图后以 data URI 形式签名上传
func (c *Cloudinary) Upload(ctx context.Context, imageURL string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	data, mime, err := util.FetchImage(ctx, c.httpClient, imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image: %w", err)
	}
	if mime == "" {
		mime = "image/png"
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	params := map[string]string{"timestamp": timestamp}
	if c.conf.Folder != "" {
		params["folder"] = c.conf.Folder
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"file":      util.DataURL(mime, data),
		"api_key":   c.conf.APIKey,
		"signature": Sign(params, c.conf.APISecret),
	}
	for k, v := range params {
		fields[k] = v
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("build upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", strings.TrimRight(c.conf.BaseURL, "/"), c.conf.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read cloudinary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudinary upload failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode cloudinary response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("cloudinary upload failed: %s", out.Error.Message)
	}
	if out.SecureURL == "" {
		return "", errors.New("cloudinary upload failed: no secure_url in response")
	}
	return out.SecureURL, nil
}
