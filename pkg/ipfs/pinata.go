package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/ipfs/go-cid"
)

// Pinata 通过 Pinata API 固定文件与 JSON
type Pinata struct {
	jwt        string
	apiURL     string
	httpClient *http.Client
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

func NewPinata(jwt, apiURL string, httpClient *http.Client) *Pinata {
	if apiURL == "" {
		apiURL = "https://api.pinata.cloud"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Pinata{jwt: jwt, apiURL: strings.TrimRight(apiURL, "/"), httpClient: httpClient}
}

func (p *Pinata) PinFile(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if name == "" {
		name = fmt.Sprintf("blob-%d", time.Now().UnixMilli())
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	n, err := io.Copy(part, r)
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	if n == 0 {
		return "", ErrEmpty
	}
	if err := w.WriteField("pinataOptions", `{"cidVersion":1}`); err != nil {
		return "", err
	}
	if err := w.WriteField("pinataMetadata", fmt.Sprintf(`{"name":%q}`, name)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	return p.pin(ctx, "/pinning/pinFileToIPFS", w.FormDataContentType(), &body)
}

func (p *Pinata) PinJSON(ctx context.Context, v any) (string, error) {
	content, err := CanonicalJSON(v)
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	payload := struct {
		Content json.RawMessage `json:"pinataContent"`
		Options struct {
			CIDVersion int `json:"cidVersion"`
		} `json:"pinataOptions"`
	}{Content: content}
	payload.Options.CIDVersion = 1

	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return p.pin(ctx, "/pinning/pinJSONToIPFS", "application/json", bytes.NewReader(b))
}

func (p *Pinata) pin(ctx context.Context, path, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+path, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.jwt)
	req.Header.Set("Content-Type", contentType)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinata request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read pinata response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinata %s failed: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out pinResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode pinata response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", errors.New("pinata returned no IpfsHash")
	}
	if _, err := cid.Decode(out.IpfsHash); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidCID, out.IpfsHash)
	}
	return out.IpfsHash, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
