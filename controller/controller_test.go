package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizmora/models"
	"prizmora/pkg/coins"
	"prizmora/pkg/fusion"
	"prizmora/pkg/generator"
	"prizmora/pkg/ipfs"
	"prizmora/pkg/metrics"
	"prizmora/pkg/zora"
)

type stubProvider struct {
	name string
	url  string
	err  error
}

func (s stubProvider) Name() string { return s.name }

func (s stubProvider) Generate(ctx context.Context, req generator.Request) (string, error) {
	return s.url, s.err
}

type stubMirror struct {
	configured bool
	err        error
}

func (m stubMirror) Configured() bool { return m.configured }

func (m stubMirror) Upload(ctx context.Context, imageURL string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "https://res.cloudinary.com/x.png", nil
}

type bareUpstream struct{}

func (bareUpstream) Name() string { return "bare" }

func newTestRouter(t *testing.T, primary, fallback generator.Provider, mirror stubMirror, dev bool) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cas, err := ipfs.NewMemoryCAS(32)
	require.NoError(t, err)
	m := metrics.New()
	h := &Handler{
		Fusion:  fusion.New(fusion.Options{Primary: primary, Fallback: fallback, Mirror: mirror, Metrics: m}),
		Mirror:  mirror,
		Pinner:  cas,
		Coins:   coins.NewAdapter(bareUpstream{}),
		Minter:  zora.NewMinter(zora.Options{Pinner: cas}),
		DevMode: dev,
	}
	return SetupRouter(h, RouterConfig{Metrics: m})
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doMultipart(t *testing.T, r http.Handler, path, fileName, contentType string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if content != nil {
		hdr := make(textproto.MIMEHeader)
		hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		hdr.Set("Content-Type", contentType)
		part, err := mw.CreatePart(hdr)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestPing(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)
	w := doJSON(r, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestGenerateImage(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark", url: "https://ark/out.png"}, nil, stubMirror{}, false)

	w := doJSON(r, http.MethodPost, "/api/generate-image", models.GenerateRequest{Prompt: "sunset"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.GenerateResponse{ImageURL: "https://ark/out.png"}, decode[models.GenerateResponse](t, w))

	w = doJSON(r, http.MethodPost, "/api/generate-image", models.GenerateRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Either prompt or images are required", decode[ErrorResponse](t, w).Error)
}

func TestGenerateImageLongPrompt(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark", url: "https://ark/out.png"}, nil, stubMirror{}, false)

	w := doJSON(r, http.MethodPost, "/api/generate-image", models.GenerateRequest{Prompt: strings.Repeat("a", 5000)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://ark/out.png", decode[models.GenerateResponse](t, w).ImageURL)
}

func TestGenerateImageBothFail(t *testing.T) {
	r := newTestRouter(t,
		stubProvider{name: "ark", err: errors.New("boom")},
		stubProvider{name: "gemini", err: errors.New("quota exceeded")},
		stubMirror{}, false)

	w := doJSON(r, http.MethodPost, "/api/generate-image", models.GenerateRequest{Prompt: "sunset"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[ErrorResponse](t, w)
	assert.NotEmpty(t, body.Error)
	assert.Equal(t, "quota exceeded", body.Details)
}

func TestFuse(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark", url: "https://ark/out.png"}, nil, stubMirror{configured: true}, false)

	w := doJSON(r, http.MethodPost, "/api/fuse", models.GenerateRequest{Prompt: "sunset", Images: []string{"https://x/a.png"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.FusionResult{PrimaryURL: "https://ark/out.png", MirrorURL: "https://res.cloudinary.com/x.png"}, decode[models.FusionResult](t, w))
}

func TestUploadToCloudinary(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)
	w := doJSON(r, http.MethodPost, "/api/upload-to-cloudinary", models.MirrorRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/upload-to-cloudinary", models.MirrorRequest{ImageURL: "https://x/y.png"})
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[models.MirrorResponse](t, w)
	assert.True(t, res.Success)
	assert.True(t, res.IsDevelopment)
	assert.Equal(t, "https://x/y.png", res.CloudinaryURL)

	failing := stubMirror{configured: true, err: errors.New("cloudinary down")}
	r = newTestRouter(t, stubProvider{name: "ark"}, nil, failing, false)
	w = doJSON(r, http.MethodPost, "/api/upload-to-cloudinary", models.MirrorRequest{ImageURL: "https://x/y.png"})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	r = newTestRouter(t, stubProvider{name: "ark"}, nil, failing, true)
	w = doJSON(r, http.MethodPost, "/api/upload-to-cloudinary", models.MirrorRequest{ImageURL: "https://x/y.png"})
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[models.MirrorResponse](t, w)
	assert.Equal(t, "https://x/y.png", res.CloudinaryURL)
	assert.Equal(t, "cloudinary down", res.Error)
}

func TestIPFSUpload(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)

	w := doMultipart(t, r, "/api/ipfs/upload", "", "", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doMultipart(t, r, "/api/ipfs/upload", "a.png", "image/png", []byte("pixels"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	want, err := ipfs.CIDv1RawSHA256([]byte("pixels"))
	require.NoError(t, err)
	assert.Equal(t, want.String(), decode[map[string]string](t, w)["cid"])

	again := doMultipart(t, r, "/api/ipfs/upload", "b.png", "image/png", []byte("pixels"), nil)
	assert.Equal(t, w.Body.String(), again.Body.String())
}

func TestIPFSUploadJSON(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)

	for _, body := range []string{"", "null"} {
		req := httptest.NewRequest(http.MethodPost, "/api/ipfs/upload-json", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
	for _, body := range []string{"{}", "[]"} {
		req := httptest.NewRequest(http.MethodPost, "/api/ipfs/upload-json", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, body)
	}

	a := doJSON(r, http.MethodPost, "/api/ipfs/upload-json", map[string]any{"b": 1, "a": "x"})
	require.Equal(t, http.StatusOK, a.Code)
	req := httptest.NewRequest(http.MethodPost, "/api/ipfs/upload-json", strings.NewReader(`{"a":"x",  "b":1}`))
	b := httptest.NewRecorder()
	r.ServeHTTP(b, req)
	assert.Equal(t, decode[map[string]string](t, a)["cid"], decode[map[string]string](t, b)["cid"])
}

func tinyGIF(t *testing.T, frames int) []byte {
	t.Helper()
	pal := color.Palette{color.Black, color.White}
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		img := image.NewPaletted(image.Rect(0, 0, 2, 2), pal)
		img.SetColorIndex(i%2, 0, 1)
		g.Image = append(g.Image, img)
		g.Delay = append(g.Delay, 10)
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, g))
	return buf.Bytes()
}

func TestGIFFrames(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)

	w := doMultipart(t, r, "/api/gif/frames", "a.gif", "image/gif", tinyGIF(t, 3), nil)
	require.Equal(t, http.StatusOK, w.Code)
	frames := decode[map[string][]string](t, w)["frames"]
	require.Len(t, frames, 3)
	for _, f := range frames {
		assert.True(t, strings.HasPrefix(f, "data:image/png;base64,"))
	}

	w = doMultipart(t, r, "/api/gif/frames", "a.png", "image/png", []byte("\x89PNG"), nil)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	w = doMultipart(t, r, "/api/gif/frames", "e.gif", "image/gif", []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListCoins(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)

	w := doJSON(r, http.MethodGet, "/api/coins?type=user", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/coins?type=trending", nil)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Contains(t, w.Body.String(), `"coins":[]`)

	w = doJSON(r, http.MethodGet, "/api/coins?type=other", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/coins?type=new&count=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMintWithoutWallet(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)

	w := doMultipart(t, r, "/api/coins/mint", "a.png", "image/png", []byte("pixels"), map[string]string{"title": "t", "symbol": "T"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	res := decode[models.CoinCreationResult](t, w)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestCoinReceiptWithoutNetwork(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)
	w := doJSON(r, http.MethodGet, "/api/coins/receipt/0x01", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestShare(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark"}, nil, stubMirror{}, false)

	w := doJSON(r, http.MethodGet, "/api/share?platform=facebook&url=https://x/y.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["shareUrl"], "facebook.com/sharer")

	w = doJSON(r, http.MethodGet, "/api/share?platform=instagram&url=https://x/y.png", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[ErrorResponse](t, w).Error, "Instagram")
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, stubProvider{name: "ark", url: "u"}, nil, stubMirror{}, false)
	doJSON(r, http.MethodPost, "/api/generate-image", models.GenerateRequest{Prompt: "x"})

	w := doJSON(r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "prizmora_generation_attempts_total")
}
