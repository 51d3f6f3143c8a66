package cdn

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prizmora/util"
)

func TestValidConfig(t *testing.T) {
	assert.True(t, ValidConfig("demo", "123", "secret"))
	assert.False(t, ValidConfig("", "123", "secret"))
	assert.False(t, ValidConfig("your-cloud-name", "123", "secret"))
	assert.False(t, ValidConfig("demo", "your_api_key", "secret"))
}

func TestSignSortsParams(t *testing.T) {
	sum := sha1.Sum([]byte("folder=prizmora&timestamp=1700000000abc"))
	want := hex.EncodeToString(sum[:])

	got := Sign(map[string]string{"timestamp": "1700000000", "folder": "prizmora"}, "abc")
	assert.Equal(t, want, got)
}

func TestUploadNotConfigured(t *testing.T) {
	c := NewCloudinary(Config{CloudName: "your-cloud-name", APIKey: "k", APISecret: "s"}, nil)

	_, err := c.Upload(context.Background(), "https://example.com/a.png")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUploadSignedForm(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			form[k] = v[0]
		}
		_, _ = w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/image/upload/v1/prizmora/x.png"}`))
	}))
	defer srv.Close()

	c := NewCloudinary(Config{CloudName: "demo", APIKey: "key", APISecret: "sec", Folder: "prizmora", BaseURL: srv.URL}, srv.Client())
	c.now = func() time.Time { return time.Unix(1700000000, 0) }

	src := util.DataURL("image/png", []byte("png-bytes"))
	out, err := c.Upload(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, "https://res.cloudinary.com/demo/image/upload/v1/prizmora/x.png", out)
	assert.Equal(t, "key", form["api_key"])
	assert.Equal(t, "1700000000", form["timestamp"])
	assert.Equal(t, "prizmora", form["folder"])
	assert.Equal(t, src, form["file"])
	assert.Equal(t, Sign(map[string]string{"timestamp": "1700000000", "folder": "prizmora"}, "sec"), form["signature"])
}

func TestUploadErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid Signature"}}`))
	}))
	defer srv.Close()

	c := NewCloudinary(Config{CloudName: "demo", APIKey: "key", APISecret: "sec", BaseURL: srv.URL}, srv.Client())
	_, err := c.Upload(context.Background(), util.DataURL("image/png", []byte("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")
}
