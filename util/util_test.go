package util

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataURLRoundTrip(t *testing.T) {
	src := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	u := DataURL("image/png", src)

	data, mime, err := ParseDataURL(u)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, src, data)
}

func TestParseDataURLRejectsPlainPayload(t *testing.T) {
	_, _, err := ParseDataURL("data:text/plain,hello")
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, _, err = ParseDataURL("https://example.com/a.png")
	assert.ErrorIs(t, err, ErrInvalidDataURL)
}

func TestFetchImageFromServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer srv.Close()

	data, mime, err := FetchImage(context.Background(), srv.Client(), srv.URL+"/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mime)
	assert.Equal(t, []byte("jpeg-bytes"), data)
}

func TestFetchImageBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, _, err := FetchImage(context.Background(), srv.Client(), srv.URL)
	require.Error(t, err)
}
