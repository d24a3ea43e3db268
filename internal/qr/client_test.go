package qr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "receipt.jpg", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"symbol":[{"data":"https://example.com/inv/1","error":null}]}]`))
	}))
	defer srv.Close()

	client := NewClient(WithEndpoint(srv.URL))
	data, err := client.Decode(context.Background(), "receipt.jpg", []byte("fake image"))
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/inv/1", data)
}

func TestDecodeNoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":[{"data":"","error":"could not find/read QR code"}]}]`))
	}))
	defer srv.Close()

	client := NewClient(WithEndpoint(srv.URL))
	_, err := client.Decode(context.Background(), "x.png", []byte("img"))
	assert.True(t, errors.Is(err, ErrNoData), "got %v", err)
}

func TestDecodeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too large", http.StatusRequestEntityTooLarge)
	}))
	defer srv.Close()

	client := NewClient(WithEndpoint(srv.URL))
	_, err := client.Decode(context.Background(), "x.png", []byte("img"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoData))
	assert.Contains(t, err.Error(), "413")
}

func TestFetchHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tripsplit/1.0", r.Header.Get("User-Agent"))
		w.Write([]byte("<html>invoice</html>"))
	}))
	defer srv.Close()

	client := NewClient()
	html, err := client.FetchHTML(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "<html>invoice</html>", html)
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.com"))
	assert.True(t, IsURL("http://example.com"))
	assert.False(t, IsURL("<html>inline invoice</html>"))
	assert.False(t, IsURL(""))
}
