package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHTTPFaviconProber(t *testing.T) {
	var gotAccept, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotLang = r.Header.Get("Accept-Language")
		if r.URL.Path == "/favicon.ico" {
			w.Header().Set("Content-Type", "image/x-icon")
			_, _ = w.Write([]byte{0, 0, 1, 0})
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := NewHTTPFaviconProber(time.Second, "test-agent", nil)
	ctx := context.Background()

	assert.True(t, p.Probe(ctx, srv.URL+"/favicon.ico"))
	assert.Contains(t, gotAccept, "image/png")
	assert.Equal(t, "en-us,en;q=0.5", gotLang)

	assert.False(t, p.Probe(ctx, srv.URL+"/missing.ico"))
}

func TestHTTPFaviconProber_Failures(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	p := NewHTTPFaviconProber(50*time.Millisecond, "", nil)
	ctx := context.Background()

	assert.False(t, p.Probe(ctx, slow.URL+"/favicon.ico"), "timeout")
	assert.False(t, p.Probe(ctx, "http://127.0.0.1:1/favicon.ico"), "connection refused")
	assert.False(t, p.Probe(ctx, "::not a url"), "malformed")
}
