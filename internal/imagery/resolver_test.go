package imagery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already https", "https://cdn.example/a.jpg", "https://cdn.example/a.jpg"},
		{"http upgraded", "http://cdn.example/a.jpg", "https://cdn.example/a.jpg"},
		{"whitespace trimmed", "  https://cdn.example/a.jpg\n", "https://cdn.example/a.jpg"},
		{"plus encoded", "https://cdn.example/a+b.jpg", "https://cdn.example/a%2Bb.jpg"},
		{"relative rejected", "/images/a.jpg", ""},
		{"ftp rejected", "ftp://cdn.example/a.jpg", ""},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.in))
		})
	}
}

// newImageServer serves a product page with an optional og:image tag and
// image endpoints. TLS because the resolver is https-only.
func newImageServer(t *testing.T, pageHTML func(base string) string) (*httptest.Server, *Resolver) {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/product", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, pageHTML(srv.URL))
	})
	mux.HandleFunc("/og.jpg", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte{0xff, 0xd8, 0xff})
	})
	mux.HandleFunc("/thumb.jpg", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte{0x89, 0x50})
	})
	mux.HandleFunc("/broken.jpg", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>not found</html>")
	})

	r := NewResolver(WithHTTPClient(srv.Client()), WithTimeouts(2*time.Second, 2*time.Second))
	return srv, r
}

func TestBestImagePrefersOGImage(t *testing.T) {
	srv, r := newImageServer(t, func(base string) string {
		return `<html><head><meta property="og:image" content="` + base + `/og.jpg"/></head></html>`
	})

	got := r.BestImage(context.Background(), srv.URL+"/product", srv.URL+"/thumb.jpg")
	assert.Equal(t, srv.URL+"/og.jpg", got)
}

func TestBestImageNameAttributeVariant(t *testing.T) {
	srv, r := newImageServer(t, func(base string) string {
		return `<html><head><meta name="og:image" content="` + base + `/og.jpg"/></head></html>`
	})

	got := r.BestImage(context.Background(), srv.URL+"/product", "")
	assert.Equal(t, srv.URL+"/og.jpg", got)
}

func TestBestImageFallsBackToThumbnail(t *testing.T) {
	srv, r := newImageServer(t, func(string) string {
		return `<html><head><title>no og tag</title></head></html>`
	})

	got := r.BestImage(context.Background(), srv.URL+"/product", srv.URL+"/thumb.jpg")
	assert.Equal(t, srv.URL+"/thumb.jpg", got)
}

func TestBestImageRejectsNonImageOG(t *testing.T) {
	srv, r := newImageServer(t, func(base string) string {
		return `<html><head><meta property="og:image" content="` + base + `/broken.jpg"/></head></html>`
	})

	got := r.BestImage(context.Background(), srv.URL+"/product", srv.URL+"/thumb.jpg")
	assert.Equal(t, srv.URL+"/thumb.jpg", got)
}

func TestBestImageNothingRenderable(t *testing.T) {
	srv, r := newImageServer(t, func(base string) string {
		return `<html><head><meta property="og:image" content="` + base + `/broken.jpg"/></head></html>`
	})

	got := r.BestImage(context.Background(), srv.URL+"/product", srv.URL+"/broken.jpg")
	assert.Equal(t, "", got)
}

func TestBestImageUnreachableHostDegrades(t *testing.T) {
	r := NewResolver(WithTimeouts(500*time.Millisecond, 500*time.Millisecond))
	got := r.BestImage(context.Background(), "https://192.0.2.1:1/p", "https://192.0.2.1:1/t.jpg")
	assert.Equal(t, "", got)
}
