package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, ct, err := Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != "hello" || ct != "text/plain" {
		t.Errorf("got %q (%s)", body, ct)
	}
}

func TestFetch_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, _, err := Fetch(context.Background(), srv.URL); err == nil {
		t.Error("expected an error for 404")
	}
}

func TestFetch_Context(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, _, err := Fetch(ctx, srv.URL); err == nil {
		t.Error("expected the context deadline to abort the fetch")
	}
}

func TestFetchDocument_Charset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>caf\xe9</p>"))
	}))
	defer srv.Close()

	doc, err := FetchDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if doc != "<p>café</p>" {
		t.Errorf("expected latin-1 to be decoded, got %q", doc)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct{ base, ref, want string }{
		{"http://example.com/a/b.html", "img.png", "http://example.com/a/img.png"},
		{"http://example.com/a/b.html", "/img.png", "http://example.com/img.png"},
		{"http://example.com/", "https://other.org/x", "https://other.org/x"},
	}
	for _, tt := range tests {
		if got := ResolveURL(tt.base, tt.ref); got != tt.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tt.base, tt.ref, got, tt.want)
		}
	}
	if !IsNetworkURL("https://x") || IsNetworkURL("file.png") {
		t.Error("IsNetworkURL misclassified")
	}
}
