package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestClient_DefaultHeaders(t *testing.T) {
	var got http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`)) // nolint:errcheck
	}))
	defer server.Close()

	c := New("list", NewTransport(), 1, time.Second)
	resp, err := c.Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if string(resp.Body) != `{"ok":true}` {
		t.Errorf("Body = %q", resp.Body)
	}
	if resp.ContentType() != "application/json" {
		t.Errorf("ContentType() = %q", resp.ContentType())
	}
	if got.Get("User-Agent") != UserAgent {
		t.Errorf("User-Agent = %q", got.Get("User-Agent"))
	}
	if got.Get("Accept") != Accept {
		t.Errorf("Accept = %q", got.Get("Accept"))
	}
	if got.Get("Accept-Language") != AcceptLanguage {
		t.Errorf("Accept-Language = %q", got.Get("Accept-Language"))
	}
	if strings.Contains(got.Get("Accept-Encoding"), "br") {
		t.Errorf("Accept-Encoding advertises br: %q", got.Get("Accept-Encoding"))
	}
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status    int
		retriable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusBadGateway, true},
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte("nope")) // nolint:errcheck
			}))
			defer server.Close()

			c := New("detail", nil, 1, time.Second)
			resp, err := c.Get(context.Background(), server.URL+"/?ServiceKey=secret&pageNo=1")

			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("Get() error = %v, want *StatusError", err)
			}
			if se.Retriable() != tt.retriable {
				t.Errorf("Retriable() = %v, want %v", se.Retriable(), tt.retriable)
			}
			if strings.Contains(se.Error(), "secret") {
				t.Errorf("error leaks credential: %s", se.Error())
			}
			if resp == nil || string(resp.Body) != "nope" {
				t.Errorf("response body should be returned with the status error")
			}
		})
	}
}

func TestClient_BoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}))
	defer server.Close()

	c := New("detail", nil, 2, time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), server.URL); err != nil {
				t.Errorf("Get() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("peak in-flight = %d, want <= 2", peak)
	}
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer server.Close()

	c := New("list", nil, 1, 30*time.Millisecond)
	_, err := c.Get(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Get() error = nil, want timeout")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		var ne interface{ Timeout() bool }
		if !errors.As(err, &ne) || !ne.Timeout() {
			t.Errorf("Get() error = %v, want a timeout", err)
		}
	}
}

func TestRedact(t *testing.T) {
	in := "http://x/api?ServiceKey=abc%2Bdef&pageNo=2"
	want := "http://x/api?ServiceKey=***&pageNo=2"
	if got := Redact(in); got != want {
		t.Errorf("Redact() = %q, want %q", got, want)
	}
}
