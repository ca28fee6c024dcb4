package cloudevent

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSend(t *testing.T) {
	t.Parallel()

	var gotHeaders http.Header
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := New("topchef.job.completed", "topchef/worker", "j1", "evt-1", map[string]any{"jobId": "j1"})
	sender := NewSender(5 * time.Second)

	if err := sender.Send(context.Background(), server.URL, event, ""); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if got := gotHeaders.Get("Content-Type"); got != "application/cloudevents+json" {
		t.Errorf("unexpected content type %q", got)
	}
	if got := gotHeaders.Get("Ce-Type"); got != "topchef.job.completed" {
		t.Errorf("unexpected Ce-Type %q", got)
	}
	if got := gotHeaders.Get("Ce-Subject"); got != "j1" {
		t.Errorf("unexpected Ce-Subject %q", got)
	}
	if gotHeaders.Get("X-Signature-256") != "" {
		t.Error("unsigned send must not carry a signature header")
	}
	if len(gotBody) == 0 {
		t.Error("expected a JSON body")
	}
}

func TestSendSigned(t *testing.T) {
	t.Parallel()

	var gotSignature string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature-256")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	event := New("topchef.job.failed", "topchef/worker", "j1", "evt-2", nil)
	sender := NewSender(5 * time.Second)

	if err := sender.Send(context.Background(), server.URL, event, "secret"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSignature != want {
		t.Errorf("signature mismatch: got %q want %q", gotSignature, want)
	}
}

func TestSendErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	event := New("topchef.job.working", "topchef/worker", "j1", "evt-3", nil)
	err := NewSender(5 * time.Second).Send(context.Background(), server.URL, event, "")

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", httpErr.StatusCode)
	}
	if IsClientError(err) {
		t.Error("502 is not a client error")
	}
}

func TestIsClientError(t *testing.T) {
	t.Parallel()

	if !IsClientError(&HTTPError{StatusCode: 404}) {
		t.Error("404 should be a client error")
	}
	if IsClientError(&HTTPError{StatusCode: 500}) {
		t.Error("500 should not be a client error")
	}
	if IsClientError(errors.New("boom")) {
		t.Error("non-HTTP errors should not be client errors")
	}
}
