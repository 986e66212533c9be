package middleware

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"travel-server/auth"
	"travel-server/utils/errors"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) errors.APIError {
	t.Helper()
	var body errors.APIError
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("response is not an API error: %v", err)
	}
	return body
}

func TestJWTMiddleware(t *testing.T) {
	tokens := auth.NewTokenManager("secret", time.Hour)
	var got Session
	h := JWTMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessionFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	token, _, err := tokens.Issue("65f0c0ffee0000000000abcd", "a@b.co")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("valid token: status %d", rr.Code)
	}
	if got.UserID != "65f0c0ffee0000000000abcd" || got.Email != "a@b.co" {
		t.Fatalf("unexpected session %+v", got)
	}

	for name, header := range map[string]string{
		"missing": "",
		"scheme":  "Token " + token,
		"garbage": "Bearer nope",
	} {
		req := httptest.NewRequest(http.MethodGet, "/threads", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rr.Code)
		}
		if body := decodeError(t, rr); body.Message != "Unauthorized" {
			t.Fatalf("%s: unexpected body %+v", name, body)
		}
	}
}

func TestSessionFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := SessionFromContext(req.Context()); ok {
		t.Fatal("no session expected")
	}
	if _, ok := SessionFromContext(WithSession(req.Context(), Session{})); ok {
		t.Fatal("session without user id must not count")
	}
}

func TestValidateObjectIDs(t *testing.T) {
	reached := false
	r := mux.NewRouter()
	sub := r.PathPrefix("/events").Subrouter()
	sub.Use(ValidateObjectIDs("id"))
	sub.HandleFunc("/{id}/participants", func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events/123/participants", nil))
	if rr.Code != http.StatusBadRequest || reached {
		t.Fatalf("expected 400 without reaching the handler, got %d", rr.Code)
	}
	if body := decodeError(t, rr); body.Message != "Invalid ObjectId format" {
		t.Fatalf("unexpected body %+v", body)
	}

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/events/65f0c0ffee0000000000abcd/participants", nil))
	if rr.Code != http.StatusOK || !reached {
		t.Fatalf("valid id should pass, got %d", rr.Code)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, errors.ErrConflict.WithMessage("User already present"))
	if rr.Code != http.StatusConflict {
		t.Fatalf("status %d", rr.Code)
	}
	if body := decodeError(t, rr); body.Message != "User already present" || body.Code != "CONFLICT" {
		t.Fatalf("unexpected body %+v", body)
	}

	rr = httptest.NewRecorder()
	WriteError(rr, stderrors.New("connection reset"))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("plain error should be 500, got %d", rr.Code)
	}
	body := decodeError(t, rr)
	if body.Code != "UNKNOWN_ERROR" || body.Details != "" {
		t.Fatalf("server error details must not leak: %+v", body)
	}
}

func TestErrorMiddlewareRecovers(t *testing.T) {
	h := ErrorMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 after panic, got %d", rr.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/threads", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rr.Code)
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatal("allowed origin not echoed")
	}

	req = httptest.NewRequest(http.MethodGet, "/threads", nil)
	req.Header.Set("Origin", "http://evil.test")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("disallowed origin must not get CORS headers")
	}

	req = httptest.NewRequest(http.MethodGet, "/threads", nil)
	req.Header.Set("Origin", "HTTP://LOCALHOST:3000")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || rr.Header().Get("Access-Control-Allow-Origin") != "HTTP://LOCALHOST:3000" {
		t.Fatalf("origin match should ignore case: %d %q", rr.Code, rr.Header().Get("Access-Control-Allow-Origin"))
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/threads", nil))
	if rr.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Fatal("same-origin request should not get CORS headers")
	}
}

func TestCORSPreflightAndWildcard(t *testing.T) {
	h := CORSMiddleware([]string{"*"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/events/1", nil)
	req.Header.Set("Origin", "http://any.test")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rr.Code)
	}
	hdr := rr.Header()
	if hdr.Get("Access-Control-Allow-Origin") != "http://any.test" || hdr.Get("Access-Control-Max-Age") != "600" {
		t.Fatalf("unexpected preflight headers %v", hdr)
	}
	if !strings.Contains(hdr.Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatal("PATCH must be allowed")
	}
	if !strings.Contains(hdr.Get("Access-Control-Allow-Headers"), RequestIDHeader) {
		t.Fatal("request id header must be allowed")
	}
}

func TestRequestLoggerSetsID(t *testing.T) {
	var seen string
	h := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || rr.Header().Get(RequestIDHeader) != seen {
		t.Fatalf("request id not propagated: ctx=%q header=%q", seen, rr.Header().Get(RequestIDHeader))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "given-id" {
		t.Fatalf("incoming id should be kept, got %q", seen)
	}
}

func TestRateLimit(t *testing.T) {
	store := NewLimiterStore(1, 2, time.Minute)
	defer store.Stop()

	h := RateLimit(store, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = ip + ":5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	if send("10.0.0.1") != http.StatusOK || send("10.0.0.1") != http.StatusOK {
		t.Fatal("burst should be allowed")
	}
	if code := send("10.0.0.1"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}
	if send("10.0.0.2") != http.StatusOK {
		t.Fatal("other clients have their own budget")
	}
}

func TestLimiterStoreEvictIdle(t *testing.T) {
	store := NewLimiterStore(60, 1, time.Hour)
	defer store.Stop()
	store.Allow("a")
	store.evictIdle(time.Now().Add(time.Second))
	store.mu.Lock()
	n := len(store.clients)
	store.mu.Unlock()
	if n != 0 {
		t.Fatalf("idle client not evicted, %d left", n)
	}
	store.Stop()
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	store := NewLimiterStore(1, 1, time.Minute)
	defer store.Stop()

	h := RateLimit(store, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	limited := 0
	for i := 0; i < 20; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("1.2.3.%d", i))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 19 {
		t.Fatalf("rotating X-Forwarded-For from one peer: expected 19 rejections, got %d", limited)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	if got := clientIP(req, false); got != "192.0.2.1" {
		t.Fatalf("clientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 198.51.100.9")
	if got := clientIP(req, false); got != "192.0.2.1" {
		t.Fatalf("untrusted X-Forwarded-For should be ignored, got %q", got)
	}
	if got := clientIP(req, true); got != "198.51.100.9" {
		t.Fatalf("trusted proxy hop = %q", got)
	}
	req.RemoteAddr = "not-a-hostport"
	req.Header.Del("X-Forwarded-For")
	if got := clientIP(req, true); got != "not-a-hostport" {
		t.Fatalf("fallback to raw remote addr, got %q", got)
	}
}
