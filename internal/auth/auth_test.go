package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darshanradadiya/ekharcha/internal/core"
)

func TestParseTokenPairs(t *testing.T) {
	tokens, err := ParseTokenPairs("alpha:1, beta:42 ,")
	if err != nil {
		t.Fatalf("ParseTokenPairs: %v", err)
	}
	if len(tokens) != 2 || tokens["alpha"] != 1 || tokens["beta"] != 42 {
		t.Fatalf("unexpected tokens: %#v", tokens)
	}

	if _, err := ParseTokenPairs("missing-separator"); err == nil {
		t.Fatal("expected error for malformed pair")
	}
	if _, err := ParseTokenPairs("tok:notanumber"); err == nil {
		t.Fatal("expected error for bad user id")
	}

	empty, err := ParseTokenPairs("")
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: %#v, %v", empty, err)
	}
}

func TestStaticTokensVerify(t *testing.T) {
	tokens := StaticTokens{"good": 7}

	id, err := tokens.Verify(context.Background(), "good")
	if err != nil || id != 7 {
		t.Fatalf("Verify = %d, %v", id, err)
	}

	if _, err := tokens.Verify(context.Background(), "bad"); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestMiddleware(t *testing.T) {
	var gotUser int64
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(StaticTokens{"secret": 9})(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantMsg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "Unauthorized: Token missing"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "Unauthorized: Token missing"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "Invalid or expired token"},
		{"valid token", "Bearer secret", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = 0
			req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantMsg != "" {
				var body map[string]string
				if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body["message"] != tt.wantMsg {
					t.Fatalf("message = %q, want %q", body["message"], tt.wantMsg)
				}
			}
			if tt.wantStatus == http.StatusOK && gotUser != 9 {
				t.Fatalf("user id = %d, want 9", gotUser)
			}
		})
	}
}
