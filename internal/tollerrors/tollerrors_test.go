package tollerrors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteInvalidMacaroonIs401(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, CodeInvalidMacaroon, MsgInvalidMacaroon)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var got body
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error != MsgInvalidMacaroon {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestWriteWalletErrorIs500(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, CodeWalletError, WalletErrorMessage(errors.New("connection refused")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var got body
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Error != "Toll booth error: connection refused" {
		t.Fatalf("unexpected message: %q", got.Error)
	}
}

func TestRetryableOnlyForWalletError(t *testing.T) {
	cases := []struct {
		code Code
		want bool
	}{
		{CodeInvalidMacaroon, false},
		{CodeInvalidSignature, false},
		{CodeCaveatFailed, false},
		{CodeInvalidPreimage, false},
		{CodeWalletError, true},
	}
	for _, c := range cases {
		if got := Retryable(c.code); got != c.want {
			t.Errorf("Retryable(%s) = %v, want %v", c.code, got, c.want)
		}
	}
}

func TestWriteSetsJSONContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, CodeInvalidPreimage, MsgInvalidPreimage)
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type: %s", ct)
	}
}
