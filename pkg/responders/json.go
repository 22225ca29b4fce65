package responders

import (
	"encoding/json"
	"net/http"
)

// JSON writes an application/json response with status code and payload.
// Every body this module serves through it — error bodies, dashboard
// revenue figures — is specific to the requesting client and must never
// be cached by an intermediate proxy, so every response also gets
// Cache-Control: no-store. (402 challenges are written by
// l402.WriteChallenge, which sets the same header.)
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
