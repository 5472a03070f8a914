// Package respond writes JSON bodies and RFC 9457 problem details for the
// registry's HTTP handlers.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies decoded by Decode.
const maxBodyBytes = 1 << 20

// StatusClientClosedRequest is the non-standard status recorded when the
// client goes away before the request completes.
const StatusClientClosedRequest = 499

// Problem is an RFC 9457 problem details body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// Error implements the error interface.
func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a problem details body whose title is the status text.
func Error(w http.ResponseWriter, r *http.Request, status int, detail string) {
	title := http.StatusText(status)
	if status == StatusClientClosedRequest {
		title = "Client Closed Request"
	}
	p := &Problem{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(p)
}

// ServiceError writes err as a problem. Requests the client abandoned or that
// ran out of time are not reported as server faults.
func ServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		Error(w, r, StatusClientClosedRequest, "client closed request")
	case errors.Is(err, context.DeadlineExceeded):
		Error(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		Error(w, r, http.StatusInternalServerError, err.Error())
	}
}

// Decode reads a single JSON object from the request body into dst.
// Unknown fields are rejected.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("empty body")
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
