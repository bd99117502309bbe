package request

import (
	"errors"
	"io"
	"net/http"
)

// Common errors
var (
	ErrEmptyBody = errors.New("request body is empty")
)

// maxBodySize caps webhook bodies; provider payloads are small.
const maxBodySize = 1 << 20

// ReadBody reads and returns the raw request body, distinguishing an empty
// body so handlers can acknowledge provider health probes.
func ReadBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}
