package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// maxRequestBodyBytes caps JSON request bodies before they reach the
// decoder. Pipeline requests are small; anything larger is rejected.
const maxRequestBodyBytes = 1 << 20

// ErrTrailingContent indicates the request body contained data after
// the first JSON value.
var ErrTrailingContent = errors.New("request body contains trailing content")

// DecodeJSON decodes the request body as a single JSON value into dst.
// The body is capped at 1 MiB and content after the value is rejected.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrTrailingContent
	}
	return nil
}
