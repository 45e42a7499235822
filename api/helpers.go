package api

import (
	"encoding/json"
	"net/http"

	"github.com/vocdoni/confidential-transfers/log"
)

// maxBodySize bounds request bodies. A transfer is a few kilobytes once hex
// encoded.
const maxBodySize = 1 << 20

// decodeBody decodes the JSON request body into v. Unknown fields and bodies
// over maxBodySize are malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) *Error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		apiErr := ErrMalformedBody.Withf("could not decode request body: %v", err)
		return &apiErr
	}
	return nil
}

// httpWriteJSON writes data as a JSON response with status 200.
func httpWriteJSON(w http.ResponseWriter, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		ErrMarshalingServerJSONFailed.WithErr(err).Write(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(body, '\n')); err != nil {
		log.Warnw("could not write response", "error", err)
		return
	}
	log.Debugw("api response", "bytes", len(body))
}

// httpWriteOK writes an empty response with status 200.
func httpWriteOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("\n")); err != nil {
		log.Warnw("could not write response", "error", err)
	}
}
