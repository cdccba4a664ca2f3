package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vk/flowcalc/internal/graphstore"
)

// CodeBadRequest is reported for bodies that could not be decoded.
const CodeBadRequest = "BadRequest"

var errBadRequest = errors.New("bad request")

// ErrorBody is the JSON shape of every error reply.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Code returns the reason code of err.
func Code(err error) string {
	if errors.Is(err, errBadRequest) {
		return CodeBadRequest
	}
	return graphstore.Code(err)
}

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	switch Code(err) {
	case CodeBadRequest:
		return http.StatusBadRequest
	case graphstore.CodeNotFound:
		return http.StatusNotFound
	case graphstore.CodeCapacityExceeded:
		return http.StatusConflict
	case graphstore.CodeInvalidConnection,
		graphstore.CodeDuplicateEdge,
		graphstore.CodeInvalidValue,
		graphstore.CodeInvalidID,
		graphstore.CodeDuplicateNodeID,
		graphstore.CodeDanglingEdge:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), ErrorBody{Error: err.Error(), Code: Code(err)})
}
