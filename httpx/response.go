// Package httpx writes the JSON envelope shared by the local server and
// the remote API: {success, data, error, message} plus pagination fields
// on list responses.
package httpx

import (
	"encoding/json"
	"net/http"
)

type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
	*Pagination
}

// Pagination is flattened into the envelope of paginated lists.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes TotalPages. A zero limit means one page.
func NewPagination(total, page, limit int) *Pagination {
	pages := 1
	if limit > 0 {
		pages = (total + limit - 1) / limit
		if pages == 0 {
			pages = 1
		}
	}
	return &Pagination{Total: total, Page: page, Limit: limit, TotalPages: pages}
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"success":false,"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// OK writes a successful envelope around data.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Success: true, Data: data})
}

// Message writes a successful envelope with a human-readable message.
func Message(w http.ResponseWriter, status int, msg string, data any) {
	JSON(w, status, Envelope{Success: true, Data: data, Message: msg})
}

// Paged writes one page of a list.
func Paged(w http.ResponseWriter, data any, p *Pagination) {
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data, Pagination: p})
}

// JSONError writes a failed envelope. msg is a snake_case error code.
func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, Envelope{Success: false, Error: msg, Message: http.StatusText(status), Details: details})
}

// Fail writes a failed envelope with an explicit message.
func Fail(w http.ResponseWriter, status int, code, msg string, details any) {
	JSON(w, status, Envelope{Success: false, Error: code, Message: msg, Details: details})
}
