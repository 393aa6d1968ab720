// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"bytes"
	"encoding/json"
)

// AddUserRequest represents the request body for adding a user.
// Name stays raw so a missing or non-string value can be told apart from bad JSON.
type AddUserRequest struct {
	Name json.RawMessage `json:"name"`
}

// NameString returns the name when it is present and a JSON string.
func (r AddUserRequest) NameString() (string, bool) {
	raw := bytes.TrimSpace(r.Name)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return "", false
	}
	return name, true
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
