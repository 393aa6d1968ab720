// Package model defines domain entities for the application.
package model

import (
	"strings"
	"time"
)

// User is a row of the users table.
// Created is milliseconds since the Unix epoch; zero means the store did not report it.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Created int64  `json:"created,omitempty"`
}

// CreatedAt returns Created as a time, or the zero time when Created is unset.
func (u User) CreatedAt() time.Time {
	if u.Created <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(u.Created)
}

// HasCreated reports whether the creation timestamp is known.
func (u User) HasCreated() bool {
	return u.Created > 0
}

// NormalizeName trims surrounding whitespace from a user name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// IsValidName reports whether name is non-empty after trimming.
func IsValidName(name string) bool {
	return NormalizeName(name) != ""
}

// NowMillis returns the current time in milliseconds since the Unix epoch.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
