package model

import (
	"fmt"
	"strings"
)

// User is the immutable identity snapshot returned by the API on login.
// It is never mutated locally.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// ValidateEmail performs the same minimal shape check the signup form does.
func ValidateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email address")
	}
	if !strings.Contains(email[at+1:], ".") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword checks password requirements before sending credentials.
func ValidatePassword(password string) error {
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	return nil
}
