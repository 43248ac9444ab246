// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"bufio"
	_ "embed"
	"fmt"
	"strings"
	"unicode"
)

//go:embed common_passwords.txt
var commonPasswordList string

var commonPasswords = loadCommonPasswords(commonPasswordList)

func loadCommonPasswords(list string) map[string]struct{} {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(list))
	for scanner.Scan() {
		if p := strings.ToLower(strings.TrimSpace(scanner.Text())); p != "" {
			set[p] = struct{}{}
		}
	}
	return set
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

// PasswordValidator checks new passwords at registration and reset.
type PasswordValidator struct {
	MinLength            int
	CheckCommonPasswords bool
	CheckEmail           bool
}

// DefaultPasswordValidator returns the validator used by the service.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength:            8,
		CheckCommonPasswords: true,
		CheckEmail:           true,
	}
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// PasswordValidationError wraps multiple validation errors
type PasswordValidationError struct {
	Errors []ValidationError
}

func (e *PasswordValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "password validation failed"
	}
	return e.Errors[0].Message
}

// Messages returns all error messages
func (e *PasswordValidationError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		messages[i] = err.Message
	}
	return messages
}

// Validate returns nil or a *PasswordValidationError listing every failed rule.
func (v *PasswordValidator) Validate(password, email string) error {
	var errs []ValidationError

	if len([]rune(password)) < v.MinLength {
		errs = append(errs, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long.", v.MinLength),
		})
	}

	if len(password) > maxPasswordBytes {
		errs = append(errs, ValidationError{
			Code:    "max_length",
			Message: fmt.Sprintf("Password must be at most %d bytes long.", maxPasswordBytes),
		})
	}

	if isEntirelyNumeric(password) {
		errs = append(errs, ValidationError{
			Code:    "entirely_numeric",
			Message: "Password cannot be entirely numeric.",
		})
	}

	if v.CheckCommonPasswords {
		if _, common := commonPasswords[strings.ToLower(password)]; common {
			errs = append(errs, ValidationError{
				Code:    "common_password",
				Message: "This password is too common. Please choose a more secure password.",
			})
		}
	}

	if v.CheckEmail && containsMailbox(password, email) {
		errs = append(errs, ValidationError{
			Code:    "too_similar",
			Message: "Password must not contain your email address.",
		})
	}

	if len(errs) > 0 {
		return &PasswordValidationError{Errors: errs}
	}
	return nil
}

func isEntirelyNumeric(password string) bool {
	for _, r := range password {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return len(password) > 0
}

// containsMailbox reports whether the local part of email appears in password.
// Very short local parts are ignored.
func containsMailbox(password, email string) bool {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	if len(local) < 4 {
		return false
	}
	return strings.Contains(strings.ToLower(password), local)
}
