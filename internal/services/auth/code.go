// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
)

// codeSpace is the number of six-digit codes, 100000 to 999999.
var codeSpace = big.NewInt(900000)

// generateCode returns a random six-digit verification code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func codesMatch(submitted, stored string) bool {
	return stored != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}
