// Copyright (c) 2026 Voxdesk. All rights reserved.

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSecureToken returns a URL-safe opaque token with byteLength bytes of
// entropy from the operating system's CSPRNG.
//
// Used for password-reset tokens, which must be unguessable and carry no
// structure of their own.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
