package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// Stored format: <hex-derived-key>.<hex-salt>. Values without a separator are
// treated as legacy plaintext credentials and compared directly; they only
// exist for accounts imported from the previous system.

const (
	saltLength = 16
	keyLength  = 64

	scryptN = 16384
	scryptR = 8
	scryptP = 1
)

func Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key, err := scrypt.Key([]byte(plaintext), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return "", fmt.Errorf("failed to derive key: %w", err)
	}

	return hex.EncodeToString(key) + "." + hex.EncodeToString(salt), nil
}

// Verify reports whether plaintext matches the stored credential. Malformed
// stored values never produce an error, only a false result.
func Verify(plaintext, stored string) bool {
	if !strings.Contains(stored, ".") {
		// legacy plaintext credential
		return subtle.ConstantTimeCompare([]byte(plaintext), []byte(stored)) == 1
	}

	parts := strings.SplitN(stored, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}

	storedKey, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}

	key, err := scrypt.Key([]byte(plaintext), salt, scryptN, scryptR, scryptP, len(storedKey))
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(key, storedKey) == 1
}
