package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	hashScheme  = "argon2id"
	saltLength  = 16
	keyLength   = 32
	argonTime   = 1
	argonMemory = 64 * 1024
	argonLanes  = 4
)

var errMalformedHash = errors.New("malformed passcode hash")

// HashPasscode derives a salted argon2id hash encoded as "argon2id$<salt>$<key>".
func HashPasscode(passcode string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := deriveKey(passcode, salt)
	return strings.Join([]string{
		hashScheme,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	}, "$"), nil
}

// VerifyPasscode reports whether passcode matches the encoded hash.
func VerifyPasscode(encoded, passcode string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return false, errMalformedHash
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, errMalformedHash
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[2])
	if err != nil || len(want) != keyLength {
		return false, errMalformedHash
	}
	got := deriveKey(passcode, salt)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func deriveKey(passcode string, salt []byte) []byte {
	return argon2.IDKey([]byte(passcode), salt, argonTime, argonMemory, argonLanes, keyLength)
}
