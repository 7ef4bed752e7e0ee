package cryptopackage

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownHashFormat the stored hash is neither Argon2id nor bcrypt.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// VerifyPassword checks password against a stored hash. Argon2id hashes are the
// native format; bcrypt ($2a$, $2b$, $2y$) hashes from imported accounts are
// accepted as well.
func VerifyPassword(password, encodedHash string) (bool, error) {
	switch {
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return ComparePasswordAndHash(password, encodedHash)
	case strings.HasPrefix(encodedHash, "$2"):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return err == nil, err
	default:
		return false, ErrUnknownHashFormat
	}
}

// NeedsRehash reports whether a stored hash should be replaced by Argon2id.
func NeedsRehash(encodedHash string) bool {
	return !strings.HasPrefix(encodedHash, "$argon2id$")
}
