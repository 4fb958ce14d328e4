package security

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
)

// Ambiguous characters (0/O, 1/I/L) are excluded so users can read the code
// back over any medium.
const recoveryAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	recoveryGroupCount  = 3
	recoveryGroupLength = 4
)

var errEmptyAlphabet = errors.New("alphabet must not be empty")

// NewRecoveryCode returns a fresh account recovery code in the form
// MSNP-XXXX-XXXX-XXXX. The code is shown to the user exactly once; only its
// bcrypt hash is stored.
func NewRecoveryCode() (string, error) {
	groups := make([]string, 0, recoveryGroupCount+1)
	groups = append(groups, "MSNP")
	for i := 0; i < recoveryGroupCount; i++ {
		group, err := randomString(recoveryGroupLength, recoveryAlphabet)
		if err != nil {
			return "", err
		}
		groups = append(groups, group)
	}
	return strings.Join(groups, "-"), nil
}

// randomString draws each character independently via crypto/rand, so the
// result is unbiased for any alphabet size.
func randomString(length int, alphabet string) (string, error) {
	if len(alphabet) == 0 {
		return "", errEmptyAlphabet
	}

	limit := big.NewInt(int64(len(alphabet)))
	value := make([]byte, length)
	for index := range value {
		position, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		value[index] = alphabet[position.Int64()]
	}

	return string(value), nil
}
