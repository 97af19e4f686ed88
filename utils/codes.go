package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	ActivationCodeLength = 6
	AccessCodeLength     = 10

	digits         = "0123456789"
	accessAlphabet = "useandom-26T198340PX75pxJACKVERYMINDBUSHWOLF_GQZbfghjklqvwyzrict"
)

func randomString(alphabet string, n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range out {
		num, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[num.Int64()]
	}
	return string(out), nil
}

// GenerateActivationCode returns a six digit numeric code.
func GenerateActivationCode() (string, error) {
	return randomString(digits, ActivationCodeLength)
}

// GenerateAccessCode returns a URL-safe share code.
func GenerateAccessCode() (string, error) {
	return randomString(accessAlphabet, AccessCodeLength)
}
