package password

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*-_=+"
	allChars    = upperChars + lowerChars + digitChars + symbolChars

	providerPasswordLength = 32
)

// GenerateProviderPassword returns a random password that satisfies an
// identity provider policy of mixed case plus digits. The result always
// contains at least one upper-case letter, one lower-case letter and one digit.
func GenerateProviderPassword() (string, error) {
	buf := make([]byte, 0, providerPasswordLength)
	for _, set := range []string{upperChars, lowerChars, digitChars} {
		c, err := randomChar(set)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < providerPasswordLength {
		c, err := randomChar(allChars)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}

	// Shuffle so the guaranteed classes are not always in front.
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", fmt.Errorf("password: shuffle: %w", err)
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, fmt.Errorf("password: generate: %w", err)
	}
	return set[n.Int64()], nil
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, err
	}
	return b, nil
}
