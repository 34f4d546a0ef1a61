package misc

import (
	"crypto/rand"
	"math/big"
)

const (
	charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// PasswordLength gives just over 256 bits of entropy on a 62-symbol
	// charset (log2(62) ≈ 5.95 bits per character).
	PasswordLength = 44
)

type (
	RandomPasswordGenerator interface {
		Generate(n int) (string, error)
	}
)

type randomPasswordGenerator struct {
}

func newRandomPasswordGenerator() RandomPasswordGenerator {
	return &randomPasswordGenerator{}
}

func (p randomPasswordGenerator) Generate(n int) (string, error) {
	result := make([]byte, n)
	charsetLength := byte(len(charset))

	for i := range result {
		randomByte, err := rand.Int(rand.Reader, big.NewInt(int64(charsetLength)))
		if err != nil {
			return "", err
		}
		result[i] = charset[randomByte.Int64()]
	}

	return string(result), nil
}

var (
	DefaultPasswordGenerator = newRandomPasswordGenerator()
)

var (
	Seperator = []byte("\n")
)
