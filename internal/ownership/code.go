package ownership

import (
	"crypto/rand"
	"math/big"
)

// Invite codes are short enough to read over the phone: six uppercase
// alphanumeric characters. Lookups normalize case, so "ab12cd" and
// "AB12CD" resolve to the same invite.
const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength   = 6
)

func newInviteCode() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, codeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
