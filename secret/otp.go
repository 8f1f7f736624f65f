// SPDX-License-Identifier: LGPL-3.0-or-later

package secret

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// generateOTP returns a fresh 9-digit numeric string, zero-padded, drawn
// from a CSPRNG. Leading zeros are kept so the field always has a fixed
// width the client can validate on input.
func generateOTP() (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(otpDigits), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	s := n.String()
	if len(s) < otpDigits {
		s = strings.Repeat("0", otpDigits-len(s)) + s
	}
	return s, nil
}
