package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password a member may register with.
const MinPasswordLen = 6

// bcrypt ignores input past 72 bytes; longer passwords are refused rather
// than silently truncated.
const maxPasswordBytes = 72

var ErrWeakPassword = fmt.Errorf("password must be %d to %d bytes", MinPasswordLen, maxPasswordBytes)

// CheckPassword reports whether plain is acceptable for a new account.
func CheckPassword(plain string) error {
	if len(plain) < MinPasswordLen || len(plain) > maxPasswordBytes {
		return ErrWeakPassword
	}
	return nil
}

// HashPassword hashes a member or seeded admin password. A cost outside
// bcrypt's range (BCRYPT_COST unset or mistyped) falls back to the default.
func HashPassword(plain string, cost int) (string, error) {
	if err := CheckPassword(plain); err != nil {
		return "", err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword is the login check. Any mismatch or malformed hash is
// false.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
