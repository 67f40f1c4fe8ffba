package helpers

import (
	"regexp"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

var emailRegex = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,})+$`)

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword safely compares a bcrypt hash against a plain text password.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}
