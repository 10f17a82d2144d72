package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/antibyte/retrobasic/pkg/configuration"
)

// HashPassword returns a bcrypt hash suitable for [Auth] console_password_hash.
func HashPassword(password string) (string, error) {
	cost := configuration.GetInt("Auth", "password_hash_cost", bcrypt.DefaultCost)
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// PasswordRequired reports whether new sessions need the console password.
func PasswordRequired() bool {
	return configuration.GetString("Auth", "console_password_hash", "") != ""
}

// CheckConsolePassword verifies password against the configured hash.
// Without a configured hash every password is accepted.
func CheckConsolePassword(password string) bool {
	return checkPassword(configuration.GetString("Auth", "console_password_hash", ""), password)
}

func checkPassword(hash, password string) bool {
	if hash == "" {
		return true
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
