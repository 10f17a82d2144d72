package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/antibyte/retrobasic/pkg/configuration"
	"github.com/antibyte/retrobasic/pkg/logger"
)

// Default values - actual values are loaded from configuration
const (
	defaultTokenExpiration = 24
	tokenIssuer            = "tinyos"
)

var (
	// ErrInvalidToken is returned for tokens that fail validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNoToken is returned when a request carries no token.
	ErrNoToken = errors.New("no token found in request")
)

var (
	processSecret     string
	processSecretOnce sync.Once
)

// getJWTSecret retrieves the JWT secret from environment variable or configuration.
// Without either, a random secret is generated once per process, so tokens
// do not survive a restart.
func getJWTSecret() string {
	if envSecret := os.Getenv("JWT_SECRET_KEY"); envSecret != "" {
		return envSecret
	}

	if secret := configuration.GetString("JWT", "secret_key", ""); secret != "" {
		return secret
	}

	processSecretOnce.Do(func() {
		processSecret = randomSecret()
		logger.AuthWarn("No JWT secret configured - using a random secret for this process")
	})
	return processSecret
}

// randomSecret returns 32 random bytes, hex encoded.
func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// Ohne Zufallsquelle keine sicheren Tokens
		panic(fmt.Sprintf("auth: cannot generate JWT secret: %v", err))
	}
	return hex.EncodeToString(buf)
}

func getTokenExpiration() time.Duration {
	hours := configuration.GetInt("JWT", "token_expiration_hours", defaultTokenExpiration)
	return time.Duration(hours) * time.Hour
}

// SessionClaims are the claims of a terminal session token.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// GenerateSessionToken signs a token binding the bearer to sessionID.
func GenerateSessionToken(sessionID string) (string, error) {
	return generateSessionToken(sessionID, time.Now(), getTokenExpiration())
}

func generateSessionToken(sessionID string, now time.Time, lifetime time.Duration) (string, error) {
	claims := SessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   "terminal",
			ID:        sessionID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(getJWTSecret()))
	if err != nil {
		return "", fmt.Errorf("token konnte nicht signiert werden: %w", err)
	}
	logger.Debug(logger.AreaAuth, "Token generiert für Session ID: %s", sessionID)
	return signedToken, nil
}

// ValidateSessionToken checks signature, algorithm and expiry and returns the claims.
func ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	secretKey := getJWTSecret()

	token, err := jwt.ParseWithClaims(
		tokenString,
		&SessionClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing algorithm: %v", token.Header["alg"])
			}
			return []byte(secretKey), nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractTokenFromRequest extracts the JWT token from the HTTP request.
// The Authorization header (Bearer) wins over the token query parameter,
// which browsers need for websocket upgrades.
func ExtractTokenFromRequest(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if !found || scheme != "Bearer" || token == "" {
			return "", fmt.Errorf("invalid authorization header format")
		}
		return token, nil
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	return "", ErrNoToken
}
