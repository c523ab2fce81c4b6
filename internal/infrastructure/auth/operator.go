package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/stocksense/backend/internal/infrastructure/config"
)

// ErrInvalidCredentials is returned for any username/password mismatch
var ErrInvalidCredentials = errors.New("invalid credentials")

// devFallbackPassword is hashed at startup when no operator hash is
// configured. Production config validation rejects the empty hash, so the
// fallback only ever applies to local development.
const devFallbackPassword = "admin"

// OperatorAuthenticator verifies credentials for the single configured
// operator account
type OperatorAuthenticator struct {
	username     string
	passwordHash []byte
}

// NewOperatorAuthenticator creates an authenticator from configuration
func NewOperatorAuthenticator(cfg config.AuthConfig) (*OperatorAuthenticator, error) {
	hash := []byte(cfg.OperatorPasswordHash)
	if len(hash) == 0 {
		generated, err := bcrypt.GenerateFromPassword([]byte(devFallbackPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = generated
	} else if _, err := bcrypt.Cost(hash); err != nil {
		return nil, errors.New("auth.operator_password_hash is not a valid bcrypt hash")
	}

	return &OperatorAuthenticator{
		username:     cfg.OperatorUsername,
		passwordHash: hash,
	}, nil
}

// Authenticate checks the supplied credentials against the operator account.
// Returns ErrInvalidCredentials on any mismatch without distinguishing
// between unknown username and wrong password.
func (a *OperatorAuthenticator) Authenticate(username, password string) error {
	usernameMatch := subtle.ConstantTimeCompare([]byte(a.username), []byte(username)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password))

	if !usernameMatch || passwordErr != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Username returns the configured operator username
func (a *OperatorAuthenticator) Username() string {
	return a.username
}

// HashPassword produces a bcrypt hash for the auth.operator_password_hash
// config value, used by the hash-password CLI helper
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
