// Package keyfetcher loads the RSA key pair used for signing and
// verifying bearer tokens.
package keyfetcher

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

type PublicKeyFetcher interface {
	FetchPublicKey() (*rsa.PublicKey, error)
}

type PrivateKeyFetcher interface {
	FetchPrivateKey() (*rsa.PrivateKey, error)
}

// From adapts any PEM source function into both fetcher interfaces.
type From func() ([]byte, error)

// FetchPublicKey parses the loaded PEM bytes as an RSA public key.
func (f From) FetchPublicKey() (*rsa.PublicKey, error) {
	keyBytes, err := f()
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPublicKeyFromPEM(keyBytes)
}

// FetchPrivateKey parses the loaded PEM bytes as an RSA private key.
func (f From) FetchPrivateKey() (*rsa.PrivateKey, error) {
	keyBytes, err := f()
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
}

// FromBase64Env reads a Base64-encoded PEM key from the named
// environment variable.
func FromBase64Env(key string) From {
	return func() ([]byte, error) {
		keyBase64 := os.Getenv(key)
		if keyBase64 == "" {
			return nil, fmt.Errorf("environment variable %s is not set", key)
		}

		return base64.StdEncoding.DecodeString(keyBase64)
	}
}

// FromFile reads a PEM key from disk.
func FromFile(path string) From {
	return func() ([]byte, error) {
		return os.ReadFile(path)
	}
}
