// Package token genera tokens opacos de acción y sus hashes de almacenamiento.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// DefaultBytes es la entropía de un token de acción.
const DefaultBytes = 32

// Generate genera un token opaco aleatorio (base64url sin padding).
func Generate(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = DefaultBytes
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Hash devuelve sha256(s) en base64url sin padding. Los tokens se guardan solo hasheados.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
