// Package session emite y valida los tokens de sesión (JWT EdDSA) que entrega el
// proveedor local al completar un sign-in por magic link.
package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrInvalid se devuelve para cualquier token que no valide.
var ErrInvalid = errors.New("invalid session token")

// Claims de una sesión.
type Claims struct {
	Email string `json:"email"`
	jwtv5.RegisteredClaims
}

// Issuer firma sesiones con una clave Ed25519.
type Issuer struct {
	Iss string
	TTL time.Duration

	kid  string
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	now  func() time.Time
}

// NewIssuer crea un Issuer. Con seed de 32 bytes la clave es determinística
// (varios nodos comparten sesiones); sin seed se genera una efímera.
func NewIssuer(iss string, ttl time.Duration, seed []byte) (*Issuer, error) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	var priv ed25519.PrivateKey
	switch len(seed) {
	case 0:
		_, p, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		priv = p
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(seed)
	default:
		return nil, errors.New("session: seed must be 32 bytes")
	}
	pub := priv.Public().(ed25519.PublicKey)
	sum := sha256.Sum256(pub)

	return &Issuer{
		Iss:  iss,
		TTL:  ttl,
		kid:  base64.RawURLEncoding.EncodeToString(sum[:8]),
		priv: priv,
		pub:  pub,
		now:  time.Now,
	}, nil
}

// Issue emite una sesión para email (sub = email).
func (i *Issuer) Issue(email string) (string, time.Time, error) {
	now := i.now().UTC()
	exp := now.Add(i.TTL)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   email,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.kid

	signed, err := tk.SignedString(i.priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse valida firma, issuer y expiración.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwtv5.ParseWithClaims(token, claims, func(*jwtv5.Token) (any, error) {
		return i.pub, nil
	},
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithIssuer(i.Iss),
		jwtv5.WithLeeway(30*time.Second),
		jwtv5.WithTimeFunc(i.now),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalid
	}
	return claims, nil
}
