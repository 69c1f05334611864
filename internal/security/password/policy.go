// Package password valida y hashea credenciales nuevas.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrWeak se devuelve (envuelto, con los motivos) cuando una credencial no cumple la política.
var ErrWeak = errors.New("password does not satisfy policy")

// Policy es la política de credenciales del proveedor local.
type Policy struct {
	MinLength     int
	RequireLetter bool
	RequireDigit  bool
	Blacklist     *Blacklist
}

// DefaultPolicy: 8 caracteres, letra y dígito.
var DefaultPolicy = Policy{MinLength: 8, RequireLetter: true, RequireDigit: true}

// Validate devuelve los motivos de rechazo (vacío si pasa).
func (p Policy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	var hasL, hasD bool
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		}
	}
	if p.RequireLetter && !hasL {
		reasons = append(reasons, "missing_letter")
	}
	if p.RequireDigit && !hasD {
		reasons = append(reasons, "missing_digit")
	}
	if p.Blacklist.Contains(s) {
		reasons = append(reasons, "blacklisted")
	}
	return len(reasons) == 0, reasons
}

// Check es Validate como error.
func (p Policy) Check(s string) error {
	if ok, reasons := p.Validate(s); !ok {
		return fmt.Errorf("%w: %s", ErrWeak, strings.Join(reasons, ","))
	}
	return nil
}
