package action

import (
	"net/url"
	"strings"
)

// ContinuePolicy decide a dónde puede mandar un link al usuario después del flow.
// Se aceptan paths relativos y URLs http(s) cuyo host esté en AllowedHosts.
type ContinuePolicy struct {
	AllowedHosts []string
	Default      string
}

// Allowed reporta si target es aceptable. Vacío siempre lo es.
func (p ContinuePolicy) Allowed(target string) bool {
	t := strings.TrimSpace(target)
	if t == "" {
		return true
	}
	// "//evil.com" y "/\evil.com" son absolutos para el navegador.
	if strings.HasPrefix(t, "/") {
		return !strings.HasPrefix(t, "//") && !strings.HasPrefix(t, `/\`)
	}
	u, err := url.Parse(t)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.User != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range p.AllowedHosts {
		if strings.EqualFold(strings.TrimSpace(h), host) {
			return true
		}
	}
	return false
}

// Resolve devuelve target si está permitido, Default si no. Vacío queda vacío.
func (p ContinuePolicy) Resolve(target string) string {
	t := strings.TrimSpace(target)
	if t == "" || p.Allowed(t) {
		return t
	}
	return p.Default
}
