package password

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Blacklist es un set de contraseñas comunes (case-insensitive). Un nil Blacklist no contiene nada.
type Blacklist struct {
	data map[string]struct{}
}

// NewBlacklist crea un Blacklist con las entradas dadas.
func NewBlacklist(entries ...string) *Blacklist {
	bl := &Blacklist{data: make(map[string]struct{}, len(entries))}
	for _, e := range entries {
		bl.add(e)
	}
	return bl
}

// LoadBlacklist carga un archivo con una contraseña por línea (# comenta).
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := NewBlacklist()
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if s := strings.TrimSpace(sc.Text()); !strings.HasPrefix(s, "#") {
			bl.add(s)
		}
	}
	return bl, sc.Err()
}

func (b *Blacklist) add(s string) {
	if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
		b.data[s] = struct{}{}
	}
}

// Contains indica si pwd está en la lista.
func (b *Blacklist) Contains(pwd string) bool {
	if b == nil {
		return false
	}
	_, ok := b.data[strings.ToLower(strings.TrimSpace(pwd))]
	return ok
}
