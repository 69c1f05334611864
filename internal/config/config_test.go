package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "local", c.Provider.Driver)
	require.Equal(t, "memory", c.Pending.Driver)
	require.Equal(t, 15*time.Minute, c.Flows.TTL)
	require.Equal(t, "al_ctx", c.Context.CookieName)
	require.Equal(t, "al_session", c.Session.CookieName)
	require.Equal(t, "http://localhost:8080/v2/auth/action", c.Local.LinkBase)
	require.Equal(t, "/", c.Continue.Default)
}

func TestLoad_YAML(t *testing.T) {
	p := writeYAML(t, `
server:
  addr: ":9090"
  shutdown_timeout: 3s
provider:
  driver: identitytoolkit
  api_key: k
continue:
  allowed_hosts: [app.example.com]
local:
  accounts:
    - email: a@example.com
      password: secret123
      verified: true
`)
	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":9090", c.Server.Addr)
	require.Equal(t, 3*time.Second, c.Server.ShutdownTimeout)
	require.Equal(t, "identitytoolkit", c.Provider.Driver)
	require.Equal(t, []string{"app.example.com"}, c.Continue.AllowedHosts)
	require.Len(t, c.Local.Accounts, 1)
	require.True(t, c.Local.Accounts[0].Verified)
}

func TestLoad_EnvOverrides(t *testing.T) {
	p := writeYAML(t, "server:\n  addr: \":9090\"\n")
	t.Setenv("ACTIONLINK_SERVER_ADDR", ":7000")
	t.Setenv("ACTIONLINK_PENDING_DRIVER", "REDIS")
	t.Setenv("ACTIONLINK_CONTINUE_ALLOWED_HOSTS", "a.test, b.test,")
	t.Setenv("ACTIONLINK_RATE_ENABLED", "true")
	t.Setenv("ACTIONLINK_FLOWS_TTL", "2m")

	c, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, ":7000", c.Server.Addr)
	require.Equal(t, "redis", c.Pending.Driver)
	require.Equal(t, []string{"a.test", "b.test"}, c.Continue.AllowedHosts)
	require.True(t, c.Rate.Enabled)
	require.Equal(t, 2*time.Minute, c.Flows.TTL)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown provider":      func(c *Config) { c.Provider.Driver = "nope" },
		"itk without key":       func(c *Config) { c.Provider.Driver = "identitytoolkit" },
		"local in prod":         func(c *Config) { c.App.Env = "prod" },
		"postgres without dsn":  func(c *Config) { c.Pending.Driver = "postgres" },
		"bad seed":              func(c *Config) { c.Session.Seed = "abcd" },
		"bad continue default":  func(c *Config) { c.Continue.Default = "relative/path" },
		"account without email": func(c *Config) { c.Local.Accounts = []Account{{Password: "x"}} },
	}
	for name, mut := range cases {
		t.Run(name, func(t *testing.T) {
			c := Default()
			mut(c)
			require.Error(t, c.Validate())
		})
	}

	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "configs", "config.example.yaml"))
	require.NoError(t, err)
	require.Equal(t, "local", c.Provider.Driver)
	require.True(t, c.Rate.Enabled)
	require.Equal(t, []string{"localhost"}, c.Continue.AllowedHosts)
	require.NotEmpty(t, c.Local.Accounts)
}
