package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL     string
	ContextID   string
	ContextName string
	OutFormat   string // "json" | "text"
	HTTP        *http.Client
}

func (c *client) do(method, path string, payload any) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, body)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ContextID != "" {
		req.AddCookie(&http.Cookie{Name: c.ContextName, Value: c.ContextID})
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	// El server asigna contexto si no mandamos uno: mostrarlo para poder reusarlo.
	for _, ck := range resp.Cookies() {
		if ck.Name == c.ContextName && ck.Value != c.ContextID {
			fmt.Fprintf(os.Stderr, "context=%s (usar --context para continuar en el mismo browser)\n", ck.Value)
		}
	}
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(strings.TrimSpace(string(body)))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

// call ejecuta y falla con el body si el status no es 2xx.
func (c *client) call(name, method, path string, payload any) error {
	status, body, err := c.do(method, path, payload)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return fmt.Errorf("%s fallo: status=%d body=%s", name, status, strings.TrimSpace(string(body)))
	}
	c.print(status, body)
	return nil
}

// actionPath convierte un link de email en el path del action handler de este server,
// preservando la query (mode, oobCode, continueUrl).
func actionPath(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("link inválido: %w", err)
	}
	if u.RawQuery == "" {
		return "", fmt.Errorf("el link no trae parámetros")
	}
	return "/v2/auth/action?" + u.RawQuery, nil
}

func main() {
	var (
		baseURL = envOr("ACTIONLINK_URL", "http://localhost:8080")
		ctxID   = envOr("ACTIONLINK_CONTEXT", "")
		ctxName = envOr("ACTIONLINK_CONTEXT_COOKIE", "al_ctx")
		out     = envOr("ACTIONLINK_OUT", "text")
		timeout = 30 * time.Second
	)

	cl := &client{HTTP: &http.Client{Timeout: timeout}}
	root := &cobra.Command{
		Use:          "actionctl",
		Short:        "CLI para probar links de acción (verificación, reset, magic link)",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cl.BaseURL, cl.ContextID, cl.ContextName, cl.OutFormat = baseURL, ctxID, ctxName, out
		},
	}
	root.PersistentFlags().StringVar(&baseURL, "base", baseURL, "URL base del server (env ACTIONLINK_URL)")
	root.PersistentFlags().StringVar(&ctxID, "context", ctxID, "Browsing context a reusar (env ACTIONLINK_CONTEXT)")
	root.PersistentFlags().StringVar(&ctxName, "context-cookie", ctxName, "Nombre de la cookie de contexto")
	root.PersistentFlags().StringVar(&out, "out", out, "Formato de salida: json|text")

	// request-link
	var rlEmail, rlContinue string
	requestLinkCmd := &cobra.Command{
		Use:   "request-link",
		Short: "Pedir un magic link de ingreso",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rlEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			return cl.call("request-link", http.MethodPost, "/v2/auth/signin-link",
				map[string]string{"email": rlEmail, "continue_target": rlContinue})
		},
	}
	requestLinkCmd.Flags().StringVar(&rlEmail, "email", "", "Email destino")
	requestLinkCmd.Flags().StringVar(&rlContinue, "continue", "", "Continue target (opcional)")

	// reset
	var rsEmail, rsContinue string
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Pedir un link de restablecimiento de contraseña",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rsEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			return cl.call("reset", http.MethodPost, "/v2/auth/password-reset/send",
				map[string]string{"email": rsEmail, "continue_target": rsContinue})
		},
	}
	resetCmd.Flags().StringVar(&rsEmail, "email", "", "Email de la cuenta")
	resetCmd.Flags().StringVar(&rsContinue, "continue", "", "Continue target (opcional)")

	// verify
	var vfEmail, vfContinue string
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Reenviar el link de verificación de email",
		RunE: func(cmd *cobra.Command, args []string) error {
			if vfEmail == "" {
				return fmt.Errorf("--email es requerido")
			}
			return cl.call("verify", http.MethodPost, "/v2/auth/verify-email/send",
				map[string]string{"email": vfEmail, "continue_target": vfContinue})
		},
	}
	verifyCmd.Flags().StringVar(&vfEmail, "email", "", "Email de la cuenta")
	verifyCmd.Flags().StringVar(&vfContinue, "continue", "", "Continue target (opcional)")

	// resolve
	resolveCmd := &cobra.Command{
		Use:   "resolve <link>",
		Short: "Resolver un link de acción como si se abriera en el browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := actionPath(args[0])
			if err != nil {
				return err
			}
			return cl.call("resolve", http.MethodGet, p, nil)
		},
	}

	// complete
	completeCmd := &cobra.Command{
		Use:   "complete <link>",
		Short: "Completar un magic link de ingreso",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("complete", http.MethodPost, "/v2/auth/signin-link/complete",
				map[string]string{"link": args[0]})
		},
	}

	// flow get | password | email
	flowCmd := &cobra.Command{Use: "flow", Short: "Operaciones sobre un flow abierto"}
	getCmd := &cobra.Command{
		Use:   "get <flow-id>",
		Short: "Ver el estado de un flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cl.call("flow get", http.MethodGet, "/v2/auth/action/flows/"+url.PathEscape(args[0]), nil)
		},
	}
	var pwNew, pwConfirm string
	passwordCmd := &cobra.Command{
		Use:   "password <flow-id>",
		Short: "Enviar la nueva contraseña de un flow de reset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pwNew == "" {
				return fmt.Errorf("--password es requerido")
			}
			if pwConfirm == "" {
				pwConfirm = pwNew
			}
			return cl.call("flow password", http.MethodPost, "/v2/auth/action/flows/"+url.PathEscape(args[0])+"/password",
				map[string]string{"password": pwNew, "confirm_password": pwConfirm})
		},
	}
	passwordCmd.Flags().StringVar(&pwNew, "password", "", "Nueva contraseña")
	passwordCmd.Flags().StringVar(&pwConfirm, "confirm", "", "Confirmación (default = --password)")

	var emEmail string
	var emDecline bool
	emailCmd := &cobra.Command{
		Use:   "email <flow-id>",
		Short: "Confirmar (o declinar) el email de un magic link abierto en otro browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if emEmail == "" && !emDecline {
				return fmt.Errorf("--email o --decline es requerido")
			}
			return cl.call("flow email", http.MethodPost, "/v2/auth/signin-link/flows/"+url.PathEscape(args[0])+"/email",
				map[string]any{"email": emEmail, "decline": emDecline})
		},
	}
	emailCmd.Flags().StringVar(&emEmail, "email", "", "Email con el que se pidió el link")
	emailCmd.Flags().BoolVar(&emDecline, "decline", false, "Cancelar el ingreso")

	flowCmd.AddCommand(getCmd, passwordCmd, emailCmd)
	root.AddCommand(requestLinkCmd, resetCmd, verifyCmd, resolveCmd, completeCmd, flowCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
