package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	gdrive "gastos/internal/drive/google"
)

func newOAuthInitCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "oauth-init",
		Short: "Authorize Google Drive access and save the OAuth token",
		Long: `Run the OAuth consent flow for the desktop client in GOOGLE_OAUTH_CLIENT_FILE
and save the token to GOOGLE_OAUTH_TOKEN_FILE.

Add http://localhost:PORT/callback to the authorized redirect URIs of the
client before running it.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationSkipValidation: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			port, _ := cmd.Flags().GetString("port")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			clientJSON, err := os.ReadFile(st.cfg.GoogleOAuthClientFile)
			if err != nil {
				return fmt.Errorf("read oauth client file: %w", err)
			}
			oc, err := gdrive.OAuthConfig(clientJSON)
			if err != nil {
				return err
			}
			oc.RedirectURL = "http://localhost:" + port + "/callback"

			ctx, cancel := SignalContext(cmd.Context(), st.logger)
			defer cancel()
			ctx, cancelTimeout := context.WithTimeout(ctx, timeout)
			defer cancelTimeout()

			flow := newOAuthFlow(oc)
			fmt.Fprintf(cmd.OutOrStdout(), "Abra esta URL para autorizar el acceso:\n%s\n", flow.authURL())
			tok, err := flow.run(ctx, net.JoinHostPort("localhost", port))
			if err != nil {
				return err
			}
			if err := gdrive.SaveToken(st.cfg.GoogleOAuthTokenFile, tok); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Token guardado en %s\n", st.cfg.GoogleOAuthTokenFile)
			return nil
		},
	}
	cmd.Flags().String("port", "8085", "local port of the redirect URI")
	cmd.Flags().Duration("timeout", 5*time.Minute, "how long to wait for the authorization")
	return cmd
}

// oauthFlow receives the authorization code on a local callback and
// exchanges it for a token.
type oauthFlow struct {
	config *oauth2.Config
	state  string
	codes  chan string
	errs   chan error
}

func newOAuthFlow(config *oauth2.Config) *oauthFlow {
	return &oauthFlow{
		config: config,
		state:  uuid.NewString(),
		codes:  make(chan string, 1),
		errs:   make(chan error, 1),
	}
}

func (f *oauthFlow) authURL() string {
	return f.config.AuthCodeURL(f.state, oauth2.AccessTypeOffline)
}

func (f *oauthFlow) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("state") != f.state {
		http.Error(w, "estado OAuth inválido", http.StatusBadRequest)
		return
	}
	if e := q.Get("error"); e != "" {
		http.Error(w, "error OAuth: "+e, http.StatusBadRequest)
		select {
		case f.errs <- fmt.Errorf("authorization denied: %s", e):
		default:
		}
		return
	}
	code := q.Get("code")
	if code == "" {
		http.Error(w, "falta el código de autorización", http.StatusBadRequest)
		return
	}
	select {
	case f.codes <- code:
	default:
	}
	fmt.Fprintln(w, "Autorización completada. Puede cerrar esta ventana.")
}

// run serves the callback on addr until a code arrives or ctx is done.
func (f *oauthFlow) run(ctx context.Context, addr string) (*oauth2.Token, error) {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", f.callback)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := shutdownContext(ctx)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return f.wait(ctx, serveErr)
}

func (f *oauthFlow) wait(ctx context.Context, serveErr <-chan error) (*oauth2.Token, error) {
	select {
	case code := <-f.codes:
		tok, err := f.config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-f.errs:
		return nil, err
	case err := <-serveErr:
		return nil, fmt.Errorf("callback server: %w", err)
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}
