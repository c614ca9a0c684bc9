package cli

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	sserrors "github.com/slidesmith/slidesmith/pkg/errors"
	"github.com/slidesmith/slidesmith/pkg/version"
)

// serveCommand creates the serve command: a local preview server over the
// active version of a deck.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr string
		vers int
	)

	cmd := &cobra.Command{
		Use:   "serve <deck>",
		Short: "Preview a deck's active version in a browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			root := cfg.BuildRoot(args[0])

			dir := filepath.Join(root, version.CurrentName)
			if vers > 0 {
				dir = version.Dir(root, vers)
			}
			if _, err := os.Stat(dir); err != nil {
				return sserrors.Wrap(sserrors.ErrCodeVersionNotFound, err, "nothing to serve in %s", root)
			}

			router := chi.NewRouter()
			router.Use(middleware.RealIP)
			router.Use(requestLogger(c))
			router.Use(middleware.Recoverer)
			router.Handle("/*", http.FileServer(http.Dir(dir)))

			srv := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 5 * time.Second,
			}

			go func() {
				<-cmd.Context().Done()
				_ = srv.Close()
			}()

			printInfo("Serving %s", dir)
			printNextStep("Open", fmt.Sprintf("http://%s/", displayAddr(addr)))
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "localhost:8080", "listen address")
	cmd.Flags().IntVar(&vers, "version", 0, "serve a specific version instead of the active one")
	return cmd
}

// requestLogger logs served requests at debug level.
func requestLogger(c *CLI) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			c.Logger.Debug("request", "method", r.Method, "path", r.URL.Path, "took", time.Since(start))
		})
	}
}

func displayAddr(addr string) string {
	if addr != "" && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
