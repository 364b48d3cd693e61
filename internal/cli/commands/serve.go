package commands

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/web"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Open bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Host the database image and the browser console",
		Long: `Start a web server that hosts the database image at /db.sqlite and a
browser console at /.

Every edit in the browser runs against a database owned by that browser's
session. The session loads its database from server.source, or from this
server's own /db.sqlite over the listener's loopback address when no source
is set.

When the image file does not exist, the demo image is built first. With
server.watch on, replacing the file reloads it and every session picks up
the new image on its next edit.`,
		Example: `  # Serve ./db.sqlite on localhost:8765
  sqlrepl serve

  # Serve another image on all interfaces and open a browser
  sqlrepl serve --server-addr :9000 --server-image-path ./data/shop.sqlite --open`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.String("server-addr", "", "Listen address (default: localhost:8765)")
	f.String("server-image-path", "", "Image file served at /db.sqlite (default: db.sqlite)")
	f.String("server-source", "", "Image sessions load (default: this server's /db.sqlite)")
	f.String("server-session-secret", "", "Key signing the session cookie")
	f.Bool("server-secure-cookie", false, "Mark the session cookie Secure (set when behind HTTPS)")
	f.Float64("server-rate-limit", 0, "Executions per second per session (0 disables)")
	f.Int("server-rate-burst", 0, "Burst size of the per-session limiter")
	f.Bool("server-watch", true, "Reload the image when the file changes")
	f.BoolVar(&opts.Open, "open", false, "Open the console in a browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	sc := cfg.Server
	ctx := cmd.Context()

	server, err := web.NewServer(ctx, web.Config{
		Addr:          sc.Addr,
		ImagePath:     sc.ImagePath,
		Source:        sc.Source,
		Engine:        cfg.Engine,
		SessionSecret: sc.SessionSecret,
		SecureCookie:  sc.SecureCookie,
		RateLimit:     sc.RateLimit,
		RateBurst:     sc.RateBurst,
		Watch:         sc.Watch,
		Splash:        cfg.Splash,
		Open: func(ctx context.Context, source string) (*engine.Database, error) {
			return initialize(ctx, cmdCtx.NewLoader(source), cfg.Engine)
		},
		Console: cmdCtx.ConsoleConfig(),
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", sc.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	url := "http://" + displayAddr(ln.Addr())
	r := cmdCtx.Renderer
	r.Success("Serving " + sc.ImagePath + " at " + url + "/db.sqlite")
	r.Println("Console at " + url)
	r.Muted("Press Ctrl+C to stop")

	if opts.Open {
		go openBrowser(url)
	}

	return server.ServeListener(ctx, ln)
}

// displayAddr turns a wildcard listen address into one a browser can open.
func displayAddr(addr net.Addr) string {
	tcp, ok := addr.(*net.TCPAddr)
	if !ok || !tcp.IP.IsUnspecified() {
		return addr.String()
	}
	return net.JoinHostPort("localhost", fmt.Sprint(tcp.Port))
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
