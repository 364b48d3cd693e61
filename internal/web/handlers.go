package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/sqlrepl/internal/console"
	"github.com/leapstack-labs/sqlrepl/internal/gate"
	"github.com/leapstack-labs/sqlrepl/internal/metrics"
	"github.com/leapstack-labs/sqlrepl/internal/render"
	"github.com/leapstack-labs/sqlrepl/internal/web/notifier"
	"github.com/leapstack-labs/sqlrepl/internal/web/resources"
)

const (
	// DatastarURL is the datastar client bundle the page loads.
	DatastarURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

	// Placeholder is shown in the empty editor.
	Placeholder = `Try "select sqlite_version()"`

	pageTitle   = "SQL Interpreter"
	sessionName = "sqlrepl"
	sessionKey  = "id"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var errNoSource = errors.New("no image source: server is not listening")

// ExecSignals are the datastar signals posted on every edit.
type ExecSignals struct {
	SQL string `json:"sql"`
}

type pageData struct {
	Title       string
	Stylesheet  string
	DatastarURL string
	Placeholder string
	Engine      string
	Source      string
	Splash      bool
	ExitDelayMS int64
	Status      notifier.Event
	Results     resultsData
}

type resultsData struct {
	InitError string
	Failure   string
	Grids     template.HTML
}

// ConsolePage renders the console page.
func (s *Server) ConsolePage(w http.ResponseWriter, _ *http.Request) {
	data := pageData{
		Title:       pageTitle,
		Stylesheet:  resources.StaticPath("app.css"),
		DatastarURL: DatastarURL,
		Placeholder: Placeholder,
		Engine:      s.cfg.Engine,
		Source:      s.source(),
		Splash:      s.cfg.Splash,
		ExitDelayMS: gate.ExitDelay.Milliseconds(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// Exec runs the posted SQL text in the caller's session and patches
// #results with the outcome.
func (s *Server) Exec(w http.ResponseWriter, r *http.Request) {
	// Read signals BEFORE creating SSE (SSE consumes the request body)
	var signals ExecSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "failed to read signals: "+err.Error(), http.StatusBadRequest)
		return
	}

	// The cookie must be set before SSE writes the headers.
	id, err := s.sessionID(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sess := s.sessions.get(id)
	if !sess.limiter.Allow() {
		metrics.RateLimited.Inc()
		http.Error(w, "too many requests", http.StatusTooManyRequests)
		return
	}

	sess.mu.Lock()
	data := s.execute(r, sess, signals.SQL)
	sess.mu.Unlock()

	sse := datastar.NewSSE(w, r)
	if err := patchTemplate(sse, "results", data); err != nil {
		_ = sse.ConsoleError(err)
	}
}

// execute binds the session to a database on first use, then runs text.
// A failed bootstrap sticks to the session until the image changes.
// The caller holds sess.mu.
func (s *Server) execute(r *http.Request, sess *session, text string) resultsData {
	if sess.console == nil && sess.initErr == nil {
		source := s.source()
		if source == "" {
			return resultsData{InitError: console.InitErrorText(errNoSource)}
		}
		// A bootstrap outlives a cancelled request; the loader has its own timeout.
		db, err := s.cfg.Open(context.WithoutCancel(r.Context()), source)
		if err != nil {
			s.logger.Warn("session bootstrap failed", "source", source, "error", err)
			sess.initErr = err
		} else {
			sess.db = db
			sess.console = console.New(db, s.cfg.Console)
		}
	}
	if sess.initErr != nil {
		return resultsData{InitError: console.InitErrorText(sess.initErr)}
	}

	sess.console.OnTextChanged(r.Context(), text)
	return outcomeData(sess.console.Outcome())
}

func outcomeData(o console.Outcome) resultsData {
	if o.Failed() {
		return resultsData{Failure: o.Message()}
	}
	var buf bytes.Buffer
	if err := render.Write(&buf, o.Results(), render.FormatHTML); err != nil {
		return resultsData{Failure: err.Error()}
	}
	// go-pretty escapes cell text.
	return resultsData{Grids: template.HTML(buf.String())} //nolint:gosec
}

// Updates is the long-lived SSE endpoint announcing image reloads.
func (s *Server) Updates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := s.notifier.Subscribe()
	defer s.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			if err := patchTemplate(sse, "status", ev); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

// Healthz reports liveness and the served image version.
func (s *Server) Healthz(w http.ResponseWriter, _ *http.Request) {
	data, etag, _ := s.image.snapshot()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"image":    etag,
		"bytes":    len(data),
		"sessions": s.sessions.len(),
	})
}

// sessionID returns the caller's session id, issuing a cookie for a new
// one. An unreadable cookie starts a fresh session.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (string, error) {
	sess, _ := s.sessionStore.Get(r, sessionName)
	if id, ok := sess.Values[sessionKey].(string); ok && id != "" {
		return id, nil
	}

	id := uuid.NewString()
	sess.Values[sessionKey] = id
	if err := sess.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

func patchTemplate(sse *datastar.ServerSentEventGenerator, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	return sse.PatchElements(buf.String())
}
