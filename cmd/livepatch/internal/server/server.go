// Package server runs the demo: a stock ticker pushed over SSE and WebSocket,
// a todo list kept in SQLite, and an index page rendered by patching an
// embedded document with the current data.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gorilla/websocket"

	"github.com/livefir/livepatch"
	"github.com/livefir/livepatch/cmd/livepatch/internal/config"
	"github.com/livefir/livepatch/cmd/livepatch/internal/store"
	"github.com/livefir/livepatch/cmd/livepatch/internal/ticker"
)

//go:embed page.html
var pageHTML []byte

// Server serves the demo endpoints.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	ticker   *ticker.Ticker
	logger   *log.Logger
	hub      *hub
	upgrader websocket.Upgrader

	mu     sync.Mutex
	latest ticker.Update
}

type pageData struct {
	Title     string         `json:"title"`
	Updated   string         `json:"updated"`
	Stocks    []ticker.Stock `json:"stocks"`
	Todos     []store.Todo   `json:"todos"`
	Remaining int            `json:"remaining"`
}

// New creates a server. The first stock snapshot is taken immediately.
func New(cfg *config.Config, st *store.Store, tk *ticker.Ticker, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:    cfg,
		store:  st,
		ticker: tk,
		logger: logger,
		hub:    newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		latest: tk.Next(),
	}
}

// Handler returns the HTTP routes of the demo.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/stocks", s.handleSSE)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	mux.HandleFunc("GET /api/todos", s.handleListTodos)
	mux.HandleFunc("POST /api/todos", s.handleAddTodo)
	mux.HandleFunc("POST /api/todos/{key}/toggle", s.handleToggleTodo)
	mux.HandleFunc("DELETE /api/todos/{key}", s.handleDeleteTodo)
	return mux
}

// Run publishes a stock snapshot every tick until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	t := time.NewTicker(s.cfg.TickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			update := s.ticker.Next()
			s.mu.Lock()
			s.latest = update
			s.mu.Unlock()
			s.publish(update)
		}
	}
}

// ListenAndServe serves the demo on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Printf("TICKER: stopped: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("SERVER: shutdown failed: %v", err)
		}
	}()

	s.logger.Printf("SERVER: listening on http://%s", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data, err := s.pageData(r.Context())
	if err != nil {
		s.logger.Printf("INDEX: %v", err)
		http.Error(w, "failed to load data", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := s.render(&buf, data); err != nil {
		s.logger.Printf("INDEX: render failed: %v", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// render patches a fresh copy of the page with data.
func (s *Server) render(w io.Writer, data pageData) error {
	doc, err := livepatch.ParseDocument(bytes.NewReader(pageHTML))
	if err != nil {
		return err
	}
	engine := livepatch.New(doc, livepatch.WithDebug(s.cfg.Debug), livepatch.WithLogger(s.logger))
	if err := engine.Patch(data, "#app", livepatch.WithSilent()); err != nil {
		return err
	}
	return doc.RenderMinified(w)
}

func (s *Server) pageData(ctx context.Context) (pageData, error) {
	todos, err := s.store.List(ctx)
	if err != nil {
		return pageData{}, err
	}

	s.mu.Lock()
	stocks := s.latest.Stocks
	s.mu.Unlock()

	data := pageData{
		Title:  "Market & todos",
		Stocks: stocks,
		Todos:  todos,
	}
	if len(stocks) > 0 {
		data.Updated = stocks[0].Timestamp
	}
	for _, t := range todos {
		if !t.Done {
			data.Remaining++
		}
	}
	return data, nil
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	id, updates := s.hub.subscribe()
	defer s.hub.unsubscribe(id)
	s.logger.Printf("SSE: client %s connected from %s (%d subscribed)", id, r.RemoteAddr, s.hub.size())

	if err := sse.Encode(w, sse.Event{Data: map[string]string{"status": "connected"}}); err != nil {
		return
	}
	if payload, err := s.snapshot(); err == nil {
		_ = sse.Encode(w, sse.Event{Data: json.RawMessage(payload)})
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			s.logger.Printf("SSE: client %s disconnected", id)
			return
		case payload, ok := <-updates:
			if !ok {
				return
			}
			if err := sse.Encode(w, sse.Event{Data: json.RawMessage(payload)}); err != nil {
				s.logger.Printf("SSE: client %s: %v", id, err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("WEBSOCKET: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	id, updates := s.hub.subscribe()
	defer s.hub.unsubscribe(id)
	s.logger.Printf("WEBSOCKET: client %s connected from %s (%d subscribed)", id, conn.RemoteAddr(), s.hub.size())

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Printf("WEBSOCKET: client %s: %v", id, err)
				}
				return
			}
		}
	}()

	if payload, err := s.snapshot(); err == nil {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}

	for {
		select {
		case <-closed:
			return
		case payload, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.logger.Printf("WEBSOCKET: write to %s failed: %v", id, err)
				return
			}
		}
	}
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	todos, err := s.store.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"todos": todos})
}

func (s *Server) handleAddTodo(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.FormValue("text"))
	if text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	todo, err := s.store.Add(r.Context(), text)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.publishTodos(r.Context())
	writeJSON(w, http.StatusCreated, todo)
}

func (s *Server) handleToggleTodo(w http.ResponseWriter, r *http.Request) {
	s.mutateTodo(w, r, s.store.Toggle)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	s.mutateTodo(w, r, s.store.Delete)
}

func (s *Server) mutateTodo(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	if err := op(r.Context(), r.PathValue("key")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, store.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.publishTodos(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// publishTodos pushes the todo list and its open count to every client.
func (s *Server) publishTodos(ctx context.Context) {
	todos, err := s.store.List(ctx)
	if err != nil {
		s.logger.Printf("TODOS: %v", err)
		return
	}
	remaining := 0
	for _, t := range todos {
		if !t.Done {
			remaining++
		}
	}
	s.publish(map[string]any{"todos": todos, "remaining": remaining})
}

func (s *Server) publish(v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		s.logger.Printf("PUBLISH: failed to marshal: %v", err)
		return
	}
	if sent, total := s.hub.publish(payload); sent < total {
		s.logger.Printf("PUBLISH: %d of %d clients too slow, update dropped", total-sent, total)
	}
}

func (s *Server) snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.latest)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
