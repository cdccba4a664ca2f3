package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/zishang520/socket.io/v2/socket"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graph"
	"github.com/vk/flowcalc/internal/graphstore"
	"github.com/vk/flowcalc/internal/record"
)

// socket.io event names.
const (
	EventValue   = "value"
	EventGraph   = "graph"
	EventCommand = "command"
	EventResult  = "result"
)

// ValueEvent is pushed after every value write.
type ValueEvent struct {
	ID    string       `json:"id"`
	Value record.Value `json:"value"`
}

// Server serves one graph over HTTP and socket.io.
type Server struct {
	graph  graph.Graph
	logger *slog.Logger
	io     *socket.Server
	router chi.Router
	unsubs []func()
}

// New creates a server for g. The logger carried by ctx is used for every
// request and socket.
func New(ctx context.Context, g graph.Graph) *Server {
	s := &Server{
		graph:  g,
		logger: ctxlog.FromContext(ctx),
		io:     socket.NewServer(nil, nil),
	}
	s.io.On("connection", s.onConnection)
	s.unsubs = append(s.unsubs, g.OnValue(s.pushValue), g.OnChange(s.pushGraph))
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close detaches the server from the graph and disconnects every socket.
func (s *Server) Close() {
	for _, unsubscribe := range s.unsubs {
		unsubscribe()
	}
	s.unsubs = nil
	s.io.Close(nil)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Handle("/socket.io/*", s.io.ServeHandler(nil))

	r.Group(func(r chi.Router) {
		r.Use(s.withLogger)

		r.Get("/health", s.health)
		r.Get("/graph", s.getGraph)
		r.Put("/graph", s.putGraph)

		r.Route("/nodes", func(r chi.Router) {
			r.Post("/", s.addNode)
			r.Delete("/", s.removeNodes)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getNode)
				r.Patch("/", s.patchNode)
				r.Delete("/", s.removeNode)
				r.Get("/candidates", s.candidates)
				r.Get("/references", s.references)
			})
		})

		r.Route("/edges", func(r chi.Router) {
			r.Post("/", s.addEdge)
			r.Delete("/{id}", s.removeEdge)
			r.Put("/{id}", s.reconnectEdge)
		})
	})
	return r
}

// withLogger attaches a request-scoped logger to the request context.
func (s *Server) withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r.WithContext(ctxlog.WithLogger(r.Context(), logger)))

		logger.Debug("Request served.",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start))
	})
}

func (s *Server) onConnection(clients ...any) {
	client, ok := clients[0].(*socket.Socket)
	if !ok {
		return
	}
	logger := s.logger.With("sid", client.Id())
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Info("Socket connected.")

	snap := s.graph.Snapshot(ctx)
	client.Emit(EventGraph, record.FromGraph(snap.Nodes, snap.Edges))

	client.On(EventCommand, func(args ...any) {
		if len(args) == 0 {
			return
		}
		cmd, err := decodeCommand(args[0])
		var res Result
		if err != nil {
			res = Result{Code: Code(err), Error: err.Error()}
		} else {
			res = Execute(ctx, s.graph, cmd)
		}
		logger.Debug("Command handled.", "op", cmd.Op, "ok", res.OK, "code", res.Code)
		client.Emit(EventResult, res)
	})

	client.On("disconnect", func(reason ...any) {
		logger.Info("Socket disconnected.", "reason", reason)
	})
}

func (s *Server) pushValue(ctx context.Context, id string, v *float64) {
	s.io.Emit(EventValue, ValueEvent{ID: id, Value: record.Value{V: v}})
}

func (s *Server) pushGraph(ctx context.Context, c graphstore.Change) {
	if !c.Kind.Structural() {
		return
	}
	snap := s.graph.Snapshot(ctx)
	s.io.Emit(EventGraph, record.FromGraph(snap.Nodes, snap.Edges))
}
