package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/graph"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/record"
)

// IDBody carries the id of a created or moved element.
type IDBody struct {
	ID string `json:"id"`
}

// NodeBody describes a single node and its evaluation state.
type NodeBody struct {
	Node   record.Node `json:"node"`
	Status node.Status `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// ReferencesBody is the resolution of a function's expression.
type ReferencesBody struct {
	Expression string   `json:"expression"`
	Valid      []string `json:"valid"`
	Invalid    []string `json:"invalid"`
	Stripped   []string `json:"stripped"`
}

type addNodeRequest struct {
	Type     *node.Kind     `json:"type"`
	Position *node.Position `json:"position"`
	Data     dataRequest    `json:"data"`
}

type dataRequest struct {
	Label      *string       `json:"label"`
	Value      *record.Value `json:"value"`
	Expression *string       `json:"expression"`
}

type patchNodeRequest struct {
	dataRequest
	Position *node.Position `json:"position"`
}

type removeNodesRequest struct {
	IDs []string `json:"ids"`
}

type edgeRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Handle string `json:"sourceHandle"`
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid body: %w", errBadRequest, err)
	}
	return nil
}

// health reports liveness.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(r.Context()).Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (s *Server) writeGraph(w http.ResponseWriter, r *http.Request) {
	snap := s.graph.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, record.FromGraph(snap.Nodes, snap.Edges))
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	s.writeGraph(w, r)
}

func (s *Server) putGraph(w http.ResponseWriter, r *http.Request) {
	b, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	g, err := record.Decode(b)
	if err != nil {
		writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	nodes, edges := g.ToGraph()
	if err := s.graph.Restore(r.Context(), graph.Snapshot{Nodes: nodes, Edges: edges}); err != nil {
		writeError(w, err)
		return
	}
	s.writeGraph(w, r)
}

func (s *Server) addNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res := s.run(r, Command{
		Op:         OpAddNode,
		Type:       req.Type,
		Position:   req.Position,
		Label:      req.Data.Label,
		Value:      req.Data.Value,
		Expression: req.Data.Expression,
	})
	s.reply(w, res, http.StatusCreated)
}

func (s *Server) removeNodes(w http.ResponseWriter, r *http.Request) {
	var req removeNodesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	s.reply(w, s.run(r, Command{Op: OpRemoveNodes, IDs: req.IDs}), http.StatusNoContent)
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	s.reply(w, s.run(r, Command{Op: OpRemoveNodes, ID: chi.URLParam(r, "id")}), http.StatusNoContent)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	n, err := s.graph.Node(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	state, err := s.graph.Status(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	body := NodeBody{Node: record.NodeOf(n), Status: state.Status}
	if state.Err != nil {
		body.Error = state.Err.Error()
	}
	writeJSON(w, http.StatusOK, body)
}

// patchNode applies the label, position, expression and value of the body,
// in that order, stopping at the first rejected field.
func (s *Server) patchNode(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req patchNodeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var cmds []Command
	if req.Label != nil {
		cmds = append(cmds, Command{Op: OpSetLabel, ID: id, Label: req.Label})
	}
	if req.Position != nil {
		cmds = append(cmds, Command{Op: OpMove, ID: id, Position: req.Position})
	}
	if req.Expression != nil {
		cmds = append(cmds, Command{Op: OpSetExpression, ID: id, Expression: req.Expression})
	}
	if req.Value != nil {
		cmds = append(cmds, Command{Op: OpSetValue, ID: id, Value: req.Value})
	}
	for _, cmd := range cmds {
		if res := s.run(r, cmd); !res.OK {
			s.reply(w, res, 0)
			return
		}
	}
	s.getNode(w, r)
}

func (s *Server) candidates(w http.ResponseWriter, r *http.Request) {
	ids, err := s.graph.Candidates(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"candidates": ids})
}

func (s *Server) references(w http.ResponseWriter, r *http.Request) {
	res, err := s.graph.References(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReferencesBody{
		Expression: res.Expression,
		Valid:      nonNil(res.Valid),
		Invalid:    nonNil(res.Invalid),
		Stripped:   nonNil(res.Stripped),
	})
}

func (s *Server) addEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res := s.run(r, Command{Op: OpConnect, Source: req.Source, Target: req.Target, Handle: req.Handle})
	s.reply(w, res, http.StatusCreated)
}

func (s *Server) removeEdge(w http.ResponseWriter, r *http.Request) {
	s.reply(w, s.run(r, Command{Op: OpDisconnect, ID: chi.URLParam(r, "id")}), http.StatusNoContent)
}

func (s *Server) reconnectEdge(w http.ResponseWriter, r *http.Request) {
	var req edgeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res := s.run(r, Command{Op: OpReconnect, ID: chi.URLParam(r, "id"), Source: req.Source, Target: req.Target})
	s.reply(w, res, http.StatusOK)
}

// run executes cmd and keeps the original error for the reply.
func (s *Server) run(r *http.Request, cmd Command) commandOutcome {
	id, err := execute(r.Context(), s.graph, cmd)
	if err != nil {
		ctxlog.FromContext(r.Context()).Info("Operation rejected.", "op", cmd.Op, "code", Code(err), "error", err)
	}
	return commandOutcome{Result: Result{Op: cmd.Op, OK: err == nil, ID: id}, err: err}
}

type commandOutcome struct {
	Result
	err error
}

// reply writes the outcome of a command: the error body on failure, else
// status with the id body, or no body for 204.
func (s *Server) reply(w http.ResponseWriter, res commandOutcome, status int) {
	switch {
	case res.err != nil:
		writeError(w, res.err)
	case status == http.StatusNoContent:
		w.WriteHeader(status)
	default:
		writeJSON(w, status, IDBody{ID: res.ID})
	}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
