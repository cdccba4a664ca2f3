package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vk/flowcalc/internal/graph"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/record"
)

// Command operations accepted over socket.io.
const (
	OpAddNode       = "add_node"
	OpRemoveNodes   = "remove_nodes"
	OpConnect       = "connect"
	OpDisconnect    = "disconnect"
	OpReconnect     = "reconnect"
	OpSetValue      = "set_value"
	OpClearValue    = "clear_value"
	OpSetExpression = "set_expression"
	OpSetLabel      = "set_label"
	OpMove          = "move"
)

// Command is a single graph operation sent by a client. Only the fields the
// operation needs are read.
type Command struct {
	Op         string         `json:"op"`
	ID         string         `json:"id,omitempty"`
	IDs        []string       `json:"ids,omitempty"`
	Type       *node.Kind     `json:"type,omitempty"`
	Position   *node.Position `json:"position,omitempty"`
	Label      *string        `json:"label,omitempty"`
	Value      *record.Value  `json:"value,omitempty"`
	Expression *string        `json:"expression,omitempty"`
	Source     string         `json:"source,omitempty"`
	Target     string         `json:"target,omitempty"`
	Handle     string         `json:"sourceHandle,omitempty"`
}

// Result answers a Command.
type Result struct {
	Op    string `json:"op"`
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// decodeCommand converts a decoded socket.io payload into a Command.
func decodeCommand(payload any) (Command, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Command{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	var cmd Command
	if err := json.Unmarshal(b, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return cmd, nil
}

// Execute runs cmd against g.
func Execute(ctx context.Context, g graph.Graph, cmd Command) Result {
	id, err := execute(ctx, g, cmd)
	if err != nil {
		return Result{Op: cmd.Op, Code: Code(err), Error: err.Error()}
	}
	return Result{Op: cmd.Op, OK: true, ID: id}
}

func execute(ctx context.Context, g graph.Graph, cmd Command) (string, error) {
	switch cmd.Op {
	case OpAddNode:
		if cmd.Type == nil {
			return "", fmt.Errorf("%w: add_node needs a type", errBadRequest)
		}
		var pos node.Position
		if cmd.Position != nil {
			pos = *cmd.Position
		}
		return g.AddNode(ctx, *cmd.Type, pos, nodeData(cmd))
	case OpRemoveNodes:
		ids := cmd.IDs
		if cmd.ID != "" {
			ids = append(ids, cmd.ID)
		}
		return "", g.RemoveNodes(ctx, ids...)
	case OpConnect:
		return g.Connect(ctx, cmd.Source, cmd.Target, cmd.Handle)
	case OpDisconnect:
		return cmd.ID, g.Disconnect(ctx, cmd.ID)
	case OpReconnect:
		return g.Reconnect(ctx, cmd.ID, cmd.Source, cmd.Target)
	case OpSetValue:
		if cmd.Value == nil || cmd.Value.V == nil {
			return cmd.ID, g.ClearValue(ctx, cmd.ID)
		}
		return cmd.ID, g.SetValue(ctx, cmd.ID, *cmd.Value.V)
	case OpClearValue:
		return cmd.ID, g.ClearValue(ctx, cmd.ID)
	case OpSetExpression:
		if cmd.Expression == nil {
			return "", fmt.Errorf("%w: set_expression needs an expression", errBadRequest)
		}
		return cmd.ID, g.SetExpression(ctx, cmd.ID, *cmd.Expression)
	case OpSetLabel:
		if cmd.Label == nil {
			return "", fmt.Errorf("%w: set_label needs a label", errBadRequest)
		}
		return cmd.ID, g.SetLabel(ctx, cmd.ID, *cmd.Label)
	case OpMove:
		if cmd.Position == nil {
			return "", fmt.Errorf("%w: move needs a position", errBadRequest)
		}
		return cmd.ID, g.Move(ctx, cmd.ID, *cmd.Position)
	default:
		return "", fmt.Errorf("%w: unknown op %q", errBadRequest, cmd.Op)
	}
}

// nodeData returns the explicit initial data of a new node, or nil when the
// command carries none. Fields left empty take the kind defaults.
func nodeData(cmd Command) *node.Data {
	if cmd.Label == nil && cmd.Value == nil && cmd.Expression == nil {
		return nil
	}
	d := &node.Data{}
	if cmd.Label != nil {
		d.Label = *cmd.Label
	}
	if cmd.Value != nil {
		d.Value = node.CopyValue(cmd.Value.V)
	}
	if cmd.Expression != nil {
		d.Expression = *cmd.Expression
	}
	return d
}
