// Package watch follows a running flowcalc server over socket.io and prints
// every value it pushes.
package watch

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/flowcalc/internal/ctxlog"
	"github.com/vk/flowcalc/internal/node"
	"github.com/vk/flowcalc/internal/record"
	"github.com/vk/flowcalc/internal/server"
)

// ConnectTimeout bounds the wait for the initial connection.
const ConnectTimeout = 15 * time.Second

// Options configures a watch session.
type Options struct {
	URL                string
	Namespace          string
	Format             string // text or json
	InsecureSkipVerify bool
}

// printer serializes writes coming from socket goroutines.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	format string
}

// Run connects to the server and prints the initial graph and every
// subsequent value until ctx is cancelled.
func Run(ctx context.Context, out io.Writer, opts Options) error {
	logger := ctxlog.FromContext(ctx).With("url", opts.URL)

	parsedURL, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("URL %q must have a scheme and a host", opts.URL)
	}

	sockOpts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		sockOpts.SetPath(parsedURL.Path)
	}
	if opts.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		sockOpts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	sockOpts.SetTransports(types.NewSet(transports.WebSocket))

	namespace := opts.Namespace
	if namespace == "" {
		namespace = "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sockOpts)
	client := manager.Socket(namespace, sockOpts)
	defer func() {
		logger.Debug("Disconnecting socket client.")
		client.Disconnect()
	}()

	p := &printer{out: out, format: opts.Format}
	connectChan := make(chan error, 1)

	client.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected.", "sid", client.Id())
		connectChan <- nil
	})
	client.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("connect error: %v", errs[0])
		}
		connectChan <- err
	})
	client.On(types.EventName(server.EventGraph), func(data ...any) {
		var g record.Graph
		if err := convert(data, &g); err != nil {
			logger.Warn("Ignoring malformed graph event.", "error", err)
			return
		}
		p.graph(g)
	})
	client.On(types.EventName(server.EventValue), func(data ...any) {
		var ev server.ValueEvent
		if err := convert(data, &ev); err != nil {
			logger.Warn("Ignoring malformed value event.", "error", err)
			return
		}
		p.value(ev)
	})

	client.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			return fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		return nil
	case <-time.After(ConnectTimeout):
		return fmt.Errorf("timed out after %s waiting for socket.io connection", ConnectTimeout)
	}

	<-ctx.Done()
	return nil
}

// convert re-decodes the first event argument into v.
func convert(data []any, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("event has no payload")
	}
	b, err := json.Marshal(data[0])
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (p *printer) graph(g record.Graph) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.format == "json" {
		_ = json.NewEncoder(p.out).Encode(map[string]any{"event": server.EventGraph, "graph": g})
		return
	}
	fmt.Fprintf(p.out, "graph: %d nodes, %d edges\n", len(g.Nodes), len(g.Edges))
	for _, n := range g.Nodes {
		fmt.Fprintf(p.out, "  %s = %s\n", n.ID, display(n.Data.Value.V))
	}
}

func (p *printer) value(ev server.ValueEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.format == "json" {
		_ = json.NewEncoder(p.out).Encode(map[string]any{"event": server.EventValue, "id": ev.ID, "value": ev.Value})
		return
	}
	fmt.Fprintf(p.out, "%s = %s\n", ev.ID, display(ev.Value.V))
}

func display(v *float64) string {
	if v == nil {
		return "(empty)"
	}
	return node.FormatValue(v)
}
