// Package telemetry streams per-frame pose results to remote viewers
// over gRPC. Messages are protobuf Structs so viewers need no generated
// code.
package telemetry

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"github.com/banshee-data/posetrack/internal/avatar/pipeline"
	"github.com/banshee-data/posetrack/internal/config"
	"github.com/banshee-data/posetrack/internal/monitoring"
	"google.golang.org/grpc"
)

// ErrTooManyClients is returned to a viewer when MaxClients are streaming.
var ErrTooManyClients = errors.New("too many telemetry clients")

// Config holds configuration for the telemetry server.
type Config struct {
	// ListenAddr is the gRPC address, e.g. "localhost:50061".
	ListenAddr string
	// MaxClients bounds concurrent StreamPoses calls.
	MaxClients int
	// Buffer is the per-client queue length. Slow clients lose frames.
	Buffer int
}

// DefaultConfig returns the configuration used when no tuning file is given.
func DefaultConfig() Config {
	return ConfigFromTuning(config.MustLoadDefaultConfig())
}

// ConfigFromTuning reads the telemetry queue size from tuning.
func ConfigFromTuning(t *config.TuningConfig) Config {
	return Config{
		ListenAddr: "localhost:50061",
		MaxClients: 5,
		Buffer:     t.GetTelemetryBuffer(),
	}
}

type client struct {
	id string
	ch chan *pipeline.FrameResult
}

// Publisher fans pipeline results out to streaming clients. It is a
// pipeline.Sink.
type Publisher struct {
	cfg Config

	mu      sync.RWMutex
	clients map[uint64]*client
	nextID  uint64

	published atomic.Uint64
	dropped   atomic.Uint64

	server *grpc.Server
	wg     sync.WaitGroup
}

// NewPublisher creates a publisher with no clients.
func NewPublisher(cfg Config) *Publisher {
	if cfg.Buffer < 1 {
		cfg.Buffer = 1
	}
	return &Publisher{cfg: cfg, clients: make(map[uint64]*client)}
}

// Publish queues res for every connected client without blocking.
func (p *Publisher) Publish(res *pipeline.FrameResult) {
	p.published.Add(1)
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.clients {
		select {
		case c.ch <- res:
		default:
			p.dropped.Add(1)
		}
	}
}

func (p *Publisher) subscribe(peer string) (*client, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cfg.MaxClients > 0 && len(p.clients) >= p.cfg.MaxClients {
		return nil, nil, ErrTooManyClients
	}
	p.nextID++
	id := p.nextID
	c := &client{id: fmt.Sprintf("%s#%d", peer, id), ch: make(chan *pipeline.FrameResult, p.cfg.Buffer)}
	p.clients[id] = c
	monitoring.Logf("[telemetry] client connected: %s (total: %d)", c.id, len(p.clients))
	return c, func() {
		p.mu.Lock()
		delete(p.clients, id)
		n := len(p.clients)
		p.mu.Unlock()
		monitoring.Logf("[telemetry] client disconnected: %s (remaining: %d)", c.id, n)
	}, nil
}

// Stats is a snapshot of publisher counters.
type Stats struct {
	Clients   int    `json:"clients"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}

// Stats returns current counters.
func (p *Publisher) Stats() Stats {
	p.mu.RLock()
	n := len(p.clients)
	p.mu.RUnlock()
	return Stats{Clients: n, Published: p.published.Load(), Dropped: p.dropped.Load()}
}

// Serve registers srv on a new gRPC server and serves lis in the
// background until Stop.
func (p *Publisher) Serve(lis net.Listener, srv *Server) {
	p.server = grpc.NewServer()
	RegisterPoseStreamServer(p.server, srv)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		monitoring.Logf("[telemetry] gRPC server listening on %s", lis.Addr())
		if err := p.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			monitoring.Logf("[telemetry] gRPC server error: %v", err)
		}
	}()
}

// Start listens on cfg.ListenAddr and serves srv.
func (p *Publisher) Start(srv *Server) error {
	lis, err := net.Listen("tcp", p.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", p.cfg.ListenAddr, err)
	}
	p.Serve(lis, srv)
	return nil
}

// Stop ends every stream and waits for the server to exit.
func (p *Publisher) Stop() {
	if p.server == nil {
		return
	}
	p.server.Stop()
	p.wg.Wait()
	monitoring.Logf("[telemetry] gRPC server stopped")
}
