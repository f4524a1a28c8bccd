// Package wsstream broadcasts a recording live to websocket viewers. Every connected viewer
// receives each entry logged after it connected, JSON encoded, as one text message.
package wsstream

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording"
	"go.viam.com/simrecord/utils"
)

const (
	defaultPath       = "/stream"
	defaultSendBuffer = 256
	writeTimeout      = time.Second
)

// Config configures the stream server.
type Config struct {
	// Addr is the listen address, e.g. "localhost:9877". Port 0 picks a free port.
	Addr string `json:"addr" mapstructure:"addr"`
	// Path is the websocket endpoint; defaults to "/stream".
	Path string `json:"path" mapstructure:"path"`
	// SendBuffer is the number of entries buffered per viewer before it is dropped as too slow.
	SendBuffer int `json:"send_buffer" mapstructure:"send_buffer"`
}

// Validate ensures the config is usable.
func (cfg *Config) Validate(path string) error {
	if cfg.Addr == "" {
		return errors.Errorf("%s: \"addr\" is required", path)
	}
	if cfg.SendBuffer < 0 {
		return errors.Errorf("%s: \"send_buffer\" must not be negative", path)
	}
	return nil
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (v *viewer) close() {
	v.once.Do(func() {
		close(v.send)
	})
}

// Server is a recording.Sink that fans entries out to websocket viewers.
type Server struct {
	cfg      Config
	logger   logging.Logger
	upgrader websocket.Upgrader
	workers  utils.StoppableWorkers

	mu       sync.Mutex
	viewers  map[*viewer]struct{}
	listener net.Listener
	http     *http.Server
	closed   bool
}

// NewServer creates a server. Call Start to listen, or mount Handler on an existing mux.
func NewServer(cfg Config, logger logging.Logger) *Server {
	if cfg.Path == "" {
		cfg.Path = defaultPath
	}
	if cfg.SendBuffer == 0 {
		cfg.SendBuffer = defaultSendBuffer
	}
	s := &Server{
		cfg:     cfg,
		logger:  logger,
		workers: utils.NewStoppableWorkers(),
		viewers: map[*viewer]struct{}{},
		upgrader: websocket.Upgrader{
			// Viewers are local tools, not browsers on other origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc(cfg.Path, s.serveWS)
	s.http = &http.Server{Addr: cfg.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Handler returns the HTTP handler serving the websocket endpoint.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", s.cfg.Addr)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.logger.Infow("streaming recording", "addr", listener.Addr().String(), "path", s.cfg.Path)
	s.workers.AddWorkers(func(context.Context) {
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("stream server stopped", "error", err)
		}
	})
	return nil
}

// Addr returns the address the server listens on, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// NumViewers returns the number of connected viewers.
func (s *Server) NumViewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.Sublogger("viewer")
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnw("upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	v := &viewer{conn: conn, send: make(chan []byte, s.cfg.SendBuffer)}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = conn.Close()
		return
	}
	s.viewers[v] = struct{}{}
	s.mu.Unlock()
	logger.Debugw("viewer connected", "remote_addr", r.RemoteAddr)

	s.workers.AddWorkers(func(ctx context.Context) { s.writeLoop(ctx, v) })
	// Viewers never send data; reading surfaces their disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(v)
	logger.Debugw("viewer disconnected", "remote_addr", r.RemoteAddr)
}

func (s *Server) writeLoop(ctx context.Context, v *viewer) {
	defer func() {
		_ = v.conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			_ = v.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "recording closed"),
				time.Now().Add(writeTimeout))
			return
		case msg, ok := <-v.send:
			if !ok {
				return
			}
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := v.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.drop(v)
				return
			}
		}
	}
}

func (s *Server) drop(v *viewer) {
	s.mu.Lock()
	delete(s.viewers, v)
	s.mu.Unlock()
	v.close()
}

// Write implements recording.Sink. It never blocks on a viewer; viewers whose buffer is full are
// disconnected.
func (s *Server) Write(_ context.Context, e recording.Entry) error {
	raw, err := recording.MarshalEntry(e)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return recording.ErrStreamClosed
	}
	for v := range s.viewers {
		select {
		case v.send <- raw:
		default:
			s.logger.Warnw("dropping slow viewer", "remote_addr", v.conn.RemoteAddr().String())
			delete(s.viewers, v)
			v.close()
		}
	}
	return nil
}

// Flush implements recording.Sink.
func (s *Server) Flush(context.Context) error {
	return nil
}

// Close disconnects every viewer and stops the server.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := s.http.Shutdown(ctx)
	s.workers.Stop()
	return err
}
