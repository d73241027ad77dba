// Package server runs the SimpleNet protocol endpoint and its ops
// surface.
package server

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/simplenet-proto/simplenet/internal/dns"
	"github.com/simplenet-proto/simplenet/internal/mqtt"
	"github.com/simplenet-proto/simplenet/internal/observability"
	"github.com/simplenet-proto/simplenet/internal/pages"
	"github.com/simplenet-proto/simplenet/internal/protocol"
	"github.com/simplenet-proto/simplenet/internal/ratelimit"
	"github.com/simplenet-proto/simplenet/internal/stats"
)

// SimpleNet server endpoint configuration.
type Config struct {
	ListenAddr      string
	PageRoot        string
	DNSFile         string
	DocExt          string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	MaxRequestBytes int
	MaxConnections  int
	RateLimit       int
	RateWindow      time.Duration
	RateIdleTTL     time.Duration
	OpsAddr         string
	OpsRate         float64
	OpsBurst        int
	CORSOrigins     []string
	RedisAddr       string
	RedisPrefix     string
	MQTT            mqtt.Config
}

// SimpleNet server defaults for endpoint configuration.
func DefaultConfig() Config {
	return Config{
		ListenAddr:      "0.0.0.0:5555",
		PageRoot:        "pages",
		DNSFile:         "dns.json",
		DocExt:          protocol.DefaultDocExt,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxRequestBytes: protocol.MaxRequestBytes,
		MaxConnections:  128,
		RateLimit:       ratelimit.DefaultLimit,
		RateWindow:      ratelimit.DefaultWindow,
		RateIdleTTL:     0,
		OpsAddr:         "",
		OpsRate:         10,
		OpsBurst:        20,
		MQTT:            mqtt.DefaultConfig(),
	}
}

// SimpleNet runtime service owning the accept loop, admission control,
// and page resolution pipeline.
type Service struct {
	cfg Config

	resolver *dns.Resolver
	pages    *pages.Store
	limiter  *ratelimit.Limiter
	sinks    []stats.Store
	memStats *stats.MemoryStore

	started time.Time

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	clientCount atomic.Int64
	served      atomic.Int64
}

// SimpleNet service constructor using default configuration.
func NewService() (*Service, error) {
	return NewServiceWithConfig(DefaultConfig())
}

// SimpleNet service constructor using explicit configuration.
func NewServiceWithConfig(cfg Config) (*Service, error) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		cfg.ListenAddr = def.ListenAddr
	}
	if strings.TrimSpace(cfg.PageRoot) == "" {
		cfg.PageRoot = def.PageRoot
	}
	if strings.TrimSpace(cfg.DNSFile) == "" {
		cfg.DNSFile = def.DNSFile
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxRequestBytes <= 0 {
		cfg.MaxRequestBytes = def.MaxRequestBytes
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = def.RateLimit
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = def.RateWindow
	}
	if cfg.OpsRate <= 0 {
		cfg.OpsRate = def.OpsRate
	}
	if cfg.OpsBurst <= 0 {
		cfg.OpsBurst = def.OpsBurst
	}

	resolver := dns.NewResolver(cfg.DNSFile)
	store, err := pages.NewStore(cfg.PageRoot, cfg.DocExt, resolver)
	if err != nil {
		return nil, err
	}

	var limOpts []ratelimit.Option
	if cfg.RateIdleTTL > 0 {
		limOpts = append(limOpts, ratelimit.WithIdleTTL(cfg.RateIdleTTL))
	}
	svc := &Service{
		cfg:      cfg,
		resolver: resolver,
		pages:    store,
		limiter:  ratelimit.New(cfg.RateLimit, cfg.RateWindow, limOpts...),
		conns:    make(map[net.Conn]struct{}),
		started:  time.Now(),
	}
	svc.memStats = stats.NewMemoryStore()
	svc.sinks = append(svc.sinks, svc.memStats)
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		svc.sinks = append(svc.sinks, stats.NewRedisStore(rdb,
			stats.WithPrefix(cfg.RedisPrefix),
			stats.WithTrackClients(true),
		))
	}
	return svc, nil
}

// SimpleNet runtime entrypoint that blocks until signal shutdown.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s.resolver.Reload()
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	log.Info().
		Str("addr", ln.Addr().String()).
		Str("pages", s.pages.Root()).
		Int("rate_limit", s.cfg.RateLimit).
		Msg("simplenet server listening")

	if s.cfg.RateIdleTTL > 0 {
		s.limiter.StartJanitor(ctx)
	}

	opsErr := make(chan error, 1)
	if addr := strings.TrimSpace(s.cfg.OpsAddr); addr != "" {
		go func() {
			opsErr <- s.serveOps(ctx, addr)
		}()
	}

	var responder *mqtt.Responder
	if s.cfg.MQTT.Enabled() {
		responder = mqtt.NewResponder(s.cfg.MQTT, s.HandlePath)
		if err := responder.Start(ctx); err != nil {
			return err
		}
		defer responder.Stop()
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.Serve(ctx, ln)
	}()
	select {
	case err := <-serveErr:
		return err
	case err := <-opsErr:
		if err != nil {
			return err
		}
		return <-serveErr
	}
}

// Serve accepts SimpleNet connections on an existing listener until
// ctx is done. Connections past the ceiling are refused at accept
// time, before any response framing.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	defer ln.Close()
	go func() {
		<-ctx.Done()
		s.closeAllConns()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if s.cfg.MaxConnections > 0 && s.clientCount.Load() >= int64(s.cfg.MaxConnections) {
			log.Warn().
				Str("remote", conn.RemoteAddr().String()).
				Int("ceiling", s.cfg.MaxConnections).
				Msg("connection ceiling reached, refusing")
			observability.RecordConnRefused()
			_ = conn.Close()
			continue
		}
		// The slot is reserved here, before the handler goroutine is
		// scheduled; the accept loop is the only incrementer, so a
		// burst of accepts cannot pass the ceiling check together.
		active := s.clientCount.Add(1)
		observability.ConnOpened()
		log.Debug().Str("remote", conn.RemoteAddr().String()).Int64("active_clients", active).Msg("client connected")
		s.trackConn(conn)
		go s.handleConn(conn)
	}
}

// ActiveConnections returns the number of live protocol connections.
func (s *Service) ActiveConnections() int64 {
	return s.clientCount.Load()
}

// Served returns the number of handled requests since start.
func (s *Service) Served() int64 {
	return s.served.Load()
}

// SimpleNet connection handler for one request/response exchange. The
// connection slot was reserved by the accept loop; every exit path,
// panics included, releases it exactly once. The admission check runs
// before any request bytes are read so a limited client cannot hold
// the read window open first.
func (s *Service) handleConn(conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)
	remote := conn.RemoteAddr().String()
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("remote", remote).Interface("panic", r).Msg("connection handler panicked")
			s.writeResponse(conn, protocol.ErrorResponse(protocol.StatusServerError, "internal server error"))
		}
		remaining := s.clientCount.Add(-1)
		observability.ConnClosed()
		log.Debug().Str("remote", remote).Int64("active_clients", remaining).Msg("client disconnected")
	}()

	client := clientKey(remote)
	start := time.Now()
	if resp := s.admit(client); resp != nil {
		s.finish(conn, resp, start)
		return
	}

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	raw, err := protocol.ReadRequest(conn, s.cfg.MaxRequestBytes)
	if err != nil {
		if isTimeout(err) {
			log.Warn().Str("remote", remote).Msg("request read timed out")
			s.finish(conn, protocol.ErrorResponse(protocol.StatusTimeout, "request timed out"), start)
			return
		}
		log.Debug().Str("remote", remote).Err(err).Msg("request read failed")
		return
	}

	s.finish(conn, s.resolveRequest(client, raw), start)
}

// finish frames the response, then records the request outcome.
func (s *Service) finish(conn net.Conn, resp *protocol.Response, start time.Time) {
	s.writeResponse(conn, resp)
	s.served.Add(1)
	observability.RecordRequest(int(resp.Status), time.Since(start))
}

// HandlePath runs admission, validation, and page resolution for one
// raw request. It backs transports that carry the request payload and
// client identity together, such as the MQTT bridge.
func (s *Service) HandlePath(clientID string, raw []byte) *protocol.Response {
	start := time.Now()
	resp := s.admit(clientID)
	if resp == nil {
		resp = s.resolveRequest(clientID, raw)
	}
	s.served.Add(1)
	observability.RecordRequest(int(resp.Status), time.Since(start))
	return resp
}

// admit checks the caller against its rate window. A nil response means
// the request may proceed.
func (s *Service) admit(clientID string) *protocol.Response {
	if s.limiter.Admit(clientID) {
		return nil
	}
	log.Warn().Str("client", clientID).Msg("rate limit exceeded")
	observability.RecordRateLimitRejection()
	s.recordStat(clientID, "", int(protocol.StatusBadRequest), false)
	return protocol.ErrorResponse(protocol.StatusBadRequest, "rate limit exceeded, retry later")
}

// resolveRequest validates the raw request and resolves the page for an
// already-admitted client.
func (s *Service) resolveRequest(clientID string, raw []byte) *protocol.Response {
	path, err := protocol.ParsePath(raw)
	if err != nil {
		log.Debug().Str("client", clientID).Err(err).Msg("invalid request path")
		s.recordStat(clientID, path, int(protocol.StatusBadRequest), true)
		return protocol.ErrorResponse(protocol.StatusBadRequest, "invalid request path")
	}

	resp := s.pages.ResolvePage(path)
	if resp.Status == protocol.StatusOK {
		domain, _ := pages.Split(path)
		observability.RecordPageServed(domain)
		log.Info().Str("client", clientID).Str("path", path).Int("bytes", len(resp.Content)).Msg("page served")
	} else {
		log.Info().Str("client", clientID).Str("path", path).Int("status", int(resp.Status)).Msg("request failed")
	}
	s.recordStat(clientID, path, int(resp.Status), true)
	return resp
}

// recordStat reports one admission outcome to every configured sink.
// Sink failures are logged and ignored.
func (s *Service) recordStat(clientID, path string, status int, allowed bool) {
	ev := stats.Event{
		ClientID: clientID,
		Path:     path,
		Status:   status,
		Allowed:  allowed,
		At:       time.Now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, sink := range s.sinks {
		if err := sink.Record(ctx, ev); err != nil {
			log.Warn().Err(err).Msg("stats sink record failed")
		}
	}
}

func (s *Service) writeResponse(conn net.Conn, resp *protocol.Response) {
	_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := protocol.WriteResponse(conn, resp); err != nil {
		log.Debug().Err(err).Msg("response write failed")
	}
}

// clientKey reduces a remote address to its host so the rate limiter
// sees one window per peer, not per connection.
func clientKey(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// Connection-tracking add operation for coordinated shutdown.
func (s *Service) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	s.conns[conn] = struct{}{}
}

// Connection-tracking remove operation after connection teardown.
func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	delete(s.conns, conn)
}

// Shutdown helper that closes and drains tracked active connections.
func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
		delete(s.conns, conn)
	}
}
