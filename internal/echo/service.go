// Package echo implements the hyperion-echo demo service: a TCP server
// that reads one Hyperion packet per connection and writes it straight
// back, and a client that sends a packet and waits for its echo.
package echo

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"github.com/hyperionmesh/hyperion"
	"github.com/hyperionmesh/hyperion/internal/config"
	"github.com/rs/zerolog"
)

// Service runs the echo server loop over one listener.
type Service struct {
	cfg    config.EchoConfig
	log    zerolog.Logger
	engine func() *hyperion.Engine

	connsMu sync.Mutex
	conns   map[net.Conn]struct{}

	clientCount atomic.Int64
}

// New returns a Service configured by cfg, logging through logger.
func New(cfg config.EchoConfig, logger zerolog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		log:    logger,
		engine: func() *hyperion.Engine { return hyperion.New(nil) },
		conns:  make(map[net.Conn]struct{}),
	}
}

// Listen opens a TCP listener on s.cfg.ListenAddr.
func (s *Service) Listen() (net.Listener, error) {
	return net.Listen("tcp", s.cfg.ListenAddr)
}

// Serve accepts connections on ln until ctx is cancelled or ln is closed.
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
		s.trackConn(conn)
		go s.handleConn(ctx, conn)
	}
}

func (s *Service) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer s.untrackConn(conn)

	remote := conn.RemoteAddr().String()
	active := s.clientCount.Add(1)
	s.log.Info().Str("remote", remote).Int64("active_clients", active).Msg("client connected")
	defer func() {
		remaining := s.clientCount.Add(-1)
		s.log.Info().Str("remote", remote).Int64("active_clients", remaining).Msg("client disconnected")
	}()

	e := s.engine()
	var payload []byte

	var recvErr error
	if s.cfg.Mode == config.ModeForced {
		recvErr = e.Receive(ctx, conn, &payload)
	} else {
		recvErr = e.SmartReceive(ctx, conn, &payload)
	}
	if recvErr != nil {
		s.log.Warn().Str("remote", remote).Err(recvErr).Msg("receive failed")
		return
	}

	s.log.Debug().Str("remote", remote).Int("bytes", len(payload)).Msg("echoing payload")

	var sendErr error
	if s.cfg.Mode == config.ModeForced {
		sendErr = e.Send(ctx, conn, payload)
	} else {
		sendErr = e.SmartSend(ctx, conn, payload)
	}
	if sendErr != nil {
		s.log.Warn().Str("remote", remote).Err(sendErr).Msg("echo send failed")
	}
}

// SendAndReceive dials cfg.DialAddr, sends payload, and returns the
// echoed bytes. Used by the hyperion-echo CLI's client mode.
func SendAndReceive(ctx context.Context, cfg config.EchoConfig, payload []byte) ([]byte, error) {
	conn, err := net.Dial("tcp", cfg.DialAddr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	e := hyperion.New(nil)
	if cfg.Mode == config.ModeForced {
		if err := e.Send(ctx, conn, payload); err != nil {
			return nil, err
		}
	} else if err := e.SmartSend(ctx, conn, payload); err != nil {
		return nil, err
	}

	var out []byte
	if cfg.Mode == config.ModeForced {
		if err := e.Receive(ctx, conn, &out); err != nil {
			return nil, err
		}
	} else if err := e.SmartReceive(ctx, conn, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) trackConn(conn net.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Service) untrackConn(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
}

func (s *Service) closeAllConns() {
	s.connsMu.Lock()
	defer s.connsMu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}
