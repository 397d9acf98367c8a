package tumbleweed

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var ErrNotRunning = errors.New("server not running")

// Server serves a Site over HTTP.
type Server struct {
	listener net.Listener
	server   *http.Server
	mu       sync.Mutex

	Site *Site
	Addr string
}

func NewServer(site *Site, addr string) *Server {
	return &Server{Site: site, Addr: addr}
}

// Start listens on Addr and serves in the background.
func (srv *Server) Start() error {
	log.Info("Server starting..")

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.listener != nil {
		return errors.New("server already running")
	}

	var err error
	if srv.listener, err = net.Listen("tcp", srv.Addr); err != nil {
		return errors.Wrapf(err, "listening on %v", srv.Addr)
	}

	srv.server = &http.Server{Handler: srv.Site.Handler()}

	go func(server *http.Server, listener net.Listener) {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Errorf("Serve: %s", err)
		}
	}(srv.server, srv.listener)

	log.WithField("addr", srv.listener.Addr()).Info("Server started")
	return nil
}

// Stop gracefully shuts the server down.
func (srv *Server) Stop(ctx context.Context) error {
	log.Info("Server stopping..")

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if srv.listener == nil {
		return ErrNotRunning
	}
	err := srv.server.Shutdown(ctx)
	srv.listener = nil
	srv.server = nil
	log.Info("Server stopped")
	return err
}

// ListenAddr is the bound address, or nil when not running.
func (srv *Server) ListenAddr() net.Addr {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	if srv.listener != nil {
		return srv.listener.Addr()
	}
	return nil
}
