package coap

import (
	"context"
	"fmt"

	coapnet "github.com/plgd-dev/go-coap/v3/net"
	"github.com/plgd-dev/go-coap/v3/options"
	"github.com/plgd-dev/go-coap/v3/udp"
	"github.com/plgd-dev/go-coap/v3/mux"

	platformerrors "telewatch-go/internal/platform/errors"
)

// ServerOptions configures the CoAP listener.
type ServerOptions struct {
	Addr      string
	PathPart1 string
	PathPart2 string
	Handler   *Handler
	Logger    Logger
}

// Server is the UDP CoAP front end exposing /auth and the ingest path.
type Server struct {
	addr   string
	router *mux.Router
	logger Logger
}

// NewServer builds the router and binds the resources.
func NewServer(opts ServerOptions) (*Server, error) {
	if opts.Handler == nil {
		return nil, platformerrors.New(platformerrors.KindTransport, "coap.new", "server requires a handler")
	}
	if opts.Logger == nil {
		return nil, platformerrors.New(platformerrors.KindTransport, "coap.new", "server requires a logger")
	}

	router := mux.NewRouter()
	if err := router.Handle("/auth", mux.HandlerFunc(opts.Handler.handleAuth)); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "coap.new", "register auth resource", err)
	}
	ingestPath := fmt.Sprintf("/%s/%s", opts.PathPart1, opts.PathPart2)
	if err := router.Handle(ingestPath, mux.HandlerFunc(opts.Handler.handleIngest)); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "coap.new", "register ingest resource", err)
	}

	return &Server{
		addr:   opts.Addr,
		router: router,
		logger: opts.Logger,
	}, nil
}

// Serve listens for datagrams until the context is canceled.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := coapnet.NewListenUDP("udp", s.addr)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "coap.serve", "bind udp listener", err)
	}
	defer listener.Close()

	server := udp.NewServer(options.WithMux(s.router), options.WithContext(ctx))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			server.Stop()
		case <-done:
		}
	}()
	defer close(done)

	s.logger.Info("[COAP] server listening on %s", s.addr)
	if err := server.Serve(listener); err != nil && ctx.Err() == nil {
		return platformerrors.Wrap(platformerrors.KindTransport, "coap.serve", "serve udp", err)
	}
	return nil
}
