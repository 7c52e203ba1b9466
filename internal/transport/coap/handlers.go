package coap

import (
	"bytes"
	"context"
	"net"
	"time"

	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/mux"

	"telewatch-go/internal/domain/auth"
	"telewatch-go/internal/domain/eventbus"
	"telewatch-go/internal/domain/telemetry"
	"telewatch-go/internal/platform/netinfo"
)

// Logger is the logging contract of the transport layer.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Handler serves the authentication and ingest resources. Both endpoints are
// stateless across requests; all shared state lives in the injected manager,
// sink, and bus.
type Handler struct {
	auth   *auth.Manager
	sink   telemetry.Sink
	bus    *eventbus.Bus
	mac    netinfo.Resolver
	logger Logger
}

// NewHandler wires the protocol handlers.
func NewHandler(mgr *auth.Manager, sink telemetry.Sink, bus *eventbus.Bus, mac netinfo.Resolver, logger Logger) *Handler {
	if mac == nil {
		mac = netinfo.StaticResolver{}
	}
	return &Handler{
		auth:   mgr,
		sink:   sink,
		bus:    bus,
		mac:    mac,
		logger: logger,
	}
}

// handleAuth is the /auth resource. Faults never escape: a panic anywhere in
// the path becomes an internal error response and the listener stays up.
func (h *Handler) handleAuth(w mux.ResponseWriter, r *mux.Message) {
	defer h.recoverToInternal(w, "auth")

	code, payload := h.authenticate(queryOptions(r))
	h.respond(w, code, payload)
}

// authenticate runs the credential exchange and returns the response to send.
func (h *Handler) authenticate(queries []string) (codes.Code, []byte) {
	opts := parseOptions(queries)
	if opts.authorization == "" {
		return codes.Unauthorized, []byte("Unauthorized")
	}

	token, ok := h.auth.AuthenticateBasic(opts.authorization)
	if !ok {
		return codes.Unauthorized, []byte("Unauthorized")
	}

	if h.bus != nil {
		h.bus.PublishTokenIssued(eventbus.TokenEvent{Owner: token.Owner, IssuedAt: token.IssuedAt})
	}
	return codes.Content, []byte(token.Value)
}

// handleIngest is the data submission resource.
func (h *Handler) handleIngest(w mux.ResponseWriter, r *mux.Message) {
	defer h.recoverToInternal(w, "ingest")

	body, err := r.ReadBody()
	if err != nil {
		h.logger.Warn("[COAP] unreadable ingest payload: %v", err)
		h.respond(w, codes.BadRequest, []byte("Bad Request"))
		return
	}

	code, payload := h.ingest(r.Context(), queryOptions(r), body, remoteIP(w))
	h.respond(w, code, payload)
}

// ingest authorizes the request, composes the record, and delivers it.
func (h *Handler) ingest(ctx context.Context, queries []string, body []byte, clientIP string) (codes.Code, []byte) {
	opts := parseOptions(queries)

	owner, echoToken, ok := h.auth.Resolve(opts.token, opts.authorization)
	if !ok {
		if h.bus != nil {
			h.bus.PublishRecordRejected(eventbus.RecordEvent{
				ClientIP:   clientIP,
				Bytes:      len(body),
				ReceivedAt: time.Now(),
				Reason:     "unauthorized",
			})
		}
		return codes.Unauthorized, []byte("Unauthorized")
	}

	record := telemetry.Record{
		ReceivedAt: time.Now(),
		Owner:      owner,
		ClientIP:   clientIP,
		ClientMAC:  h.mac.MAC(clientIP),
		Payload:    string(body),
	}

	if err := h.sink.Deliver(ctx, record); err != nil {
		h.logger.Error("[COAP] sink delivery failed: %v", err)
		return codes.InternalServerError, nil
	}

	if h.bus != nil {
		h.bus.PublishRecordAccepted(eventbus.RecordEvent{
			Owner:      owner,
			ClientIP:   record.ClientIP,
			ClientMAC:  record.ClientMAC,
			Bytes:      len(body),
			ReceivedAt: record.ReceivedAt,
		})
	}
	h.logger.Debug("[COAP] accepted %d byte record from %s (%s)", len(body), owner, clientIP)
	return codes.Created, []byte("Token=" + echoToken)
}

func (h *Handler) respond(w mux.ResponseWriter, code codes.Code, payload []byte) {
	if err := w.SetResponse(code, message.TextPlain, bytes.NewReader(payload)); err != nil {
		h.logger.Error("[COAP] set response failed: %v", err)
	}
}

func (h *Handler) recoverToInternal(w mux.ResponseWriter, resource string) {
	if rec := recover(); rec != nil {
		h.logger.Error("[COAP] panic in %s handler: %v", resource, rec)
		h.respond(w, codes.InternalServerError, nil)
	}
}

// queryOptions extracts the raw uri-query strings from a request.
func queryOptions(r *mux.Message) []string {
	var queries []string
	for _, opt := range r.Options() {
		if opt.ID == message.URIQuery {
			queries = append(queries, string(opt.Value))
		}
	}
	return queries
}

// remoteIP strips the port (and any IPv6-mapped prefix) from the peer
// address.
func remoteIP(w mux.ResponseWriter) string {
	addr := w.Conn().RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return v4.String()
		}
	}
	return host
}
