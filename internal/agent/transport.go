package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/plgd-dev/go-coap/v3/message/codes"

	platformerrors "telewatch-go/internal/platform/errors"
	coaptransport "telewatch-go/internal/transport/coap"
)

// Transport is the agent's view of the server protocol. The SessionClient
// only needs the two exchanges; tests substitute an in-memory fake.
type Transport interface {
	// Authenticate exchanges an Authorization bundle for a token.
	Authenticate(ctx context.Context, bundle string) (string, error)
	// Ingest submits a payload under a token and returns the echoed token.
	Ingest(ctx context.Context, token string, payload []byte) (string, error)
}

// coapTransport drives the exchanges over UDP CoAP.
type coapTransport struct {
	client     *coaptransport.Client
	ingestPath string
}

// NewTransport builds the CoAP transport for the given server address and
// ingest path segments.
func NewTransport(serverAddr, pathPart1, pathPart2 string) Transport {
	return &coapTransport{
		client:     coaptransport.NewClient(serverAddr),
		ingestPath: fmt.Sprintf("/%s/%s", pathPart1, pathPart2),
	}
}

func (t *coapTransport) Authenticate(ctx context.Context, bundle string) (string, error) {
	code, body, err := t.client.Post(ctx, "/auth", []string{"Authorization=" + bundle}, nil)
	if err != nil {
		return "", err
	}
	if code != codes.Content {
		return "", platformerrors.New(platformerrors.KindAuth, "agent.authenticate",
			fmt.Sprintf("server rejected credentials: %v", code))
	}
	token := string(body)
	if token == "" {
		return "", platformerrors.New(platformerrors.KindAuth, "agent.authenticate", "empty token in response")
	}
	return token, nil
}

func (t *coapTransport) Ingest(ctx context.Context, token string, payload []byte) (string, error) {
	code, body, err := t.client.Post(ctx, t.ingestPath, []string{"Token=" + token}, payload)
	if err != nil {
		return "", err
	}
	switch code {
	case codes.Created:
		echoed := strings.TrimPrefix(string(body), "Token=")
		if echoed == string(body) {
			return "", platformerrors.New(platformerrors.KindTransport, "agent.ingest",
				"malformed ingest response payload")
		}
		return echoed, nil
	case codes.Unauthorized:
		return "", platformerrors.New(platformerrors.KindAuth, "agent.ingest", "token rejected")
	default:
		return "", platformerrors.New(platformerrors.KindTransport, "agent.ingest",
			fmt.Sprintf("unexpected response: %v", code))
	}
}
