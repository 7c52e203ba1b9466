package coap

import (
	"bytes"
	"context"

	"github.com/plgd-dev/go-coap/v3/message"
	"github.com/plgd-dev/go-coap/v3/message/codes"
	"github.com/plgd-dev/go-coap/v3/udp"

	platformerrors "telewatch-go/internal/platform/errors"
)

// Client performs request/response exchanges against a CoAP server. Each
// exchange dials its own UDP association; the callers' contexts bound the
// round trip.
type Client struct {
	addr string
}

// NewClient targets the given host:port.
func NewClient(addr string) *Client {
	return &Client{addr: addr}
}

// Post sends a POST with the given uri-query options and payload and returns
// the response code and body. Transport-level failures (unreachable host,
// context timeout) surface as errors; protocol-level rejections surface as
// response codes.
func (c *Client) Post(ctx context.Context, path string, queries []string, payload []byte) (codes.Code, []byte, error) {
	conn, err := udp.Dial(c.addr)
	if err != nil {
		return 0, nil, platformerrors.Wrap(platformerrors.KindTransport, "coap.post", "dial server", err)
	}
	defer conn.Close()

	req, err := conn.NewPostRequest(ctx, path, message.TextPlain, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, platformerrors.Wrap(platformerrors.KindTransport, "coap.post", "build request", err)
	}
	for _, q := range queries {
		req.AddQuery(q)
	}

	resp, err := conn.Do(req)
	if err != nil {
		return 0, nil, platformerrors.Wrap(platformerrors.KindTransport, "coap.post", "exchange failed", err)
	}

	body, err := resp.ReadBody()
	if err != nil {
		return resp.Code(), nil, platformerrors.Wrap(platformerrors.KindTransport, "coap.post", "read response body", err)
	}
	return resp.Code(), body, nil
}
