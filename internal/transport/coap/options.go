package coap

import "strings"

// Option keys recognized on the wire. Anything else in the uri-query list is
// ignored.
const (
	optionToken         = "Token"
	optionAuthorization = "Authorization"
)

// requestOptions holds the typed view of a request's uri-query options. An
// empty field means the option was absent or unusable.
type requestOptions struct {
	token         string
	authorization string
}

// parseOptions scans the uri-query list for the recognized keys. It fails
// closed: a key that appears more than once is treated as absent, and
// queries without a key/value separator are skipped.
func parseOptions(queries []string) requestOptions {
	var opts requestOptions
	tokenCount := 0
	authCount := 0

	for _, q := range queries {
		key, value, found := strings.Cut(q, "=")
		if !found {
			continue
		}
		switch key {
		case optionToken:
			tokenCount++
			opts.token = value
		case optionAuthorization:
			authCount++
			opts.authorization = value
		}
	}

	if tokenCount != 1 {
		opts.token = ""
	}
	if authCount != 1 {
		opts.authorization = ""
	}
	return opts
}
