package retry

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Provider status codes worth retrying. 529 is the overloaded code some
// OpenAI-compatible gateways return.
var transientStatusCodes = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	529: true,
}

// Substring fallback for providers that only surface flat error strings.
var transientSubstrings = []string{
	"rate limit",
	"timeout",
	"server error",
	"502",
	"503",
	"529",
}

// IsTransient reports whether an error is temporary and worth retrying.
// Structured checks run first; the substring heuristic is the fallback for
// errors that carry no type information.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return transientStatusCodes[apiErr.HTTPStatusCode]
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, s := range transientSubstrings {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
