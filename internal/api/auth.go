package api

import (
	"crypto/subtle"
	"net/url"
	"strings"

	"github.com/Priya8975/guildlog/internal/errdef"
)

// tokenChecker validates the shared secret the bot sends as __token. Bots
// send the token escaped once more than the form encoding requires.
type tokenChecker struct {
	token []byte
}

func newTokenChecker(token string) tokenChecker {
	return tokenChecker{token: []byte(strings.TrimSpace(token))}
}

func (c tokenChecker) check(raw string) error {
	if len(c.token) == 0 {
		return errdef.NewAuth("no shared token configured")
	}

	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return errdef.NewAuth("undecodable token: %w", err)
	}
	decoded = strings.TrimSpace(decoded)
	if decoded == "" {
		return errdef.NewAuth("missing token")
	}

	if subtle.ConstantTimeCompare([]byte(decoded), c.token) != 1 {
		return errdef.NewAuth("token mismatch")
	}
	return nil
}
