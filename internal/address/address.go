// Package address formats service addresses and substitutes ${...}
// placeholders in config templates.
//
// A placeholder is a ${name} token naming either a machine or a
// repository attribute (version, repoName). The placeholder catalog is
// closed and known when the registry is constructed, so a token left
// over after substitution is an internal invariant violation rather
// than a user error.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Loopback is the hostname used for a resolved address whose config
// declares no hostname.
const Loopback = "localhost"

// ErrResolution marks a placeholder token that survived substitution.
var ErrResolution = errors.New("unresolved placeholder")

// Token wraps a bare name in placeholder syntax.
func Token(name string) string {
	return "${" + name + "}"
}

// TokenName extracts the bare name from a string that is exactly one
// placeholder token.
func TokenName(s string) (string, bool) {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") && !strings.Contains(s[2:len(s)-1], "${") {
		return s[2 : len(s)-1], true
	}
	return "", false
}

// Unsolved formats the symbolic address of a config. An absent hostname
// is replaced by the supplied placeholder token, preserving the template
// form (e.g. "${defaultHostname}:8545").
func Unsolved(hostname string, port int, placeholder string) string {
	if hostname == "" {
		hostname = placeholder
	}
	return hostname + ":" + strconv.Itoa(port)
}

// Resolved formats the concrete address of a config. An absent hostname
// defaults to the local loopback name. The result must already be
// concrete: a residual token is reported as a resolution error.
func Resolved(hostname string, port int) (string, error) {
	if hostname == "" {
		hostname = Loopback
	}
	addr := hostname + ":" + strconv.Itoa(port)
	if strings.Contains(addr, "${") {
		return "", fmt.Errorf("%w: address %q is not concrete", ErrResolution, addr)
	}
	return addr, nil
}

// maxSubstituteRounds bounds the fixpoint loop; the only legitimate
// indirection is machine-name placeholders resolving to another
// placeholder expression, which is two levels deep.
const maxSubstituteRounds = 8

// Substitute replaces every ${key} occurrence in template using table,
// repeating until no token of the table's key set remains. Any token
// still present afterwards has no binding, which is a resolution error.
func Substitute(template string, table map[string]string) (string, error) {
	out := template
	for round := 0; strings.Contains(out, "${"); round++ {
		if round == maxSubstituteRounds {
			return "", fmt.Errorf("%w: substitution of %q did not converge", ErrResolution, template)
		}
		next := out
		for key, value := range table {
			next = strings.ReplaceAll(next, Token(key), value)
		}
		if next == out {
			break
		}
		out = next
	}
	if i := strings.Index(out, "${"); i >= 0 {
		tok := out[i:]
		if j := strings.Index(tok, "}"); j >= 0 {
			tok = tok[:j+1]
		}
		return "", fmt.Errorf("%w: no binding for %s in %q", ErrResolution, tok, template)
	}
	return out, nil
}

// NormalizeHost reduces a bare "host:port" or a URL such as
// "http://host:port/path" to its "host:port" form, for host-index
// lookups.
func NormalizeHost(hostOrURL string) string {
	s := hostOrURL
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return s
}
