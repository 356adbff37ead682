package scope

import (
	"maps"
	"net/http"
	"net/url"
)

// Protocol kinds carried by Scope.Protocol.
const (
	ProtocolHTTP      = "http"
	ProtocolWebSocket = "websocket"
)

// Scope is the read-mostly connection context. Fields are filled by the
// router at connection establishment; User is filled by decorators.
type Scope struct {
	// Protocol is the connection kind, one of the Protocol* constants.
	Protocol string

	// Path is the request path the connection arrived on.
	Path string

	// RawQuery is the unparsed query string.
	RawQuery string

	// RemoteAddr is the peer's network address.
	RemoteAddr string

	// Params holds named parameters extracted from the path by the router.
	Params map[string]string

	// Header holds the connection's request headers.
	Header http.Header

	// Cookies holds the cookies sent with the connection request.
	Cookies []*http.Cookie

	// User is the identity resolved by a decorator, nil when no identity
	// collaborator is installed. Its concrete type is owned by the
	// application.
	User any
}

// FromRequest builds a Scope from an inbound request. params may be nil when
// the matched pattern captured nothing.
func FromRequest(r *http.Request, protocol string, params map[string]string) *Scope {
	return &Scope{
		Protocol:   protocol,
		Path:       r.URL.Path,
		RawQuery:   r.URL.RawQuery,
		RemoteAddr: r.RemoteAddr,
		Params:     params,
		Header:     r.Header,
		Cookies:    r.Cookies(),
	}
}

// Param returns the named path parameter, or the empty string.
func (s *Scope) Param(key string) string {
	if s.Params == nil {
		return ""
	}
	return s.Params[key]
}

// Query parses and returns the query string values.
func (s *Scope) Query() url.Values {
	v, _ := url.ParseQuery(s.RawQuery)
	return v
}

// Cookie returns the named cookie sent with the connection request.
func (s *Scope) Cookie(name string) (*http.Cookie, bool) {
	for _, c := range s.Cookies {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Clone returns a copy safe for a decorator to modify without touching the
// original. Header values and params are copied; cookies are shared since
// they are never mutated.
func (s *Scope) Clone() *Scope {
	dup := *s
	dup.Params = maps.Clone(s.Params)
	dup.Header = s.Header.Clone()
	dup.Cookies = append([]*http.Cookie(nil), s.Cookies...)
	return &dup
}
