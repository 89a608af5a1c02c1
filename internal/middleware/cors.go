package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig holds CORS configuration options.
type CORSConfig struct {
	// AllowedOrigins lists the storefront and admin frontends. Entries may
	// be exact origins or "*.example.com" subdomain patterns. Empty denies
	// every cross-origin request.
	AllowedOrigins []string
	// AllowedMethods are the methods a preflight may ask for.
	AllowedMethods []string
	// AllowedHeaders are the request headers a preflight may ask for.
	// Matching is case-insensitive.
	AllowedHeaders []string
	// ExposedHeaders are readable by frontend scripts.
	ExposedHeaders []string
	// MaxAge caches preflight results, in seconds.
	MaxAge int
}

// DefaultCORSConfig allows what the storefront frontends use: JSON and
// multipart POSTs, the session header on cart routes, and the rate limit
// headers.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Accept-Language",
			"Content-Type",
			AuthTokenHeader,
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		MaxAge: 86400,
	}
}

type corsPolicy struct {
	origins  map[string]bool
	suffixes []string
	methods  map[string]bool
	headers  map[string]bool

	methodsValue string
	headersValue string
	exposedValue string
	maxAgeValue  string
}

func newCORSPolicy(cfg CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:      make(map[string]bool, len(cfg.AllowedOrigins)),
		methods:      make(map[string]bool, len(cfg.AllowedMethods)),
		headers:      make(map[string]bool, len(cfg.AllowedHeaders)),
		methodsValue: strings.Join(cfg.AllowedMethods, ", "),
		headersValue: strings.Join(cfg.AllowedHeaders, ", "),
		exposedValue: strings.Join(cfg.ExposedHeaders, ", "),
	}
	for _, o := range cfg.AllowedOrigins {
		o = strings.ToLower(strings.TrimSpace(o))
		if strings.HasPrefix(o, "*.") {
			p.suffixes = append(p.suffixes, o[1:])
			continue
		}
		p.origins[o] = true
	}
	for _, m := range cfg.AllowedMethods {
		p.methods[strings.ToUpper(m)] = true
	}
	for _, h := range cfg.AllowedHeaders {
		p.headers[strings.ToLower(h)] = true
	}
	if cfg.MaxAge > 0 {
		p.maxAgeValue = strconv.Itoa(cfg.MaxAge)
	}
	return p
}

// allowOrigin matches exact origins and "*.domain" patterns. A pattern
// matches subdomains only, never the bare domain or a lookalike such as
// "https://evilexample.com".
func (p *corsPolicy) allowOrigin(origin string) bool {
	origin = strings.ToLower(origin)
	if p.origins[origin] {
		return true
	}
	_, host, ok := strings.Cut(origin, "://")
	if !ok {
		return false
	}
	for _, suffix := range p.suffixes {
		if len(host) > len(suffix) && strings.HasSuffix(host, suffix) {
			return true
		}
	}
	return false
}

// allowPreflight checks the method and headers the browser intends to send.
func (p *corsPolicy) allowPreflight(r *http.Request) bool {
	method := r.Header.Get("Access-Control-Request-Method")
	if method != "" && !p.methods[strings.ToUpper(method)] {
		return false
	}
	for _, h := range strings.Split(r.Header.Get("Access-Control-Request-Headers"), ",") {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" && !p.headers[h] {
			return false
		}
	}
	return true
}

// CORS returns a middleware that answers preflight requests and tags
// responses for allowed origins. Disallowed origins get no CORS headers;
// disallowed preflights get 403.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	p := newCORSPolicy(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			preflight := r.Method == http.MethodOptions
			if preflight {
				h.Add("Vary", "Access-Control-Request-Method")
				h.Add("Vary", "Access-Control-Request-Headers")
			}

			if !p.allowOrigin(origin) {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				// The browser blocks the response without CORS headers.
				next.ServeHTTP(w, r)
				return
			}

			if preflight && !p.allowPreflight(r) {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			if p.exposedValue != "" {
				h.Set("Access-Control-Expose-Headers", p.exposedValue)
			}

			if preflight {
				h.Set("Access-Control-Allow-Methods", p.methodsValue)
				h.Set("Access-Control-Allow-Headers", p.headersValue)
				if p.maxAgeValue != "" {
					h.Set("Access-Control-Max-Age", p.maxAgeValue)
				}
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
