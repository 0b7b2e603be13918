package security

import (
	"fmt"
	"net/http"
)

// HeadersConfig lists the response headers sent with every API response.
// Empty values are left out.
type HeadersConfig struct {
	CSP                 string
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CrossOriginResource string
	CacheControl        string

	// HSTS is only sent over TLS. Zero disables it.
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
}

// DefaultHeadersConfig returns defaults for a JSON API that serves no markup.
// Ledger data is private, so nothing may be cached.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		CSP:                   "default-src 'none'; frame-ancestors 'none'",
		XFrameOptions:         "DENY",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "no-referrer",
		CrossOriginResource:   "same-origin",
		CacheControl:          "no-store",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubdomains: true,
	}
}

type header struct{ name, value string }

func (c HeadersConfig) static() []header {
	all := []header{
		{"Content-Security-Policy", c.CSP},
		{"X-Frame-Options", c.XFrameOptions},
		{"X-Content-Type-Options", c.XContentTypeOptions},
		{"Referrer-Policy", c.ReferrerPolicy},
		{"Cross-Origin-Resource-Policy", c.CrossOriginResource},
		{"Cache-Control", c.CacheControl},
	}
	out := all[:0]
	for _, h := range all {
		if h.value != "" {
			out = append(out, h)
		}
	}
	return out
}

func (c HeadersConfig) hsts() string {
	if c.HSTSMaxAge <= 0 {
		return ""
	}
	v := fmt.Sprintf("max-age=%d", c.HSTSMaxAge)
	if c.HSTSIncludeSubdomains {
		v += "; includeSubDomains"
	}
	return v
}

// Headers returns middleware that sets the configured headers before the
// handler runs, so error responses carry them too.
func Headers(config HeadersConfig) func(http.Handler) http.Handler {
	static := config.static()
	hsts := config.hsts()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range static {
				h.Set(kv.name, kv.value)
			}
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
