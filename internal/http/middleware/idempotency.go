// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the idempotency gateway for unsafe HTTP methods
// (POST/PUT/PATCH/DELETE). Clients opt in by sending X-Idempotency-Key; the
// gateway then guarantees that retries of the same semantic operation are
// served the stored first response instead of being re-executed.
//
// Behavior:
//   - validates the key header (length, charset) and rejects bad keys with 400
//   - fingerprints the request (method, path, body, user) so a reused key with
//     a different payload is detected and rejected with 409
//   - replays the stored response verbatim, flagged with
//     X-Idempotent-Replayed: true, without re-entering the handler
//   - captures and stores only successful (2xx) first responses
//   - degrades to normal, non-idempotent processing when the store is
//     unavailable; a retry hitting the degraded window executes twice, which
//     is the accepted trade against failing writes on a cache outage
package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-social-backend/internal/idempotency"
)

// HeaderIdempotencyKey is the request header carrying the client-chosen
// idempotency token for unsafe operations. The token is expected to be stable
// across retries of one semantic operation.
const HeaderIdempotencyKey = "X-Idempotency-Key"

// HeaderIdempotentReplayed marks responses that were served from the
// idempotency store rather than executed.
const HeaderIdempotentReplayed = "X-Idempotent-Replayed"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay was served
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

// idemDegradations counts requests that proceeded without idempotency
// protection because the store was unreachable.
var idemDegradations = prometheus.NewCounter(prometheus.CounterOpts{
	Name: "idempotency_store_degradations_total",
	Help: "Requests processed without idempotency protection due to store errors.",
})

func init() {
	prometheus.MustRegister(idemDegradations)
}

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context. The second return value indicates presence.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether this request was served from the idempotency store.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyOptions configures the gateway.
type IdempotencyOptions struct {
	// MaxLen caps the accepted key length. Values <= 0 default to 200.
	MaxLen int
	// Pattern restricts allowed characters. If nil, a conservative RFC7230-like
	// token pattern is used: ^[A-Za-z0-9._~\-:]+$
	Pattern *regexp.Regexp
}

// unsafeMethods are the methods the gateway protects. Safe methods pass
// through untouched even when a key is present.
var unsafeMethods = map[string]struct{}{
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodPatch:  {},
	http.MethodDelete: {},
}

// bodyCapture tees the response body so a successful first execution can be
// stored for replay.
type bodyCapture struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency returns the gateway middleware backed by store.
//
// Requests without the key header, or with safe methods, pass through
// untouched. A nil store disables the gateway entirely.
func Idempotency(store *idempotency.Store, opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		// RFC-7230-ish token + common safe chars.
		pat = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || store == nil {
			c.Next()
			return
		}
		if _, unsafe := unsafeMethods[c.Request.Method]; !unsafe {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			abortEnvelope(c, http.StatusBadRequest, "BAD_REQUEST",
				"invalid "+HeaderIdempotencyKey+" header", nil)
			return
		}
		c.Set(ctxKeyIdemKey, key)

		// The body participates in the fingerprint, so it must be read here
		// and restored for the handler.
		var body []byte
		if c.Request.Body != nil {
			var err error
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				abortEnvelope(c, http.StatusBadRequest, "BAD_REQUEST",
					"could not read request body", nil)
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}
		fp := idempotency.Fingerprint(c.Request.Method, c.Request.URL.Path, body, userIDFromCtx(c))

		rec, err := store.Get(c.Request.Context(), key)
		switch {
		case err == nil:
			if rec.Fingerprint != fp {
				abortEnvelope(c, http.StatusConflict, "IDEMPOTENCY_CONFLICT",
					"idempotency key reused with a different request", nil)
				return
			}
			c.Set(ctxKeyIdemReplay, true)
			c.Set(ctxKeyRateBypass, true)
			c.Header(HeaderIdempotentReplayed, "true")
			c.Data(rec.Status, "application/json", rec.Payload)
			c.Abort()
			return
		case errors.Is(err, idempotency.ErrNoRecord):
			// First sighting of this key; fall through and execute.
		default:
			// Store down. Process without protection rather than failing the
			// write, and make the degradation observable.
			idemDegradations.Inc()
			log.Warn().Err(err).Str("method", c.Request.Method).Str("path", c.Request.URL.Path).
				Msg("idempotency store unavailable; processing without protection")
			c.Next()
			return
		}

		cap := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = cap
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			// Failures are not stored so the client can retry them.
			return
		}
		// The response is already on the wire at this point; a client that
		// disconnects right after receiving it would cancel the request
		// context and lose the record, so the write runs detached from it.
		perr := store.Put(context.WithoutCancel(c.Request.Context()), key, idempotency.Record{
			Fingerprint: fp,
			Status:      status,
			Payload:     append([]byte(nil), cap.buf.Bytes()...),
		})
		if perr != nil {
			idemDegradations.Inc()
			log.Warn().Err(perr).Msg("idempotency record not stored")
		}
	}
}

// abortEnvelope writes the standard error envelope from middleware, which
// cannot reach the handlers package without an import cycle.
func abortEnvelope(c *gin.Context, status int, code, msg string, details interface{}) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"error": gin.H{
			"code":    code,
			"message": msg,
			"details": details,
		},
	})
}

// userIDFromCtx extracts the user identifier the same way the handlers do:
// Gin context first (set by upstream auth), then the X-User-ID header, then a
// development-friendly "demo-user" fallback. The fingerprint must bind to the
// identity the handler will act as, or a key could replay across users.
func userIDFromCtx(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
		return h
	}
	return "demo-user"
}
