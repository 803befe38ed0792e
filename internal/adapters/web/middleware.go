package web

import (
	"context"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type requestInfoKey struct{}

// requestInfo travels in the request context from RequestID down to the
// handlers. It is a pointer so that RequireAuth, which runs inside Logger, can
// record who the caller was for the access log line.
type requestInfo struct {
	id     string
	userID string
}

var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9\-]{1,64}$`)

func infoFromContext(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// requestIDFromContext returns the request ID from ctx, or empty string.
func requestIDFromContext(ctx context.Context) string {
	if info := infoFromContext(ctx); info != nil {
		return info.id
	}
	return ""
}

// noteCaller records the authenticated user on the request for logging.
func noteCaller(ctx context.Context, userID string) {
	if info := infoFromContext(ctx); info != nil {
		info.userID = userID
	}
}

// RequestID tags each request with an X-Request-ID. A client-supplied ID is
// kept when it is a short alphanumeric/hyphen string, otherwise a UUID is used.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestInfoKey{}, &requestInfo{id: id})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger writes one access line per request:
// [request-id] user method path status bytes duration.
// The user is "-" for public routes and rejected tokens.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		id, user := "", "-"
		if info := infoFromContext(r.Context()); info != nil {
			id = info.id
			if info.userID != "" {
				user = info.userID
			}
		}
		log.Printf("[%s] %s %s %s %d %dB %s", id, user, r.Method, r.URL.Path, rec.status, rec.bytes, time.Since(start))
	})
}

// Recoverer turns a handler panic into a logged 500 JSON error.
func Recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rv := recover()
			if rv == nil {
				return
			}
			user := "-"
			if info := infoFromContext(r.Context()); info != nil && info.userID != "" {
				user = info.userID
			}
			log.Printf("[%s] panic serving %s %s for %s: %v", requestIDFromContext(r.Context()), r.Method, r.URL.Path, user, rv)
			writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS answers cross-origin requests from the comma-separated allowedOrigins
// (ALLOWED_ORIGINS). With no origins configured no CORS headers are sent.
// Document downloads need Content-Disposition exposed to read the filename.
func CORS(allowedOrigins string) func(http.Handler) http.Handler {
	allowed := originSet(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && allowed[strings.ToLower(origin)] {
				h := w.Header()
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func originSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, o := range strings.Split(s, ",") {
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			set[o] = true
		}
	}
	return set
}

// RequestBodyLimit caps request bodies at maxBytes; decodeJSON answers 413
// when a handler reads past it.
func RequestBodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// responseRecorder captures the status code and body size for the access log.
type responseRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}
