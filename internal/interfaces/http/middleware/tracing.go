package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Constants for trace attribute validation.
const (
	// MaxRequestIDLength caps request IDs to keep oversized headers out of spans.
	MaxRequestIDLength = 128
	// MaxPartnerIDLength is the maximum length for partner IDs taken from headers.
	MaxPartnerIDLength = 64
)

// uuidRegex validates UUID format for identifiers taken from headers.
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName is the name of the service for trace identification.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "fleetops-backend",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig returns OpenTelemetry tracing middleware with custom
// configuration. It wraps otelgin and adds custom span attributes:
//   - request_id: from X-Request-ID header or generated
//   - actor_id: from JWT claims
//   - partner_id: from JWT claims
//
// The span name follows the format "HTTP METHOD route_pattern". Error
// responses (4xx/5xx) are marked with codes.Error status.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	baseMiddleware := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		baseMiddleware(c)

		// Enrich the span otelgin created
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
	}
}

// enrichSpanWithAttributes adds custom attributes to the span from the request context.
func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := getTraceRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if actorID := getTraceActorID(c); actorID != "" {
		span.SetAttributes(attribute.String("actor_id", actorID))
	}
	if partnerID := getTracePartnerID(c); partnerID != "" {
		span.SetAttributes(attribute.String("partner_id", partnerID))
	}
}

// getTraceRequestID retrieves the request ID from the gin context or header.
// Header values are truncated to keep span attributes bounded.
func getTraceRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok && id != "" {
			return id
		}
	}
	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		return headerID[:MaxRequestIDLength]
	}
	return headerID
}

// getTraceActorID retrieves the actor ID from JWT claims.
func getTraceActorID(c *gin.Context) string {
	if actorID, exists := c.Get(JWTActorIDKey); exists {
		if id, ok := actorID.(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// getTracePartnerID retrieves the partner ID from JWT claims. Claims are the
// only trusted source; header values never reach trace attributes unless
// they are well-formed UUIDs.
func getTracePartnerID(c *gin.Context) string {
	if partnerID, exists := c.Get(JWTPartnerIDKey); exists {
		if id, ok := partnerID.(string); ok && id != "" {
			return id
		}
	}
	headerPartnerID := c.GetHeader("X-Partner-ID")
	if headerPartnerID != "" && isValidPartnerID(headerPartnerID) {
		return headerPartnerID
	}
	return ""
}

// isValidPartnerID validates that a partner ID is a proper UUID. This keeps
// injected header values out of trace attributes.
func isValidPartnerID(partnerID string) bool {
	if len(partnerID) > MaxPartnerIDLength {
		return false
	}
	return uuidRegex.MatchString(partnerID)
}

// SpanErrorMarker returns a middleware that marks spans with error status
// for HTTP error responses (4xx/5xx).
// This should be placed AFTER the Tracing middleware in the middleware chain.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode >= http.StatusBadRequest {
			var errorMessage string
			switch {
			case statusCode >= http.StatusInternalServerError:
				errorMessage = "Internal Server Error"
			case statusCode == http.StatusUnauthorized:
				errorMessage = "Unauthorized"
			case statusCode == http.StatusForbidden:
				errorMessage = "Forbidden"
			case statusCode == http.StatusNotFound:
				errorMessage = "Not Found"
			default:
				errorMessage = "Client Error"
			}

			span.SetStatus(codes.Error, errorMessage)
			span.SetAttributes(attribute.Int("http.status_code", statusCode))
		}
	}
}

// TracingAttributeInjector returns a middleware that injects custom attributes
// into the current span after authentication middleware has run.
// This should be placed AFTER both Tracing and JWT middleware in the chain.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
		c.Next()
	}
}
