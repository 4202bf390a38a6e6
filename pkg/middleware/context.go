package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/buildgrid-io/buildgrid/pkg/composables"
	"github.com/buildgrid-io/buildgrid/pkg/httpapi"
)

const (
	tenantHeader    = "X-Tenant-ID"
	operatorHeader  = "X-User-ID"
	requestIDHeader = "X-Request-ID"
)

// ProvidePool injects the pgx pool into every request context.
func ProvidePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(composables.WithPool(r.Context(), pool)))
		})
	}
}

// ProvideLogger injects a request-scoped logrus entry.
func ProvideLogger(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
			if requestID == "" {
				requestID = uuid.NewString()
			}
			entry := logger.WithFields(logrus.Fields{
				"request_id": requestID,
				"path":       r.URL.Path,
			})
			next.ServeHTTP(w, r.WithContext(composables.WithLogger(r.Context(), entry)))
		})
	}
}

// ProvideIdentity reads the tenant and operator identity established by the
// upstream auth collaborator and threads them through the context. Requests
// without a tenant are rejected.
func ProvideIdentity() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tenantID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(tenantHeader)))
			if err != nil || tenantID == uuid.Nil {
				_ = httpapi.WriteError(w, http.StatusUnauthorized, "TENANT_REQUIRED", "missing or invalid tenant", nil)
				return
			}
			ctx := composables.WithTenantID(r.Context(), tenantID)
			if userID, err := uuid.Parse(strings.TrimSpace(r.Header.Get(operatorHeader))); err == nil && userID != uuid.Nil {
				ctx = composables.WithUserID(ctx, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
