package middleware

import (
	"net/http"
	"strings"

	"github.com/bookpilot/booking-nlu/internal/tenancy"
)

// TenantHeader is the request header naming the tenant whose alias catalog
// applies. Resolution still works without it; only tenant aliases are skipped.
const TenantHeader = "X-Tenant-ID"

// Tenant copies the tenant header into the request context.
func Tenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tenantID := strings.TrimSpace(r.Header.Get(TenantHeader)); tenantID != "" {
			r = r.WithContext(tenancy.WithTenantID(r.Context(), tenantID))
		}
		next.ServeHTTP(w, r)
	})
}
