package squareoauth

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/BluCollarBookings/backend-server/lib/mycontext"
	"github.com/BluCollarBookings/backend-server/lib/mylog"
)

// tokenRefreshMiddleware attaches the company's Square access token to the
// request context, refreshing it first when it has expired. Any failure
// degrades to passing the request through without a token: downstream
// handlers decide how to deal with an unauthorized Square call.
func (s *webService) tokenRefreshMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := mycontext.ContextFromHTTPRequest(r)

			companyUID := s.extractCompanyUID(r)
			if companyUID == "" {
				next.ServeHTTP(w, r)
				return
			}

			record, exists, err := s.service.tokenStore.Get(c, companyUID)
			if err != nil {
				s.logger.Log(c, companyUID, mylog.SeverityError, "Error fetching token-record for company '%s': %s", companyUID, err)
				next.ServeHTTP(w, r)
				return
			}
			if !exists {
				next.ServeHTTP(w, r)
				return
			}

			if record.Expired(s.service.nower.Now()) {
				record, err = s.service.refreshTokenRecord(c, companyUID, record)
				if err != nil {
					s.logger.Log(c, companyUID, mylog.SeverityError, "Error refreshing token for company '%s': %s", companyUID, err)
					next.ServeHTTP(w, r)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(mycontext.WithAccessToken(r.Context(), record.AccessToken)))
		})
	}
}

// extractCompanyUID looks for the company UUID in the query string first and
// falls back to a JSON request body. The body is restored so the actual
// handler can still read it.
func (s *webService) extractCompanyUID(r *http.Request) string {
	companyUID := r.URL.Query().Get("companyUUID")
	if companyUID != "" {
		return companyUID
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") || r.Body == nil {
		return ""
	}

	body, err := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	payload := struct {
		CompanyUUID string `json:"companyUUID"`
	}{}
	err = json.Unmarshal(body, &payload)
	if err != nil {
		return ""
	}

	return payload.CompanyUUID
}
