package squareoauth

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/BluCollarBookings/backend-server/lib/mycontext"
	"github.com/BluCollarBookings/backend-server/lib/myerrors"
	"github.com/BluCollarBookings/backend-server/lib/myhttp"
	"github.com/BluCollarBookings/backend-server/lib/mylog"
	"github.com/BluCollarBookings/backend-server/lib/mypublisher"
	"github.com/BluCollarBookings/backend-server/lib/mypubsub"
	"github.com/BluCollarBookings/backend-server/lib/mytime"
	"github.com/BluCollarBookings/backend-server/lib/myuuid"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareclient"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareevents"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/tokenstore"
)

const (
	insufficientScopesMessage = "The authorization did not grant all required permissions. Please re-authorize the application with the full set of requested scopes."
)

type webService struct {
	service      *service
	logger       mylog.Logger
	queryDecoder *formcodec.Decoder
}

func NewService(params Params, tokenStore tokenstore.TokenStore, squareClient squareclient.Client, nower mytime.Nower, uuider myuuid.UUIDer, pub mypublisher.Publisher, subscriber mypubsub.PubSub) *webService {
	return &webService{
		service:      newService(params, tokenStore, squareClient, nower, uuider, pub, subscriber),
		logger:       mylog.New("squareoauth"),
		queryDecoder: formcodec.NewDecoder(),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	squareRouter := router.PathPrefix("/api/square").Subrouter()
	squareRouter.Use(s.tokenRefreshMiddleware())
	squareRouter.HandleFunc("/oauth/callback", s.oauthCallbackPage()).Methods("GET")
	squareRouter.HandleFunc("/oauth/callback", s.oauthCallbackAPI()).Methods("POST")
	squareRouter.HandleFunc("/test", s.testPage()).Methods("GET")
	squareRouter.HandleFunc("/event", s.handleEventEnvelope()).Methods("POST")

	router.HandleFunc("/square/admin", s.adminPage()).Methods("GET")

	err := s.service.CreateTopics(c)
	if err != nil {
		return err
	}

	err = s.service.Subscribe(c)
	if err != nil {
		return err
	}

	return nil
}

//go:embed templates
var templateFolder embed.FS
var (
	adminPageTemplate *template.Template
)

func init() {
	adminPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/admin.html"))
}

func (s *webService) oauthCallbackPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := callbackRequest{}
		err := s.queryDecoder.Decode(&req, r.URL.Query())
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(err))
			return
		}

		companyUID := req.State
		if req.Code == "" || (s.service.params.RequireCompanyUUID && companyUID == "") {
			errorWriter.Write(c, w, http.StatusBadRequest, myhttp.ErrorResponse{
				Error:        "Authorization code and company UUID are required.",
				ReceivedUUID: companyUID,
			})
			return
		}

		record, err := s.service.exchangeToken(c, companyUID, req.Code)
		if err != nil {
			s.writeExchangeError(c, w, errorWriter, companyUID, err)
			return
		}

		http.Redirect(w, r, s.composeAppRedirectURL(companyUID, record), http.StatusFound)
	}
}

func (s *webService) oauthCallbackAPI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		req := exchangeRequest{}
		err := json.NewDecoder(r.Body).Decode(&req)
		if err != nil {
			errorWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing request body: %s", err)))
			return
		}

		if req.AuthorizationCode == "" {
			errorWriter.Write(c, w, http.StatusBadRequest, myhttp.ErrorResponse{
				Error: "Authorization code is required.",
			})
			return
		}

		if s.service.params.RequireCompanyUUID && req.CompanyUUID == "" {
			errorWriter.Write(c, w, http.StatusBadRequest, myhttp.ErrorResponse{
				Error: "Company UUID is required.",
			})
			return
		}

		record, err := s.service.exchangeToken(c, req.CompanyUUID, req.AuthorizationCode)
		if err != nil {
			s.writeExchangeError(c, w, errorWriter, req.CompanyUUID, err)
			return
		}

		expiresAt := ""
		if record.ExpiresAt != nil {
			expiresAt = record.ExpiresAt.UTC().Format(time.RFC3339)
		}

		errorWriter.Write(c, w, http.StatusOK, tokenResponseBody{
			AccessToken:  record.AccessToken,
			RefreshToken: record.RefreshToken,
			ExpiresAt:    expiresAt,
		})
	}
}

func (s *webService) writeExchangeError(c context.Context, w http.ResponseWriter, errorWriter myhttp.ResponseWriter, companyUID string, err error) {
	s.logger.Log(c, companyUID, mylog.SeverityError, "Error exchanging token for company '%s': %s", companyUID, err)

	if errors.Is(err, squareclient.ErrInsufficientScopes) {
		errorWriter.Write(c, w, http.StatusForbidden, myhttp.ErrorResponse{
			Error:   "INSUFFICIENT_SCOPES",
			Message: insufficientScopesMessage,
		})
		return
	}

	errorWriter.Write(c, w, http.StatusInternalServerError, myhttp.ErrorResponse{
		Error: "Failed to exchange authorization code.",
	})
}

// composeAppRedirectURL hands control back to the mobile app. Without a
// company UUID there is no stored record, so the tokens ride along in the
// deep link instead.
func (s *webService) composeAppRedirectURL(companyUID string, record tokenstore.TokenRecord) string {
	redirectURL := s.service.params.AppRedirectURI
	if companyUID != "" {
		return redirectURL
	}

	u, err := url.Parse(redirectURL)
	if err != nil {
		return redirectURL
	}

	q := u.Query()
	q.Set("access_token", record.AccessToken)
	q.Set("refresh_token", record.RefreshToken)
	u.RawQuery = q.Encode()

	return u.String()
}

func (s *webService) testPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "Square OAuth integration is working!")
	}
}

func (s *webService) handleEventEnvelope() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		err := squareevents.DispatchEvent(c, r.Body, s.service)
		if err != nil {
			errorWriter.WriteError(c, w, 3, err)
			return
		}

		errorWriter.Write(c, w, http.StatusOK, myhttp.SuccessResponse{
			Message: "Successfully processed event",
		})
	}
}

func (s *webService) adminPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		errorWriter := myhttp.NewWriter(s.logger)

		statuses, err := s.service.getOauthStatus(c)
		if err != nil {
			errorWriter.WriteError(c, w, 1, err)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = adminPageTemplate.Execute(w, statuses)
		if err != nil {
			errorWriter.WriteError(c, w, 2, myerrors.NewInternalError(err))
			return
		}
	}
}
