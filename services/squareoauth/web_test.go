package squareoauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/BluCollarBookings/backend-server/lib/myevents"
	"github.com/BluCollarBookings/backend-server/lib/mypublisher"
	"github.com/BluCollarBookings/backend-server/lib/mypubsub"
	"github.com/BluCollarBookings/backend-server/lib/mystore"
	"github.com/BluCollarBookings/backend-server/lib/mytime"
	"github.com/BluCollarBookings/backend-server/lib/myuuid"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareclient"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/squareevents"
	"github.com/BluCollarBookings/backend-server/services/squareoauth/tokenstore"
)

var (
	exampleExpiry = "2099-01-01T00:00:00Z"

	exampleTokenResp = squareclient.TokenResponse{
		AccessToken:  "AT1",
		TokenType:    "bearer",
		ExpiresAt:    exampleExpiry,
		MerchantID:   "M1",
		RefreshToken: "RT1",
	}
)

func TestSquareOauthService(t *testing.T) {

	t.Run("Exchange token via browser callback", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, tokenStore, client, nower, _, publisher := setup(t, ctrl)

		// given
		client.EXPECT().ExchangeAuthorizationCode(gomock.Any(), "code-123").Return(exampleTokenResp, nil)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		publisher.EXPECT().Publish(gomock.Any(), squareevents.TopicName, squareevents.TokenExchangeCompleted{
			CompanyUID: "tenant-1",
			MerchantID: "M1",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/square/oauth/callback?code=code-123&state=tenant-1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusFound, response.Code)
		assert.Equal(t, "blucollarbookingsflutterapp://square-success", response.Header().Get("Location"))

		record, exists, err := tokenStore.Get(c, "tenant-1")
		assert.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, "AT1", record.AccessToken)
		assert.Equal(t, "RT1", record.RefreshToken)
		assert.Equal(t, "M1", record.MerchantID)
		assert.Equal(t, mytime.ExampleTime, record.CreatedAt)
		expiry, _ := time.Parse(time.RFC3339, exampleExpiry)
		assert.Equal(t, expiry, record.ExpiresAt.UTC())
	})

	t.Run("Exchange token without company embeds tokens in redirect", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, client, _, _, _ := setupWithParams(t, ctrl, Params{
			AppRedirectURI:     "blucollarbookingsflutterapp://square-success",
			RequireCompanyUUID: false,
		})

		// given
		client.EXPECT().ExchangeAuthorizationCode(gomock.Any(), "code-123").Return(exampleTokenResp, nil)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/square/oauth/callback?code=code-123", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusFound, response.Code)
		assert.Equal(t, "blucollarbookingsflutterapp://square-success?access_token=AT1&refresh_token=RT1",
			response.Header().Get("Location"))
	})

	t.Run("Callback with missing code", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/square/oauth/callback?state=tenant-1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
		assert.Contains(t, response.Body.String(), "Authorization code and company UUID are required.")
		assert.Contains(t, response.Body.String(), "tenant-1")
	})

	t.Run("Callback with missing company", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/square/oauth/callback?code=code-123", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
		assert.Contains(t, response.Body.String(), "Authorization code and company UUID are required.")
	})

	t.Run("Callback with insufficient scopes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, client, _, _, _ := setup(t, ctrl)

		// given
		client.EXPECT().ExchangeAuthorizationCode(gomock.Any(), "code-123").
			Return(squareclient.TokenResponse{}, squareclient.ErrInsufficientScopes)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/square/oauth/callback?code=code-123&state=tenant-1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)
		assert.Contains(t, response.Body.String(), "INSUFFICIENT_SCOPES")
		assert.Contains(t, response.Body.String(), "re-authorize")
	})

	t.Run("Callback with failing exchange", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, client, _, _, _ := setup(t, ctrl)

		// given
		client.EXPECT().ExchangeAuthorizationCode(gomock.Any(), "code-123").
			Return(squareclient.TokenResponse{}, assert.AnError)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/square/oauth/callback?code=code-123&state=tenant-1", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusInternalServerError, response.Code)
		assert.Contains(t, response.Body.String(), "Failed to exchange authorization code.")
	})

	t.Run("Exchange token via api", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, tokenStore, client, nower, _, publisher := setup(t, ctrl)

		// given
		client.EXPECT().ExchangeAuthorizationCode(gomock.Any(), "code-123").Return(exampleTokenResp, nil)
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		publisher.EXPECT().Publish(gomock.Any(), squareevents.TopicName, squareevents.TokenExchangeCompleted{
			CompanyUID: "tenant-2",
			MerchantID: "M1",
		}).Return(nil)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/square/oauth/callback",
			strings.NewReader(`{"authorization_code":"code-123","companyUUID":"tenant-2"}`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, `"access_token": "AT1"`)
		assert.Contains(t, got, `"refresh_token": "RT1"`)
		assert.Contains(t, got, `"expires_at": "2099-01-01T00:00:00Z"`)

		_, exists, err := tokenStore.Get(c, "tenant-2")
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Exchange via api with insufficient scopes", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, client, _, _, _ := setup(t, ctrl)

		// given
		client.EXPECT().ExchangeAuthorizationCode(gomock.Any(), "code-123").
			Return(squareclient.TokenResponse{}, squareclient.ErrInsufficientScopes)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/square/oauth/callback",
			strings.NewReader(`{"authorization_code":"code-123","companyUUID":"tenant-1"}`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusForbidden, response.Code)
		assert.Contains(t, response.Body.String(), "INSUFFICIENT_SCOPES")
	})

	t.Run("Exchange via api with missing code", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/square/oauth/callback",
			strings.NewReader(`{"companyUUID":"tenant-1"}`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
		assert.Contains(t, response.Body.String(), "Authorization code is required.")
	})

	t.Run("Exchange via api with missing company", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/square/oauth/callback",
			strings.NewReader(`{"authorization_code":"code-123"}`))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusBadRequest, response.Code)
		assert.Contains(t, response.Body.String(), "Company UUID is required.")
	})

	t.Run("Test page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodGet, "/api/square/test", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Equal(t, "Square OAuth integration is working!", response.Body.String())
	})

	t.Run("Process event delivery", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/square/event",
			strings.NewReader(composePushDelivery(t, squareevents.TokenRefreshCompleted{
				UID:        "uid-1",
				CompanyUID: "tenant-1",
			})))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		assert.Contains(t, response.Body.String(), "Successfully processed event")
	})

	t.Run("Unknown event delivery", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		_, router, _, _, _, _, _ := setup(t, ctrl)

		envelope, err := json.Marshal(myevents.EventEnvelope{
			UID:           "evt-99",
			Topic:         squareevents.TopicName,
			EventTypeName: "squareoauth.somethingElse",
		})
		assert.NoError(t, err)
		body, err := json.Marshal(myevents.PushRequest{
			Message: myevents.PushMessage{Data: envelope},
		})
		assert.NoError(t, err)

		// when
		request, err := http.NewRequest(http.MethodPost, "/api/square/event", strings.NewReader(string(body)))
		assert.NoError(t, err)
		request.Header.Set("Content-Type", "application/json")
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusNotImplemented, response.Code)
	})

	t.Run("Admin page", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		// setup
		c, router, tokenStore, _, nower, _, _ := setup(t, ctrl)

		// given
		nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()
		expiry, _ := time.Parse(time.RFC3339, exampleExpiry)
		err := tokenStore.Upsert(c, "tenant-1", tokenstore.TokenPatch{
			AccessToken:  "AT1",
			RefreshToken: "RT1",
			ExpiresAt:    &expiry,
			MerchantID:   "M1",
		})
		assert.NoError(t, err)

		// when
		request, err := http.NewRequest(http.MethodGet, "/square/admin", nil)
		assert.NoError(t, err)
		response := httptest.NewRecorder()
		router.ServeHTTP(response, request)

		// then
		assert.Equal(t, http.StatusOK, response.Code)
		got := response.Body.String()
		assert.Contains(t, got, "tenant-1")
		assert.Contains(t, got, "M1")
		assert.Contains(t, got, "connected")
	})
}

func composePushDelivery(t *testing.T, event myevents.Event) string {
	payload, err := json.Marshal(event)
	assert.NoError(t, err)

	envelope, err := json.Marshal(myevents.EventEnvelope{
		UID:           "evt-1",
		Topic:         squareevents.TopicName,
		EventTypeName: event.GetEventTypeName(),
		EventPayload:  string(payload),
	})
	assert.NoError(t, err)

	body, err := json.Marshal(myevents.PushRequest{
		Message: myevents.PushMessage{Data: envelope},
	})
	assert.NoError(t, err)

	return string(body)
}

func setup(t *testing.T, ctrl *gomock.Controller) (context.Context, *mux.Router, tokenstore.TokenStore, *squareclient.MockClient, *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	return setupWithParams(t, ctrl, Params{
		AppRedirectURI:     "blucollarbookingsflutterapp://square-success",
		RequireCompanyUUID: true,
	})
}

func setupWithParams(t *testing.T, ctrl *gomock.Controller, params Params) (context.Context, *mux.Router, tokenstore.TokenStore, *squareclient.MockClient, *mytime.MockNower, *myuuid.MockUUIDer, *mypublisher.MockPublisher) {
	c := context.TODO()
	storer, _, err := mystore.NewInMemoryStore[tokenstore.TokenRecord](c)
	assert.NoError(t, err)
	nower := mytime.NewMockNower(ctrl)
	uuider := myuuid.NewMockUUIDer(ctrl)
	client := squareclient.NewMockClient(ctrl)
	publisher := mypublisher.NewMockPublisher(ctrl)
	subscriber := mypubsub.NewMockPubSub(ctrl)
	tokenStore := tokenstore.New(storer, nower)

	sut := NewService(params, tokenStore, client, nower, uuider, publisher, subscriber)
	router := mux.NewRouter()

	// These are called by the following call to RegisterEndpoints
	publisher.EXPECT().CreateTopic(c, squareevents.TopicName).Return(nil)
	subscriber.EXPECT().CreateTopic(c, squareevents.TopicName).Return(nil)
	subscriber.EXPECT().Subscribe(c, squareevents.TopicName, "http://localhost:8080/api/square/event").Return(nil)

	err = sut.RegisterEndpoints(c, router)
	assert.NoError(t, err)

	return c, router, tokenStore, client, nower, uuider, publisher
}
