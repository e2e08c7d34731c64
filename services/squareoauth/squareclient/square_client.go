package squareclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	tokenPath = "/oauth2/token"
)

// ErrInsufficientScopes is returned when Square rejects the exchange because
// the authorization did not grant all requested permissions.
var ErrInsufficientScopes = errors.New("INSUFFICIENT_SCOPES")

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresAt    string `json:"expires_at"`
	MerchantID   string `json:"merchant_id"`
	RefreshToken string `json:"refresh_token"`
}

//go:generate mockgen -source=square_client.go -package squareclient -destination square_client_mock.go Client
type Client interface {
	ExchangeAuthorizationCode(c context.Context, code string) (TokenResponse, error)
	RefreshAccessToken(c context.Context, refreshToken string) (TokenResponse, error)
}

type squareClient struct {
	config Config
	sender httpSender
}

func New(config Config) *squareClient {
	return &squareClient{
		config: config,
		sender: newJSONHTTPClient(),
	}
}

type exchangeTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code,omitempty"`
	GrantType    string `json:"grant_type"`
	RedirectURI  string `json:"redirect_uri,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

func (sc squareClient) ExchangeAuthorizationCode(c context.Context, code string) (TokenResponse, error) {
	return sc.requestToken(c, exchangeTokenRequest{
		ClientID:     sc.config.ClientID,
		ClientSecret: sc.config.ClientSecret,
		Code:         code,
		GrantType:    "authorization_code",
		RedirectURI:  sc.config.RedirectURI,
	})
}

func (sc squareClient) RefreshAccessToken(c context.Context, refreshToken string) (TokenResponse, error) {
	return sc.requestToken(c, exchangeTokenRequest{
		ClientID:     sc.config.ClientID,
		ClientSecret: sc.config.ClientSecret,
		GrantType:    "refresh_token",
		RefreshToken: refreshToken,
	})
}

func (sc squareClient) requestToken(c context.Context, req exchangeTokenRequest) (TokenResponse, error) {
	requestBody, err := json.Marshal(req)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("error marshalling token-request: %s", err)
	}

	httpRespCode, respBody, err := sc.sender.Send(c, http.MethodPost, sc.config.BaseURL+tokenPath, requestBody)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("error getting token: %s", err)
	}

	if httpRespCode != http.StatusOK {
		return TokenResponse{}, parseError(httpRespCode, respBody)
	}

	resp := TokenResponse{}
	err = json.Unmarshal(respBody, &resp)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("error parsing token-response: %s", err)
	}

	return resp, nil
}

type errorResponse struct {
	Errors []apiError `json:"errors"`
}

type apiError struct {
	Category string `json:"category"`
	Code     string `json:"code"`
	Detail   string `json:"detail"`
}

func parseError(httpRespCode int, respBody []byte) error {
	resp := errorResponse{}
	err := json.Unmarshal(respBody, &resp)
	if err == nil {
		for _, apiErr := range resp.Errors {
			if apiErr.Code == "INSUFFICIENT_SCOPES" {
				return fmt.Errorf("%w: %s", ErrInsufficientScopes, apiErr.Detail)
			}
		}
	}

	return fmt.Errorf("error getting token: status %d: %s", httpRespCode, respBody)
}
