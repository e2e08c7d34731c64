package squareoauth

import "time"

// Params controls the consolidated relay behavior. With RequireCompanyUUID
// set, every exchange must carry a company UUID and tokens are persisted per
// company. Without it the relay is single-tenant: nothing is persisted and
// the tokens travel back to the app embedded in the deep link.
type Params struct {
	AppRedirectURI     string
	RequireCompanyUUID bool
}

type callbackRequest struct {
	Code string `form:"code"`
	// The state parameter ties the callback back to a company UUID.
	State string `form:"state"`
}

type exchangeRequest struct {
	AuthorizationCode string `json:"authorization_code"`
	CompanyUUID       string `json:"companyUUID"`
}

type tokenResponseBody struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at,omitempty"`
}

type CompanyStatus struct {
	CompanyUID string
	MerchantID string
	Connected  bool
	ValidUntil *time.Time
}
