package tokenstore

import "time"

// TokenRecord is the single per-company document holding the Square token
// triple. A new exchange or refresh overwrites it in place.
type TokenRecord struct {
	CompanyUID   string
	AccessToken  string `datastore:",noindex"`
	RefreshToken string `datastore:",noindex"`
	ExpiresAt    *time.Time
	MerchantID   string
	CreatedAt    time.Time
	LastModified *time.Time
}

// TokenPatch carries the fields written by an exchange or refresh. The token
// triple is always written together; MerchantID only when Square returned one.
type TokenPatch struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    *time.Time
	MerchantID   string
}

// Expired reports whether the access token is invalid at the given moment.
// Both sides are compared in UTC.
func (r TokenRecord) Expired(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}

	return r.ExpiresAt.UTC().Before(now.UTC())
}
