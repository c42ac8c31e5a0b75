package domain

import (
	"time"
)

// Client is a registered OIDC relying party. An empty RedirectURIs list means
// the client may use any redirect URI.
type Client struct {
	ID           string   `json:"client_id" bson:"_id"`
	Secret       string   `json:"client_secret" bson:"client_secret"`
	RedirectURIs []string `json:"redirect_uris" bson:"redirect_uris"`
}

// AllowsRedirectURI reports whether the client may be redirected to uri
func (c *Client) AllowsRedirectURI(uri string) bool {
	if len(c.RedirectURIs) == 0 {
		return true
	}
	for _, u := range c.RedirectURIs {
		if u == uri {
			return true
		}
	}
	return false
}

// ShortURL maps an opaque key to a full deep-link URL
type ShortURL struct {
	Key       string    `json:"key" bson:"_id"`
	URL       string    `json:"url" bson:"url"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// IsExpired checks if the short URL has expired
func (u *ShortURL) IsExpired(now time.Time) bool {
	return !u.ExpiresAt.IsZero() && !now.Before(u.ExpiresAt)
}
