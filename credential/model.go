package credential

import "time"

// UserProfile identifies the operator signed in on the terminal.
//
// UserProfile values are immutable once created; a re-login replaces the whole value.
type UserProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Registered  bool   `json:"registered"`
}

// Credentials is the persisted session. All four fields are written and cleared as a set.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	// ExpiresAt is the absolute expiry in epoch milliseconds.
	ExpiresAt int64
	User      UserProfile
}

// Expired reports whether the credentials are no longer usable at now.
// A token expiring exactly at now is treated as expired.
func (c *Credentials) Expired(now time.Time) bool {
	return c == nil || now.UnixMilli() >= c.ExpiresAt
}

// ExpiresAtTime returns ExpiresAt as a [time.Time].
func (c *Credentials) ExpiresAtTime() time.Time {
	if c == nil {
		return time.Time{}
	}
	return time.UnixMilli(c.ExpiresAt)
}

func (c *Credentials) complete() bool {
	return c != nil &&
		c.AccessToken != "" &&
		c.RefreshToken != "" &&
		c.ExpiresAt > 0 &&
		c.User.ID != ""
}
