package store

import "time"

// Tier is the entitlement level recorded on an account after payment
// verification.
const (
	TierFree       = "free"
	TierPro        = "pro"
	TierEnterprise = "enterprise"
)

type Account struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
	Tier     string `json:"tier"`

	// Pending one-time code. Cleared atomically on successful verification.
	OTPCode      string     `json:"-"`
	OTPExpiresAt *time.Time `json:"-"`

	LastLoginAt        *time.Time `json:"last_login_at"`
	SubscriptionEndsAt *time.Time `json:"subscription_ends_at"`
	LastOrderID        string     `json:"-"`
	LastPaymentID      string     `json:"-"`
	LastPaidAt         *time.Time `json:"-"`

	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"created_at"`
}

// Settings is the per-account preferences sub-document, persisted as JSON.
type Settings struct {
	Theme              string `json:"theme"`
	Language           string `json:"language"`
	EmailNotifications bool   `json:"email_notifications"`
}

func DefaultSettings() Settings {
	return Settings{Theme: "dark", Language: "en", EmailNotifications: true}
}

// SettingsPatch carries a partial settings update; nil fields are left
// unchanged by the merge.
type SettingsPatch struct {
	Theme              *string `json:"theme"`
	Language           *string `json:"language"`
	EmailNotifications *bool   `json:"email_notifications"`
}
