package domain

import (
	"regexp"
	"strings"
	"time"
)

// EmailCapture is one (email, variant) registration awaiting or holding verification.
type EmailCapture struct {
	ID                CaptureID  `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email             string     `gorm:"type:text;not null;uniqueIndex:ux_email_capture_email_variant,priority:1" db:"email" json:"email"`
	Variant           string     `gorm:"type:text;not null;uniqueIndex:ux_email_capture_email_variant,priority:2;index" db:"variant" json:"variant"`
	Section           string     `gorm:"type:text;not null" db:"section" json:"section"`
	VerificationToken string     `gorm:"type:text;not null;uniqueIndex:ux_email_capture_token" db:"verification_token" json:"-"`
	Verified          bool       `gorm:"not null;default:false;index" db:"verified" json:"verified"`
	CreatedAt         time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
	VerifiedAt        *time.Time `db:"verified_at" json:"verifiedAt,omitempty"`
	CTAText           string     `gorm:"type:text" db:"cta_text" json:"ctaText"`
	EmailDomain       string     `gorm:"type:text" db:"email_domain" json:"emailDomain"`
}

func (EmailCapture) TableName() string { return "email_verification" }

// Expired reports whether an unverified capture is older than ttl at now.
func (c *EmailCapture) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) > ttl
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidEmail(email string) bool { return emailPattern.MatchString(email) }

// EmailDomain returns everything after the first '@'.
func EmailDomain(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}

// CaptureStats aggregates stored captures.
type CaptureStats struct {
	Total    int64
	Verified int64
	Variants map[string]int64
}
