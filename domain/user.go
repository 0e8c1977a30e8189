package domain

import "time"

type ColorTheme string

const (
	ColorLight  ColorTheme = "light"
	ColorDark   ColorTheme = "dark"
	ColorSystem ColorTheme = "system"
)

type FontTheme string

const (
	FontSans  FontTheme = "sans"
	FontSerif FontTheme = "serif"
	FontMono  FontTheme = "mono"
)

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	ColorTheme   ColorTheme `json:"color_theme"`
	FontTheme    FontTheme  `json:"font_theme"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
// Accounts created through OTP or Google have none until they set one.
func (u User) HasPassword() bool {
	return u.PasswordHash != ""
}

type Preferences struct {
	ColorTheme ColorTheme `json:"color_theme"`
	FontTheme  FontTheme  `json:"font_theme"`
}

func DefaultPreferences() Preferences {
	return Preferences{ColorTheme: ColorLight, FontTheme: FontSans}
}

func (p Preferences) Validate() error {
	switch p.ColorTheme {
	case ColorLight, ColorDark, ColorSystem:
	default:
		return &ValidationError{Field: "color_theme", Message: "must be light, dark or system"}
	}
	switch p.FontTheme {
	case FontSans, FontSerif, FontMono:
	default:
		return &ValidationError{Field: "font_theme", Message: "must be sans, serif or mono"}
	}
	return nil
}

// Session is an issued sign-in. Token is only populated right after
// issuance; storage keeps a hash.
type Session struct {
	Token     string    `json:"token,omitempty"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
