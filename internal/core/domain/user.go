package domain

import "time"

// TimestampLayout is the second-precision layout used for persisted timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// UnsetTimestamp is stored in place of "updated" until the first mutation.
const UnsetTimestamp = "default"

// User is a directory entry as held by the store.
type User struct {
	ID       string
	FullName string
	Username string
	Email    string
	Password string
	Role     string
	Image    string
	Created  time.Time
	// Updated is the zero time until the record is mutated.
	Updated time.Time

	// RawCreated and RawUpdated keep stored timestamps that are not in
	// TimestampLayout. Profiles show them as stored.
	RawCreated string
	RawUpdated string
}

// Profile is the caller-facing view of a User. It never carries the password.
type Profile struct {
	ID       string `json:"_id"`
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Image    string `json:"image"`
	Created  string `json:"created"`
	Updated  string `json:"updated"`
}

// Profile returns the password-free view of u.
func (u *User) Profile() Profile {
	return Profile{
		ID:       u.ID,
		FullName: u.FullName,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
		Image:    u.Image,
		Created:  displayTimestamp(u.Created, u.RawCreated),
		Updated:  displayTimestamp(u.Updated, u.RawUpdated),
	}
}

// FormatTimestamp renders t with TimestampLayout, or UnsetTimestamp for the zero time.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return UnsetTimestamp
	}
	return t.Format(TimestampLayout)
}

func displayTimestamp(t time.Time, raw string) string {
	if t.IsZero() && raw != "" {
		return raw
	}
	return FormatTimestamp(t)
}

// ParseTimestamp is the inverse of FormatTimestamp. Empty and UnsetTimestamp
// values yield the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" || s == UnsetTimestamp {
		return time.Time{}, nil
	}
	return time.Parse(TimestampLayout, s)
}
