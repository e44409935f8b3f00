// Package model holds the gallery backend's data transfer objects and the
// authorization predicates derived from them.
package model

import (
	"strings"
	"time"
)

// User is an account as reported by the backend.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Role        Role   `json:"role"`
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Settings are the site-wide settings relevant to the UI.
type Settings struct {
	SiteTitle         string
	AllowRegistration bool
}

// SiteInfo is the payload of the site info endpoint.
type SiteInfo struct {
	User     *User          `json:"user"`
	Settings map[string]any `json:"settings"`
}

type Collection struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type Album struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	CollectionID   string `json:"collection_id"`
	CollectionName string `json:"collection_name,omitempty"`
}

// AlbumWithImages is the album detail payload.
type AlbumWithImages struct {
	Album
	Images []Image `json:"images"`
}

// Privacy levels accepted by the upload endpoint.
const (
	PrivacyPublic   = "public"
	PrivacyUnlisted = "unlisted"
	PrivacyPrivate  = "private"
)

// ValidPrivacy reports whether p is one of the known privacy levels.
func ValidPrivacy(p string) bool {
	switch p {
	case PrivacyPublic, PrivacyUnlisted, PrivacyPrivate:
		return true
	}
	return false
}

type Image struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	MimeType      string `json:"mime_type,omitempty"`
	SmallURL      string `json:"small_url,omitempty"`
	MediumURL     string `json:"medium_url,omitempty"`
	LargeURL      string `json:"large_url,omitempty"`
	Title         string `json:"title,omitempty"`
	Caption       string `json:"caption,omitempty"`
	AltText       string `json:"alt_text,omitempty"`
	License       string `json:"license,omitempty"`
	Attribution   string `json:"attribution,omitempty"`
	Privacy       string `json:"privacy,omitempty"`
	LikeCount     int    `json:"like_count"`
	UserLiked     bool   `json:"user_liked"`
	ViewCount     int    `json:"view_count"`
	DownloadCount int    `json:"download_count"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// ThumbnailName returns the stored name best suited for a grid thumbnail.
func (i *Image) ThumbnailName() string {
	if i.SmallURL != "" {
		return i.SmallURL
	}
	return i.URL
}

// Alt returns the alternative text for the image.
func (i *Image) Alt() string {
	switch {
	case i.AltText != "":
		return i.AltText
	case i.Title != "":
		return i.Title
	}
	return "Image"
}

type Comment struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id,omitempty"`
	ImageID   string `json:"image_id,omitempty"`
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Author returns the comment's author name.
func (c *Comment) Author() string {
	if c.Username == "" {
		return "Anonymous"
	}
	return c.Username
}

// Home is the payload of the home endpoint.
type Home struct {
	Images []Image `json:"images"`
	Albums []Album `json:"albums"`
}

// LikeResult is the server's answer to a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// NewImage describes an upload. File contents travel separately.
type NewImage struct {
	Filename    string
	Title       string
	Caption     string
	AltText     string
	License     string
	Attribution string
	Privacy     string
	Timestamp   time.Time
	AlbumIDs    []string
}

type NewUser struct {
	Username    string  `json:"username"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	DisplayName *string `json:"display_name"`
	Role        Role    `json:"role"`
}

// UserUpdate changes an existing user. Nil fields are left untouched.
type UserUpdate struct {
	Password    *string `json:"password"`
	DisplayName *string `json:"display_name"`
	Role        Role    `json:"role,omitempty"`
}

// SettingUpdate sets a single site setting.
type SettingUpdate struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FormatDate renders a backend timestamp as a calendar date. Unparseable
// values are returned unchanged.
func FormatDate(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return ts
}
