package models

import "time"

// DownloadLink is a signed, expiring link to a stored file.
type DownloadLink struct {
	FileName  string    `json:"fileName"`
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
