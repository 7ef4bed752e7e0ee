package models

import (
	"sort"
	"strings"
	"time"
)

type Photo struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename     string    `gorm:"size:255;uniqueIndex:idx_photos_filename;not null" json:"filename"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	Title        string    `gorm:"size:200" json:"title"`
	Description  string    `gorm:"type:text" json:"description"`
	Location     string    `gorm:"size:200" json:"location"`
	Tags         string    `gorm:"size:500" json:"tags"`
	Favorite     bool      `gorm:"default:false;not null" json:"favorite"`
	MimeType     string    `gorm:"size:64;not null" json:"mime_type"`
	FileSize     int64     `gorm:"not null" json:"file_size"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	UploadedAt   time.Time `gorm:"index:idx_photos_user_uploaded,priority:2;not null" json:"uploaded_at"`
	UserID       uint      `gorm:"index:idx_photos_user_uploaded,priority:1;not null" json:"user_id"`
	User         *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// TagList splits the stored tag string.
func (p *Photo) TagList() []string {
	if p.Tags == "" {
		return nil
	}
	return strings.Split(p.Tags, ",")
}

// NormalizeTags lowercases, trims and de-duplicates a comma separated list.
func NormalizeTags(raw string) string {
	seen := make(map[string]struct{})
	var out []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return strings.Join(out, ",")
}
