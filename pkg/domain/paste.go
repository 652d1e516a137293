package domain

import (
	"strings"
	"time"
)

// DeletedSentinel overwrites name and content when a paste expires. The
// record itself is never removed: id, creator, version and any short-link
// binding stay resolvable forever.
const DeletedSentinel = "DELETE"

type Paste struct {
	ID            string    `json:"id" cbor:"1,keyasint"`
	Name          string    `json:"name" cbor:"2,keyasint"`
	Description   string    `json:"description" cbor:"3,keyasint"`
	Content       string    `json:"content" cbor:"4,keyasint"`
	Creator       *string   `json:"creator,omitempty" cbor:"5,keyasint,omitempty"`
	Version       int       `json:"version" cbor:"6,keyasint"`
	ExpireSeconds uint32    `json:"expire_seconds" cbor:"7,keyasint"`
	Tags          []string  `json:"tags" cbor:"8,keyasint"`
	CreatedAt     time.Time `json:"created_at" cbor:"9,keyasint"`
}

type CreatePasteParams struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Content       string  `json:"content"`
	ExpireSeconds uint32  `json:"expire_seconds"`
	Tags          string  `json:"tags"`
	ShortCode     *string `json:"short_code,omitempty"`
}

type UpdatePasteParams struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Content     *string `json:"content,omitempty"`
	Tags        *string `json:"tags,omitempty"`
}

func NewPaste(id string, creator *string, expireSeconds uint32, now time.Time, p CreatePasteParams) *Paste {
	return &Paste{
		ID:            id,
		Name:          p.Name,
		Description:   p.Description,
		Content:       p.Content,
		Creator:       creator,
		Version:       1,
		ExpireSeconds: expireSeconds,
		Tags:          SplitTags(p.Tags),
		CreatedAt:     now,
	}
}

// Apply overwrites only the fields present in the update and bumps the
// version counter. Callers must have validated access first.
func (p *Paste) Apply(u UpdatePasteParams) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Content != nil {
		p.Content = *u.Content
	}
	if u.Tags != nil {
		p.Tags = SplitTags(*u.Tags)
	}
	p.Version++
}

// Tombstone clears the content-bearing fields in place of deletion.
func (p *Paste) Tombstone() {
	p.Name = DeletedSentinel
	p.Content = DeletedSentinel
	p.Tags = nil
}

func (p *Paste) Tombstoned() bool {
	return p.Name == DeletedSentinel && p.Content == DeletedSentinel && len(p.Tags) == 0
}

func (p *Paste) ExpiresAt() time.Time {
	return p.CreatedAt.Add(time.Duration(p.ExpireSeconds) * time.Second)
}

// Extension returns the substring after the last dot of the paste name.
// A name without a dot has no extension.
func (p *Paste) Extension() (string, bool) {
	idx := strings.LastIndexByte(p.Name, '.')
	if idx < 0 {
		return "", false
	}
	return p.Name[idx+1:], true
}

func (p *Paste) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SplitTags tokenizes free text on whitespace, dropping empty tokens and
// preserving first-seen order.
func SplitTags(input string) []string {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(fields))
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tags = append(tags, f)
	}
	return tags
}
