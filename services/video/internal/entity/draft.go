package entity

import (
	"strings"
	"time"
)

type DraftState string

const (
	DraftComposing  DraftState = "composing"
	DraftPublishing DraftState = "publishing"
)

// MediaDraft is the in-progress composition of a video post. It lives purely
// in memory until publish consumes it into a VideoRecord. MediaRef is set once
// at creation and never changes.
type MediaDraft struct {
	ID        string     `json:"id"`
	OwnerID   string     `json:"owner_id"`
	MediaRef  string     `json:"media_ref"`
	Caption   string     `json:"caption"`
	Hashtags  []string   `json:"hashtags"`
	Mentions  []string   `json:"mentions"`
	Location  string     `json:"location"`
	State     DraftState `json:"state"`
	CreatedAt time.Time  `json:"created_at"`
}

func NewMediaDraft(id, ownerID, mediaRef string) *MediaDraft {
	return &MediaDraft{
		ID:        id,
		OwnerID:   ownerID,
		MediaRef:  mediaRef,
		Hashtags:  []string{},
		Mentions:  []string{},
		State:     DraftComposing,
		CreatedAt: time.Now(),
	}
}

// AddHashtag accepts a tag iff it starts with '#' and is not already present.
// Rejection is a no-op, not an error.
func (d *MediaDraft) AddHashtag(tag string) bool {
	if !strings.HasPrefix(tag, "#") {
		return false
	}
	for _, existing := range d.Hashtags {
		if existing == tag {
			return false
		}
	}
	d.Hashtags = append(d.Hashtags, tag)
	return true
}

// RemoveHashtag removes by exact match, preserving insertion order.
func (d *MediaDraft) RemoveHashtag(tag string) bool {
	for i, existing := range d.Hashtags {
		if existing == tag {
			d.Hashtags = append(d.Hashtags[:i], d.Hashtags[i+1:]...)
			return true
		}
	}
	return false
}

// AddMention accepts a handle iff it starts with '@' and is not already
// present. On accept the handle is appended to the caption as literal text.
func (d *MediaDraft) AddMention(handle string) bool {
	if !strings.HasPrefix(handle, "@") {
		return false
	}
	for _, existing := range d.Mentions {
		if existing == handle {
			return false
		}
	}
	d.Mentions = append(d.Mentions, handle)
	d.Caption = strings.TrimSpace(d.Caption + " " + handle)
	return true
}

// RemoveMention removes by exact match. The caption side effect strips the
// FIRST literal occurrence of the handle text, which can hit an unrelated
// place where the same text appears as ordinary caption content. This is the
// shipped behavior and callers rely on it; do not change without product
// sign-off.
func (d *MediaDraft) RemoveMention(handle string) bool {
	for i, existing := range d.Mentions {
		if existing == handle {
			d.Mentions = append(d.Mentions[:i], d.Mentions[i+1:]...)
			d.Caption = strings.TrimSpace(strings.Replace(d.Caption, handle, "", 1))
			return true
		}
	}
	return false
}

// SuggestMentions matches directory handles against the text after the '@' of
// the partial token, case-insensitively, excluding handles already mentioned.
// Directory order is preserved.
func (d *MediaDraft) SuggestMentions(directory []string, partial string) []string {
	query := strings.ToLower(strings.TrimPrefix(partial, "@"))

	suggestions := []string{}
	for _, handle := range directory {
		candidate := strings.TrimPrefix(handle, "@")
		if query != "" && !strings.Contains(strings.ToLower(candidate), query) {
			continue
		}
		if d.hasMention("@" + candidate) {
			continue
		}
		suggestions = append(suggestions, "@"+candidate)
	}
	return suggestions
}

func (d *MediaDraft) hasMention(handle string) bool {
	for _, existing := range d.Mentions {
		if existing == handle {
			return true
		}
	}
	return false
}
