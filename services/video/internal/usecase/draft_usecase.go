package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"clipway/pkg/logger"
	"clipway/services/video/internal/entity"
	"clipway/services/video/internal/repo/persistent"

	"github.com/google/uuid"
)

var (
	ErrDraftNotFound   = errors.New("draft not found")
	ErrPublishInFlight = errors.New("publish already in progress for this draft")
)

// Geocoder reduces device coordinates to a human-readable place string.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) string
}

type DraftUseCase interface {
	CreateDraft(ownerID, mediaRef string) (*entity.MediaDraft, error)
	GetDraft(draftID, ownerID string) (*entity.MediaDraft, error)
	DiscardDraft(draftID, ownerID string) error
	AddHashtag(draftID, ownerID, tag string) (*entity.MediaDraft, error)
	RemoveHashtag(draftID, ownerID, tag string) (*entity.MediaDraft, error)
	AddMention(draftID, ownerID, handle string) (*entity.MediaDraft, error)
	RemoveMention(draftID, ownerID, handle string) (*entity.MediaDraft, error)
	UpdateCaption(draftID, ownerID, caption string) (*entity.MediaDraft, error)
	MentionSuggestions(ctx context.Context, draftID, ownerID, partial string) ([]string, error)
	ResolveLocation(draftID, ownerID string, lat, lon float64) error

	// BeginPublish transitions the draft to publishing and hands out a
	// snapshot for the pipeline. FinishPublish either consumes the draft
	// (success) or returns it to composing (failure).
	BeginPublish(draftID, ownerID string) (*entity.MediaDraft, error)
	FinishPublish(draftID string, published bool)
}

type draftUseCase struct {
	mu          sync.RWMutex
	drafts      map[string]*entity.MediaDraft
	profileRepo persistent.ProfileRepository
	geocoder    Geocoder
	logger      *logger.Logger
}

func NewDraftUseCase(profileRepo persistent.ProfileRepository, geocoder Geocoder, logger *logger.Logger) DraftUseCase {
	return &draftUseCase{
		drafts:      make(map[string]*entity.MediaDraft),
		profileRepo: profileRepo,
		geocoder:    geocoder,
		logger:      logger,
	}
}

func (uc *draftUseCase) CreateDraft(ownerID, mediaRef string) (*entity.MediaDraft, error) {
	if mediaRef == "" {
		return nil, fmt.Errorf("media reference is required")
	}

	draft := entity.NewMediaDraft(uuid.New().String(), ownerID, mediaRef)

	uc.mu.Lock()
	uc.drafts[draft.ID] = draft
	uc.mu.Unlock()

	return snapshot(draft), nil
}

func (uc *draftUseCase) GetDraft(draftID, ownerID string) (*entity.MediaDraft, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	draft, err := uc.lookup(draftID, ownerID)
	if err != nil {
		return nil, err
	}
	return snapshot(draft), nil
}

func (uc *draftUseCase) DiscardDraft(draftID, ownerID string) error {
	uc.mu.Lock()
	draft, err := uc.lookup(draftID, ownerID)
	if err != nil {
		uc.mu.Unlock()
		return err
	}
	if draft.State == entity.DraftPublishing {
		uc.mu.Unlock()
		return ErrPublishInFlight
	}
	delete(uc.drafts, draftID)
	uc.mu.Unlock()

	uc.removeMedia(draft.MediaRef)
	return nil
}

func (uc *draftUseCase) AddHashtag(draftID, ownerID, tag string) (*entity.MediaDraft, error) {
	return uc.mutate(draftID, ownerID, func(d *entity.MediaDraft) {
		d.AddHashtag(tag)
	})
}

func (uc *draftUseCase) RemoveHashtag(draftID, ownerID, tag string) (*entity.MediaDraft, error) {
	return uc.mutate(draftID, ownerID, func(d *entity.MediaDraft) {
		d.RemoveHashtag(tag)
	})
}

func (uc *draftUseCase) AddMention(draftID, ownerID, handle string) (*entity.MediaDraft, error) {
	return uc.mutate(draftID, ownerID, func(d *entity.MediaDraft) {
		d.AddMention(handle)
	})
}

func (uc *draftUseCase) RemoveMention(draftID, ownerID, handle string) (*entity.MediaDraft, error) {
	return uc.mutate(draftID, ownerID, func(d *entity.MediaDraft) {
		d.RemoveMention(handle)
	})
}

func (uc *draftUseCase) UpdateCaption(draftID, ownerID, caption string) (*entity.MediaDraft, error) {
	return uc.mutate(draftID, ownerID, func(d *entity.MediaDraft) {
		d.Caption = caption
	})
}

func (uc *draftUseCase) MentionSuggestions(ctx context.Context, draftID, ownerID, partial string) ([]string, error) {
	uc.mu.RLock()
	draft, err := uc.lookup(draftID, ownerID)
	if err != nil {
		uc.mu.RUnlock()
		return nil, err
	}
	current := snapshot(draft)
	uc.mu.RUnlock()

	directory, err := uc.profileRepo.UsernameDirectory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load mention directory: %w", err)
	}

	return current.SuggestMentions(directory, partial), nil
}

// ResolveLocation kicks off one reverse-geocode in the background and returns
// immediately. The draft's location stays empty until the result lands; a
// failed resolution leaves the sentinel handling to publish time.
func (uc *draftUseCase) ResolveLocation(draftID, ownerID string, lat, lon float64) error {
	uc.mu.RLock()
	_, err := uc.lookup(draftID, ownerID)
	uc.mu.RUnlock()
	if err != nil {
		return err
	}

	go func() {
		place := uc.geocoder.ReverseGeocode(context.Background(), lat, lon)

		uc.mu.Lock()
		defer uc.mu.Unlock()
		if draft, ok := uc.drafts[draftID]; ok && draft.OwnerID == ownerID {
			draft.Location = place
		}
	}()

	return nil
}

func (uc *draftUseCase) BeginPublish(draftID, ownerID string) (*entity.MediaDraft, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	draft, err := uc.lookup(draftID, ownerID)
	if err != nil {
		return nil, err
	}
	if draft.State == entity.DraftPublishing {
		return nil, ErrPublishInFlight
	}

	draft.State = entity.DraftPublishing
	return snapshot(draft), nil
}

func (uc *draftUseCase) FinishPublish(draftID string, published bool) {
	uc.mu.Lock()
	draft, ok := uc.drafts[draftID]
	if !ok {
		uc.mu.Unlock()
		return
	}

	if !published {
		draft.State = entity.DraftComposing
		uc.mu.Unlock()
		return
	}

	delete(uc.drafts, draftID)
	uc.mu.Unlock()

	uc.removeMedia(draft.MediaRef)
}

// lookup must be called with uc.mu held.
func (uc *draftUseCase) lookup(draftID, ownerID string) (*entity.MediaDraft, error) {
	draft, ok := uc.drafts[draftID]
	if !ok || draft.OwnerID != ownerID {
		return nil, ErrDraftNotFound
	}
	return draft, nil
}

func (uc *draftUseCase) mutate(draftID, ownerID string, fn func(*entity.MediaDraft)) (*entity.MediaDraft, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	draft, err := uc.lookup(draftID, ownerID)
	if err != nil {
		return nil, err
	}
	if draft.State == entity.DraftPublishing {
		return nil, ErrPublishInFlight
	}

	fn(draft)
	return snapshot(draft), nil
}

func (uc *draftUseCase) removeMedia(mediaRef string) {
	if mediaRef == "" {
		return
	}
	if err := os.Remove(mediaRef); err != nil && !os.IsNotExist(err) {
		uc.logger.Warn("Failed to remove draft media %s: %v", mediaRef, err)
	}
}

// snapshot copies the draft so callers outside the lock cannot race mutations.
func snapshot(d *entity.MediaDraft) *entity.MediaDraft {
	copied := *d
	copied.Hashtags = append([]string{}, d.Hashtags...)
	copied.Mentions = append([]string{}, d.Mentions...)
	return &copied
}
