package usecase

import (
	"context"
	"os"
	"testing"
	"time"

	"clipway/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) AppendPost(ctx context.Context, uid, videoID string) error {
	args := m.Called(ctx, uid, videoID)
	return args.Error(0)
}

func (m *MockProfileRepository) RemovePost(ctx context.Context, uid, videoID string) error {
	args := m.Called(ctx, uid, videoID)
	return args.Error(0)
}

func (m *MockProfileRepository) GetPosts(ctx context.Context, uid string) ([]string, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProfileRepository) UsernameDirectory(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type stubGeocoder struct {
	place string
	delay time.Duration
}

func (g *stubGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	return g.place
}

func tempMediaFile(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "clip-*.mp4")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString("not really a video")
	f.Close()
	return f.Name()
}

func newDraftUseCase(profileRepo *MockProfileRepository, geocoder Geocoder) DraftUseCase {
	if geocoder == nil {
		geocoder = &stubGeocoder{place: "Lisbon, Portugal"}
	}
	return NewDraftUseCase(profileRepo, geocoder, logger.New())
}

func TestCreateAndGetDraft(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), nil)

	draft, err := uc.CreateDraft("user-1", "/tmp/clip.mp4")
	assert.NoError(t, err)
	assert.NotEmpty(t, draft.ID)
	assert.Equal(t, "/tmp/clip.mp4", draft.MediaRef)

	got, err := uc.GetDraft(draft.ID, "user-1")
	assert.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestCreateDraft_RequiresMedia(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), nil)

	_, err := uc.CreateDraft("user-1", "")
	assert.Error(t, err)
}

func TestGetDraft_WrongOwner(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), nil)

	draft, _ := uc.CreateDraft("user-1", "/tmp/clip.mp4")

	_, err := uc.GetDraft(draft.ID, "user-2")
	assert.ErrorIs(t, err, ErrDraftNotFound)
}

func TestDiscardDraft_RemovesMediaFile(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), nil)
	mediaRef := tempMediaFile(t)

	draft, _ := uc.CreateDraft("user-1", mediaRef)
	assert.NoError(t, uc.DiscardDraft(draft.ID, "user-1"))

	_, err := uc.GetDraft(draft.ID, "user-1")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	_, err = os.Stat(mediaRef)
	assert.True(t, os.IsNotExist(err))
}

func TestDraftMutations(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), nil)
	draft, _ := uc.CreateDraft("user-1", "/tmp/clip.mp4")

	updated, err := uc.AddHashtag(draft.ID, "user-1", "#surf")
	assert.NoError(t, err)
	assert.Equal(t, []string{"#surf"}, updated.Hashtags)

	updated, err = uc.AddMention(draft.ID, "user-1", "@kai")
	assert.NoError(t, err)
	assert.Equal(t, "@kai", updated.Caption)

	updated, err = uc.UpdateCaption(draft.ID, "user-1", "sunset run")
	assert.NoError(t, err)
	assert.Equal(t, "sunset run", updated.Caption)

	updated, err = uc.RemoveHashtag(draft.ID, "user-1", "#surf")
	assert.NoError(t, err)
	assert.Empty(t, updated.Hashtags)
}

func TestMentionSuggestions_UsesDirectory(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	profileRepo.On("UsernameDirectory", mock.Anything).Return([]string{"kai", "kaia", "marina"}, nil)

	uc := newDraftUseCase(profileRepo, nil)
	draft, _ := uc.CreateDraft("user-1", "/tmp/clip.mp4")
	uc.AddMention(draft.ID, "user-1", "@kai")

	suggestions, err := uc.MentionSuggestions(context.Background(), draft.ID, "user-1", "@ka")
	assert.NoError(t, err)
	assert.Equal(t, []string{"@kaia"}, suggestions)
}

func TestResolveLocation_FillsAsynchronously(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), &stubGeocoder{place: "Lisbon, Portugal", delay: 10 * time.Millisecond})
	draft, _ := uc.CreateDraft("user-1", "/tmp/clip.mp4")

	assert.NoError(t, uc.ResolveLocation(draft.ID, "user-1", 38.72, -9.14))

	// The call returns before resolution completes.
	got, _ := uc.GetDraft(draft.ID, "user-1")
	assert.Empty(t, got.Location)

	assert.Eventually(t, func() bool {
		got, _ := uc.GetDraft(draft.ID, "user-1")
		return got.Location == "Lisbon, Portugal"
	}, time.Second, 5*time.Millisecond)
}

func TestBeginPublish_GuardsConcurrentPublish(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), nil)
	draft, _ := uc.CreateDraft("user-1", "/tmp/clip.mp4")

	_, err := uc.BeginPublish(draft.ID, "user-1")
	assert.NoError(t, err)

	_, err = uc.BeginPublish(draft.ID, "user-1")
	assert.ErrorIs(t, err, ErrPublishInFlight)

	// Mutations and discard are locked out while publishing.
	_, err = uc.AddHashtag(draft.ID, "user-1", "#late")
	assert.ErrorIs(t, err, ErrPublishInFlight)
	assert.ErrorIs(t, uc.DiscardDraft(draft.ID, "user-1"), ErrPublishInFlight)

	// A failed publish returns the draft to composing.
	uc.FinishPublish(draft.ID, false)
	_, err = uc.BeginPublish(draft.ID, "user-1")
	assert.NoError(t, err)
}

func TestFinishPublish_ConsumesDraft(t *testing.T) {
	uc := newDraftUseCase(new(MockProfileRepository), nil)
	mediaRef := tempMediaFile(t)
	draft, _ := uc.CreateDraft("user-1", mediaRef)

	uc.BeginPublish(draft.ID, "user-1")
	uc.FinishPublish(draft.ID, true)

	_, err := uc.GetDraft(draft.ID, "user-1")
	assert.ErrorIs(t, err, ErrDraftNotFound)

	_, err = os.Stat(mediaRef)
	assert.True(t, os.IsNotExist(err))
}
