package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"clipway/pkg/geocode"
	"clipway/pkg/logger"
	"clipway/pkg/moderation"
	"clipway/pkg/storage"
	"clipway/services/video/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string, progress storage.ProgressFunc) (string, error) {
	args := m.Called(ctx, key, size, contentType)
	if args.Error(1) == nil && progress != nil {
		progress(50)
		progress(100)
	}
	return args.String(0), args.Error(1)
}

func (m *MockUploader) DeleteFile(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

var _ storage.Uploader = (*MockUploader)(nil)
var _ storage.Remover = (*MockUploader)(nil)

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MockGate) Classify(ctx context.Context, streamURL string) (*moderation.Report, error) {
	args := m.Called(ctx, streamURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*moderation.Report), args.Error(1)
}

type MockVideoRepository struct {
	mock.Mock
}

func (m *MockVideoRepository) Create(ctx context.Context, video *entity.VideoRecord) error {
	args := m.Called(ctx, video)
	return args.Error(0)
}

func (m *MockVideoRepository) GetByID(ctx context.Context, id string) (*entity.VideoRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VideoRecord), args.Error(1)
}

func (m *MockVideoRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.VideoRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.VideoRecord), args.Error(1)
}

func (m *MockVideoRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockModerationAuditRepository struct {
	mock.Mock
}

func (m *MockModerationAuditRepository) Save(ctx context.Context, videoID, ownerID, mediaURL string, report *moderation.Report) error {
	args := m.Called(ctx, videoID, ownerID, mediaURL, report)
	return args.Error(0)
}

type publishFixture struct {
	drafts         DraftUseCase
	uploader       *MockUploader
	gate           *MockGate
	videoRepo      *MockVideoRepository
	profileRepo    *MockProfileRepository
	moderationRepo *MockModerationAuditRepository
	uc             PublishUseCase
}

func newPublishFixture(t *testing.T) *publishFixture {
	f := &publishFixture{
		uploader:       new(MockUploader),
		gate:           new(MockGate),
		videoRepo:      new(MockVideoRepository),
		profileRepo:    new(MockProfileRepository),
		moderationRepo: new(MockModerationAuditRepository),
	}
	f.drafts = newDraftUseCase(f.profileRepo, nil)
	f.uc = NewPublishUseCase(
		f.drafts, f.uploader, f.gate,
		f.videoRepo, f.profileRepo, f.moderationRepo,
		nil, nil, logger.New(),
	)
	return f
}

func (f *publishFixture) await(t *testing.T, draftID string) *entity.PublishProgress {
	t.Helper()
	var final *entity.PublishProgress
	assert.Eventually(t, func() bool {
		p, err := f.uc.Progress(context.Background(), draftID, "user-1")
		if err != nil {
			return false
		}
		if p.State == entity.PipelinePublished || p.State == entity.PipelineFailed {
			final = p
			return true
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return final
}

func passingReport() *moderation.Report {
	return &moderation.Report{Passed: true, Violations: []string{}, Raw: json.RawMessage(`{"status":"success"}`)}
}

func TestPublish_FullPipeline(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)

	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)
	f.drafts.AddHashtag(draft.ID, "user-1", "#surf")
	f.drafts.AddMention(draft.ID, "user-1", "@kai")

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("https://cdn.example.com/upload/v1/clip.mp4", nil)
	f.gate.On("Enabled").Return(true)
	f.gate.On("Classify", mock.Anything, "https://cdn.example.com/upload/v1/clip.mp4").
		Return(passingReport(), nil)
	f.moderationRepo.On("Save", mock.Anything, mock.Anything, "user-1", mock.Anything, mock.Anything).Return(nil)

	var created *entity.VideoRecord
	f.videoRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.VideoRecord")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*entity.VideoRecord)
		}).Return(nil)
	f.profileRepo.On("AppendPost", mock.Anything, "user-1", mock.Anything).Return(nil).Once()

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))

	final := f.await(t, draft.ID)
	assert.Equal(t, entity.PipelinePublished, final.State)
	assert.Equal(t, 100.0, final.Percent)
	assert.NotEmpty(t, final.VideoID)

	assert.Equal(t, final.VideoID, created.ID)
	assert.Equal(t, "user-1", created.OwnerID)
	assert.Equal(t, "https://cdn.example.com/upload/v1/clip.mp4", created.MediaURL)
	assert.Equal(t, []string{"#surf"}, created.Hashtags)
	assert.Equal(t, []string{"@kai"}, created.Mentions)
	assert.NotNil(t, created.ModerationReport)
	assert.True(t, created.ModerationReport.Passed)

	// The draft was consumed.
	_, err := f.drafts.GetDraft(draft.ID, "user-1")
	assert.ErrorIs(t, err, ErrDraftNotFound)
	f.profileRepo.AssertExpectations(t)
}

func TestPublish_UnresolvedLocationGetsSentinel(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("https://cdn.example.com/upload/v1/clip.mp4", nil)
	f.gate.On("Enabled").Return(false)

	var created *entity.VideoRecord
	f.videoRepo.On("Create", mock.Anything, mock.AnythingOfType("*entity.VideoRecord")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*entity.VideoRecord)
		}).Return(nil)
	f.profileRepo.On("AppendPost", mock.Anything, "user-1", mock.Anything).Return(nil)

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))

	final := f.await(t, draft.ID)
	assert.Equal(t, entity.PipelinePublished, final.State)
	assert.Equal(t, geocode.UnknownLocation, created.Location)

	// Degraded moderation stores the empty report.
	assert.True(t, created.ModerationReport.Passed)
	assert.Equal(t, json.RawMessage("{}"), created.ModerationReport.Raw)
}

func TestPublish_UploadFailureStopsPipeline(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("", errors.New("upload failed with status 500"))

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))

	final := f.await(t, draft.ID)
	assert.Equal(t, entity.PipelineFailed, final.State)
	assert.Contains(t, final.Reason, "upload failed")

	f.gate.AssertNotCalled(t, "Classify")
	f.videoRepo.AssertNotCalled(t, "Create")

	// The draft survives for a user-initiated retry.
	_, err := f.drafts.GetDraft(draft.ID, "user-1")
	assert.NoError(t, err)
}

func TestPublish_ModerationRejectionBlocksPersist(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	rejected := &moderation.Report{
		Passed:     false,
		Violations: []string{"gore.classes.very_bloody score 0.90 exceeds threshold at frame position 2.5s"},
	}

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("https://cdn.example.com/upload/v1/clip.mp4", nil)
	f.gate.On("Enabled").Return(true)
	f.gate.On("Classify", mock.Anything, mock.Anything).Return(rejected, nil)
	f.moderationRepo.On("Save", mock.Anything, mock.Anything, "user-1", mock.Anything, rejected).Return(nil)

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))

	final := f.await(t, draft.ID)
	assert.Equal(t, entity.PipelineFailed, final.State)
	assert.Contains(t, final.Reason, "gore")

	f.videoRepo.AssertNotCalled(t, "Create")
	f.profileRepo.AssertNotCalled(t, "AppendPost")
	// The failed report is still audited.
	f.moderationRepo.AssertExpectations(t)
}

func TestPublish_ModerationOutageIsNotRejection(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("https://cdn.example.com/upload/v1/clip.mp4", nil)
	f.gate.On("Enabled").Return(true)
	f.gate.On("Classify", mock.Anything, mock.Anything).Return(nil, moderation.ErrServiceUnavailable)

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))

	final := f.await(t, draft.ID)
	assert.Equal(t, entity.PipelineFailed, final.State)
	assert.Contains(t, final.Reason, "moderation unavailable")
	assert.NotContains(t, final.Reason, "rejected")

	f.videoRepo.AssertNotCalled(t, "Create")
}

func TestPublish_AppendFailureRollsBackRecord(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("https://cdn.example.com/upload/v1/clip.mp4", nil)
	f.gate.On("Enabled").Return(false)
	f.videoRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profileRepo.On("AppendPost", mock.Anything, "user-1", mock.Anything).
		Return(errors.New("profile write failed"))
	f.videoRepo.On("Delete", mock.Anything, mock.Anything).Return(nil)
	f.uploader.On("DeleteFile", mock.Anything, mock.Anything).Return(nil)

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))

	final := f.await(t, draft.ID)
	assert.Equal(t, entity.PipelineFailed, final.State)
	f.videoRepo.AssertCalled(t, "Delete", mock.Anything, mock.Anything)
	// The uploaded blob is removed along with the video record.
	f.uploader.AssertCalled(t, "DeleteFile", mock.Anything, mock.Anything)
}

func TestPublish_SecondPublishRejectedWhileInFlight(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	// Hold the upload open long enough for the second publish attempt.
	release := make(chan struct{})
	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Run(func(mock.Arguments) { <-release }).
		Return("", errors.New("aborted"))

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))
	assert.ErrorIs(t, f.uc.Publish(context.Background(), draft.ID, "user-1"), ErrPublishInFlight)
	close(release)

	f.await(t, draft.ID)
}

func TestProgress_ScopedToDraftOwner(t *testing.T) {
	f := newPublishFixture(t)
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("https://cdn.example.com/upload/v1/clip.mp4", nil)
	f.gate.On("Enabled").Return(false)
	f.videoRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profileRepo.On("AppendPost", mock.Anything, "user-1", mock.Anything).Return(nil)

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))
	final := f.await(t, draft.ID)
	assert.Equal(t, entity.PipelinePublished, final.State)

	// A different authenticated user polling the same draft id learns
	// nothing, the same as for an unknown draft.
	other, err := f.uc.Progress(context.Background(), draft.ID, "user-2")
	assert.NoError(t, err)
	assert.Equal(t, entity.PipelineIdle, other.State)
	assert.Empty(t, other.VideoID)
}

func TestProgress_TerminalEntriesExpireFromMemory(t *testing.T) {
	f := newPublishFixture(t)
	f.uc.(*publishUseCase).retention = 10 * time.Millisecond
	mediaRef := tempMediaFile(t)
	draft, _ := f.drafts.CreateDraft("user-1", mediaRef)

	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, "video/mp4").
		Return("https://cdn.example.com/upload/v1/clip.mp4", nil)
	f.gate.On("Enabled").Return(false)
	f.videoRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profileRepo.On("AppendPost", mock.Anything, "user-1", mock.Anything).Return(nil)

	assert.NoError(t, f.uc.Publish(context.Background(), draft.ID, "user-1"))

	// The entry appears while the pipeline runs and is gone once the
	// retention window passes its terminal state.
	assert.Eventually(t, func() bool {
		impl := f.uc.(*publishUseCase)
		impl.mu.RLock()
		defer impl.mu.RUnlock()
		return len(impl.progress) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

type funcUploader struct {
	fn func(progress storage.ProgressFunc) (string, error)
}

func (u *funcUploader) Upload(ctx context.Context, key string, file io.Reader, size int64, contentType string, progress storage.ProgressFunc) (string, error) {
	return u.fn(progress)
}

func TestPublish_ProgressScaledByUploadShare(t *testing.T) {
	profileRepo := new(MockProfileRepository)
	drafts := newDraftUseCase(profileRepo, nil)
	gate := new(MockGate)
	gate.On("Enabled").Return(false)
	videoRepo := new(MockVideoRepository)
	videoRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	profileRepo.On("AppendPost", mock.Anything, "user-1", mock.Anything).Return(nil)

	draft, _ := drafts.CreateDraft("user-1", tempMediaFile(t))

	var uc PublishUseCase
	var observed []float64
	uploader := &funcUploader{fn: func(progress storage.ProgressFunc) (string, error) {
		for _, wirePercent := range []float64{25, 50, 100} {
			progress(wirePercent)
			p, _ := uc.Progress(context.Background(), draft.ID, "user-1")
			observed = append(observed, p.Percent)
		}
		return "https://cdn.example.com/upload/v1/clip.mp4", nil
	}}

	uc = NewPublishUseCase(
		drafts, uploader, gate,
		videoRepo, profileRepo, new(MockModerationAuditRepository),
		nil, nil, logger.New(),
	)

	assert.NoError(t, uc.Publish(context.Background(), draft.ID, "user-1"))
	assert.Eventually(t, func() bool {
		p, _ := uc.Progress(context.Background(), draft.ID, "user-1")
		return p.State == entity.PipelinePublished
	}, 2*time.Second, 5*time.Millisecond)

	// Wire 100% shows as half of the pipeline; the rest is credited by the
	// moderation and persistence stages.
	assert.Equal(t, []float64{12.5, 25, 50}, observed)
}
