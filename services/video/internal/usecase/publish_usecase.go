package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"clipway/pkg/geocode"
	"clipway/pkg/logger"
	"clipway/pkg/moderation"
	"clipway/pkg/queue"
	"clipway/pkg/storage"
	"clipway/services/video/internal/entity"
	"clipway/services/video/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// uploadShare is the slice of overall pipeline progress attributed to the
// wire upload. A reported 100% upload shows as 50% pipeline completion; the
// remainder covers moderation and persistence, which produce no byte-level
// progress of their own.
const uploadShare = 0.5

const (
	progressModeration = 75.0
	progressDone       = 100.0
	progressKeyTTL     = time.Hour
)

var ErrModerationRejected = errors.New("content rejected by moderation")

// Gate is the moderation decision point. Classify errors mean the service
// itself was unreachable, never that the content failed policy.
type Gate interface {
	Enabled() bool
	Classify(ctx context.Context, streamURL string) (*moderation.Report, error)
}

type PublishUseCase interface {
	// Publish starts the pipeline for a draft and returns once it is
	// accepted. The pipeline itself runs in the background; callers follow
	// it through Progress.
	Publish(ctx context.Context, draftID, ownerID string) error
	Progress(ctx context.Context, draftID, ownerID string) (*entity.PublishProgress, error)
}

type publishUseCase struct {
	drafts         DraftUseCase
	uploader       storage.Uploader
	gate           Gate
	videoRepo      persistent.VideoRepository
	profileRepo    persistent.ProfileRepository
	moderationRepo persistent.ModerationAuditRepository
	redisClient    *redis.Client
	queueClient    *queue.Client
	logger         *logger.Logger

	// retention bounds how long a finished entry stays in memory; the
	// Redis copy carries the same TTL.
	retention time.Duration

	mu       sync.RWMutex
	progress map[string]*progressEntry
}

// progressEntry pairs the visible progress with the draft owner so polls can
// be scoped to the user that started the publish.
type progressEntry struct {
	owner string
	p     entity.PublishProgress
}

func NewPublishUseCase(
	drafts DraftUseCase,
	uploader storage.Uploader,
	gate Gate,
	videoRepo persistent.VideoRepository,
	profileRepo persistent.ProfileRepository,
	moderationRepo persistent.ModerationAuditRepository,
	redisClient *redis.Client,
	queueClient *queue.Client,
	logger *logger.Logger,
) PublishUseCase {
	return &publishUseCase{
		drafts:         drafts,
		uploader:       uploader,
		gate:           gate,
		videoRepo:      videoRepo,
		profileRepo:    profileRepo,
		moderationRepo: moderationRepo,
		redisClient:    redisClient,
		queueClient:    queueClient,
		logger:         logger,
		retention:      progressKeyTTL,
		progress:       make(map[string]*progressEntry),
	}
}

func (uc *publishUseCase) Publish(ctx context.Context, draftID, ownerID string) error {
	draft, err := uc.drafts.BeginPublish(draftID, ownerID)
	if err != nil {
		return err
	}

	if draft.MediaRef == "" {
		uc.drafts.FinishPublish(draftID, false)
		return fmt.Errorf("draft has no media")
	}

	uc.setProgress(draft.ID, draft.OwnerID, entity.PublishProgress{State: entity.PipelineUploading, Percent: 0})

	// The pipeline outlives the triggering request. There is no abort path
	// once publish starts.
	go uc.run(context.Background(), draft)

	return nil
}

// Progress reports pipeline state to the draft owner only; any other caller
// sees the idle default, the same as for an unknown draft id.
func (uc *publishUseCase) Progress(ctx context.Context, draftID, ownerID string) (*entity.PublishProgress, error) {
	uc.mu.RLock()
	entry, ok := uc.progress[draftID]
	uc.mu.RUnlock()
	if ok {
		if entry.owner != ownerID {
			return &entity.PublishProgress{State: entity.PipelineIdle, Percent: 0}, nil
		}
		copied := entry.p
		return &copied, nil
	}

	if uc.redisClient != nil {
		values, err := uc.redisClient.HGetAll(ctx, progressKey(draftID)).Result()
		if err == nil && len(values) > 0 && values["owner_id"] == ownerID {
			return progressFromHash(values), nil
		}
	}

	return &entity.PublishProgress{State: entity.PipelineIdle, Percent: 0}, nil
}

// run executes the linear stage sequence. Every stage either hands its output
// to the next stage or moves the pipeline to Failed; nothing retries.
func (uc *publishUseCase) run(ctx context.Context, draft *entity.MediaDraft) {
	videoID := draft.OwnerID + "-" + uuid.New().String()

	mediaURL, storageKey, err := uc.uploadStage(ctx, draft)
	if err != nil {
		uc.fail(draft, fmt.Sprintf("upload failed: %v", err))
		return
	}

	uc.setProgress(draft.ID, draft.OwnerID, entity.PublishProgress{
		State:   entity.PipelineModerating,
		Percent: uploadShare * 100,
	})

	report, err := uc.moderationStage(ctx, videoID, draft, mediaURL)
	if err != nil {
		if errors.Is(err, ErrModerationRejected) {
			uc.fail(draft, fmt.Sprintf("content rejected: %v", report.Violations))
		} else {
			uc.fail(draft, fmt.Sprintf("moderation unavailable: %v", err))
		}
		return
	}

	uc.setProgress(draft.ID, draft.OwnerID, entity.PublishProgress{
		State:   entity.PipelinePersisting,
		Percent: progressModeration,
	})

	if err := uc.persistStage(ctx, videoID, draft, mediaURL, storageKey, report); err != nil {
		uc.fail(draft, fmt.Sprintf("failed to save video: %v", err))
		return
	}

	uc.setProgress(draft.ID, draft.OwnerID, entity.PublishProgress{
		State:   entity.PipelinePublished,
		Percent: progressDone,
		VideoID: videoID,
	})
	uc.drafts.FinishPublish(draft.ID, true)

	if uc.queueClient != nil {
		go uc.publishAuditEvent(videoID, draft.OwnerID)
	}
}

func (uc *publishUseCase) uploadStage(ctx context.Context, draft *entity.MediaDraft) (string, string, error) {
	file, err := os.Open(draft.MediaRef)
	if err != nil {
		return "", "", fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", "", fmt.Errorf("failed to stat media file: %w", err)
	}

	key := fmt.Sprintf("videos/%s/%s%s", draft.OwnerID, uuid.New().String(), filepath.Ext(draft.MediaRef))

	mediaURL, err := uc.uploader.Upload(ctx, key, file, info.Size(), "video/mp4", func(percent float64) {
		uc.setProgress(draft.ID, draft.OwnerID, entity.PublishProgress{
			State:   entity.PipelineUploading,
			Percent: percent * uploadShare,
		})
	})
	if err != nil {
		return "", "", err
	}
	return mediaURL, key, nil
}

// moderationStage returns the report to store. A nil error means the content
// passed (or the gate ran degraded); ErrModerationRejected carries the report
// with its violation list.
func (uc *publishUseCase) moderationStage(ctx context.Context, videoID string, draft *entity.MediaDraft, mediaURL string) (*moderation.Report, error) {
	if !uc.gate.Enabled() {
		uc.logger.Warn("Moderation credentials not configured, storing empty report for video %s", videoID)
		return moderation.EmptyReport(), nil
	}

	report, err := uc.gate.Classify(ctx, mediaURL)
	if err != nil {
		return nil, err
	}

	// The report is audited regardless of pass/fail.
	if uc.moderationRepo != nil {
		if err := uc.moderationRepo.Save(ctx, videoID, draft.OwnerID, mediaURL, report); err != nil {
			uc.logger.Error("Failed to store moderation audit for video %s: %v", videoID, err)
		}
	}

	if !report.Passed {
		return report, ErrModerationRejected
	}
	return report, nil
}

// persistStage performs the two writes of the publish transaction. A failed
// append rolls the video record back, and the uploaded blob with it, so no
// orphan is left behind.
func (uc *publishUseCase) persistStage(ctx context.Context, videoID string, draft *entity.MediaDraft, mediaURL, storageKey string, report *moderation.Report) error {
	location := draft.Location
	if location == "" {
		location = geocode.UnknownLocation
	}

	record := &entity.VideoRecord{
		ID:               videoID,
		OwnerID:          draft.OwnerID,
		MediaURL:         mediaURL,
		Caption:          draft.Caption,
		Hashtags:         draft.Hashtags,
		Mentions:         draft.Mentions,
		Location:         location,
		ModerationReport: report,
		CreatedAt:        time.Now(),
	}

	if err := uc.videoRepo.Create(ctx, record); err != nil {
		return fmt.Errorf("failed to create video record: %w", err)
	}

	if err := uc.profileRepo.AppendPost(ctx, draft.OwnerID, videoID); err != nil {
		if delErr := uc.videoRepo.Delete(ctx, videoID); delErr != nil {
			uc.logger.Error("Rollback of video %s failed, orphan record left: %v", videoID, delErr)
		}
		if remover, ok := uc.uploader.(storage.Remover); ok {
			if delErr := remover.DeleteFile(ctx, storageKey); delErr != nil {
				uc.logger.Error("Rollback of uploaded media %s failed, orphan blob left: %v", storageKey, delErr)
			}
		}
		return fmt.Errorf("failed to append video to profile: %w", err)
	}

	return nil
}

func (uc *publishUseCase) fail(draft *entity.MediaDraft, reason string) {
	uc.logger.Error("Publish of draft %s failed: %s", draft.ID, reason)
	uc.setProgress(draft.ID, draft.OwnerID, entity.PublishProgress{
		State:  entity.PipelineFailed,
		Reason: reason,
	})
	uc.drafts.FinishPublish(draft.ID, false)
}

func (uc *publishUseCase) publishAuditEvent(videoID, ownerID string) {
	event := map[string]interface{}{
		"type":     "video.published",
		"video_id": videoID,
		"owner_id": ownerID,
	}
	if err := uc.queueClient.PublishVideoEvent(event); err != nil {
		uc.logger.Error("Failed to publish audit event for video %s: %v", videoID, err)
	}
}

func (uc *publishUseCase) setProgress(draftID, ownerID string, p entity.PublishProgress) {
	uc.mu.Lock()
	// Never let a late upload callback move progress backwards.
	if existing, ok := uc.progress[draftID]; ok &&
		existing.p.State == p.State && existing.p.Percent > p.Percent {
		uc.mu.Unlock()
		return
	}
	entry := &progressEntry{owner: ownerID, p: p}
	uc.progress[draftID] = entry
	uc.mu.Unlock()

	// Terminal entries expire from memory like the Redis copy does, so the
	// map stays bounded in a long-lived process.
	if p.State == entity.PipelinePublished || p.State == entity.PipelineFailed {
		time.AfterFunc(uc.retention, func() {
			uc.mu.Lock()
			if current, ok := uc.progress[draftID]; ok && current == entry {
				delete(uc.progress, draftID)
			}
			uc.mu.Unlock()
		})
	}

	if uc.redisClient != nil {
		ctx := context.Background()
		key := progressKey(draftID)
		uc.redisClient.HSet(ctx, key, map[string]interface{}{
			"state":    string(p.State),
			"percent":  p.Percent,
			"reason":   p.Reason,
			"video_id": p.VideoID,
			"owner_id": ownerID,
		})
		uc.redisClient.Expire(ctx, key, progressKeyTTL)
	}
}

func progressKey(draftID string) string {
	return fmt.Sprintf("publish:progress:%s", draftID)
}

func progressFromHash(values map[string]string) *entity.PublishProgress {
	p := &entity.PublishProgress{
		State:   entity.PipelineState(values["state"]),
		Reason:  values["reason"],
		VideoID: values["video_id"],
	}
	fmt.Sscanf(values["percent"], "%f", &p.Percent)
	return p
}
