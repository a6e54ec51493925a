package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clipway/pkg/logger"
	"clipway/pkg/storage"
	"clipway/services/video/internal/entity"
	"clipway/services/video/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

const videoCacheTTL = 24 * time.Hour

type VideoUseCase interface {
	GetVideo(ctx context.Context, id string) (*entity.VideoRecord, error)
	GetUserVideos(ctx context.Context, uid string) ([]*entity.VideoRecord, error)
}

type videoUseCase struct {
	videoRepo   persistent.VideoRepository
	profileRepo persistent.ProfileRepository
	redisClient *redis.Client
	logger      *logger.Logger
}

func NewVideoUseCase(
	videoRepo persistent.VideoRepository,
	profileRepo persistent.ProfileRepository,
	redisClient *redis.Client,
	logger *logger.Logger,
) VideoUseCase {
	return &videoUseCase{
		videoRepo:   videoRepo,
		profileRepo: profileRepo,
		redisClient: redisClient,
		logger:      logger,
	}
}

func (uc *videoUseCase) GetVideo(ctx context.Context, id string) (*entity.VideoRecord, error) {
	if cached := uc.cachedVideo(ctx, id); cached != nil {
		return cached, nil
	}

	video, err := uc.videoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	video.ThumbnailURL = storage.ThumbnailURL(video.MediaURL)
	uc.cacheVideo(ctx, video)
	return video, nil
}

// GetUserVideos builds the profile grid: the owner's posts list drives which
// records are loaded, and thumbnails are derived at read time.
func (uc *videoUseCase) GetUserVideos(ctx context.Context, uid string) ([]*entity.VideoRecord, error) {
	postIDs, err := uc.profileRepo.GetPosts(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile posts: %w", err)
	}

	videos, err := uc.videoRepo.GetByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load videos: %w", err)
	}

	for _, video := range videos {
		video.ThumbnailURL = storage.ThumbnailURL(video.MediaURL)
	}
	return videos, nil
}

func (uc *videoUseCase) cachedVideo(ctx context.Context, id string) *entity.VideoRecord {
	if uc.redisClient == nil {
		return nil
	}

	data, err := uc.redisClient.Get(ctx, videoCacheKey(id)).Bytes()
	if err != nil {
		return nil
	}

	var video entity.VideoRecord
	if err := json.Unmarshal(data, &video); err != nil {
		return nil
	}
	return &video
}

func (uc *videoUseCase) cacheVideo(ctx context.Context, video *entity.VideoRecord) {
	if uc.redisClient == nil {
		return
	}

	data, err := json.Marshal(video)
	if err != nil {
		return
	}
	if err := uc.redisClient.Set(ctx, videoCacheKey(video.ID), data, videoCacheTTL).Err(); err != nil {
		uc.logger.Warn("Failed to cache video %s: %v", video.ID, err)
	}
}

func videoCacheKey(id string) string {
	return fmt.Sprintf("video:%s", id)
}
