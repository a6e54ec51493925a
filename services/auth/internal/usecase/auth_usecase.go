package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"

	"clipway/pkg/jwt"
	"clipway/pkg/logger"
	"clipway/pkg/middleware"
	"clipway/pkg/storage"
	"clipway/services/auth/internal/entity"
	"clipway/services/auth/internal/repo/persistent"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// revocationTTL keeps a revoked token id denylisted until the token itself
// would have expired.
const revocationTTL = 24 * time.Hour

// maxBioLength caps the profile bio, counted in characters rather than bytes.
const maxBioLength = 150

type SessionEventType string

const (
	SessionSignedIn  SessionEventType = "signed_in"
	SessionSignedOut SessionEventType = "signed_out"
)

// SessionEvent is delivered to subscribers whenever a session is created or
// destroyed, replacing the ambient current-user singleton of the original
// design with an explicit notification contract.
type SessionEvent struct {
	Type   SessionEventType
	UserID string
	At     time.Time
}

// ProfileEdit carries the editable profile fields; nil fields are unchanged.
type ProfileEdit struct {
	Username *string
	Bio      *string
	Passions *[]string
}

type AuthUseCase interface {
	Register(ctx context.Context, email, username, password string) (*entity.User, string, error)
	Login(ctx context.Context, email, password string) (*entity.User, string, error)
	Logout(ctx context.Context, userID, tokenID string) error
	CurrentUser(ctx context.Context, userID string) (*entity.User, error)
	GetProfile(ctx context.Context, uid string) (*entity.Profile, error)
	UpdateProfile(ctx context.Context, userID string, edit ProfileEdit) (*entity.Profile, error)
	UploadProfilePicture(ctx context.Context, userID string, file io.Reader, size int64, contentType string) (*entity.Profile, error)
	SubscribeSessions() (<-chan SessionEvent, func())
}

type authUseCase struct {
	userRepo    persistent.UserRepository
	profileRepo persistent.ProfileRepository
	jwtService  *jwt.Service
	redisClient *redis.Client
	uploader    storage.Uploader
	logger      *logger.Logger

	mu          sync.Mutex
	subscribers map[int]chan SessionEvent
	nextSubID   int
}

func NewAuthUseCase(
	userRepo persistent.UserRepository,
	profileRepo persistent.ProfileRepository,
	jwtService *jwt.Service,
	redisClient *redis.Client,
	uploader storage.Uploader,
	logger *logger.Logger,
) AuthUseCase {
	return &authUseCase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		jwtService:  jwtService,
		redisClient: redisClient,
		uploader:    uploader,
		logger:      logger,
		subscribers: make(map[int]chan SessionEvent),
	}
}

func (uc *authUseCase) Register(ctx context.Context, email, username, password string) (*entity.User, string, error) {
	_, err := uc.userRepo.GetByEmail(email)
	if err == nil {
		return nil, "", fmt.Errorf("user with this email already exists")
	}

	_, err = uc.userRepo.GetByUsername(username)
	if err == nil {
		return nil, "", fmt.Errorf("username already taken")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		uc.logger.Error("Failed to hash password: %v", err)
		return nil, "", fmt.Errorf("failed to process registration")
	}

	user := &entity.User{
		Email:    email,
		Username: username,
		Password: string(hashedPassword),
		Role:     entity.RoleViewer,
		IsActive: true,
	}

	if err := uc.userRepo.Create(user); err != nil {
		uc.logger.Error("Failed to create user: %v", err)
		return nil, "", fmt.Errorf("failed to create user")
	}

	// The credential row and the profile document form one account.
	if uc.profileRepo != nil {
		profile := &entity.Profile{
			UID:      user.ID,
			Email:    user.Email,
			Username: user.Username,
			Posts:    []string{},
		}
		if err := uc.profileRepo.Create(ctx, profile); err != nil {
			uc.logger.Error("Failed to create profile document for user %s: %v", user.ID, err)
			return nil, "", fmt.Errorf("failed to create user profile")
		}
	}

	token, err := uc.jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", fmt.Errorf("failed to generate token")
	}

	uc.notify(SessionEvent{Type: SessionSignedIn, UserID: user.ID, At: time.Now()})

	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) Login(ctx context.Context, email, password string) (*entity.User, string, error) {
	user, err := uc.userRepo.GetByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}

	if !user.IsActive {
		return nil, "", fmt.Errorf("account is deactivated")
	}

	token, err := uc.jwtService.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		uc.logger.Error("Failed to generate token: %v", err)
		return nil, "", fmt.Errorf("failed to generate token")
	}

	uc.notify(SessionEvent{Type: SessionSignedIn, UserID: user.ID, At: time.Now()})

	user.Password = ""
	return user, token, nil
}

func (uc *authUseCase) Logout(ctx context.Context, userID, tokenID string) error {
	if uc.redisClient != nil && tokenID != "" {
		key := middleware.RevokedTokenKey(tokenID)
		if err := uc.redisClient.Set(ctx, key, userID, revocationTTL).Err(); err != nil {
			uc.logger.Error("Failed to revoke token %s: %v", tokenID, err)
			return fmt.Errorf("failed to revoke session")
		}
	}

	uc.notify(SessionEvent{Type: SessionSignedOut, UserID: userID, At: time.Now()})
	return nil
}

func (uc *authUseCase) CurrentUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	user.Password = ""
	return user, nil
}

func (uc *authUseCase) GetProfile(ctx context.Context, uid string) (*entity.Profile, error) {
	if uc.profileRepo == nil {
		return nil, fmt.Errorf("profile store not configured")
	}
	return uc.profileRepo.GetByUID(ctx, uid)
}

// UpdateProfile applies a partial edit. A username change updates both the
// credential row and the profile document; the two stores share the value.
func (uc *authUseCase) UpdateProfile(ctx context.Context, userID string, edit ProfileEdit) (*entity.Profile, error) {
	if uc.profileRepo == nil {
		return nil, fmt.Errorf("profile store not configured")
	}

	if edit.Bio != nil && utf8.RuneCountInString(*edit.Bio) > maxBioLength {
		return nil, fmt.Errorf("bio must be at most %d characters", maxBioLength)
	}

	if edit.Username != nil {
		user, err := uc.userRepo.GetByID(userID)
		if err != nil {
			return nil, fmt.Errorf("user not found")
		}
		if user.Username != *edit.Username {
			if _, err := uc.userRepo.GetByUsername(*edit.Username); err == nil {
				return nil, fmt.Errorf("username already taken")
			}
			user.Username = *edit.Username
			if err := uc.userRepo.Update(user); err != nil {
				uc.logger.Error("Failed to update credential row for user %s: %v", userID, err)
				return nil, fmt.Errorf("failed to update profile")
			}
		}
	}

	update := persistent.ProfileUpdate{
		Username: edit.Username,
		Bio:      edit.Bio,
		Passions: edit.Passions,
	}
	if err := uc.profileRepo.Update(ctx, userID, update); err != nil {
		uc.logger.Error("Failed to update profile document for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to update profile")
	}

	return uc.profileRepo.GetByUID(ctx, userID)
}

// UploadProfilePicture stores the image and points the profile document at
// the returned delivery URL.
func (uc *authUseCase) UploadProfilePicture(ctx context.Context, userID string, file io.Reader, size int64, contentType string) (*entity.Profile, error) {
	if uc.profileRepo == nil {
		return nil, fmt.Errorf("profile store not configured")
	}
	if uc.uploader == nil {
		return nil, fmt.Errorf("profile picture storage not configured")
	}

	key := fmt.Sprintf("avatars/%s/%s", userID, uuid.New().String())
	pictureURL, err := uc.uploader.Upload(ctx, key, file, size, contentType, nil)
	if err != nil {
		uc.logger.Error("Failed to upload profile picture for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to upload profile picture")
	}

	if err := uc.profileRepo.Update(ctx, userID, persistent.ProfileUpdate{Picture: &pictureURL}); err != nil {
		uc.logger.Error("Failed to store profile picture URL for user %s: %v", userID, err)
		return nil, fmt.Errorf("failed to update profile")
	}

	return uc.profileRepo.GetByUID(ctx, userID)
}

// SubscribeSessions returns a channel of session events and a cancel func.
// Events are dropped for subscribers that fall behind.
func (uc *authUseCase) SubscribeSessions() (<-chan SessionEvent, func()) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	id := uc.nextSubID
	uc.nextSubID++
	ch := make(chan SessionEvent, 16)
	uc.subscribers[id] = ch

	cancel := func() {
		uc.mu.Lock()
		defer uc.mu.Unlock()
		if sub, ok := uc.subscribers[id]; ok {
			delete(uc.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (uc *authUseCase) notify(event SessionEvent) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	for _, ch := range uc.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
