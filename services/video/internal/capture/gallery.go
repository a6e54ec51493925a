package capture

import (
	"context"
	"errors"
	"fmt"
)

// ErrCancelled marks a user-cancelled pick. It is not a failure and callers
// must return to their prior state without surfacing an error.
var ErrCancelled = errors.New("selection cancelled")

// ErrPermissionDenied covers a plain denial; the user can be asked again.
var ErrPermissionDenied = errors.New("storage permission denied")

// ErrPermissionBlocked covers a permanent denial; the only recovery is a
// settings deep-link, so callers must distinguish it from ErrPermissionDenied.
var ErrPermissionBlocked = errors.New("storage permission permanently denied")

type PermissionStatus string

const (
	PermissionGranted           PermissionStatus = "granted"
	PermissionDenied            PermissionStatus = "denied"
	PermissionPermanentlyDenied PermissionStatus = "permanently_denied"
)

// PermissionChecker requests the storage-read grant needed for gallery access.
type PermissionChecker interface {
	RequestStorageRead(ctx context.Context) (PermissionStatus, error)
}

// Picker presents the media library and returns the chosen local file
// reference, or ErrCancelled when the user dismisses the picker.
type Picker interface {
	PickVideo(ctx context.Context) (string, error)
}

type Gallery struct {
	picker      Picker
	permissions PermissionChecker
}

func NewGallery(picker Picker, permissions PermissionChecker) *Gallery {
	return &Gallery{picker: picker, permissions: permissions}
}

// Pick requests the storage grant and then opens the picker. The three
// non-success outcomes (denied, blocked, cancelled) map to their sentinel
// errors so callers can branch on errors.Is.
func (g *Gallery) Pick(ctx context.Context) (string, error) {
	status, err := g.permissions.RequestStorageRead(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to request storage permission: %w", err)
	}

	switch status {
	case PermissionGranted:
	case PermissionPermanentlyDenied:
		return "", ErrPermissionBlocked
	default:
		return "", ErrPermissionDenied
	}

	mediaRef, err := g.picker.PickVideo(ctx)
	if err != nil {
		return "", err
	}
	return mediaRef, nil
}
