package http

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"clipway/pkg/logger"
	"clipway/services/video/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DraftHandler struct {
	draftUseCase   usecase.DraftUseCase
	publishUseCase usecase.PublishUseCase
	mediaDir       string
	logger         *logger.Logger
}

func NewDraftHandler(draftUseCase usecase.DraftUseCase, publishUseCase usecase.PublishUseCase, mediaDir string, logger *logger.Logger) *DraftHandler {
	return &DraftHandler{
		draftUseCase:   draftUseCase,
		publishUseCase: publishUseCase,
		mediaDir:       mediaDir,
		logger:         logger,
	}
}

type HashtagRequest struct {
	Tag string `json:"tag" binding:"required"`
}

type MentionRequest struct {
	Handle string `json:"handle" binding:"required"`
}

type CaptionRequest struct {
	Caption string `json:"caption"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}

// CreateDraft godoc
// @Summary      Create a draft from an uploaded video
// @Description  Stores the uploaded file locally and opens a composition draft around it
// @Tags         drafts
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        video formData file true "Video file"
// @Success      201  {object}  entity.MediaDraft
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /drafts [post]
func (h *DraftHandler) CreateDraft(c *gin.Context) {
	userID := c.GetString("user_id")

	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Video file is required"})
		return
	}

	ext := filepath.Ext(file.Filename)
	if ext != ".mp4" && ext != ".mov" && ext != ".webm" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid video format. Only mp4, mov, webm are allowed"})
		return
	}

	if err := os.MkdirAll(h.mediaDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store video"})
		return
	}

	mediaRef := filepath.Join(h.mediaDir, fmt.Sprintf("%s-%s%s", userID, uuid.New().String(), ext))
	if err := c.SaveUploadedFile(file, mediaRef); err != nil {
		h.logger.Error("Failed to save uploaded video: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store video"})
		return
	}

	draft, err := h.draftUseCase.CreateDraft(userID, mediaRef)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, draft)
}

// GetDraft godoc
// @Summary      Inspect a draft
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Success      200  {object}  entity.MediaDraft
// @Failure      404  {object}  map[string]string
// @Router       /drafts/{id} [get]
func (h *DraftHandler) GetDraft(c *gin.Context) {
	draft, err := h.draftUseCase.GetDraft(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// DiscardDraft godoc
// @Summary      Discard a draft
// @Description  Drops the draft and deletes its stored media file
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /drafts/{id} [delete]
func (h *DraftHandler) DiscardDraft(c *gin.Context) {
	if err := h.draftUseCase.DiscardDraft(c.Param("id"), c.GetString("user_id")); err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft discarded"})
}

// AddHashtag godoc
// @Summary      Add a hashtag to a draft
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Param        request body HashtagRequest true "Hashtag"
// @Success      200  {object}  entity.MediaDraft
// @Router       /drafts/{id}/hashtags [post]
func (h *DraftHandler) AddHashtag(c *gin.Context) {
	var req HashtagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.draftUseCase.AddHashtag(c.Param("id"), c.GetString("user_id"), req.Tag)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// RemoveHashtag godoc
// @Summary      Remove a hashtag from a draft
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Param        tag path string true "Hashtag (URL-encoded)"
// @Success      200  {object}  entity.MediaDraft
// @Router       /drafts/{id}/hashtags/{tag} [delete]
func (h *DraftHandler) RemoveHashtag(c *gin.Context) {
	draft, err := h.draftUseCase.RemoveHashtag(c.Param("id"), c.GetString("user_id"), c.Param("tag"))
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// AddMention godoc
// @Summary      Add a mention to a draft
// @Description  Appends the handle to the caption as literal text
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Param        request body MentionRequest true "Mention"
// @Success      200  {object}  entity.MediaDraft
// @Router       /drafts/{id}/mentions [post]
func (h *DraftHandler) AddMention(c *gin.Context) {
	var req MentionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.draftUseCase.AddMention(c.Param("id"), c.GetString("user_id"), req.Handle)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// RemoveMention godoc
// @Summary      Remove a mention from a draft
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Param        handle path string true "Handle (URL-encoded)"
// @Success      200  {object}  entity.MediaDraft
// @Router       /drafts/{id}/mentions/{handle} [delete]
func (h *DraftHandler) RemoveMention(c *gin.Context) {
	draft, err := h.draftUseCase.RemoveMention(c.Param("id"), c.GetString("user_id"), c.Param("handle"))
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// MentionSuggestions godoc
// @Summary      Suggest handles for a partial mention
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Param        q query string true "Partial @-token"
// @Success      200  {object}  map[string]interface{}
// @Router       /drafts/{id}/mentions/suggestions [get]
func (h *DraftHandler) MentionSuggestions(c *gin.Context) {
	suggestions, err := h.draftUseCase.MentionSuggestions(
		c.Request.Context(), c.Param("id"), c.GetString("user_id"), c.Query("q"),
	)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// UpdateCaption godoc
// @Summary      Replace the draft caption
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Param        request body CaptionRequest true "Caption"
// @Success      200  {object}  entity.MediaDraft
// @Router       /drafts/{id}/caption [put]
func (h *DraftHandler) UpdateCaption(c *gin.Context) {
	var req CaptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	draft, err := h.draftUseCase.UpdateCaption(c.Param("id"), c.GetString("user_id"), req.Caption)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

// SetLocation godoc
// @Summary      Resolve the draft location from coordinates
// @Description  Resolution happens in the background; the request never waits on the geocoder
// @Tags         drafts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Param        request body LocationRequest true "Device coordinates"
// @Success      202  {object}  map[string]string
// @Router       /drafts/{id}/location [post]
func (h *DraftHandler) SetLocation(c *gin.Context) {
	var req LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.draftUseCase.ResolveLocation(c.Param("id"), c.GetString("user_id"), req.Latitude, req.Longitude)
	if err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Location resolution started"})
}

// Publish godoc
// @Summary      Publish a draft
// @Description  Starts the upload, moderation and persistence pipeline; follow it via the progress endpoint
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Success      202  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /drafts/{id}/publish [post]
func (h *DraftHandler) Publish(c *gin.Context) {
	if err := h.publishUseCase.Publish(c.Request.Context(), c.Param("id"), c.GetString("user_id")); err != nil {
		h.renderDraftError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Publish started"})
}

// Progress godoc
// @Summary      Get publish progress for a draft
// @Tags         drafts
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Draft ID"
// @Success      200  {object}  entity.PublishProgress
// @Router       /drafts/{id}/progress [get]
func (h *DraftHandler) Progress(c *gin.Context) {
	progress, err := h.publishUseCase.Progress(c.Request.Context(), c.Param("id"), c.GetString("user_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

func (h *DraftHandler) renderDraftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
	case errors.Is(err, usecase.ErrPublishInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
