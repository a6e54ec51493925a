package persistent

import (
	"clipway/services/video/internal/entity"
	"clipway/services/video/internal/model"
)

func ToVideoEntity(doc *model.VideoDoc) *entity.VideoRecord {
	if doc == nil {
		return nil
	}

	return &entity.VideoRecord{
		ID:               doc.ID,
		OwnerID:          doc.OwnerID,
		MediaURL:         doc.MediaURL,
		Caption:          doc.Caption,
		Hashtags:         doc.Hashtags,
		Mentions:         doc.Mentions,
		Location:         doc.Location,
		LikeCount:        doc.LikeCount,
		CommentCount:     doc.CommentCount,
		ModerationReport: doc.ModerationReport,
		CreatedAt:        doc.CreatedAt,
	}
}

func ToVideoDoc(e *entity.VideoRecord) *model.VideoDoc {
	if e == nil {
		return nil
	}

	return &model.VideoDoc{
		ID:               e.ID,
		OwnerID:          e.OwnerID,
		MediaURL:         e.MediaURL,
		Caption:          e.Caption,
		Hashtags:         e.Hashtags,
		Mentions:         e.Mentions,
		Location:         e.Location,
		LikeCount:        e.LikeCount,
		CommentCount:     e.CommentCount,
		ModerationReport: e.ModerationReport,
		CreatedAt:        e.CreatedAt,
	}
}
