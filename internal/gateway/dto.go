package gateway

import (
	"strings"
	"time"

	"github.com/pribylovaa/go-social-client/internal/models"
)

type idRequest struct {
	ID string `json:"id"`
}

type commentLikeRequest struct {
	ID  string `json:"id"`
	PID string `json:"pid"`
}

type presenceRequest struct {
	IsOnline bool `json:"is_online"`
}

type likeResponse struct {
	PostID     models.FlexID `json:"post_id"`
	TotalLikes *int          `json:"total_likes" validate:"required,gte=0"`
	Liked      bool          `json:"liked"`
}

type saveResponse struct {
	TotalSaves *int `json:"total_saves" validate:"required,gte=0"`
	Saved      bool `json:"saved"`
}

type shareResponse struct {
	TotalShares *int `json:"total_shares" validate:"required,gte=0"`
	Shared      bool `json:"shared"`
}

// commentLikeResponse clikes отображает id комментария в флаг лайка текущего пользователя.
type commentLikeResponse struct {
	CommentID   models.FlexID   `json:"comment_id"`
	PostID      models.FlexID   `json:"post_id"`
	TotalClikes *int            `json:"total_clikes" validate:"required,gte=0"`
	Clikes      map[string]bool `json:"clikes"`
}

type commentUser struct {
	Username string `json:"username"`
}

type commentDTO struct {
	ID         models.FlexID `json:"id" validate:"required"`
	PostID     models.FlexID `json:"post_id"`
	ReplyID    models.FlexID `json:"reply_id"`
	User       commentUser   `json:"user"`
	Body       string        `json:"body"`
	LikesCount int           `json:"likes_count" validate:"gte=0"`
	DateAdded  string        `json:"date_added"`
}

type commentsResponse struct {
	Comments []commentDTO `json:"comments" validate:"dive"`
}

// Форматы date_added, которые встречаются в ответах бэкенда.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return time.Time{}
}

func (d commentDTO) toModel(postID string) models.Comment {
	pid := d.PostID.String()
	if pid == "" {
		pid = postID
	}

	return models.Comment{
		ID:        d.ID.String(),
		PostID:    pid,
		ParentID:  d.ReplyID.String(),
		Author:    d.User.Username,
		Body:      d.Body,
		LikeCount: d.LikesCount,
		CreatedAt: parseDate(d.DateAdded),
	}
}
