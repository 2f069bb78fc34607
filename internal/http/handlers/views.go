package handlers

import (
	"time"

	"github.com/pribylovaa/go-social-client/internal/comments"
	"github.com/pribylovaa/go-social-client/internal/models"
)

type toggleRequest struct {
	PostID string `json:"post_id" validate:"omitempty,max=64"`
}

type loadRequest struct {
	Count  *int   `json:"count" validate:"required,gte=0"`
	Flag   bool   `json:"flag"`
	PostID string `json:"post_id" validate:"omitempty,max=64"`
}

type interactionView struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	PostID  string `json:"post_id,omitempty"`
	Kind    string `json:"kind"`
	Count   int    `json:"count"`
	Flag    bool   `json:"flag"`
	Seq     uint64 `json:"seq"`
	Pending bool   `json:"pending"`
}

func toInteractionView(i models.Interaction) interactionView {
	return interactionView{
		Entity:  string(i.Key.Ref.Entity),
		ID:      i.Key.Ref.ID,
		PostID:  i.Key.Ref.PostID,
		Kind:    string(i.Key.Kind),
		Count:   i.State.Count,
		Flag:    i.State.Flag,
		Seq:     i.Seq,
		Pending: i.Pending,
	}
}

type commentView struct {
	ID        string        `json:"id"`
	ParentID  string        `json:"parent_id,omitempty"`
	Author    string        `json:"author"`
	Body      string        `json:"body"`
	LikeCount int           `json:"like_count"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
	Level     int           `json:"level"`
	CanReply  bool          `json:"can_reply"`
	Replies   []commentView `json:"replies"`
}

type threadView struct {
	PostID   string        `json:"post_id"`
	Total    int           `json:"total"`
	Depth    int           `json:"depth"`
	Stale    bool          `json:"stale"`
	Comments []commentView `json:"comments"`
}

func toThreadView(postID string, roots []*models.CommentNode, stale bool) threadView {
	return threadView{
		PostID:   postID,
		Total:    comments.Count(roots),
		Depth:    comments.Depth(roots),
		Stale:    stale,
		Comments: toCommentViews(roots, 0),
	}
}

func toCommentViews(nodes []*models.CommentNode, level int) []commentView {
	out := make([]commentView, 0, len(nodes))
	for _, n := range nodes {
		v := commentView{
			ID:        n.Comment.ID,
			ParentID:  n.Comment.ParentID,
			Author:    n.Comment.Author,
			Body:      n.Comment.Body,
			LikeCount: n.Comment.LikeCount,
			Level:     level,
			CanReply:  comments.CanReply(level),
			Replies:   toCommentViews(n.Children, level+1),
		}
		if !n.Comment.CreatedAt.IsZero() {
			ts := n.Comment.CreatedAt
			v.CreatedAt = &ts
		}
		out = append(out, v)
	}

	return out
}

type presenceView struct {
	Online       bool       `json:"online"`
	LastActivity *time.Time `json:"last_activity,omitempty"`
	Synced       bool       `json:"synced"`
}

func toPresenceView(s models.PresenceState, synced bool) presenceView {
	v := presenceView{Online: s.Online, Synced: synced}
	if !s.LastActivity.IsZero() {
		ts := s.LastActivity
		v.LastActivity = &ts
	}

	return v
}

type realtimeView struct {
	State       string          `json:"state"`
	OnlineUsers map[string]bool `json:"online_users"`
}
