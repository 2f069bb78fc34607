package models

import "time"

// Comment неизменяемая запись комментария из снимка, полученного от сервера.
// ParentID пустой у корневых комментариев.
type Comment struct {
	ID        string
	PostID    string
	ParentID  string
	Author    string
	Body      string
	LikeCount int
	CreatedAt time.Time
}

// IsRoot сообщает, что комментарий верхнего уровня.
func (c Comment) IsRoot() bool { return c.ParentID == "" }

// CommentNode узел дерева ответов.
type CommentNode struct {
	Comment  Comment
	Children []*CommentNode
}
