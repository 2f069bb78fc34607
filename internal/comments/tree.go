// comments собирает дерево ответов из плоского списка комментариев поста
// и хранит последние собранные деревья по постам.
package comments

import "github.com/pribylovaa/go-social-client/internal/models"

// MaxReplyDepth уровень вложенности, начиная с которого ответ на комментарий не предлагается.
// Корневые комментарии на уровне 0.
const MaxReplyDepth = 3

// BuildTree превращает плоский список в лес ответов.
//
// Алгоритм в два прохода:
//  1. узел на каждый id (при повторе id учитывается первое вхождение);
//  2. корни (пустой ParentID) в порядке входа; остальные дописываются в Children
//     родителя в порядке входа.
//
// Комментарий, чей родитель отсутствует во входе, отбрасывается вместе с потомками.
// Циклы не проверяются: их участники недостижимы из корней и в результат не попадают.
func BuildTree(list []models.Comment) []*models.CommentNode {
	nodes := make(map[string]*models.CommentNode, len(list))
	order := make([]*models.CommentNode, 0, len(list))

	for _, c := range list {
		if _, dup := nodes[c.ID]; dup {
			continue
		}
		n := &models.CommentNode{Comment: c}
		nodes[c.ID] = n
		order = append(order, n)
	}

	roots := make([]*models.CommentNode, 0)
	for _, n := range order {
		if n.Comment.IsRoot() {
			roots = append(roots, n)
			continue
		}
		if parent, ok := nodes[n.Comment.ParentID]; ok {
			parent.Children = append(parent.Children, n)
		}
	}

	return roots
}

// Dangling возвращает комментарии, чьего родителя нет во входе.
func Dangling(list []models.Comment) []models.Comment {
	ids := make(map[string]struct{}, len(list))
	for _, c := range list {
		ids[c.ID] = struct{}{}
	}

	var out []models.Comment
	for _, c := range list {
		if c.IsRoot() {
			continue
		}
		if _, ok := ids[c.ParentID]; !ok {
			out = append(out, c)
		}
	}

	return out
}

// Dropped возвращает комментарии входа, которых нет в дереве roots:
// осиротевшие, их потомки и участники циклов. Дубликаты id не считаются.
func Dropped(list []models.Comment, roots []*models.CommentNode) []models.Comment {
	kept := make(map[string]struct{}, len(list))
	Walk(roots, func(n *models.CommentNode, _ int) bool {
		kept[n.Comment.ID] = struct{}{}
		return true
	})

	var out []models.Comment
	for _, c := range list {
		if _, ok := kept[c.ID]; ok {
			continue
		}
		kept[c.ID] = struct{}{}
		out = append(out, c)
	}

	return out
}

// Walk обходит лес в прямом порядке. fn получает узел и его уровень (корни на 0);
// false из fn останавливает обход.
func Walk(roots []*models.CommentNode, fn func(n *models.CommentNode, level int) bool) {
	var visit func(ns []*models.CommentNode, level int) bool
	visit = func(ns []*models.CommentNode, level int) bool {
		for _, n := range ns {
			if !fn(n, level) {
				return false
			}
			if !visit(n.Children, level+1) {
				return false
			}
		}
		return true
	}

	visit(roots, 0)
}

// Flatten раскладывает лес обратно в список (прямой порядок).
func Flatten(roots []*models.CommentNode) []models.Comment {
	var out []models.Comment
	Walk(roots, func(n *models.CommentNode, _ int) bool {
		out = append(out, n.Comment)
		return true
	})

	return out
}

// Count число узлов в лесу.
func Count(roots []*models.CommentNode) int {
	n := 0
	Walk(roots, func(*models.CommentNode, int) bool {
		n++
		return true
	})

	return n
}

// Depth число уровней в лесу: 0 для пустого, 1 если есть только корни.
func Depth(roots []*models.CommentNode) int {
	depth := 0
	Walk(roots, func(_ *models.CommentNode, level int) bool {
		if level+1 > depth {
			depth = level + 1
		}
		return true
	})

	return depth
}

// CanReply сообщает, можно ли отвечать на комментарий уровня level.
func CanReply(level int) bool { return level < MaxReplyDepth }
