package comments

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pribylovaa/go-social-client/internal/metrics"
	"github.com/pribylovaa/go-social-client/internal/models"
	"github.com/pribylovaa/go-social-client/pkg/log"
)

// CommentsAPI часть gateway.API, нужная сервису.
type CommentsAPI interface {
	FetchComments(ctx context.Context, postID string) ([]models.Comment, error)
}

// Option настройка Service.
type Option func(*Service)

// WithLogger задаёт базовый логгер.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// Service кэш деревьев комментариев по постам.
// Деревья после сборки не изменяются, их можно отдавать читателям без копирования.
type Service struct {
	api     CommentsAPI
	log     *slog.Logger
	metrics *metrics.Metrics

	mu      sync.RWMutex
	threads map[string][]*models.CommentNode
}

// NewService создаёт сервис поверх api.
func NewService(api CommentsAPI, opts ...Option) *Service {
	s := &Service{
		api:     api,
		log:     slog.Default(),
		threads: make(map[string][]*models.CommentNode),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Refresh загружает комментарии поста, строит дерево и сохраняет его.
//
// Ошибки: при неудаче загрузки предыдущее дерево остаётся в кэше
// и возвращается вместе с ошибкой (nil, если дерева ещё не было).
func (s *Service) Refresh(ctx context.Context, postID string) ([]*models.CommentNode, error) {
	const op = "comments/service/Refresh"

	postID = strings.TrimSpace(postID)
	lg := log.Op(ctx, s.log, op, "post_id", postID)

	if postID == "" {
		return nil, fmt.Errorf("%s: empty post id", op)
	}

	list, err := s.api.FetchComments(ctx, postID)
	s.metrics.CommentFetch(err)
	if err != nil {
		lg.Warn("comments_fetch_failed", slog.String("err", err.Error()))
		prev, _ := s.Thread(postID)
		return prev, fmt.Errorf("%s: %w", op, err)
	}

	tree := BuildTree(list)

	if dropped := Dropped(list, tree); len(dropped) > 0 {
		lg.Warn("comments_dangling_dropped",
			slog.Any("ids", commentIDs(dropped)),
			slog.Any("orphans", commentIDs(Dangling(list))),
		)
		s.metrics.DanglingComments(len(dropped))
	}

	s.mu.Lock()
	s.threads[postID] = tree
	s.mu.Unlock()

	lg.Debug("comments_refreshed", slog.Int("fetched", len(list)), slog.Int("in_tree", Count(tree)))

	return tree, nil
}

// Thread возвращает последнее успешно собранное дерево поста.
func (s *Service) Thread(postID string) ([]*models.CommentNode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok := s.threads[strings.TrimSpace(postID)]
	return tree, ok
}

// Forget удаляет дерево поста из кэша (экран поста закрыт).
func (s *Service) Forget(postID string) {
	s.mu.Lock()
	delete(s.threads, strings.TrimSpace(postID))
	s.mu.Unlock()
}

func commentIDs(list []models.Comment) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}
