package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pribylovaa/go-social-client/internal/auth"
	"github.com/pribylovaa/go-social-client/internal/models"
)

// Пути эндпойнтов бэкенда.
const (
	pathPostLike     = "/post/like/"
	pathPostSave     = "/post/save/"
	pathPostShare    = "/post/share/"
	pathCommentLike  = "/post/comment/like/"
	pathOnlineStatus = "/user/online-status/"
	pathPostComments = "/post/%s/comments/"
)

// Предел тела не-2xx ответа, сохраняемого в StatusError.
const maxErrorBody = 4 << 10

// Options параметры HTTP-клиента.
type Options struct {
	Tokens    auth.TokenSource
	UserAgent string
	Timeout   time.Duration
	Logger    *slog.Logger
	// Transport базовый транспорт; nil означает http.DefaultTransport.
	Transport http.RoundTripper
}

// Client реализация API поверх HTTP/JSON.
type Client struct {
	base     string
	hc       *http.Client
	validate *validator.Validate
}

var _ API = (*Client)(nil)

// New собирает клиент для baseURL.
// Цепочка транспорта: metadata -> logging -> timeout -> base.
func New(baseURL string, opts Options) (*Client, error) {
	const op = "gateway/client/New"

	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%s: unsupported scheme %q", op, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%s: empty host", op)
	}

	rt := ChainTransport(opts.Transport,
		WithMetadata(opts.Tokens, opts.UserAgent),
		WithLogging(opts.Logger),
		WithTimeout(opts.Timeout),
	)

	return &Client{
		base:     strings.TrimRight(u.String(), "/"),
		hc:       &http.Client{Transport: rt},
		validate: validator.New(),
	}, nil
}

func (c *Client) ToggleLike(ctx context.Context, ref models.TargetRef) (models.Toggled, error) {
	const op = "gateway/client/ToggleLike"

	switch ref.Entity {
	case models.EntityPost:
		var out likeResponse
		if err := c.do(ctx, http.MethodPost, pathPostLike, idRequest{ID: ref.ID}, &out); err != nil {
			return models.Toggled{}, fmt.Errorf("%s: %w", op, err)
		}
		return models.Toggled{Total: *out.TotalLikes, Flag: out.Liked}, nil

	case models.EntityComment:
		var out commentLikeResponse
		in := commentLikeRequest{ID: ref.ID, PID: ref.PostID}
		if err := c.do(ctx, http.MethodPost, pathCommentLike, in, &out); err != nil {
			return models.Toggled{}, fmt.Errorf("%s: %w", op, err)
		}
		return models.Toggled{Total: *out.TotalClikes, Flag: out.Clikes[ref.ID]}, nil

	default:
		return models.Toggled{}, fmt.Errorf("%s: %w: %s", op, ErrUnsupportedTarget, ref.Entity)
	}
}

func (c *Client) ToggleSave(ctx context.Context, ref models.TargetRef) (models.Toggled, error) {
	const op = "gateway/client/ToggleSave"

	if ref.Entity != models.EntityPost {
		return models.Toggled{}, fmt.Errorf("%s: %w: %s", op, ErrUnsupportedTarget, ref.Entity)
	}

	var out saveResponse
	if err := c.do(ctx, http.MethodPost, pathPostSave, idRequest{ID: ref.ID}, &out); err != nil {
		return models.Toggled{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Toggled{Total: *out.TotalSaves, Flag: out.Saved}, nil
}

func (c *Client) ToggleShare(ctx context.Context, ref models.TargetRef) (models.Toggled, error) {
	const op = "gateway/client/ToggleShare"

	if ref.Entity != models.EntityPost {
		return models.Toggled{}, fmt.Errorf("%s: %w: %s", op, ErrUnsupportedTarget, ref.Entity)
	}

	var out shareResponse
	if err := c.do(ctx, http.MethodPost, pathPostShare, idRequest{ID: ref.ID}, &out); err != nil {
		return models.Toggled{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Toggled{Total: *out.TotalShares, Flag: out.Shared}, nil
}

func (c *Client) SetPresence(ctx context.Context, online bool) error {
	const op = "gateway/client/SetPresence"

	if err := c.do(ctx, http.MethodPost, pathOnlineStatus, presenceRequest{IsOnline: online}, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *Client) FetchComments(ctx context.Context, postID string) ([]models.Comment, error) {
	const op = "gateway/client/FetchComments"

	if strings.TrimSpace(postID) == "" {
		return nil, fmt.Errorf("%s: empty post id", op)
	}

	var out commentsResponse
	path := fmt.Sprintf(pathPostComments, url.PathEscape(postID))
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := make([]models.Comment, 0, len(out.Comments))
	for _, d := range out.Comments {
		res = append(res, d.toModel(postID))
	}

	return res, nil
}

// do выполняет JSON-запрос. out == nil означает, что тело ответа не нужно.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if err := c.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return nil
}
