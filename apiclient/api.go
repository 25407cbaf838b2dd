package apiclient

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"vpsweb/model"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, in LoginRequest) (Session, error) {
	res, err := post[model.LoginResult](ctx, c, Session{}, "/auth/login", nil, in)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: res.Token, User: res.User}, nil
}

func (c *Client) Me(ctx context.Context, sess Session) (model.User, error) {
	return get[model.User](ctx, c, sess, "/auth/me", nil)
}

func (c *Client) Profile(ctx context.Context, sess Session) (model.User, error) {
	return get[model.User](ctx, c, sess, "/user/profile", nil)
}

type PasswordChange struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (c *Client) UpdatePassword(ctx context.Context, sess Session, in PasswordChange) (model.User, error) {
	return post[model.User](ctx, c, sess, "/user/password", nil, in)
}

func (c *Client) ListVideos(ctx context.Context, sess Session, q url.Values) (model.Page[model.Video], error) {
	return get[model.Page[model.Video]](ctx, c, sess, "/videos", q)
}

func (c *Client) Uploaders(ctx context.Context, sess Session) ([]string, error) {
	return get[[]string](ctx, c, sess, "/videos/uploaders", nil)
}

func (c *Client) VideoDetail(ctx context.Context, sess Session, id string) (model.VideoDetail, error) {
	return get[model.VideoDetail](ctx, c, sess, "/videos/detail", idQuery("id", id))
}

func (c *Client) Analysis(ctx context.Context, sess Session, id string) (model.Analysis, error) {
	return get[model.Analysis](ctx, c, sess, "/videos/analysis", idQuery("id", id))
}

// TriggerAnalysis 只返回确认，结果需要重新调用 Analysis 获取
func (c *Client) TriggerAnalysis(ctx context.Context, sess Session, id string) error {
	_, err := post[map[string]any](ctx, c, sess, "/videos/analysis", idQuery("id", id), nil)
	return err
}

func (c *Client) DeleteVideo(ctx context.Context, sess Session, id string) error {
	_, err := post[map[string]any](ctx, c, sess, "/videos/delete", idQuery("id", id), nil)
	return err
}

func (c *Client) Categories(ctx context.Context, sess Session) ([]model.Category, error) {
	return get[[]model.Category](ctx, c, sess, "/categories", nil)
}

type Upload struct {
	FileName   string
	File       io.Reader
	Title      string
	CategoryID *int
}

// UploadVideo 以 multipart 流式转发文件
func (c *Client) UploadVideo(ctx context.Context, sess Session, up Upload) (model.UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if up.Title != "" {
				if err := mw.WriteField("title", up.Title); err != nil {
					return err
				}
			}
			if up.CategoryID != nil {
				if err := mw.WriteField("category_id", strconv.Itoa(*up.CategoryID)); err != nil {
					return err
				}
			}
			part, err := mw.CreateFormFile("file", up.FileName)
			if err != nil {
				return err
			}
			if _, err = io.Copy(part, up.File); err != nil {
				return fmt.Errorf("copy upload: %w", err)
			}
			return mw.Close()
		}()
		_ = pw.CloseWithError(err)
	}()

	return call[model.UploadResult](ctx, c, sess, request{
		method:      http.MethodPost,
		path:        "/videos/upload",
		body:        pr,
		contentType: mw.FormDataContentType(),
	})
}

func (c *Client) DashboardStats(ctx context.Context, sess Session, scope string) (model.Stats, error) {
	return get[model.Stats](ctx, c, sess, "/dashboard/stats", idQuery("scope", scope))
}

func (c *Client) PendingVideos(ctx context.Context, sess Session) ([]model.PendingGroup, error) {
	return get[[]model.PendingGroup](ctx, c, sess, "/dashboard/pending-videos", nil)
}

func (c *Client) ListUsers(ctx context.Context, sess Session, q url.Values) (model.Page[model.User], error) {
	return get[model.Page[model.User]](ctx, c, sess, "/admin/users", q)
}

type createdID struct {
	ID string `json:"id"`
}

func (c *Client) CreateUser(ctx context.Context, sess Session, in model.NewUser) (string, error) {
	res, err := post[createdID](ctx, c, sess, "/admin/users/create", nil, in)
	return res.ID, err
}

func (c *Client) DeleteUser(ctx context.Context, sess Session, userID string) error {
	_, err := post[map[string]any](ctx, c, sess, "/admin/users/delete", idQuery("user_id", userID), nil)
	return err
}

func (c *Client) SetRole(ctx context.Context, sess Session, userID, role string) error {
	_, err := post[map[string]any](ctx, c, sess, "/admin/users/set-role", idQuery("user_id", userID), map[string]string{"role": role})
	return err
}

func (c *Client) AIAnalyze(ctx context.Context, sess Session, aid, bid string) (model.ComparisonReport, error) {
	return post[model.ComparisonReport](ctx, c, sess, "/comparisons/ai-analyze", nil, map[string]string{
		"video_a_id": aid,
		"video_b_id": bid,
	})
}

func (c *Client) ComparisonReport(ctx context.Context, sess Session, aid, bid string) (model.ComparisonReport, error) {
	q := url.Values{}
	q.Set("video_a_id", aid)
	q.Set("video_b_id", bid)
	return get[model.ComparisonReport](ctx, c, sess, "/comparisons/report", q)
}
