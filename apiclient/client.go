package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"vpsweb/model"
	"vpsweb/pkg/logger"
	"vpsweb/pkg/metrics"
)

// Session 是一次登录得到的凭证，每个请求显式传入
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (s Session) Valid() bool { return s.Token != "" }

type Client struct {
	baseURL string
	hc      *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), hc: hc}
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
}

func jsonBody(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

func call[T any](ctx context.Context, c *Client, sess Session, r request) (T, error) {
	var zero T

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	body := r.body
	if body == nil {
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return zero, &TransportError{Path: r.path, Err: err}
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(r.path, "transport_error").Inc()
		logger.Logger.Errorf("请求远端接口 %s 失败: %v", r.path, err)
		return zero, &TransportError{Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(r.path, "transport_error").Inc()
		return zero, &TransportError{Path: r.path, Status: resp.StatusCode, Err: err}
	}

	var env model.Envelope[T]
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && (env.Code != 0 || env.ErrMsg != "") {
			code := env.Code
			if code < 300 {
				code = resp.StatusCode
			}
			metrics.UpstreamRequests.WithLabelValues(r.path, "app_error").Inc()
			return zero, &AppError{Path: r.path, Code: code, ErrMsg: env.ErrMsg}
		}
		metrics.UpstreamRequests.WithLabelValues(r.path, "transport_error").Inc()
		return zero, &TransportError{Path: r.path, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}
	if decodeErr != nil {
		metrics.UpstreamRequests.WithLabelValues(r.path, "transport_error").Inc()
		return zero, &TransportError{Path: r.path, Status: resp.StatusCode, Err: fmt.Errorf("decode envelope: %w", decodeErr)}
	}
	if env.Failed() {
		metrics.UpstreamRequests.WithLabelValues(r.path, "app_error").Inc()
		return zero, &AppError{Path: r.path, Code: env.Code, ErrMsg: env.ErrMsg}
	}

	metrics.UpstreamRequests.WithLabelValues(r.path, "ok").Inc()
	return env.Data, nil
}

func get[T any](ctx context.Context, c *Client, sess Session, path string, q url.Values) (T, error) {
	return call[T](ctx, c, sess, request{method: http.MethodGet, path: path, query: q})
}

func post[T any](ctx context.Context, c *Client, sess Session, path string, q url.Values, payload any) (T, error) {
	r := request{method: http.MethodPost, path: path, query: q}
	if payload != nil {
		body, err := jsonBody(payload)
		if err != nil {
			var zero T
			return zero, &TransportError{Path: path, Err: err}
		}
		r.body = body
		r.contentType = "application/json"
	}
	return call[T](ctx, c, sess, r)
}

func idQuery(key, id string) url.Values {
	return url.Values{key: []string{id}}
}
