package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vpsweb/apiclient"
	"vpsweb/model"
	"vpsweb/pkg/logger"
	"vpsweb/service"
)

const (
	ctxSession   = "session"
	ctxRequestID = "request_id"
)

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequestID 为每个请求分配 id，写入响应头并用于日志
func RequestID(c *gin.Context) {
	id := c.GetHeader("X-Request-Id")
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}
	c.Set(ctxRequestID, id)
	c.Header("X-Request-Id", id)
	c.Next()
}

// invalidMessage 去掉哨兵错误前缀，只保留给用户看的部分
func invalidMessage(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrInvalidArgument.Error()+": ")
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var ae *apiclient.AppError
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, fail(errBadRequest, invalidMessage(err)))
	case errors.Is(err, model.ErrUnknownModal):
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, fail(errUnauthorized, ""))
	case errors.As(err, &ae) && ae.Code == http.StatusUnauthorized:
		if sess, ok := currentSession(c); ok {
			h.svc.Expire(sess)
		}
		c.JSON(http.StatusUnauthorized, fail(errUnauthorized, ae.ErrMsg))
	case apiclient.IsUnauthorized(err):
		c.JSON(http.StatusForbidden, fail(errUnauthorized, apiclient.Describe(err, "", "没有权限")))
	default:
		logger.Logger.Errorf("[%s] %s %s: %v", c.GetString(ctxRequestID), c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, fail(errInternalServer, apiclient.Describe(err, "网络错误，请稍后重试", errInternalServer.String())))
	}
}

func currentSession(c *gin.Context) (apiclient.Session, bool) {
	v, ok := c.Get(ctxSession)
	if !ok {
		return apiclient.Session{}, false
	}
	sess, ok := v.(apiclient.Session)
	return sess, ok
}

func session(c *gin.Context) apiclient.Session {
	sess, _ := currentSession(c)
	return sess
}
