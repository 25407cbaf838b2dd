package handler

import (
	"mime/multipart"

	"vpsweb/model"
	"vpsweb/mutation"
)

type errcode int

const (
	errBadRequest errcode = 10001 + iota
	errInternalServer
	errUnauthorized
	errMutationRejected
)

func (e errcode) String() string {
	switch e {
	case errBadRequest:
		return "请求内容有误"
	case errInternalServer:
		return "服务处理错误"
	case errUnauthorized:
		return "未登录或登录已过期"
	case errMutationRejected:
		return "操作失败"
	default:
		return "未知错误"
	}
}

type apiResponse struct {
	Code    errcode `json:"code"`
	Message string  `json:"message"`
	Data    any     `json:"data,omitempty"`
}

func success(data any) apiResponse {
	return apiResponse{
		Code:    0,
		Message: "success",
		Data:    data,
	}
}

func fail(code errcode, message string) apiResponse {
	if message == "" {
		message = code.String()
	}
	return apiResponse{
		Code:    code,
		Message: message,
	}
}

// listResponse 带上规范化后的查询串，前端用它替换地址栏
type listResponse struct {
	List  any    `json:"list"`
	Query string `json:"query"`
}

type mutationResponse struct {
	State        string             `json:"state"`
	Notification model.Notification `json:"notification"`
	ID           string             `json:"id,omitempty"`
}

func newMutationResponse(res mutation.Result, id string) mutationResponse {
	return mutationResponse{State: res.State.String(), Notification: res.Notification, ID: id}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type passwordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type idQuery struct {
	ID string `form:"id" binding:"required"`
}

type idRequest struct {
	ID string `json:"id" binding:"required"`
}

type userIDRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type setRoleRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role"`
}

type statsQuery struct {
	Scope string `form:"scope"`
}

type uploadRequest struct {
	File       *multipart.FileHeader `form:"file" binding:"required"`
	Title      string                `form:"title"`
	CategoryID *int                  `form:"category_id"`
}
