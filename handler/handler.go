package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"vpsweb/apiclient"
	"vpsweb/model"
	"vpsweb/mutation"
	"vpsweb/pkg/logger"
	"vpsweb/querystate"
	"vpsweb/service"
)

type Handler struct {
	svc *service.Service
}

func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register 挂载全部接口，除登录外都需要 Bearer token
func (h *Handler) Register(g *gin.RouterGroup) {
	g.POST("/auth/login", h.Login)

	auth := g.Group("", h.Auth)
	{
		auth.POST("/auth/logout", h.Logout)
		auth.GET("/user/profile", h.Profile)
		auth.POST("/user/password", h.UpdatePassword)
		auth.GET("/dashboard/stats", h.DashboardStats)
		auth.GET("/dashboard/pending", h.PendingVideos)
		auth.GET("/categories", h.Categories)
		auth.GET("/videos", h.ListVideos)
		auth.GET("/videos/uploaders", h.Uploaders)
		auth.GET("/videos/analysis", h.Analysis)
		auth.POST("/videos/analysis", h.TriggerAnalysis)
		auth.POST("/videos/delete", h.DeleteVideo)
		auth.POST("/videos/upload", h.Upload)
		auth.GET("/compare", h.Compare)
		auth.GET("/compare/export", h.ExportComparison)
		auth.POST("/compare/ai", h.AIAnalyze)
		auth.POST("/modal", h.OpenModal)
		auth.GET("/admin/users", h.ListUsers)
		auth.POST("/admin/users/create", h.CreateUser)
		auth.POST("/admin/users/delete", h.DeleteUser)
		auth.POST("/admin/users/set-role", h.SetRole)
	}
}

func (h *Handler) Auth(c *gin.Context) {
	sess, err := h.svc.Session(bearerToken(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, fail(errUnauthorized, ""))
		return
	}
	c.Set(ctxSession, sess)
	c.Next()
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	sess, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	logger.Logger.Infof("用户 %s 登录", sess.User.Username)
	c.JSON(http.StatusOK, success(sess))
}

func (h *Handler) Logout(c *gin.Context) {
	h.svc.Logout(session(c).Token)
	c.JSON(http.StatusOK, success(nil))
}

func (h *Handler) Profile(c *gin.Context) {
	u, err := h.svc.Profile(c.Request.Context(), session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(u))
}

func (h *Handler) UpdatePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	u, err := h.svc.UpdatePassword(c.Request.Context(), session(c), apiclient.PasswordChange{OldPassword: req.OldPassword, NewPassword: req.NewPassword})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(u))
}

func (h *Handler) DashboardStats(c *gin.Context) {
	var query statsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	d, err := h.svc.Dashboard(c.Request.Context(), session(c), query.Scope)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(d))
}

func (h *Handler) PendingVideos(c *gin.Context) {
	groups, err := h.svc.PendingVideos(c.Request.Context(), session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(groups))
}

func (h *Handler) Categories(c *gin.Context) {
	list, err := h.svc.Categories(c.Request.Context(), session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(list))
}

func (h *Handler) ListVideos(c *gin.Context) {
	raw := c.Request.URL.Query()
	q := querystate.DecodeVideoSearch(raw, querystate.DefaultVideoSearch())
	list, err := h.svc.ListVideos(c.Request.Context(), session(c), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(listResponse{List: list, Query: q.Encode(raw).Encode()}))
}

func (h *Handler) Uploaders(c *gin.Context) {
	names, err := h.svc.Uploaders(c.Request.Context(), session(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(names))
}

func (h *Handler) Analysis(c *gin.Context) {
	var query idQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	view, err := h.svc.Analysis(c.Request.Context(), session(c), query.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(view))
}

func (h *Handler) TriggerAnalysis(c *gin.Context) {
	var query idQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	view, err := h.svc.TriggerAnalysis(c.Request.Context(), session(c), query.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(view))
}

func (h *Handler) respondMutation(c *gin.Context, res mutation.Result, id string) {
	if res.Discarded {
		// 客户端已断开，缓存已修正，不再写响应
		return
	}
	body := newMutationResponse(res, id)
	if !res.OK() {
		c.JSON(http.StatusOK, apiResponse{Code: errMutationRejected, Message: res.Notification.Description, Data: body})
		return
	}
	c.JSON(http.StatusOK, success(body))
}

func (h *Handler) DeleteVideo(c *gin.Context) {
	var req idRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	res, err := h.svc.DeleteVideo(c.Request.Context(), session(c), req.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondMutation(c, res, req.ID)
}

func (h *Handler) Upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBind(&req); err != nil {
		logger.Logger.Errorf("获取上传的文件失败: %v", err)
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	in := service.UploadInput{
		FileName:   req.File.Filename,
		Size:       req.File.Size,
		Title:      req.Title,
		CategoryID: req.CategoryID,
	}
	if err := h.svc.ValidateUpload(in); err != nil {
		h.respondError(c, err)
		return
	}

	file, err := req.File.Open()
	if err != nil {
		logger.Logger.Errorf("无法打开文件: %v", err)
		c.JSON(http.StatusInternalServerError, fail(errInternalServer, err.Error()))
		return
	}
	defer file.Close()

	res, err := h.svc.Upload(c.Request.Context(), session(c), in, file)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(res))

	logger.Logger.Infof("上传 %s 成功", req.File.Filename)
}

func (h *Handler) Compare(c *gin.Context) {
	raw := c.Request.URL.Query()
	q := querystate.DecodeCompare(raw)
	view := h.svc.Compare(c.Request.Context(), session(c), q)
	c.JSON(http.StatusOK, success(listResponse{List: view, Query: q.Encode(raw).Encode()}))
}

func (h *Handler) ExportComparison(c *gin.Context) {
	q := querystate.DecodeCompare(c.Request.URL.Query())
	data, name, err := h.svc.ExportComparison(c.Request.Context(), session(c), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) AIAnalyze(c *gin.Context) {
	var req querystate.Compare
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	report, err := h.svc.AIAnalyze(c.Request.Context(), session(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(report))
}

func (h *Handler) OpenModal(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	m, err := model.DecodeModal(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	view, err := h.svc.OpenModal(c.Request.Context(), session(c), m)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(view))
}

func (h *Handler) ListUsers(c *gin.Context) {
	raw := c.Request.URL.Query()
	q := querystate.DecodeAdminUsers(raw, querystate.DefaultAdminUsers())
	list, err := h.svc.ListUsers(c.Request.Context(), session(c), q)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, success(listResponse{List: list, Query: q.Encode(raw).Encode()}))
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	res, id, err := h.svc.CreateUser(c.Request.Context(), session(c), model.NewUser{Username: req.Username, Password: req.Password, Role: req.Role})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondMutation(c, res, id)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	res, err := h.svc.DeleteUser(c.Request.Context(), session(c), req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondMutation(c, res, req.UserID)
}

func (h *Handler) SetRole(c *gin.Context) {
	var req setRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, fail(errBadRequest, err.Error()))
		return
	}
	res, err := h.svc.SetRole(c.Request.Context(), session(c), mutation.RoleChange{UserID: req.UserID, Role: req.Role})
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondMutation(c, res, req.UserID)
}
