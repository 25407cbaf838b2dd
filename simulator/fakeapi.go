// Package simulator 提供一个内存版的远端 vps-api，用于本地联调和测试
package simulator

import (
	"math/rand"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vpsweb/model"
)

type account struct {
	user     model.User
	password string
}

type fault struct {
	code      int
	msg       string
	transport bool
}

type API struct {
	mu       sync.Mutex
	accounts map[string]*account
	videos   []*model.Video
	analyses map[string]*model.AnalysisResult
	tokens   map[string]string
	faults   map[string]fault
	gates    map[string]chan struct{}
	hits     map[string]int
	rnd      *rand.Rand
	engine   *gin.Engine
}

func New() *API {
	gin.SetMode(gin.ReleaseMode)
	a := &API{
		accounts: make(map[string]*account),
		analyses: make(map[string]*model.AnalysisResult),
		tokens:   make(map[string]string),
		faults:   make(map[string]fault),
		gates:    make(map[string]chan struct{}),
		hits:     make(map[string]int),
		rnd:      rand.New(rand.NewSource(1)),
	}
	a.routes()
	return a
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.engine.ServeHTTP(w, r)
}

// AddUser 直接写入账号，返回用户 id
func (a *API) AddUser(username, password, role string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addUserLocked(username, password, role)
}

func (a *API) addUserLocked(username, password, role string) string {
	now := time.Now().UnixMilli()
	u := model.User{ID: uuid.NewString(), Username: username, Role: role, CreatedAt: now, UpdatedAt: now}
	a.accounts[u.ID] = &account{user: u, password: password}
	return u.ID
}

func (a *API) AddVideo(title, uploaderID string, status model.VideoStatus) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addVideoLocked(title, uploaderID, status)
}

func (a *API) addVideoLocked(title, uploaderID string, status model.VideoStatus) string {
	acc := a.accounts[uploaderID]
	name := ""
	if acc != nil {
		name = acc.user.Username
	}
	dur := int64(4000 + a.rnd.Intn(6000))
	url := "/static/" + title + ".mp4"
	v := &model.Video{
		ID:        uuid.NewString(),
		UserID:    uploaderID,
		Title:     title,
		Duration:  &dur,
		Status:    status,
		Uploader:  name,
		CreatedAt: time.Now().UnixMilli() - int64(len(a.videos))*86_400_000,
		URL:       &url,
	}
	a.videos = append(a.videos, v)
	if status == model.VideoCompleted {
		a.analyses[v.ID] = a.curveLocked(2.5 + a.rnd.Float64()*4)
	}
	return v.ID
}

// SetCurve 覆盖某个视频的分析曲线
func (a *API) SetCurve(videoID string, curve []model.CurvePoint) {
	a.mu.Lock()
	defer a.mu.Unlock()
	res := a.analyses[videoID]
	if res == nil {
		res = &model.AnalysisResult{}
		a.analyses[videoID] = res
	}
	res.CurveData = curve
}

// Fail 让 path 之后的请求返回业务错误码，code 为 0 时清除
func (a *API) Fail(path string, code int, msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if code == 0 {
		delete(a.faults, path)
		return
	}
	a.faults[path] = fault{code: code, msg: msg}
}

// Drop 让 path 之后的请求直接断开连接
func (a *API) Drop(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.faults[path] = fault{transport: true}
}

// Hold 让 path 的请求阻塞直到返回的函数被调用
func (a *API) Hold(path string) (release func()) {
	ch := make(chan struct{})
	a.mu.Lock()
	a.gates[path] = ch
	a.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.gates, path)
			a.mu.Unlock()
			close(ch)
		})
	}
}

func (a *API) Hits(path string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hits[path]
}

func (a *API) UserRole(id string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if acc := a.accounts[id]; acc != nil {
		return acc.user.Role
	}
	return ""
}

// curveLocked 生成一条穿刺速度曲线，±5% 波动
func (a *API) curveLocked(base float64) *model.AnalysisResult {
	n := 20 + a.rnd.Intn(40)
	curve := make([]model.CurvePoint, n)
	t := 0.0
	var sum float64
	for i := range curve {
		t += 0.03 + a.rnd.Float64()*0.04
		v := base * (1 - float64(i)/float64(n)*0.6)
		v += (a.rnd.Float64() - 0.5) * v * 0.05
		curve[i] = model.CurvePoint{T: t, V: v}
		sum += v
	}
	start, end := curve[0].T.(float64), curve[n-1].T.(float64)
	init := curve[0].V.(float64)
	avg := sum / float64(n)
	processed := time.Now().UnixMilli()
	return &model.AnalysisResult{
		StartTime:   &start,
		EndTime:     &end,
		InitSpeed:   &init,
		AvgSpeed:    &avg,
		CurveData:   curve,
		ProcessedAt: &processed,
	}
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, model.Envelope[any]{Code: 200, Data: data})
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, model.Envelope[any]{Code: status, ErrMsg: msg})
}

func (a *API) middleware(c *gin.Context) {
	path := strings.TrimPrefix(c.FullPath(), "/api")

	a.mu.Lock()
	a.hits[path]++
	f, faulty := a.faults[path]
	gate := a.gates[path]
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if faulty {
		if f.transport {
			if hj, ok := c.Writer.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
			c.Abort()
			return
		}
		// 与真实服务一致：业务失败也可能是 HTTP 200
		c.AbortWithStatusJSON(http.StatusOK, model.Envelope[any]{Code: f.code, ErrMsg: f.msg})
		return
	}

	if path == "/auth/login" {
		c.Next()
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	a.mu.Lock()
	uid, found := a.tokens[token]
	acc := a.accounts[uid]
	a.mu.Unlock()
	if !found || acc == nil {
		fail(c, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if strings.HasPrefix(path, "/admin") && acc.user.Role != model.RoleAdmin {
		fail(c, http.StatusForbidden, "Permission denied")
		return
	}
	c.Set("user", acc.user)
	c.Next()
}

func currentUser(c *gin.Context) model.User {
	return c.MustGet("user").(model.User)
}

func (a *API) routes() {
	r := gin.New()
	api := r.Group("/api", a.middleware)
	{
		api.POST("/auth/login", a.login)
		api.GET("/auth/me", func(c *gin.Context) { ok(c, currentUser(c)) })
		api.GET("/user/profile", func(c *gin.Context) { ok(c, currentUser(c)) })
		api.POST("/user/password", a.updatePassword)
		api.GET("/videos", a.listVideos)
		api.GET("/videos/uploaders", a.uploaders)
		api.GET("/videos/detail", a.videoDetail)
		api.GET("/videos/analysis", a.analysis)
		api.POST("/videos/analysis", a.analyze)
		api.POST("/videos/delete", a.deleteVideo)
		api.POST("/videos/upload", a.upload)
		api.GET("/categories", func(c *gin.Context) { ok(c, []model.Category{{ID: 1, Name: "default"}}) })
		api.GET("/dashboard/stats", a.stats)
		api.GET("/dashboard/pending-videos", a.pending)
		api.GET("/admin/users", a.listUsers)
		api.POST("/admin/users/create", a.createUser)
		api.POST("/admin/users/delete", a.deleteUser)
		api.POST("/admin/users/set-role", a.setRole)
		api.POST("/comparisons/ai-analyze", a.aiAnalyze)
		api.GET("/comparisons/report", a.aiReport)
	}
	a.engine = r
}

func (a *API) login(c *gin.Context) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Request validation error")
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, acc := range a.accounts {
		if acc.user.Username == in.Username && acc.password == in.Password {
			token := "tk-" + uuid.NewString()
			a.tokens[token] = id
			ok(c, model.LoginResult{Token: token, User: acc.user})
			return
		}
	}
	fail(c, http.StatusUnauthorized, "Incorrect username or password")
}

func (a *API) updatePassword(c *gin.Context) {
	var in struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || len(in.NewPassword) < 6 {
		fail(c, http.StatusUnprocessableEntity, "Request validation error")
		return
	}
	u := currentUser(c)
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := a.accounts[u.ID]
	if acc.password != in.OldPassword {
		fail(c, http.StatusBadRequest, "Old password is incorrect")
		return
	}
	acc.password = in.NewPassword
	ok(c, acc.user)
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	return page, size
}

func paginate[T any](items []T, page, size int) []T {
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

func (a *API) listVideos(c *gin.Context) {
	page, size := pageParams(c)
	keyword, uploader := c.Query("keyword"), c.Query("uploader")
	status, hasStatus := c.GetQuery("status")

	a.mu.Lock()
	var items []model.Video
	for _, v := range a.videos {
		if keyword != "" && !strings.Contains(v.Title, keyword) {
			continue
		}
		if uploader != "" && v.Uploader != uploader {
			continue
		}
		if hasStatus && strconv.Itoa(int(v.Status)) != status {
			continue
		}
		items = append(items, *v)
	}
	a.mu.Unlock()

	ok(c, model.Page[model.Video]{Items: paginate(items, page, size), Total: len(items), Page: page, PageSize: size})
}

func (a *API) uploaders(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	names := make([]string, 0, len(a.accounts))
	for _, acc := range a.accounts {
		names = append(names, acc.user.Username)
	}
	slices.Sort(names)
	ok(c, names)
}

func (a *API) findLocked(id string) *model.Video {
	for _, v := range a.videos {
		if v.ID == id {
			return v
		}
	}
	return nil
}

func (a *API) videoDetail(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.findLocked(c.Query("id"))
	if v == nil {
		fail(c, http.StatusNotFound, "Video not found")
		return
	}
	ok(c, model.VideoDetail{Video: *v})
}

func (a *API) analysis(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.findLocked(c.Query("id"))
	if v == nil {
		fail(c, http.StatusNotFound, "Video not found")
		return
	}
	ok(c, model.Analysis{Video: model.VideoDetail{Video: *v}, Analysis: a.analyses[v.ID]})
}

func (a *API) analyze(c *gin.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.findLocked(c.Query("id"))
	if v == nil {
		fail(c, http.StatusNotFound, "Video not found")
		return
	}
	v.Status = model.VideoCompleted
	a.analyses[v.ID] = a.curveLocked(3 + a.rnd.Float64()*3)
	ok(c, gin.H{})
}

func (a *API) deleteVideo(c *gin.Context) {
	id := c.Query("id")
	a.mu.Lock()
	defer a.mu.Unlock()
	i := slices.IndexFunc(a.videos, func(v *model.Video) bool { return v.ID == id })
	if i < 0 {
		fail(c, http.StatusNotFound, "Video not found")
		return
	}
	a.videos = slices.Delete(a.videos, i, i+1)
	delete(a.analyses, id)
	ok(c, gin.H{"deleted": true})
}

func (a *API) upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, "No filename provided")
		return
	}
	title := c.PostForm("title")
	if title == "" {
		title = strings.TrimSuffix(fh.Filename, ".mp4")
	}
	u := currentUser(c)
	a.mu.Lock()
	id := a.addVideoLocked(title, u.ID, model.VideoPending)
	v := a.findLocked(id)
	a.mu.Unlock()
	ok(c, model.UploadResult{ID: id, Status: int(v.Status), RawURL: *v.URL, CreatedAt: v.CreatedAt})
}

func (a *API) stats(c *gin.Context) {
	u := currentUser(c)
	all := c.DefaultQuery("scope", "me") == "all" && u.IsAdmin()
	a.mu.Lock()
	defer a.mu.Unlock()
	var s model.Stats
	for _, v := range a.videos {
		if !all && v.UserID != u.ID {
			continue
		}
		s.Total++
		switch v.Status {
		case model.VideoPending:
			s.Pending++
		case model.VideoProcessing:
			s.Processing++
		case model.VideoCompleted:
			s.Completed++
		case model.VideoFailed:
			s.Failed++
		}
	}
	ok(c, s)
}

func (a *API) pending(c *gin.Context) {
	u := currentUser(c)
	a.mu.Lock()
	defer a.mu.Unlock()
	var groups []model.PendingGroup
	for _, v := range a.videos {
		if v.Status == model.VideoCompleted || (!u.IsAdmin() && v.UserID != u.ID) {
			continue
		}
		date := time.UnixMilli(v.CreatedAt).Format(time.DateOnly)
		if n := len(groups); n > 0 && groups[n-1].Date == date {
			groups[n-1].List = append(groups[n-1].List, *v)
			continue
		}
		groups = append(groups, model.PendingGroup{Date: date, List: []model.Video{*v}})
	}
	ok(c, groups)
}

func (a *API) listUsers(c *gin.Context) {
	page, size := pageParams(c)
	keyword, role := c.Query("keyword"), c.Query("role")
	a.mu.Lock()
	var users []model.User
	for _, acc := range a.accounts {
		if keyword != "" && !strings.Contains(acc.user.Username, keyword) {
			continue
		}
		if role != "" && acc.user.Role != role {
			continue
		}
		users = append(users, acc.user)
	}
	a.mu.Unlock()
	slices.SortFunc(users, func(x, y model.User) int { return strings.Compare(x.Username, y.Username) })
	ok(c, model.Page[model.User]{Items: paginate(users, page, size), Total: len(users), Page: page, PageSize: size})
}

func (a *API) createUser(c *gin.Context) {
	var in model.NewUser
	if err := c.ShouldBindJSON(&in); err != nil || in.Username == "" {
		fail(c, http.StatusUnprocessableEntity, "Request validation error")
		return
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, acc := range a.accounts {
		if acc.user.Username == in.Username {
			fail(c, http.StatusBadRequest, "Username already registered")
			return
		}
	}
	ok(c, gin.H{"id": a.addUserLocked(in.Username, in.Password, in.Role)})
}

func (a *API) deleteUser(c *gin.Context) {
	id := c.Query("user_id")
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, found := a.accounts[id]; !found {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	delete(a.accounts, id)
	// 级联删除该用户上传的视频
	a.videos = slices.DeleteFunc(a.videos, func(v *model.Video) bool { return v.UserID == id })
	ok(c, gin.H{"success": true})
}

func (a *API) setRole(c *gin.Context) {
	var in struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Request validation error")
		return
	}
	id := c.Query("user_id")
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := a.accounts[id]
	if acc == nil {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	acc.user.Role = in.Role
	ok(c, gin.H{"success": true})
}

func (a *API) report(c *gin.Context, aid, bid string) model.ComparisonReport {
	text := "**AI Analysis Result:**\n\n- 视频 A 与视频 B 的速度曲线已对齐比较。"
	return model.ComparisonReport{
		ID:         uuid.NewString(),
		UserID:     currentUser(c).ID,
		VideoAID:   aid,
		VideoBID:   bid,
		AIAnalysis: &text,
		CreatedAt:  time.Now().UnixMilli(),
	}
}

func (a *API) aiAnalyze(c *gin.Context) {
	var in struct {
		VideoAID string `json:"video_a_id"`
		VideoBID string `json:"video_b_id"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusUnprocessableEntity, "Request validation error")
		return
	}
	ok(c, a.report(c, in.VideoAID, in.VideoBID))
}

func (a *API) aiReport(c *gin.Context) {
	ok(c, a.report(c, c.Query("video_a_id"), c.Query("video_b_id")))
}

// Seed 写入一组演示数据，返回管理员和普通用户 id
func (a *API) Seed() (adminID, userID string) {
	adminID = a.AddUser("admin", "123456", model.RoleAdmin)
	userID = a.AddUser("alice", "123456", model.RoleUser)
	a.AddVideo("puncture-001", adminID, model.VideoCompleted)
	a.AddVideo("puncture-002", userID, model.VideoCompleted)
	a.AddVideo("puncture-003", userID, model.VideoPending)
	a.AddVideo("puncture-004", userID, model.VideoFailed)
	return adminID, userID
}
