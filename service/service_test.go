package service

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vpsweb/apiclient"
	"vpsweb/model"
	"vpsweb/mutation"
	"vpsweb/querystate"
	"vpsweb/simulator"
)

type fixture struct {
	svc     *Service
	api     *simulator.API
	admin   apiclient.Session
	alice   apiclient.Session
	aliceID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := simulator.New()
	_, aliceID := api.Seed()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	svc := NewService(apiclient.New(srv.URL+"/api", 5*time.Second), nil, DefaultOptions())
	admin, err := svc.Login(context.Background(), "admin", "123456")
	require.NoError(t, err)
	alice, err := svc.Login(context.Background(), "alice", "123456")
	require.NoError(t, err)
	return &fixture{svc: svc, api: api, admin: admin, alice: alice, aliceID: aliceID}
}

func TestLoginSession(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.Session(f.admin.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.User.Username)

	f.svc.Logout(f.admin.Token)
	_, err = f.svc.Session(f.admin.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.svc.Login(context.Background(), "admin", "wrong")
	assert.True(t, apiclient.IsUnauthorized(err))

	_, err = f.svc.Login(context.Background(), " ", "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestListVideosCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := querystate.DefaultVideoSearch()

	list, err := f.svc.ListVideos(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, 4, list.Total)
	assert.Equal(t, 1, list.TotalPages)
	for i := 1; i < len(list.Items); i++ {
		assert.GreaterOrEqual(t, list.Items[i-1].CreatedAt, list.Items[i].CreatedAt)
	}
	assert.NotEmpty(t, list.Items[0].StatusStr)

	_, err = f.svc.ListVideos(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, 1, f.api.Hits("/videos"))

	q.Status = "completed"
	list, err = f.svc.ListVideos(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, 2, f.api.Hits("/videos"))
}

func TestListVideosSortByName(t *testing.T) {
	f := newFixture(t)
	q := querystate.DefaultVideoSearch()
	q.SortBy = "name"
	list, err := f.svc.ListVideos(context.Background(), f.admin, q)
	require.NoError(t, err)
	require.Len(t, list.Items, 4)
	assert.Equal(t, "puncture-001", list.Items[0].Title)
	assert.Equal(t, "puncture-004", list.Items[3].Title)
}

func TestUploadersCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	names, err := f.svc.Uploaders(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "alice"}, names)

	_, _ = f.svc.Uploaders(ctx, f.alice)
	assert.Equal(t, 1, f.api.Hits("/videos/uploaders"))
}

func usersKeyFor(f *fixture, q querystate.AdminUsers) (model.Page[model.User], bool) {
	return f.svc.users.Get(scopedKey(PrefixAdminUsers, f.admin, q.RemoteQuery()))
}

func roleOf(p model.Page[model.User], id string) string {
	for _, u := range p.Items {
		if u.ID == id {
			return u.Role
		}
	}
	return ""
}

func TestSetRoleRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := querystate.DefaultAdminUsers()

	_, err := f.svc.ListUsers(ctx, f.admin, q)
	require.NoError(t, err)

	f.api.Fail("/admin/users/set-role", 500, "database locked")
	release := f.api.Hold("/admin/users/set-role")

	done := make(chan mutation.Result, 1)
	go func() {
		res, _ := f.svc.SetRole(ctx, f.admin, mutation.RoleChange{UserID: f.aliceID, Role: model.RoleAdmin})
		done <- res
	}()
	require.Eventually(t, func() bool { return f.api.Hits("/admin/users/set-role") == 1 }, 2*time.Second, 5*time.Millisecond)

	page, ok := usersKeyFor(f, q)
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, roleOf(page, f.aliceID))

	release()
	res := <-done
	assert.Equal(t, mutation.RolledBack, res.State)
	assert.Equal(t, model.NotifyError, res.Notification.Level)
	assert.Equal(t, "database locked", res.Notification.Description)

	page, _ = usersKeyFor(f, q)
	assert.Equal(t, model.RoleUser, roleOf(page, f.aliceID))
	assert.Equal(t, model.RoleUser, f.api.UserRole(f.aliceID))
}

func TestSetRoleCommits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := querystate.DefaultAdminUsers()
	_, err := f.svc.ListUsers(ctx, f.admin, q)
	require.NoError(t, err)

	res, err := f.svc.SetRole(ctx, f.admin, mutation.RoleChange{UserID: f.aliceID, Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, "角色已更新", res.Notification.Title)

	list, err := f.svc.ListUsers(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, 2, f.api.Hits("/admin/users"))
	assert.Equal(t, model.RoleAdmin, roleOf(model.Page[model.User]{Items: list.Items}, f.aliceID))
}

func TestSetRoleValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SetRole(context.Background(), f.admin, mutation.RoleChange{UserID: "u1", Role: model.RoleAdmin})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = f.svc.SetRole(context.Background(), f.admin, mutation.RoleChange{UserID: f.aliceID, Role: "root"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, f.api.Hits("/admin/users/set-role"))
}

func TestCreateAndDeleteUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, id, err := f.svc.CreateUser(ctx, f.admin, model.NewUser{Username: "bob", Password: "123456"})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, model.RoleUser, f.api.UserRole(id))

	res, _, err = f.svc.CreateUser(ctx, f.admin, model.NewUser{Username: "bob", Password: "123456"})
	require.NoError(t, err)
	assert.Equal(t, mutation.RolledBack, res.State)
	assert.Equal(t, "Username already registered", res.Notification.Description)

	_, err = f.svc.DeleteUser(ctx, f.admin, f.admin.User.ID)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	res, err = f.svc.DeleteUser(ctx, f.admin, id)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Empty(t, f.api.UserRole(id))
}

func TestDeleteVideoInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := querystate.DefaultVideoSearch()
	list, err := f.svc.ListVideos(ctx, f.admin, q)
	require.NoError(t, err)

	res, err := f.svc.DeleteVideo(ctx, f.admin, list.Items[0].ID)
	require.NoError(t, err)
	assert.True(t, res.OK())

	list, err = f.svc.ListVideos(ctx, f.admin, q)
	require.NoError(t, err)
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, 2, f.api.Hits("/videos"))
}

func TestMutationDiscardedAfterCancel(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	release := f.api.Hold("/videos/delete")

	list, err := f.svc.ListVideos(context.Background(), f.admin, querystate.DefaultVideoSearch())
	require.NoError(t, err)

	done := make(chan mutation.Result, 1)
	go func() {
		res, _ := f.svc.DeleteVideo(ctx, f.admin, list.Items[0].ID)
		done <- res
	}()
	require.Eventually(t, func() bool { return f.api.Hits("/videos/delete") == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	release()

	res := <-done
	assert.Equal(t, mutation.Committed, res.State)
	assert.True(t, res.Discarded)
}

func TestValidateUpload(t *testing.T) {
	svc := NewService(nil, nil, DefaultOptions())
	assert.NoError(t, svc.ValidateUpload(UploadInput{FileName: "a.MP4", Size: 10}))
	assert.NoError(t, svc.ValidateUpload(UploadInput{FileName: "a.wmv", Size: 200 * 1024 * 1024}))
	assert.ErrorIs(t, svc.ValidateUpload(UploadInput{FileName: "a.txt", Size: 10}), ErrInvalidArgument)
	assert.ErrorIs(t, svc.ValidateUpload(UploadInput{FileName: "a.mp4", Size: 200*1024*1024 + 1}), ErrInvalidArgument)
	assert.ErrorIs(t, svc.ValidateUpload(UploadInput{FileName: "a.mp4"}), ErrInvalidArgument)
}

func TestUpload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.ListVideos(ctx, f.alice, querystate.DefaultVideoSearch())
	require.NoError(t, err)

	body := "not really a video"
	res, err := f.svc.Upload(ctx, f.alice, UploadInput{FileName: "clip.mp4", Size: int64(len(body))}, strings.NewReader(body))
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)

	list, err := f.svc.ListVideos(ctx, f.alice, querystate.DefaultVideoSearch())
	require.NoError(t, err)
	assert.Equal(t, 5, list.Total)
}

func completedIDs(t *testing.T, f *fixture) (string, string) {
	t.Helper()
	q := querystate.DefaultVideoSearch()
	q.Status = "completed"
	list, err := f.svc.ListVideos(context.Background(), f.admin, q)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	return list.Items[0].ID, list.Items[1].ID
}

func TestCompareSidesIndependent(t *testing.T) {
	f := newFixture(t)
	aid, _ := completedIDs(t, f)

	view := f.svc.Compare(context.Background(), f.admin, querystate.Compare{AID: aid, BID: "missing"})
	assert.Equal(t, model.Ready, view.A.State)
	assert.Equal(t, model.Failed, view.B.State)
	assert.Equal(t, "Video not found", view.B.Reason)
	assert.True(t, view.Chart.HasData)
	assert.Len(t, view.Chart.XAxis, 100)
	assert.Equal(t, 100, view.Stats[0].Count)
	assert.Zero(t, view.Stats[1].Count)

	empty := f.svc.Compare(context.Background(), f.admin, querystate.Compare{})
	assert.Equal(t, model.Loading, empty.A.State)
	assert.False(t, empty.Chart.HasData)
}

func TestCompareKnownCurve(t *testing.T) {
	f := newFixture(t)
	aid, bid := completedIDs(t, f)
	f.api.SetCurve(aid, []model.CurvePoint{{T: 0.0, V: 0.0}, {T: 1.0, V: 10.0}})
	f.api.SetCurve(bid, []model.CurvePoint{{T: "0", V: "2"}})

	view := f.svc.Compare(context.Background(), f.admin, querystate.Compare{AID: aid, BID: bid})
	a := view.Chart.Series[0].Data
	require.Len(t, a, 100)
	assert.Equal(t, 0.0, *a[0])
	assert.Equal(t, 10.0, *a[99])
	for _, v := range view.Chart.Series[1].Data {
		assert.Equal(t, 2.0, *v)
	}
	assert.Equal(t, 2.0, view.Stats[1].Average)
}

func TestExportComparison(t *testing.T) {
	f := newFixture(t)
	aid, bid := completedIDs(t, f)

	data, name, err := f.svc.ExportComparison(context.Background(), f.admin, querystate.Compare{AID: aid, BID: bid})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".xlsx"))

	x, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer x.Close()
	rows, err := x.GetRows(sheetSeries)
	require.NoError(t, err)
	assert.Len(t, rows, 101)
	assert.Equal(t, "区间", rows[0][0])
	assert.Equal(t, "100", rows[100][0])

	_, _, err = f.svc.ExportComparison(context.Background(), f.admin, querystate.Compare{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestAIAnalyze(t *testing.T) {
	f := newFixture(t)
	aid, bid := completedIDs(t, f)
	_, err := f.svc.AIAnalyze(context.Background(), f.admin, querystate.Compare{AID: aid})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	report, err := f.svc.AIAnalyze(context.Background(), f.admin, querystate.Compare{AID: aid, BID: bid})
	require.NoError(t, err)
	assert.Equal(t, bid, report.VideoBID)
	require.NotNil(t, report.AIAnalysis)
}

func TestTriggerAnalysis(t *testing.T) {
	f := newFixture(t)
	q := querystate.DefaultVideoSearch()
	q.Status = "pending"
	list, err := f.svc.ListVideos(context.Background(), f.alice, q)
	require.NoError(t, err)
	require.NotEmpty(t, list.Items)

	view, err := f.svc.TriggerAnalysis(context.Background(), f.alice, list.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", view.Video.StatusStr)
	require.NotNil(t, view.Result)
	assert.Len(t, view.Chart.Data, len(view.Result.CurveData))
}

func TestDashboardScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.svc.Dashboard(ctx, f.alice, ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, ScopeMe, d.Scope)
	assert.Equal(t, 3, d.Stats.Total)

	d, err = f.svc.Dashboard(ctx, f.admin, ScopeAll)
	require.NoError(t, err)
	assert.Equal(t, ScopeAll, d.Scope)
	assert.Equal(t, 4, d.Stats.Total)
	assert.NotEmpty(t, d.Pending)
}

func TestOpenModal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	aid, bid := completedIDs(t, f)

	v, err := f.svc.OpenModal(ctx, f.admin, model.VideoPlayModal{VideoID: aid})
	require.NoError(t, err)
	assert.Equal(t, "VideoPlayModal", v.Kind)
	assert.IsType(t, model.VideoView{}, v.Data)

	v, err = f.svc.OpenModal(ctx, f.admin, model.VideoSelectModal{Title: "选择视频 B", DisabledVideoIDs: []string{aid}})
	require.NoError(t, err)
	items := v.Data.([]SelectableVideo)
	require.Len(t, items, 4)
	for _, it := range items {
		want := it.Status == model.VideoCompleted && it.ID != aid
		assert.Equal(t, want, it.Selectable, it.Title)
	}

	v, err = f.svc.OpenModal(ctx, f.admin, model.SpeedChartModal{VideoID: aid})
	require.NoError(t, err)
	assert.IsType(t, AnalysisView{}, v.Data)

	v, err = f.svc.OpenModal(ctx, f.admin, model.SpeedMultiChartModal{AID: aid, BID: bid})
	require.NoError(t, err)
	assert.True(t, v.Data.(CompareView).Chart.HasData)

	_, err = f.svc.OpenModal(ctx, f.admin, model.VideoPlayModal{})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.UpdatePassword(ctx, f.alice, apiclient.PasswordChange{OldPassword: "123456", NewPassword: "123"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = f.svc.UpdatePassword(ctx, f.alice, apiclient.PasswordChange{OldPassword: "bad", NewPassword: "abcdef"})
	assert.Equal(t, "Old password is incorrect", reason(err, ""))

	u, err := f.svc.UpdatePassword(ctx, f.alice, apiclient.PasswordChange{OldPassword: "123456", NewPassword: "abcdef"})
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = f.svc.Login(ctx, "alice", "abcdef")
	assert.NoError(t, err)
}

func TestCreateUserRefreshesUploaders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	names, err := f.svc.Uploaders(ctx, f.admin)
	require.NoError(t, err)
	assert.NotContains(t, names, "carol")

	res, _, err := f.svc.CreateUser(ctx, f.admin, model.NewUser{Username: "carol", Password: "123456"})
	require.NoError(t, err)
	require.True(t, res.OK())

	names, err = f.svc.Uploaders(ctx, f.admin)
	require.NoError(t, err)
	assert.Contains(t, names, "carol")
	assert.Equal(t, 2, f.api.Hits("/videos/uploaders"))
}
