package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"vpsweb/apiclient"
	"vpsweb/model"
	"vpsweb/mutation"
)

func dryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "vps:vps@tcp(127.0.0.1:3306)/vpsweb?parseTime=True",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true, SkipDefaultTransaction: true})
	require.NoError(t, err)

	var stmts []string
	err = db.Callback().Create().After("gorm:create").Register("test:capture", func(tx *gorm.DB) {
		stmts = append(stmts, tx.Statement.SQL.String())
	})
	require.NoError(t, err)
	return db, &stmts
}

func TestGormAuditRecord(t *testing.T) {
	db, stmts := dryRunDB(t)
	a := NewGormAudit(db)

	require.NoError(t, a.Record(context.Background(), AuditLog{ActorID: "u1", Action: "user.delete", Target: "u2", Outcome: "committed"}))
	require.Len(t, *stmts, 1)
	assert.Contains(t, (*stmts)[0], "INSERT INTO `audit_logs`")
}

type memAudit struct {
	entries []AuditLog
	err     error
}

func (m *memAudit) Record(_ context.Context, e AuditLog) error {
	m.entries = append(m.entries, e)
	return m.err
}

func TestRecordMutation(t *testing.T) {
	audit := &memAudit{err: errors.New("disk full")}
	svc := NewService(nil, audit, DefaultOptions())
	sess := apiclient.Session{Token: "t", User: model.User{ID: "u1", Username: "admin"}}

	svc.record(context.Background(), sess, "user.set_role", "u2:admin", mutation.Result{
		State:        mutation.RolledBack,
		Notification: model.Notification{Level: model.NotifyError, Description: "boom"},
	})
	require.Len(t, audit.entries, 1)
	e := audit.entries[0]
	assert.Equal(t, "admin", e.ActorName)
	assert.Equal(t, "rolled_back", e.Outcome)
	assert.Equal(t, "boom", e.Description)
}
