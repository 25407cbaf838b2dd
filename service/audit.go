package service

import (
	"context"
	"log"
	"os"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"vpsweb/apiclient"
	"vpsweb/mutation"
	"vpsweb/pkg/logger"
)

type AuditLog struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	CreatedAt   time.Time `gorm:"index"`
	ActorID     string    `gorm:"size:64;index"`
	ActorName   string    `gorm:"size:64"`
	Action      string    `gorm:"size:32;index"`
	Target      string    `gorm:"size:128"`
	Outcome     string    `gorm:"size:16"`
	Description string    `gorm:"size:512"`
}

// AuditRecorder 记录管理员的变更操作，记录失败不影响变更本身
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditLog) error
}

type NopAudit struct{}

func (NopAudit) Record(context.Context, AuditLog) error { return nil }

type GormAudit struct {
	db *gorm.DB
}

func NewGormAudit(db *gorm.DB) *GormAudit {
	return &GormAudit{db: db}
}

// OpenAudit 连接 mysql 并建表
func OpenAudit(dsn string) (*GormAudit, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormLogger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), gormLogger.Config{
			SlowThreshold: time.Second,
			LogLevel:      gormLogger.Warn,
			Colorful:      false,
		}),
	})
	if err != nil {
		return nil, err
	}
	if err = db.AutoMigrate(&AuditLog{}); err != nil {
		return nil, err
	}
	return NewGormAudit(db), nil
}

func (a *GormAudit) Record(ctx context.Context, entry AuditLog) error {
	return a.db.WithContext(ctx).Create(&entry).Error
}

func (s *Service) record(ctx context.Context, sess apiclient.Session, action, target string, res mutation.Result) {
	entry := AuditLog{
		CreatedAt:   time.Now(),
		ActorID:     sess.User.ID,
		ActorName:   sess.User.Username,
		Action:      action,
		Target:      target,
		Outcome:     res.State.String(),
		Description: res.Notification.Description,
	}
	if err := s.audit.Record(context.WithoutCancel(ctx), entry); err != nil {
		logger.Logger.Errorf("写入审计日志失败 %s %s: %v", action, target, err)
	}
}
