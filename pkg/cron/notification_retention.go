package cron

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type NotificationPurger interface {
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NotificationRetention deletes read notifications older than MaxAge.
type NotificationRetention struct {
	store  NotificationPurger
	maxAge time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewNotificationRetention(store NotificationPurger, maxAge time.Duration, log *zap.Logger) *NotificationRetention {
	return &NotificationRetention{store: store, maxAge: maxAge, log: log, now: time.Now}
}

func (j *NotificationRetention) Name() string { return "notification_retention" }

func (j *NotificationRetention) Run(ctx context.Context) error {
	cutoff := j.now().Add(-j.maxAge)
	n, err := j.store.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	j.log.Info("old notifications deleted", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	return nil
}
