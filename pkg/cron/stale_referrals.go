package cron

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type ReferralReminder interface {
	RemindStale(ctx context.Context, age time.Duration) (int, error)
}

// StaleReferrals re-notifies recipients of referrals left pending too long.
type StaleReferrals struct {
	services []ReferralReminder
	age      time.Duration
	log      *zap.Logger
}

func NewStaleReferrals(age time.Duration, log *zap.Logger, services ...ReferralReminder) *StaleReferrals {
	return &StaleReferrals{services: services, age: age, log: log}
}

func (j *StaleReferrals) Name() string { return "stale_referrals" }

func (j *StaleReferrals) Run(ctx context.Context) error {
	var errs []error
	total := 0
	for _, svc := range j.services {
		n, err := svc.RemindStale(ctx, j.age)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
	}
	j.log.Info("stale referral reminders sent", zap.Int("count", total))
	return errors.Join(errs...)
}
