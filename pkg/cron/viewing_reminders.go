package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"estacrm_backend/internal/model"
	"estacrm_backend/internal/service/notify"
	"estacrm_backend/pkg/email"
)

type ViewingSource interface {
	ScheduledBetween(ctx context.Context, from, to time.Time) ([]model.Viewing, error)
}

// ViewingReminders tells every agent about the viewings on their calendar
// today: one notification and one email per agent.
type ViewingReminders struct {
	viewings ViewingSource
	notifier *notify.Service
	log      *zap.Logger
	now      func() time.Time
}

func NewViewingReminders(viewings ViewingSource, notifier *notify.Service, log *zap.Logger) *ViewingReminders {
	return &ViewingReminders{viewings: viewings, notifier: notifier, log: log, now: time.Now}
}

func (j *ViewingReminders) Name() string { return "viewing_reminders" }

func (j *ViewingReminders) Run(ctx context.Context) error {
	now := j.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	viewings, err := j.viewings.ScheduledBetween(ctx, start, start.AddDate(0, 0, 1))
	if err != nil {
		return fmt.Errorf("load viewings: %w", err)
	}

	byAgent := make(map[uint][]model.Viewing)
	var order []uint
	for _, v := range viewings {
		if _, ok := byAgent[v.AgentID]; !ok {
			order = append(order, v.AgentID)
		}
		byAgent[v.AgentID] = append(byAgent[v.AgentID], v)
	}

	for _, agentID := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		list := byAgent[agentID]
		_ = j.notifier.Notify(ctx, notify.Message{
			UserID: agentID,
			Type:   model.NotificationViewingReminder,
			Title:  "Viewings today",
			Body:   fmt.Sprintf("You have %d viewing(s) scheduled today", len(list)),
			Metadata: map[string]interface{}{
				"date":  start.Format("2006-01-02"),
				"count": len(list),
			},
		})

		agent := list[0].Agent
		if agent == nil || agent.Email == "" {
			continue
		}
		data := email.ViewingReminderData{AgentName: agent.GetFullName(), Date: start}
		for _, v := range list {
			item := email.ViewingReminderItem{Time: v.ScheduledAt, Serious: v.IsSerious}
			if v.Property != nil {
				item.Property = v.Property.ReferenceNumber + " - " + v.Property.Location
			}
			if v.Lead != nil {
				item.Lead = v.Lead.CustomerName
			}
			data.Viewings = append(data.Viewings, item)
		}
		j.notifier.Mail(ctx, func(m notify.Mailer) error {
			return m.SendViewingReminder(ctx, agent.Email, data)
		})
	}

	j.log.Info("viewing reminders sent", zap.Int("agents", len(order)), zap.Int("viewings", len(viewings)))
	return nil
}
