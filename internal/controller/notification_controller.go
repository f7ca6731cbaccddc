package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/repository"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/response"
)

type NotificationStore interface {
	List(ctx context.Context, userID uint, unreadOnly bool, p repository.Page) (*repository.List[model.Notification], error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID, id uint) (*model.Notification, error)
	MarkAllRead(ctx context.Context, userID uint) (int64, error)
	Delete(ctx context.Context, userID, id uint) error
}

// NotificationController only ever touches the caller's own notifications.
type NotificationController struct {
	store NotificationStore
}

func NewNotificationController(store NotificationStore) *NotificationController {
	return &NotificationController{store: store}
}

var notificationMessages = apierror.DBMessages{NotFound: "Notification not found"}

func (nc *NotificationController) List(c *fiber.Ctx) error {
	unread := queryBool(c, "unread")
	list, err := nc.store.List(c.UserContext(), middleware.Claims(c).UserID, unread != nil && *unread, page(c))
	if err != nil {
		return err
	}
	return response.OK(c, list)
}

func (nc *NotificationController) UnreadCount(c *fiber.Ctx) error {
	n, err := nc.store.UnreadCount(c.UserContext(), middleware.Claims(c).UserID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"count": n})
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "notification")
	if err != nil {
		return err
	}
	n, err := nc.store.MarkRead(c.UserContext(), middleware.Claims(c).UserID, id)
	if err != nil {
		return apierror.FromDB(err, notificationMessages)
	}
	return response.OK(c, n)
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	n, err := nc.store.MarkAllRead(c.UserContext(), middleware.Claims(c).UserID)
	if err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"updated": n})
}

func (nc *NotificationController) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "notification")
	if err != nil {
		return err
	}
	if err := nc.store.Delete(c.UserContext(), middleware.Claims(c).UserID, id); err != nil {
		return apierror.FromDB(err, notificationMessages)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
