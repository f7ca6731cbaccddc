package controller

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/model"
	"estacrm_backend/internal/rbac"
	"estacrm_backend/internal/repository"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/response"
	"estacrm_backend/pkg/utils/storage"
	"estacrm_backend/pkg/utils/validation"
)

type UserStore interface {
	FindByID(ctx context.Context, id uint) (*model.User, error)
	List(ctx context.Context, f repository.UserFilter) ([]model.User, error)
	ReferralTargets(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	Save(ctx context.Context, user *model.User) error
	AgentsOf(ctx context.Context, leaderID uint) ([]model.User, error)

	Documents(ctx context.Context, userID uint) ([]model.UserDocument, error)
	FindDocument(ctx context.Context, userID, docID uint) (*model.UserDocument, error)
	CreateDocument(ctx context.Context, doc *model.UserDocument) error
	DeleteDocument(ctx context.Context, doc *model.UserDocument) error
}

// ObjectStore is the bucket uploads go to.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

type UserController struct {
	users   UserStore
	objects ObjectStore
}

// NewUserController wires the user endpoints. objects may be nil when storage
// is not configured; document uploads then fail with 503.
func NewUserController(users UserStore, objects ObjectStore) *UserController {
	return &UserController{users: users, objects: objects}
}

type CreateUserInput struct {
	Email        string `json:"email" validate:"required,email,max=255"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
	Phone        string `json:"phone" validate:"omitempty,phone"`
	Role         string `json:"role" validate:"required"`
	TeamLeaderID *uint  `json:"team_leader_id"`
}

type UpdateUserInput struct {
	Email     *string `json:"email" validate:"omitempty,email,max=255"`
	Password  *string `json:"password" validate:"omitempty,min=8,max=72"`
	FirstName *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Phone     *string `json:"phone" validate:"omitempty,phone"`
	Role      *string `json:"role"`
	IsActive  *bool   `json:"is_active"`
}

type TeamLeaderInput struct {
	TeamLeaderID *uint `json:"team_leader_id"`
}

var userMessages = apierror.DBMessages{
	NotFound: "User not found",
	Conflict: "User with this email already exists",
}

func profiles(users []model.User) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(users))
	for i := range users {
		out = append(out, users[i].GetPublicProfile())
	}
	return out
}

func (uc *UserController) ListUsers(c *fiber.Ctx) error {
	f := repository.UserFilter{
		Active: queryBool(c, "active"),
		Search: c.Query("search"),
	}
	if r := c.Query("role"); r != "" {
		role, err := rbac.ParseRole(r)
		if err != nil {
			return apierror.BadRequest("Invalid role")
		}
		f.Role = role
	}

	users, err := uc.users.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	return response.OK(c, profiles(users))
}

// ListReferralTargets is the picker for the refer dialog.
func (uc *UserController) ListReferralTargets(c *fiber.Ctx) error {
	users, err := uc.users.ReferralTargets(c.UserContext())
	if err != nil {
		return err
	}
	self := middleware.Claims(c).UserID
	out := make([]model.User, 0, len(users))
	for _, u := range users {
		if u.ID != self {
			out = append(out, u)
		}
	}
	return response.OK(c, profiles(out))
}

func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	user, err := uc.users.FindByID(c.UserContext(), id)
	if err != nil {
		return apierror.FromDB(err, userMessages)
	}
	return response.OK(c, user.GetPublicProfile())
}

func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	input := new(CreateUserInput)
	if err := bind(c, input); err != nil {
		return err
	}
	role, err := rbac.ParseRole(input.Role)
	if err != nil {
		return apierror.Validation("Validation failed", apierror.FieldError{Field: "role", Message: "Invalid role"})
	}

	user := &model.User{
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Phone:     strings.TrimSpace(input.Phone),
		Role:      role,
		IsActive:  true,
	}
	if err := user.SetPassword(input.Password); err != nil {
		return err
	}
	if input.TeamLeaderID != nil {
		if err := uc.assignLeader(c.UserContext(), user, input.TeamLeaderID); err != nil {
			return err
		}
	}

	if err := uc.users.Create(c.UserContext(), user); err != nil {
		return apierror.FromDB(err, userMessages)
	}

	logger.FromCtx(c).Info("user created", zap.Uint("user_id", user.ID), zap.String("role", string(role)))
	return response.Created(c, user.GetPublicProfile())
}

func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	input := new(UpdateUserInput)
	if err := bind(c, input); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return apierror.FromDB(err, userMessages)
	}

	if input.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.FirstName != nil {
		user.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		user.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Password != nil {
		if err := user.SetPassword(*input.Password); err != nil {
			return err
		}
	}
	if input.IsActive != nil {
		if !*input.IsActive && user.ID == middleware.Claims(c).UserID {
			return apierror.BadRequest("You cannot deactivate your own account")
		}
		user.IsActive = *input.IsActive
	}
	if input.Role != nil {
		role, err := rbac.ParseRole(*input.Role)
		if err != nil {
			return apierror.Validation("Validation failed", apierror.FieldError{Field: "role", Message: "Invalid role"})
		}
		if err := uc.changeRole(ctx, user, role); err != nil {
			return err
		}
	}

	if err := uc.users.Save(ctx, user); err != nil {
		return apierror.FromDB(err, userMessages)
	}
	return response.OK(c, user.GetPublicProfile())
}

// changeRole keeps the team edge consistent: leaving the agent role drops the
// leader, and a team leader with agents cannot change role.
func (uc *UserController) changeRole(ctx context.Context, user *model.User, role rbac.Role) error {
	if user.Role == role {
		return nil
	}
	if user.Role == rbac.RoleTeamLeader {
		agents, err := uc.users.AgentsOf(ctx, user.ID)
		if err != nil {
			return err
		}
		if len(agents) > 0 {
			return apierror.Conflict("Team leader still has agents assigned")
		}
	}
	user.Role = role
	if role != rbac.RoleAgent {
		user.TeamLeaderID = nil
	}
	return nil
}

// DeleteUser deactivates the account; rows referencing the user stay intact.
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	if id == middleware.Claims(c).UserID {
		return apierror.BadRequest("You cannot deactivate your own account")
	}

	user, err := uc.users.FindByID(c.UserContext(), id)
	if err != nil {
		return apierror.FromDB(err, userMessages)
	}
	user.IsActive = false
	if err := uc.users.Save(c.UserContext(), user); err != nil {
		return err
	}
	return response.Message(c, fiber.StatusOK, "User deactivated")
}

func (uc *UserController) SetTeamLeader(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	input := new(TeamLeaderInput)
	if err := bind(c, input); err != nil {
		return err
	}

	ctx := c.UserContext()
	user, err := uc.users.FindByID(ctx, id)
	if err != nil {
		return apierror.FromDB(err, userMessages)
	}
	if err := uc.assignLeader(ctx, user, input.TeamLeaderID); err != nil {
		return err
	}
	if err := uc.users.Save(ctx, user); err != nil {
		return err
	}
	return response.OK(c, user.GetPublicProfile())
}

func (uc *UserController) assignLeader(ctx context.Context, user *model.User, leaderID *uint) error {
	if leaderID == nil || *leaderID == 0 {
		user.TeamLeaderID = nil
		return nil
	}
	if user.Role != rbac.RoleAgent {
		return apierror.BadRequest("Only agents can be assigned to a team leader")
	}
	leader, err := uc.users.FindByID(ctx, *leaderID)
	if err != nil {
		return apierror.FromDB(err, apierror.DBMessages{NotFound: "Team leader not found"})
	}
	if leader.Role != rbac.RoleTeamLeader {
		return apierror.BadRequest("Selected user is not a team leader")
	}
	if !leader.IsActive {
		return apierror.BadRequest("Selected team leader is not active")
	}
	user.TeamLeaderID = &leader.ID
	return nil
}

func (uc *UserController) ListAgents(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	leader, err := uc.users.FindByID(c.UserContext(), id)
	if err != nil {
		return apierror.FromDB(err, userMessages)
	}
	if leader.Role != rbac.RoleTeamLeader {
		return apierror.BadRequest("User is not a team leader")
	}
	agents, err := uc.users.AgentsOf(c.UserContext(), leader.ID)
	if err != nil {
		return err
	}
	return response.OK(c, profiles(agents))
}

func (uc *UserController) ListDocuments(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	if _, err := uc.users.FindByID(c.UserContext(), id); err != nil {
		return apierror.FromDB(err, userMessages)
	}
	docs, err := uc.users.Documents(c.UserContext(), id)
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []model.UserDocument{}
	}
	return response.OK(c, docs)
}

func (uc *UserController) UploadDocument(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	if uc.objects == nil {
		return apierror.New(fiber.StatusServiceUnavailable, "File storage is not configured")
	}

	ctx := c.UserContext()
	if _, err := uc.users.FindByID(ctx, id); err != nil {
		return apierror.FromDB(err, userMessages)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return apierror.BadRequest(validation.ErrFileRequired.Error())
	}
	contentType, err := validation.ValidateDocument(file)
	if err != nil {
		return apierror.BadRequest(err.Error())
	}

	src, err := file.Open()
	if err != nil {
		return apierror.BadRequest("Could not read file")
	}
	defer src.Close()

	key := storage.ObjectKey(file.Filename, "users", fmt.Sprint(id), "documents")
	obj, err := uc.objects.Put(ctx, key, src, contentType)
	if err != nil {
		return apierror.Internal("Could not upload file").Wrap(err)
	}

	doc := &model.UserDocument{
		UserID:       id,
		FileName:     file.Filename,
		ObjectKey:    obj.Key,
		URL:          obj.URL,
		ContentType:  contentType,
		Size:         file.Size,
		UploadedByID: middleware.Claims(c).UserID,
	}
	if err := uc.users.CreateDocument(ctx, doc); err != nil {
		if derr := uc.objects.Delete(ctx, obj.Key); derr != nil {
			logger.FromCtx(c).Warn("orphaned document object", zap.String("key", obj.Key), zap.Error(derr))
		}
		return err
	}
	return response.Created(c, doc)
}

// DeleteDocument removes the object first so a storage failure leaves the row
// in place to retry.
func (uc *UserController) DeleteDocument(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "user")
	if err != nil {
		return err
	}
	docID, err := parseID(c, "docId", "document")
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	doc, err := uc.users.FindDocument(ctx, id, docID)
	if err != nil {
		return apierror.FromDB(err, apierror.DBMessages{NotFound: "Document not found"})
	}
	if uc.objects != nil && doc.ObjectKey != "" {
		if err := uc.objects.Delete(ctx, doc.ObjectKey); err != nil {
			return apierror.Internal("Could not delete file").Wrap(err)
		}
	}
	if err := uc.users.DeleteDocument(ctx, doc); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
