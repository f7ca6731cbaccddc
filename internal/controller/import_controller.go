package controller

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"estacrm_backend/internal/middleware"
	"estacrm_backend/internal/service/importer"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/response"
)

type Importer interface {
	Preview(ctx context.Context, req importer.Request) (*importer.Preview, error)
	Commit(ctx context.Context, req importer.Request) (*importer.Result, error)
}

type ImportController struct {
	importer Importer
}

func NewImportController(im Importer) *ImportController {
	return &ImportController{importer: im}
}

// Handler accepts a multipart "file" plus dryRun and mode from the form or
// the query string.
func (ic *ImportController) Handler(entity importer.Entity) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := middleware.Claims(c)
		req := importer.Request{
			Entity: entity,
			Mode:   strings.TrimSpace(formOrQuery(c, "mode")),
			UserID: claims.UserID,
			Role:   claims.Role,
		}

		if file, err := c.FormFile("file"); err == nil {
			src, err := file.Open()
			if err != nil {
				return apierror.BadRequest("Could not read file")
			}
			defer src.Close()
			req.FileName = file.Filename
			req.Size = file.Size
			req.Reader = src
		}

		if isTrue(formOrQuery(c, "dryRun")) {
			preview, err := ic.importer.Preview(c.UserContext(), req)
			if err != nil {
				return err
			}
			return response.OK(c, preview)
		}

		res, err := ic.importer.Commit(c.UserContext(), req)
		if err != nil {
			return err
		}
		logger.FromCtx(c).Info("import committed",
			zap.String("entity", string(entity)),
			zap.Int("imported", res.ImportedCount),
			zap.Int("skipped", res.SkippedDuplicatesCount),
			zap.Int("errors", res.ErrorCount),
		)
		return response.OK(c, res)
	}
}

func formOrQuery(c *fiber.Ctx, key string) string {
	if v := c.FormValue(key); v != "" {
		return v
	}
	return c.Query(key)
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}
