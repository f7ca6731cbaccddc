package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"estacrm_backend/internal/model"
	"estacrm_backend/pkg/apierror"
	"estacrm_backend/pkg/logger"
	"estacrm_backend/pkg/response"
	"estacrm_backend/pkg/utils/image"
	"estacrm_backend/pkg/utils/storage"
	"estacrm_backend/pkg/utils/validation"
)

const MaxPropertyImages = 16

var imageMessages = apierror.DBMessages{NotFound: "Image not found"}

// UploadImage re-encodes the upload as webp and stores it in the bucket. The
// first image of a listing becomes its cover.
func (pc *PropertyController) UploadImage(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "property")
	if err != nil {
		return err
	}
	if pc.objects == nil {
		return apierror.New(fiber.StatusServiceUnavailable, "File storage is not configured")
	}
	p, err := pc.load(c, id)
	if err != nil {
		return err
	}

	ctx := c.UserContext()
	count, err := pc.properties.CountImages(ctx, p.ID)
	if err != nil {
		return err
	}
	if count >= MaxPropertyImages {
		return apierror.BadRequest(fmt.Sprintf("Maximum image limit reached (%d)", MaxPropertyImages))
	}

	file, err := c.FormFile("image")
	if err != nil {
		return apierror.BadRequest(validation.ErrFileRequired.Error())
	}
	if err := validation.ValidateImage(file); err != nil {
		return apierror.BadRequest(err.Error())
	}

	src, err := file.Open()
	if err != nil {
		return apierror.BadRequest("Could not read file")
	}
	defer src.Close()

	buf, contentType, err := image.Process(src)
	if err != nil {
		return apierror.BadRequest("Invalid image").Wrap(err)
	}

	key := storage.ObjectKey(p.ReferenceNumber+".webp", "properties", p.ReferenceNumber, "images")
	obj, err := pc.objects.Put(ctx, key, buf, contentType)
	if err != nil {
		return apierror.Internal("Could not upload image").Wrap(err)
	}

	img := &model.PropertyImage{
		PropertyID: p.ID,
		URL:        obj.URL,
		ObjectKey:  obj.Key,
		Order:      int(count),
		IsCover:    count == 0,
	}
	if err := pc.properties.CreateImage(ctx, img); err != nil {
		if derr := pc.objects.Delete(ctx, obj.Key); derr != nil {
			logger.FromCtx(c).Warn("orphaned image object", zap.String("key", obj.Key), zap.Error(derr))
		}
		return err
	}
	return response.Created(c, img)
}

func (pc *PropertyController) DeleteImage(c *fiber.Ctx) error {
	id, err := parseID(c, "id", "property")
	if err != nil {
		return err
	}
	imageID, err := parseID(c, "imageId", "image")
	if err != nil {
		return err
	}
	if pc.objects == nil {
		return apierror.New(fiber.StatusServiceUnavailable, "File storage is not configured")
	}
	if _, err := pc.load(c, id); err != nil {
		return err
	}

	ctx := c.UserContext()
	img, err := pc.properties.FindImage(ctx, id, imageID)
	if err != nil {
		return apierror.FromDB(err, imageMessages)
	}
	if err := pc.objects.Delete(ctx, img.ObjectKey); err != nil {
		return apierror.Internal("Could not delete image").Wrap(err)
	}
	if err := pc.properties.DeleteImage(ctx, img); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
