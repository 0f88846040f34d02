package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/valyala/fasthttp"

	"zamahub/internal/browser"
	"zamahub/internal/service"
)

// SpaceLister is the read side of the space browser.
type SpaceLister interface {
	List(ctx context.Context, q browser.Query) ([]browser.SpaceSummary, error)
}

type createSpaceResponse struct {
	Success bool   `json:"success"`
	SpaceID string `json:"spaceId"`
	ID      string `json:"id"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type spacesResponse struct {
	Spaces []browser.SpaceSummary `json:"spaces"`
	Total  int                    `json:"total"`
}

const pictureField = "profilePicture"

// formValue and param copy out of the request buffer, which fasthttp reuses once the
// handler returns. Everything handed to the service may be stored.
func formValue(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.FormValue(key))
}

func param(c *fiber.Ctx, key string) string {
	return utils.CopyString(c.Params(key))
}

func profileFields(c *fiber.Ctx) service.ProfileFields {
	return service.ProfileFields{
		ShortDescription: formValue(c, "shortDescription"),
		TwitterHandle:    formValue(c, "twitterHandle"),
		Website:          formValue(c, "website"),
		LongDescription:  formValue(c, "longDescription"),
	}
}

// formPicture opens the optional picture part. The returned closer is never nil.
func formPicture(c *fiber.Ctx, maxBytes int64) (*service.Upload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(pictureField)
	if err != nil {
		if errors.Is(err, fasthttp.ErrMissingFile) || errors.Is(err, fasthttp.ErrNoMultipartForm) {
			return nil, noop, nil
		}
		return nil, noop, fiber.NewError(fiber.StatusBadRequest, "malformed multipart form")
	}
	if fh.Size == 0 {
		return nil, noop, nil
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		return nil, noop, fiber.NewError(fiber.StatusRequestEntityTooLarge, "profile picture too large")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, fiber.NewError(fiber.StatusBadRequest, "cannot open uploaded file")
	}
	return uploadFrom(fh, f), func() { f.Close() }, nil
}

func uploadFrom(fh *multipart.FileHeader, r io.Reader) *service.Upload {
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &service.Upload{Reader: r, Filename: fh.Filename, ContentType: ct, Size: fh.Size}
}

func writeFormError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code := "INVALID_FORM"
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			code = "FILE_TOO_LARGE"
		}
		return writeError(c, fe.Code, code, fe.Message)
	}
	return writeError(c, fiber.StatusBadRequest, "INVALID_FORM", "invalid form")
}

// CreateSpace creates a space profile from a multipart form.
//
// @Summary Create a space profile
// @Accept multipart/form-data
// @Produce json
// @Param spaceId formData string true "space id"
// @Param ensName formData string true "ENS name"
// @Param displayName formData string true "display name"
// @Param owner formData string true "owner address"
// @Param profilePicture formData file false "avatar"
// @Success 201 {object} createSpaceResponse
// @Failure 400,409,413,500 {object} errorPayload
// @Router /api/spaces [post]
func CreateSpace(svc service.SpaceService, maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pic, closePic, err := formPicture(c, maxBytes)
		if err != nil {
			return writeFormError(c, err)
		}
		defer closePic()

		sp, err := svc.Create(c.UserContext(), service.CreateSpaceInput{
			SpaceID:     formValue(c, "spaceId"),
			ENSName:     formValue(c, "ensName"),
			DisplayName: formValue(c, "displayName"),
			Owner:       formValue(c, "owner"),
			Profile:     profileFields(c),
			Picture:     pic,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(createSpaceResponse{Success: true, SpaceID: sp.SpaceID, ID: sp.ID})
	}
}

// GetSpace returns one space profile.
//
// @Summary Get a space profile
// @Produce json
// @Param spaceId path string true "space id"
// @Success 200 {object} model.Space
// @Failure 404,500 {object} errorPayload
// @Router /api/spaces/{spaceId} [get]
func GetSpace(svc service.SpaceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sp, err := svc.Get(c.UserContext(), param(c, "spaceId"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(sp)
	}
}

// UpdateSpace updates profile metadata after an on-chain ownership check.
//
// @Summary Update a space profile
// @Accept multipart/form-data
// @Produce json
// @Param spaceId path string true "space id"
// @Param userAddress formData string true "requester address"
// @Param profilePicture formData file false "avatar"
// @Success 200 {object} successResponse
// @Failure 400,403,404,413,500,503 {object} errorPayload
// @Router /api/spaces/{spaceId} [put]
func UpdateSpace(svc service.SpaceService, maxBytes int64) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pic, closePic, err := formPicture(c, maxBytes)
		if err != nil {
			return writeFormError(c, err)
		}
		defer closePic()

		_, err = svc.Update(c.UserContext(), service.UpdateSpaceInput{
			SpaceID:     param(c, "spaceId"),
			UserAddress: formValue(c, "userAddress"),
			Profile:     profileFields(c),
			Picture:     pic,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(successResponse{Success: true})
	}
}

func browserQuery(c *fiber.Ctx) (browser.Query, error) {
	q := browser.Query{Q: c.Query("q"), Owner: c.Query("owner")}
	if v := c.Query("mine"); v != "" {
		mine, err := strconv.ParseBool(v)
		if err != nil {
			return q, err
		}
		q.Mine = mine
	}
	return q, nil
}

// ListSpaces searches the space browser.
//
// @Summary Browse spaces
// @Produce json
// @Param q query string false "case-insensitive search"
// @Param owner query string false "marks spaces owned by this address"
// @Param mine query bool false "only spaces owned by owner"
// @Success 200 {object} spacesResponse
// @Failure 400,503 {object} errorPayload
// @Router /api/spaces [get]
func ListSpaces(b SpaceLister) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := browserQuery(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_MINE", "mine must be a boolean")
		}
		items, err := b.List(c.UserContext(), q)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(spacesResponse{Spaces: items, Total: len(items)})
	}
}
