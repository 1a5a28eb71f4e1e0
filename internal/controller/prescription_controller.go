package controller

import (
	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/pkg/serverutils"
	"medibuddy-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IPrescriptionController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type prescriptionController struct {
	service service.IPrescriptionService
}

func NewPrescriptionController(service service.IPrescriptionService) IPrescriptionController {
	return &prescriptionController{service: service}
}

func (c *prescriptionController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/prescriptions", serverutils.JwtMiddleware)
	h.Post("/", c.Upload)
	h.Get("/", c.GetAll)
	h.Get("/:id", c.Show)
	h.Delete("/:id", c.Delete)
}

func (c *prescriptionController) Upload(ctx *fiber.Ctx) error {
	userId, err := userIDFromCtx(ctx)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.UploadPrescriptionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.Upload(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	// Re-upload of an existing document: point the client at the existing
	// chat session instead of reprocessing.
	if res.Duplicate {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"success": true,
			"code":    200,
			"message": "Prescription already uploaded, redirecting to its chat session",
			"data":    res,
		})
	}

	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Prescription uploaded",
		"data":    res,
	})
}

func (c *prescriptionController) GetAll(ctx *fiber.Ctx) error {
	userId, err := userIDFromCtx(ctx)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	res, err := c.service.GetAll(ctx.Context(), userId)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *prescriptionController) Show(ctx *fiber.Ctx) error {
	userId, err := userIDFromCtx(ctx)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid prescription id")
	}

	res, err := c.service.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"code":    404,
			"message": "prescription not found",
		})
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *prescriptionController) Delete(ctx *fiber.Ctx) error {
	userId, err := userIDFromCtx(ctx)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid prescription id")
	}

	if err := c.service.Delete(ctx.Context(), userId, id); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Prescription deleted",
	})
}
