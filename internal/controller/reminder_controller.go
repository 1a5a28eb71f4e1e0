package controller

import (
	"errors"

	"medibuddy-be/internal/dto"
	"medibuddy-be/internal/pkg/serverutils"
	"medibuddy-be/internal/service"
	"medibuddy-be/pkg/calendar"

	"github.com/gofiber/fiber/v2"
)

type IReminderController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	AuthURL(ctx *fiber.Ctx) error
	Callback(ctx *fiber.Ctx) error
}

type reminderController struct {
	service service.IReminderService
}

func NewReminderController(service service.IReminderService) IReminderController {
	return &reminderController{service: service}
}

func (c *reminderController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/reminders")
	h.Post("/", serverutils.JwtMiddleware, c.Create)
	h.Get("/auth-url", serverutils.JwtMiddleware, c.AuthURL)
	// Google redirects here, no bearer token on this request.
	h.Get("/callback", c.Callback)
}

func (c *reminderController) Create(ctx *fiber.Ctx) error {
	userId, err := userIDFromCtx(ctx)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	var req dto.CreateReminderRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	res, err := c.service.CreateReminder(ctx.Context(), userId, &req)
	if err != nil {
		if errors.Is(err, calendar.ErrNotAuthorized) || errors.Is(err, calendar.ErrCredentialsMissing) {
			return ctx.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{
				"success": false,
				"code":    412,
				"message": "Google Calendar is not connected. Visit /api/reminders/auth-url first.",
			})
		}
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"code":    201,
		"message": "Reminder created",
		"data":    res,
	})
}

func (c *reminderController) AuthURL(ctx *fiber.Ctx) error {
	res, err := c.service.AuthURL(ctx.Query("state", "state-token"))
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"data":    res,
	})
}

func (c *reminderController) Callback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	if code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing code")
	}

	if err := c.service.HandleCallback(ctx.Context(), code); err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"code":    200,
		"message": "Google Calendar connected",
	})
}
