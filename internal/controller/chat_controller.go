package controller

import (
	"github.com/gofiber/fiber/v2"

	"rag-gateway-be/internal/dto"
	"rag-gateway-be/internal/pkg/serverutils"
	"rag-gateway-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	StartChat(ctx *fiber.Ctx) error
	Chat(ctx *fiber.Ctx) error
	RagChat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/llm")
	h.Post("/start-chat", c.StartChat)
	h.Post("/chat", c.Chat)
	h.Post("/rag-chat", c.RagChat)
}

func (c *chatController) StartChat(ctx *fiber.Ctx) error {
	res, err := c.service.StartSession(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}

func (c *chatController) RagChat(ctx *fiber.Ctx) error {
	var req dto.RagChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.RagChat(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
