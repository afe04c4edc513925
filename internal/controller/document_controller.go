package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"rag-gateway-be/internal/dto"
	"rag-gateway-be/internal/pkg/serverutils"
	"rag-gateway-be/internal/service"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Add(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	Get(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Reset(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
}

func NewDocumentController(service service.IDocumentService) IDocumentController {
	return &documentController{service: service}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/docs")
	h.Get("/health", c.Health)
	h.Post("/add-docs", c.Add)
	h.Post("/search-docs", c.Search)
	h.Get("/get-doc/:id", c.Get)
	h.Delete("/delete-doc/:id", c.Delete)
	h.Delete("/reset-index", c.Reset)
	h.Get("/list-docs", c.List)
}

func (c *documentController) Health(ctx *fiber.Ctx) error {
	if err := c.service.Health(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Vector backend is healthy", nil))
}

func (c *documentController) Add(ctx *fiber.Ctx) error {
	var req dto.AddDocumentsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Add(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(fmt.Sprintf("%d documents added", res.Added), res))
}

func (c *documentController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchDocumentsRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.ErrBadRequest
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Search(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Search completed", res))
}

func (c *documentController) Get(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	res, err := c.service.Get(ctx.Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get document", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	if err := c.service.Delete(ctx.Context(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any](fmt.Sprintf("Document %s deleted", id), nil))
}

func (c *documentController) Reset(ctx *fiber.Ctx) error {
	if err := c.service.Reset(ctx.Context()); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Index reset successfully", nil))
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 100)

	res, err := c.service.List(ctx.Context(), limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}
