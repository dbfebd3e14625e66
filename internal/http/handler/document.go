package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docstore/internal/model"
	"docstore/internal/service"
)

// uploadRequest is the JSON body of POST /documents. Content is base64.
type uploadRequest struct {
	Name    string `json:"name" example:"report.pdf"`
	Size    *int64 `json:"size" example:"4"`
	Format  string `json:"format" example:"pdf"`
	Content string `json:"content" example:"JVBERg=="`
}

type uploadResponse struct {
	ID string `json:"id"`
}

// ListDocuments returns descriptors page by page.
//
// @Summary     List documents
// @Tags        documents
// @Produce     json
// @Param       limit  query int false "page size (max 100)" default(10)
// @Param       offset query int false "offset"              default(0)
// @Success     200 {object} service.DocumentListResult
// @Failure     400 {object} errorPayload
// @Router      /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument ingests a base64-encoded document.
//
// @Summary     Upload a document
// @Tags        documents
// @Accept      json
// @Produce     json
// @Param       document body uploadRequest true "document"
// @Success     201 {object} uploadResponse
// @Failure     400 {object} errorPayload
// @Failure     502 {object} errorPayload
// @Failure     503 {object} errorPayload
// @Router      /documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req uploadRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be a JSON document")
		}
		if req.Size == nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "size is required")
		}

		id, err := docSvc.Ingest(c.UserContext(), model.Submission{
			Name:    req.Name,
			Size:    *req.Size,
			Format:  req.Format,
			Content: req.Content,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(uploadResponse{ID: id})
	}
}

// GetDocument returns a document with its content.
//
// @Summary     Retrieve a document
// @Tags        documents
// @Produce     json
// @Param       id path string true "document id"
// @Success     200 {object} model.Retrieved
// @Failure     400 {object} errorPayload
// @Failure     404 {object} errorPayload
// @Failure     500 {object} errorPayload
// @Router      /documents/{id} [get]
func GetDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Retrieve(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// GetDocumentMetadata returns a descriptor without content.
//
// @Summary     Describe a document
// @Tags        documents
// @Produce     json
// @Param       id path string true "document id"
// @Success     200 {object} model.Document
// @Failure     400 {object} errorPayload
// @Failure     404 {object} errorPayload
// @Router      /documents/{id}/metadata [get]
func GetDocumentMetadata(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := docSvc.Describe(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document.
//
// @Summary     Delete a document
// @Tags        documents
// @Param       id path string true "document id"
// @Success     204
// @Failure     400 {object} errorPayload
// @Failure     404 {object} errorPayload
// @Failure     503 {object} errorPayload
// @Router      /documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
