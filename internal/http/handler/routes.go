package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"planvault/internal/http/middleware"
	"planvault/internal/model"
	"planvault/internal/service"
)

// saveRequest is the body of the resave endpoint: the full tabular content
// that replaces the document.
type saveRequest struct {
	Sheets []model.Sheet `json:"sheets"`
}

// renameRequest carries the new display name.
type renameRequest struct {
	NewName string `json:"newName"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app. Handlers
// stay thin; authorization and lifecycle rules live in the service.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService) {
	// Health endpoints sit outside the identity gate.
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	docs := app.Group("/documents", middleware.Identity())
	docs.Post("/", UploadDocument(docSvc))
	docs.Get("/", ListDocuments(docSvc))
	docs.Get("/:id/preview", PreviewDocument(docSvc))
	docs.Post("/:name/save", SaveDocument(docSvc))
	docs.Patch("/:name", RenameDocument(docSvc))
	docs.Delete("/:id", DeleteDocument(docSvc))
}

// HealthCheck reports readiness: checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe is a simple liveness probe.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// UploadDocument ingests one multipart file (field name: file).
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := docSvc.Upload(c.UserContext(), caller, f, fh.Filename, ct, fh.Size)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"file":    doc.Summary(),
		})
	}
}

// ListDocuments returns every document the caller may read, newest first.
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		docs, err := docSvc.List(c.UserContext(), caller)
		if err != nil {
			return err
		}

		data := make([]model.Summary, 0, len(docs))
		for i := range docs {
			data = append(data, docs[i].Summary())
		}
		return c.JSON(fiber.Map{
			"success": true,
			"data":    data,
		})
	}
}

// PreviewDocument extracts a viewable representation of the document.
func PreviewDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		pv, doc, err := docSvc.Preview(c.UserContext(), caller, c.Params("id"))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"preview": pv,
			"file":    doc.Summary(),
		})
	}
}

// SaveDocument replaces a tabular document's content with the posted sheets.
func SaveDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		var body saveRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}

		doc, err := docSvc.Save(c.UserContext(), caller, c.Params("name"), body.Sheets)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"file":    doc.Summary(),
		})
	}
}

// RenameDocument gives the document a new display name.
func RenameDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		var body renameRequest
		if err := c.BodyParser(&body); err != nil {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "malformed request body")
		}

		doc, err := docSvc.Rename(c.UserContext(), caller, c.Params("name"), body.NewName)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"success": true,
			"file":    doc.Summary(),
		})
	}
}

// DeleteDocument destroys the document in all backends.
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, ok := middleware.IdentityFromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		if err := docSvc.Delete(c.UserContext(), caller, c.Params("id")); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"success": true})
	}
}
