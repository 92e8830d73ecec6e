package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/isp-workboard/internal/locale"
	apperrors "github.com/spec-kit/isp-workboard/pkg/util/errorutil"
)

// LocaleHandler serves the UI string catalogs.
type LocaleHandler struct {
	catalog *locale.Catalog
}

// NewLocaleHandler constructs handler.
func NewLocaleHandler(catalog *locale.Catalog) *LocaleHandler {
	return &LocaleHandler{catalog: catalog}
}

// Languages GET /locales.
func (h *LocaleHandler) Languages(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"default":   h.catalog.Default(),
			"languages": h.catalog.Languages(),
		},
	})
}

// Strings GET /locales/:lang.
func (h *LocaleHandler) Strings(c *fiber.Ctx) error {
	lang := c.Params("lang")
	table, ok := h.catalog.Strings(lang)
	if !ok {
		return apperrors.NewNotFound("locale", map[string]any{"lang": lang})
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"language": lang, "strings": table}})
}
