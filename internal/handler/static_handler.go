package handler

import (
	"io/fs"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
)

// IndexPath is where the root redirect sends browsers.
const IndexPath = "/static/index.html"

// RegisterStatic serves assets under /static and redirects the root to the index page.
func RegisterStatic(router fiber.Router, assets fs.FS) {
	router.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(IndexPath, fiber.StatusTemporaryRedirect)
	})
	router.Use("/static", filesystem.New(filesystem.Config{
		Root:   http.FS(assets),
		Browse: false,
		MaxAge: 300,
	}))
}
