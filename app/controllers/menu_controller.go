package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/pkg/apperr"
	"github.com/aniicone/cafe-api/pkg/ctx"
)

// multipart overhead allowed on top of the image itself
const uploadSlack = 1 << 20

type MenuController struct {
	menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{menu: menu}
}

func (c *MenuController) Index(cx *ctx.Context) {
	items, err := c.menu.List(cx.Context(), "")
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, items)
}

func (c *MenuController) ByCategory(cx *ctx.Context) {
	items, err := c.menu.List(cx.Context(), cx.Param("category"))
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, items)
}

func (c *MenuController) Show(cx *ctx.Context) {
	item, err := c.menu.Get(cx.Context(), cx.Param("id"))
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, item)
}

func (c *MenuController) Store(cx *ctx.Context) {
	var in services.CreateMenuItemInput
	if !cx.BindJSON(&in) {
		return
	}
	item, err := c.menu.Create(cx.Context(), in)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.Created(item)
}

func (c *MenuController) Update(cx *ctx.Context) {
	var in services.UpdateMenuItemInput
	if !cx.BindJSON(&in) {
		return
	}
	item, err := c.menu.Update(cx.Context(), cx.Param("id"), in)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, item)
}

func (c *MenuController) Destroy(cx *ctx.Context) {
	if err := c.menu.Delete(cx.Context(), cx.Param("id")); err != nil {
		cx.Fail(err)
		return
	}
	cx.Message(http.StatusOK, "Menu item deleted successfully")
}

// UploadImage accepts a multipart form with the file in field "image".
func (c *MenuController) UploadImage(cx *ctx.Context) {
	cx.R.Body = http.MaxBytesReader(cx.W, cx.R.Body, services.MaxImageBytes+uploadSlack)

	file, _, err := cx.R.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		msg := "The image field is required."
		if errors.As(err, &maxErr) {
			msg = "The image must not exceed 5 MB."
		}
		cx.Fail(apperr.NewValidation("Validation failed", map[string]string{"image": msg}))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, services.MaxImageBytes+1))
	if err != nil {
		cx.Fail(err)
		return
	}

	item, err := c.menu.UploadImage(cx.Context(), cx.Param("id"), content)
	if err != nil {
		cx.Fail(err)
		return
	}
	cx.JSON(http.StatusOK, item)
}
