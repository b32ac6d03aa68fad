package controllers

import (
	"net/http"

	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/pkg/bind"
	"github.com/rajatverma/kirana/pkg/response"
)

// CategoryController exposes the category endpoints.
type CategoryController struct {
	catalog *services.CatalogService
}

func NewCategoryController(catalog *services.CatalogService) *CategoryController {
	return &CategoryController{catalog: catalog}
}

type categoryInput struct {
	Name string `json:"name" validate:"required"`
}

// Create handles POST /categories.
func (c *CategoryController) Create(w http.ResponseWriter, r *http.Request) {
	var in categoryInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	category, err := c.catalog.CreateCategory(r.Context(), in.Name)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.JSON(w, http.StatusCreated, category)
}

// List handles GET /categories.
func (c *CategoryController) List(w http.ResponseWriter, r *http.Request) {
	categories, err := c.catalog.ListCategories(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, categories)
}
