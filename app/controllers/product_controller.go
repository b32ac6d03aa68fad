package controllers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rajatverma/kirana/app/services"
	"github.com/rajatverma/kirana/pkg/bind"
	"github.com/rajatverma/kirana/pkg/i18n"
	"github.com/rajatverma/kirana/pkg/logger"
	"github.com/rajatverma/kirana/pkg/response"
	"github.com/rajatverma/kirana/pkg/router"
	"github.com/rajatverma/kirana/pkg/storage"
)

const (
	maxImageSize  = 5 << 20 // per file
	maxImageCount = 10
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ProductController exposes the product endpoints, including image upload.
type ProductController struct {
	catalog *services.CatalogService
}

func NewProductController(catalog *services.CatalogService) *ProductController {
	return &ProductController{catalog: catalog}
}

// Create handles POST /products.
func (c *ProductController) Create(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.catalog.CreateProduct(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Created(w, i18n.T(r.Context(), "productCreatedSuccessfully"), product)
}

// List handles GET /products?search=&categoryID=. The older category
// parameter name is accepted as an alias.
func (c *ProductController) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := query.Get("categoryID")
	if category == "" {
		category = query.Get("category")
	}

	q := services.ListProductsQuery{
		Search:   query.Get("search"),
		Category: category,
	}

	products, err := c.catalog.ListProducts(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, products)
}

// Get handles GET /products/{id}.
func (c *ProductController) Get(w http.ResponseWriter, r *http.Request) {
	product, err := c.catalog.GetProduct(r.Context(), router.Param(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, product)
}

// Update handles PUT /products/{id}.
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	var in services.ProductInput
	if errs, err := bind.JSON(r, &in); err != nil {
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	} else if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.catalog.UpdateProduct(r.Context(), router.Param(r, "id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.SuccessMessage(w, i18n.T(r.Context(), "productUpdatedSuccessfully"), product)
}

// Delete handles DELETE /products/{id}.
func (c *ProductController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.catalog.DeleteProduct(r.Context(), router.Param(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	response.SuccessMessage(w, i18n.T(r.Context(), "productDeletedSuccessfully"), nil)
}

// UploadImages handles POST /products/upload. It accepts up to ten
// image files, stores each under a random name on the configured disk
// and returns the public URLs for use in a product's images field.
func (c *ProductController) UploadImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageCount * maxImageSize); err != nil {
		response.Error(w, http.StatusBadRequest, i18n.T(r.Context(), "uploadError"))
		return
	}

	files := r.MultipartForm.File["images"]
	if len(files) == 0 {
		response.Error(w, http.StatusBadRequest, i18n.T(r.Context(), "uploadError"))
		return
	}
	if len(files) > maxImageCount {
		response.Error(w, http.StatusBadRequest, i18n.T(r.Context(), "fileCountLimit"))
		return
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := c.storeImage(r, fh)
		if err != nil {
			fail(w, r, err)
			return
		}
		urls = append(urls, url)
	}

	response.Success(w, map[string]interface{}{"images": urls})
}

func (c *ProductController) storeImage(r *http.Request, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExts[ext] {
		return "", &services.Error{Kind: services.KindValidation, Key: "imageFilesAllowedOnly"}
	}
	if fh.Size > maxImageSize {
		return "", &services.Error{Kind: services.KindValidation, Key: "fileSizeLimit"}
	}

	f, err := fh.Open()
	if err != nil {
		return "", &services.Error{Kind: services.KindInternal, Key: "uploadError"}
	}
	defer f.Close()

	name := fmt.Sprintf("products/%s%s", uuid.NewString(), ext)
	if err := storage.PutStream(name, f); err != nil {
		logger.WithCtx(r.Context()).Error("image store failed", "file", fh.Filename, "error", err)
		return "", &services.Error{Kind: services.KindInternal, Key: "uploadError"}
	}
	return storage.URL(name), nil
}
