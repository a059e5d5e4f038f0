package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/greenleaf-nursery/nursery-api/services"
	"github.com/greenleaf-nursery/nursery-api/store"
)

func catalogService() *services.CatalogService {
	return services.NewCatalogService(dataStore(), services.GetImageService(), apiLogger)
}

// ListPlants handles GET /api/v1/plants (and the admin listing) - supports
// ?category=, ?featured=true|false, ?search= and ?limit=
func ListPlants(c *gin.Context) {
	filter := store.PlantFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	if raw := c.Query("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			respondValidation(c, "featured must be true or false")
			return
		}
		filter.Featured = &featured
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondValidation(c, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	plants, err := catalogService().List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load plants")
		return
	}

	respondOK(c, http.StatusOK, plants)
}

// GetPlant handles GET /api/v1/plants/:id
func GetPlant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	plant, err := catalogService().Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to load plant")
		return
	}

	respondOK(c, http.StatusOK, plant)
}

// ListCategories handles GET /api/v1/categories
func ListCategories(c *gin.Context) {
	categories, err := catalogService().Categories(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load categories")
		return
	}

	respondOK(c, http.StatusOK, categories)
}

// CreatePlant handles POST /api/v1/admin/plants
func CreatePlant(c *gin.Context) {
	var input services.PlantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, err.Error())
		return
	}

	plant, err := catalogService().Create(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to save plant")
		return
	}

	respondOK(c, http.StatusCreated, plant)
}

// UpdatePlant handles PUT /api/v1/admin/plants/:id - fields left out of the
// body are unchanged
func UpdatePlant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var input services.PlantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, err.Error())
		return
	}

	plant, err := catalogService().Update(c.Request.Context(), id, input)
	if err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to save plant")
		return
	}

	respondOK(c, http.StatusOK, plant)
}

// DeletePlant handles DELETE /api/v1/admin/plants/:id
func DeletePlant(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := catalogService().Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DATABASE_ERROR", "Failed to delete plant")
		return
	}

	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// UploadPlantImage handles POST /api/v1/admin/plants/:id/image - multipart
// form with an "image" file
func UploadPlantImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondValidation(c, "image file is required")
		return
	}

	if services.GetImageService() == nil {
		respondError(c, http.StatusServiceUnavailable, "UPLOAD_FAILED", "Image storage is not configured")
		return
	}

	plant, err := catalogService().AttachImage(c.Request.Context(), id, fileHeader)
	if err != nil {
		respondServiceError(c, err, "UPLOAD_FAILED", "Failed to upload image")
		return
	}

	respondOK(c, http.StatusOK, plant)
}
