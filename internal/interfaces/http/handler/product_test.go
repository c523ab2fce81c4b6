package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	catalogapp "github.com/stocksense/backend/internal/application/catalog"
	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/shared"
)

func setupProductHandler(productRepo *MockProductRepository) *ProductHandler {
	return NewProductHandler(catalogapp.NewProductService(productRepo))
}

func createTestProduct(t *testing.T, code string) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(code, "Test Product", "beverages", decimal.NewFromFloat(9.99), 7)
	require.NoError(t, err)
	return product
}

func TestProductHandler_Create_Success(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	productRepo.On("ExistsByCode", mock.Anything, "SKU-001").Return(false, nil)
	productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	router := gin.New()
	router.POST("/products", handler.Create)

	reqBody := catalogapp.CreateProductRequest{
		Code:         "SKU-001",
		Name:         "Sparkling Water",
		Category:     "beverages",
		Price:        decimal.NewFromFloat(2.50),
		LeadTimeDays: 7,
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "SKU-001")
	productRepo.AssertExpectations(t)
}

func TestProductHandler_Create_DuplicateCode(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	productRepo.On("ExistsByCode", mock.Anything, "SKU-001").Return(true, nil)

	router := gin.New()
	router.POST("/products", handler.Create)

	reqBody := catalogapp.CreateProductRequest{
		Code:         "SKU-001",
		Name:         "Sparkling Water",
		Category:     "beverages",
		Price:        decimal.NewFromFloat(2.50),
		LeadTimeDays: 7,
	}
	body, _ := json.Marshal(reqBody)

	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_ALREADY_EXISTS")
}

func TestProductHandler_Create_InvalidBody(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	router := gin.New()
	router.POST("/products", handler.Create)

	// Missing required fields
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString(`{"code":"SKU-001"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_Get_Success(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	product := createTestProduct(t, "SKU-002")
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)

	router := gin.New()
	router.GET("/products/:id", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/products/"+product.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SKU-002")
}

func TestProductHandler_Get_NotFound(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	missingID := uuid.New()
	productRepo.On("FindByID", mock.Anything, missingID).Return(nil, shared.ErrNotFound)

	router := gin.New()
	router.GET("/products/:id", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/products/"+missingID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductHandler_Get_InvalidID(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	router := gin.New()
	router.GET("/products/:id", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/products/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_GetByCode(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	product := createTestProduct(t, "SKU-003")
	productRepo.On("FindByCode", mock.Anything, "SKU-003").Return(product, nil)

	router := gin.New()
	router.GET("/products/code/:code", handler.GetByCode)

	req := httptest.NewRequest(http.MethodGet, "/products/code/SKU-003", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SKU-003")
}

func TestProductHandler_List(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	products := []catalog.Product{*createTestProduct(t, "SKU-010"), *createTestProduct(t, "SKU-011")}
	productRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(products, nil)
	productRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).Return(int64(2), nil)

	router := gin.New()
	router.GET("/products", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/products?page=1&page_size=20", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Meta    struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(2), resp.Meta.Total)
}

func TestProductHandler_List_InvalidStatus(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	router := gin.New()
	router.GET("/products", handler.List)

	req := httptest.NewRequest(http.MethodGet, "/products?status=bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_Deactivate(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	product := createTestProduct(t, "SKU-020")
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.Product")).Return(nil)

	router := gin.New()
	router.POST("/products/:id/deactivate", handler.Deactivate)

	req := httptest.NewRequest(http.MethodPost, "/products/"+product.ID.String()+"/deactivate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inactive")
	productRepo.AssertExpectations(t)
}

func TestProductHandler_Delete(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	product := createTestProduct(t, "SKU-030")
	productRepo.On("FindByID", mock.Anything, product.ID).Return(product, nil)
	productRepo.On("Delete", mock.Anything, product.ID).Return(nil)

	router := gin.New()
	router.DELETE("/products/:id", handler.Delete)

	req := httptest.NewRequest(http.MethodDelete, "/products/"+product.ID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	productRepo.AssertExpectations(t)
}

func TestProductHandler_ListCategories(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	productRepo.On("ListCategories", mock.Anything).Return([]string{"beverages", "snacks"}, nil)

	router := gin.New()
	router.GET("/products/categories", handler.ListCategories)

	req := httptest.NewRequest(http.MethodGet, "/products/categories", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "beverages")
}

func TestProductHandler_CountByStatus(t *testing.T) {
	productRepo := new(MockProductRepository)
	handler := setupProductHandler(productRepo)

	productRepo.On("CountByStatus", mock.Anything, catalog.ProductStatusActive).Return(int64(5), nil)
	productRepo.On("CountByStatus", mock.Anything, catalog.ProductStatusInactive).Return(int64(2), nil)
	productRepo.On("CountByStatus", mock.Anything, catalog.ProductStatusDiscontinued).Return(int64(1), nil)

	router := gin.New()
	router.GET("/products/status-counts", handler.CountByStatus)

	req := httptest.NewRequest(http.MethodGet, "/products/status-counts", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(5), resp.Data["active"])
}
