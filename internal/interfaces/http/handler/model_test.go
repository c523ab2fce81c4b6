package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	riskapp "github.com/stocksense/backend/internal/application/risk"
	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
)

type modelHandlerFixture struct {
	modelRepo      *MockModelVersionRepository
	assessmentRepo *MockAssessmentRepository
	handler        *ModelHandler
}

func setupModelHandler() *modelHandlerFixture {
	f := &modelHandlerFixture{
		modelRepo:      new(MockModelVersionRepository),
		assessmentRepo: new(MockAssessmentRepository),
	}
	productRepo := new(MockProductRepository)
	inventoryRepo := new(MockInventoryRepository)
	demandRepo := new(MockDemandRepository)
	trainingService := riskapp.NewTrainingService(
		f.modelRepo, productRepo, inventoryRepo, demandRepo, nil, nil, nil)
	predictionService := riskapp.NewPredictionService(
		f.assessmentRepo, f.modelRepo, productRepo, inventoryRepo, demandRepo, nil, nil, nil)
	f.handler = NewModelHandler(trainingService, predictionService)
	return f
}

func createTestModel(t *testing.T) *risk.ModelVersion {
	t.Helper()
	model, err := risk.NewModelVersion(risk.ModelFamilyLogistic, 0.83, 0.79, 240, "models/logistic-test.json")
	require.NoError(t, err)
	return model
}

func TestModelHandler_List(t *testing.T) {
	f := setupModelHandler()

	model := createTestModel(t)
	f.modelRepo.On("FindAll", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return([]risk.ModelVersion{*model}, nil)
	f.modelRepo.On("Count", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return(int64(1), nil)

	router := gin.New()
	router.GET("/models", f.handler.List)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []riskapp.ModelVersionResponse `json:"data"`
		Meta struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, int64(1), resp.Meta.Total)
	f.modelRepo.AssertExpectations(t)
}

func TestModelHandler_List_InvalidStatus(t *testing.T) {
	f := setupModelHandler()

	router := gin.New()
	router.GET("/models", f.handler.List)

	req := httptest.NewRequest(http.MethodGet, "/models?status=bogus", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModelHandler_GetActive(t *testing.T) {
	f := setupModelHandler()

	model := createTestModel(t)
	require.NoError(t, model.Activate())
	f.modelRepo.On("FindActive", mock.Anything).Return(model, nil)

	router := gin.New()
	router.GET("/models/active", f.handler.GetActive)

	req := httptest.NewRequest(http.MethodGet, "/models/active", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"active"`)
	f.modelRepo.AssertExpectations(t)
}

func TestModelHandler_GetActive_NoActiveModel(t *testing.T) {
	f := setupModelHandler()

	f.modelRepo.On("FindActive", mock.Anything).Return(nil, shared.ErrNoActiveModel)

	router := gin.New()
	router.GET("/models/active", f.handler.GetActive)

	req := httptest.NewRequest(http.MethodGet, "/models/active", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_NO_ACTIVE_MODEL")
}

func TestModelHandler_Activate(t *testing.T) {
	f := setupModelHandler()

	candidate := createTestModel(t)
	f.modelRepo.On("FindByID", mock.Anything, candidate.ID).Return(candidate, nil)
	f.modelRepo.On("FindActive", mock.Anything).Return(nil, shared.ErrNoActiveModel)
	f.modelRepo.On("Save", mock.Anything, candidate).Return(nil)

	router := gin.New()
	router.POST("/models/:id/activate", f.handler.Activate)

	req := httptest.NewRequest(http.MethodPost, "/models/"+candidate.ID.String()+"/activate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"active"`)
	f.modelRepo.AssertExpectations(t)
}

func TestModelHandler_Activate_ReplacesCurrent(t *testing.T) {
	f := setupModelHandler()

	candidate := createTestModel(t)
	current := createTestModel(t)
	require.NoError(t, current.Activate())

	f.modelRepo.On("FindByID", mock.Anything, candidate.ID).Return(candidate, nil)
	f.modelRepo.On("FindActive", mock.Anything).Return(current, nil)
	f.modelRepo.On("Save", mock.Anything, current).Return(nil)
	f.modelRepo.On("Save", mock.Anything, candidate).Return(nil)

	router := gin.New()
	router.POST("/models/:id/activate", f.handler.Activate)

	req := httptest.NewRequest(http.MethodPost, "/models/"+candidate.ID.String()+"/activate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, risk.ModelStatusRetired, current.Status)
	f.modelRepo.AssertExpectations(t)
}

func TestModelHandler_Activate_Retired(t *testing.T) {
	f := setupModelHandler()

	retired := createTestModel(t)
	require.NoError(t, retired.Retire())
	f.modelRepo.On("FindByID", mock.Anything, retired.ID).Return(retired, nil)
	f.modelRepo.On("FindActive", mock.Anything).Return(nil, shared.ErrNoActiveModel)

	router := gin.New()
	router.POST("/models/:id/activate", f.handler.Activate)

	req := httptest.NewRequest(http.MethodPost, "/models/"+retired.ID.String()+"/activate", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INVALID_STATE")
}

func TestModelHandler_Retire(t *testing.T) {
	f := setupModelHandler()

	model := createTestModel(t)
	f.modelRepo.On("FindByID", mock.Anything, model.ID).Return(model, nil)
	f.modelRepo.On("Save", mock.Anything, model).Return(nil)

	router := gin.New()
	router.POST("/models/:id/retire", f.handler.Retire)

	req := httptest.NewRequest(http.MethodPost, "/models/"+model.ID.String()+"/retire", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"retired"`)
	f.modelRepo.AssertExpectations(t)
}

func TestModelHandler_Lifecycle_InvalidID(t *testing.T) {
	f := setupModelHandler()

	router := gin.New()
	router.POST("/models/:id/activate", f.handler.Activate)
	router.POST("/models/:id/retire", f.handler.Retire)

	for _, path := range []string{"/models/not-a-uuid/activate", "/models/not-a-uuid/retire"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	}
}

func TestModelHandler_Train_InvalidFamily(t *testing.T) {
	f := setupModelHandler()

	router := gin.New()
	router.POST("/models/train", f.handler.Train)

	req := httptest.NewRequest(http.MethodPost, "/models/train", strings.NewReader(`{"families":["neural_net"]}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModelHandler_Train_NotEnoughData(t *testing.T) {
	modelRepo := new(MockModelVersionRepository)
	assessmentRepo := new(MockAssessmentRepository)
	productRepo := new(MockProductRepository)
	inventoryRepo := new(MockInventoryRepository)
	demandRepo := new(MockDemandRepository)
	trainingService := riskapp.NewTrainingService(
		modelRepo, productRepo, inventoryRepo, demandRepo, nil, nil, nil)
	predictionService := riskapp.NewPredictionService(
		assessmentRepo, modelRepo, productRepo, inventoryRepo, demandRepo, nil, nil, nil)
	handler := NewModelHandler(trainingService, predictionService)

	// An empty catalogue cannot produce a training dataset.
	productRepo.On("FindActive", mock.Anything, mock.AnythingOfType("shared.Filter")).
		Return([]catalog.Product{}, nil)
	inventoryRepo.On("FindByProductIDs", mock.Anything, mock.Anything).
		Return([]inventory.InventoryLevel{}, nil)
	demandRepo.On("StatsAll", mock.Anything).
		Return(map[uuid.UUID]inventory.DemandStats{}, nil)

	router := gin.New()
	router.POST("/models/train", handler.Train)

	req := httptest.NewRequest(http.MethodPost, "/models/train", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INSUFFICIENT_DATA")
}
