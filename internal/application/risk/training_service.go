package risk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/domain/catalog"
	"github.com/stocksense/backend/internal/domain/inventory"
	"github.com/stocksense/backend/internal/domain/risk"
	"github.com/stocksense/backend/internal/domain/shared"
	"github.com/stocksense/backend/internal/infrastructure/storage"
	"github.com/stocksense/backend/internal/ml"
)

// defaultTrainSeed keeps training runs reproducible unless a seed is requested
const defaultTrainSeed = 42

// TrainingService trains candidate models on the accumulated demand history
// and manages the model registry
type TrainingService struct {
	modelRepo      risk.ModelVersionRepository
	productRepo    catalog.ProductRepository
	inventoryRepo  inventory.InventoryRepository
	demandRepo     inventory.DemandRepository
	artifacts      storage.ArtifactStore
	cache          risk.AssessmentCache
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTrainingService creates a new TrainingService
func NewTrainingService(
	modelRepo risk.ModelVersionRepository,
	productRepo catalog.ProductRepository,
	inventoryRepo inventory.InventoryRepository,
	demandRepo inventory.DemandRepository,
	artifacts storage.ArtifactStore,
	cache risk.AssessmentCache,
	logger *zap.Logger,
) *TrainingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingService{
		modelRepo:     modelRepo,
		productRepo:   productRepo,
		inventoryRepo: inventoryRepo,
		demandRepo:    demandRepo,
		artifacts:     artifacts,
		cache:         cache,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TrainingService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Train fits one candidate per requested family, keeps the best by AUC,
// persists its artifact and registers it as a model version
func (s *TrainingService) Train(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	families := toFamilies(req.Families)
	seed := req.Seed
	if seed == 0 {
		seed = defaultTrainSeed
	}

	dataset, err := s.buildDataset(ctx)
	if err != nil {
		return nil, err
	}
	if len(dataset.Snapshots) < ml.MinTrainingSamples {
		return nil, shared.NewDomainError("INSUFFICIENT_DATA",
			fmt.Sprintf("Training requires at least %d products, got %d", ml.MinTrainingSamples, len(dataset.Snapshots)))
	}

	started := time.Now()
	candidates := make([]CandidateResult, 0, len(families))
	var best *ml.Model

	for _, family := range families {
		model, err := ml.Train(dataset, ml.TrainConfig{Family: family, Seed: seed})
		if err != nil {
			candidates = append(candidates, CandidateResult{
				Family: string(family),
				Error:  err.Error(),
			})
			s.logger.Warn("model family failed to train",
				zap.String("family", string(family)),
				zap.Error(err),
			)
			continue
		}

		candidates = append(candidates, CandidateResult{
			Family:   string(family),
			AUC:      model.Metrics.AUC,
			Accuracy: model.Metrics.Accuracy,
		})

		if best == nil || model.Metrics.AUC > best.Metrics.AUC {
			best = model
		}
	}

	if best == nil {
		if len(candidates) > 0 && allOneClass(candidates) {
			return nil, shared.NewDomainError("ONE_CLASS_DATA", "Training data contains a single risk class")
		}
		return nil, shared.NewDomainError("TRAINING_FAILED", "No model family produced a usable model")
	}

	artifactData, err := ml.EncodeArtifact(best)
	if err != nil {
		return nil, err
	}

	artifactKey := fmt.Sprintf("models/%s.json", uuid.New())
	if err := s.artifacts.Put(ctx, artifactKey, artifactData); err != nil {
		return nil, fmt.Errorf("failed to store model artifact: %w", err)
	}

	version, err := risk.NewModelVersion(
		risk.ModelFamily(best.Family),
		best.Metrics.AUC,
		best.Metrics.Accuracy,
		len(dataset.Snapshots),
		artifactKey,
	)
	if err != nil {
		return nil, err
	}

	if err := s.modelRepo.Save(ctx, version); err != nil {
		return nil, err
	}

	s.logger.Info("training run completed",
		zap.String("version", version.Version),
		zap.String("family", string(version.Family)),
		zap.Float64("auc", version.AUC),
		zap.Float64("accuracy", version.Accuracy),
		zap.Int("samples", version.SampleCount),
		zap.Duration("elapsed", time.Since(started)),
	)

	response := ToModelVersionResponse(version)
	if req.Activate {
		activated, err := s.Activate(ctx, version.ID)
		if err != nil {
			return nil, err
		}
		response = *activated
	}

	return &TrainResult{
		Best:       response,
		Candidates: candidates,
		Samples:    len(dataset.Snapshots),
	}, nil
}

// Activate promotes a candidate model to serve predictions, retiring the
// previously active version
func (s *TrainingService) Activate(ctx context.Context, modelID uuid.UUID) (*ModelVersionResponse, error) {
	model, err := s.modelRepo.FindByID(ctx, modelID)
	if err != nil {
		return nil, err
	}

	current, err := s.modelRepo.FindActive(ctx)
	if err != nil && !errors.Is(err, shared.ErrNoActiveModel) {
		return nil, err
	}
	if current != nil && current.ID != model.ID {
		if err := current.Retire(); err != nil {
			return nil, err
		}
		if err := s.modelRepo.Save(ctx, current); err != nil {
			return nil, err
		}
	}

	if err := model.Activate(); err != nil {
		return nil, err
	}
	if err := s.modelRepo.Save(ctx, model); err != nil {
		return nil, err
	}

	// Cached assessments carry the old model version
	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			s.logger.Warn("failed to invalidate assessment cache", zap.Error(err))
		}
	}

	s.publishDomainEvents(ctx, model)

	s.logger.Info("model activated",
		zap.String("version", model.Version),
		zap.String("family", string(model.Family)),
	)

	response := ToModelVersionResponse(model)
	return &response, nil
}

// Retire takes a model out of service without activating a replacement
func (s *TrainingService) Retire(ctx context.Context, modelID uuid.UUID) (*ModelVersionResponse, error) {
	model, err := s.modelRepo.FindByID(ctx, modelID)
	if err != nil {
		return nil, err
	}

	if err := model.Retire(); err != nil {
		return nil, err
	}
	if err := s.modelRepo.Save(ctx, model); err != nil {
		return nil, err
	}

	response := ToModelVersionResponse(model)
	return &response, nil
}

// GetActive returns the currently active model version
func (s *TrainingService) GetActive(ctx context.Context) (*ModelVersionResponse, error) {
	model, err := s.modelRepo.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	response := ToModelVersionResponse(model)
	return &response, nil
}

// List returns registered model versions, newest first
func (s *TrainingService) List(ctx context.Context, filter ModelListFilter) ([]ModelVersionResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "trained_at",
		OrderDir: "desc",
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	models, err := s.modelRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.modelRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToModelVersionResponses(models), total, nil
}

// buildDataset assembles training snapshots and labels from the catalogue,
// inventory and demand history. The label marks products whose coverage does
// not outlast the supplier lead time or whose stock sits at the minimum.
func (s *TrainingService) buildDataset(ctx context.Context) (ml.Dataset, error) {
	products, err := s.productRepo.FindActive(ctx, shared.Filter{})
	if err != nil {
		return ml.Dataset{}, err
	}

	productIDs := make([]uuid.UUID, len(products))
	for i := range products {
		productIDs[i] = products[i].ID
	}

	levels, err := s.inventoryRepo.FindByProductIDs(ctx, productIDs)
	if err != nil {
		return ml.Dataset{}, err
	}
	levelByProduct := make(map[uuid.UUID]*inventory.InventoryLevel, len(levels))
	for i := range levels {
		levelByProduct[levels[i].ProductID] = &levels[i]
	}

	statsByProduct, err := s.demandRepo.StatsAll(ctx)
	if err != nil {
		return ml.Dataset{}, err
	}

	now := time.Now()
	dataset := ml.Dataset{
		Snapshots: make([]ml.ProductSnapshot, 0, len(products)),
		Labels:    make([]int, 0, len(products)),
	}

	for i := range products {
		product := &products[i]
		level := levelByProduct[product.ID]
		if level == nil {
			continue
		}

		var stats *inventory.DemandStats
		if st, ok := statsByProduct[product.ID]; ok {
			stats = &st
		}

		snapshot := buildSnapshot(product, level, stats, now)

		label := 0
		if snapshot.CoverageDays() <= float64(snapshot.LeadTimeDays) || snapshot.CurrentStock <= snapshot.MinStock {
			label = 1
		}

		dataset.Snapshots = append(dataset.Snapshots, snapshot)
		dataset.Labels = append(dataset.Labels, label)
	}

	return dataset, nil
}

func toFamilies(names []string) []ml.Family {
	if len(names) == 0 {
		return []ml.Family{ml.FamilyLogistic, ml.FamilyRandomForest}
	}
	families := make([]ml.Family, len(names))
	for i, name := range names {
		families[i] = ml.Family(name)
	}
	return families
}

func allOneClass(candidates []CandidateResult) bool {
	for _, c := range candidates {
		if c.Error != ml.ErrOneClass.Error() {
			return false
		}
	}
	return true
}

// publishDomainEvents publishes all domain events raised by the model version
func (s *TrainingService) publishDomainEvents(ctx context.Context, model *risk.ModelVersion) {
	if s.eventPublisher == nil {
		return
	}
	events := model.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	model.ClearDomainEvents()
}
