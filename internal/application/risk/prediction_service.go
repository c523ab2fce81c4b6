package risk

import (
	"context"
	"errors"
	"sort"
	"sync"
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

// PredictionService scores products for stockout risk. It serves predictions
// from the active model version and falls back to the heuristic rule when no
// trained model is active.
type PredictionService struct {
	assessmentRepo risk.AssessmentRepository
	modelRepo      risk.ModelVersionRepository
	productRepo    catalog.ProductRepository
	inventoryRepo  inventory.InventoryRepository
	demandRepo     inventory.DemandRepository
	artifacts      storage.ArtifactStore
	cache          risk.AssessmentCache
	eventPublisher shared.EventPublisher
	logger         *zap.Logger

	// Loaded model, keyed by version so activation swaps it on the next request
	mu            sync.RWMutex
	loadedModel   *ml.Model
	loadedVersion string
}

// NewPredictionService creates a new PredictionService
func NewPredictionService(
	assessmentRepo risk.AssessmentRepository,
	modelRepo risk.ModelVersionRepository,
	productRepo catalog.ProductRepository,
	inventoryRepo inventory.InventoryRepository,
	demandRepo inventory.DemandRepository,
	artifacts storage.ArtifactStore,
	cache risk.AssessmentCache,
	logger *zap.Logger,
) *PredictionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictionService{
		assessmentRepo: assessmentRepo,
		modelRepo:      modelRepo,
		productRepo:    productRepo,
		inventoryRepo:  inventoryRepo,
		demandRepo:     demandRepo,
		artifacts:      artifacts,
		cache:          cache,
		logger:         logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PredictionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// AssessProduct scores one stored product and persists the assessment
func (s *PredictionService) AssessProduct(ctx context.Context, productID uuid.UUID) (*AssessmentResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	level, err := s.inventoryRepo.FindByProductID(ctx, productID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	stats, err := s.demandRepo.StatsByProduct(ctx, productID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	snapshot := buildSnapshot(product, level, stats, time.Now())
	score, version := s.score(ctx, snapshot)

	assessment, err := s.persistAssessment(ctx, product, snapshot, score, version)
	if err != nil {
		return nil, err
	}

	response := ToAssessmentResponse(assessment)
	return &response, nil
}

// AssessAdhoc scores an arbitrary payload without persisting anything
func (s *PredictionService) AssessAdhoc(ctx context.Context, req AdhocAssessRequest) (*AdhocAssessmentResponse, error) {
	snapshot := buildAdhocSnapshot(req)
	score, version := s.score(ctx, snapshot)

	position := risk.StockPosition{
		CurrentStock:   snapshot.CurrentStock,
		AvgDailyDemand: snapshot.AvgDailyDemand,
		LeadTimeDays:   snapshot.LeadTimeDays,
		MinStock:       snapshot.MinStock,
	}

	return &AdhocAssessmentResponse{
		ProductCode:     req.ProductCode,
		Score:           score,
		Band:            string(risk.BandFor(score)),
		HighRisk:        score > risk.HighRiskCutoff,
		ModelVersion:    version,
		StockDays:       position.StockDays(),
		Recommendations: risk.BuildRecommendations(position, score),
	}, nil
}

// AssessAll scores every active product, persists the assessments and
// refreshes the cache. Results come back sorted by score descending.
func (s *PredictionService) AssessAll(ctx context.Context) (*BatchAssessmentResponse, error) {
	products, err := s.productRepo.FindActive(ctx, shared.Filter{})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return &BatchAssessmentResponse{Assessments: []AssessmentResponse{}}, nil
	}

	productIDs := make([]uuid.UUID, len(products))
	for i := range products {
		productIDs[i] = products[i].ID
	}

	levels, err := s.inventoryRepo.FindByProductIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	levelByProduct := make(map[uuid.UUID]*inventory.InventoryLevel, len(levels))
	for i := range levels {
		levelByProduct[levels[i].ProductID] = &levels[i]
	}

	statsByProduct, err := s.demandRepo.StatsAll(ctx)
	if err != nil {
		return nil, err
	}

	model := s.activeModel(ctx)
	version := risk.HeuristicModelVersion
	if model != nil {
		s.mu.RLock()
		version = s.loadedVersion
		s.mu.RUnlock()
	}

	now := time.Now()
	started := now
	assessments := make([]*risk.Assessment, 0, len(products))
	highRisk := 0

	for i := range products {
		product := &products[i]
		level := levelByProduct[product.ID]

		var stats *inventory.DemandStats
		if st, ok := statsByProduct[product.ID]; ok {
			stats = &st
		}

		snapshot := buildSnapshot(product, level, stats, now)

		var score float64
		if model != nil {
			score = model.Score(snapshot)
		} else {
			score = heuristicScore(snapshot)
		}

		assessment, err := s.newAssessment(product, snapshot, score, version)
		if err != nil {
			s.logger.Warn("skipping product in batch assessment",
				zap.String("product_code", product.Code),
				zap.Error(err),
			)
			continue
		}
		if assessment.HighRisk {
			highRisk++
		}
		assessments = append(assessments, assessment)
	}

	if err := s.assessmentRepo.SaveBatch(ctx, assessments); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, 0, assessments...); err != nil {
			s.logger.Warn("failed to refresh assessment cache", zap.Error(err))
		}
	}

	for _, assessment := range assessments {
		s.publishDomainEvents(ctx, assessment)
	}

	sort.Slice(assessments, func(i, j int) bool {
		return assessments[i].Score > assessments[j].Score
	})

	responses := make([]AssessmentResponse, len(assessments))
	for i, assessment := range assessments {
		responses[i] = ToAssessmentResponse(assessment)
	}

	s.logger.Info("batch assessment completed",
		zap.Int("products", len(assessments)),
		zap.Int("high_risk", highRisk),
		zap.String("model_version", version),
		zap.Duration("elapsed", time.Since(started)),
	)

	return &BatchAssessmentResponse{
		Total:         len(assessments),
		HighRiskCount: highRisk,
		ModelVersion:  version,
		Assessments:   responses,
	}, nil
}

// GetLatest returns the most recent assessment of a product, serving from
// cache when possible
func (s *PredictionService) GetLatest(ctx context.Context, productID uuid.UUID) (*AssessmentResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.GetLatest(ctx, productID)
		if err != nil {
			s.logger.Warn("assessment cache read failed", zap.Error(err))
		} else if cached != nil {
			response := ToAssessmentResponse(cached)
			return &response, nil
		}
	}

	assessment, err := s.assessmentRepo.FindLatestByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, 0, assessment); err != nil {
			s.logger.Warn("assessment cache write failed", zap.Error(err))
		}
	}

	response := ToAssessmentResponse(assessment)
	return &response, nil
}

// ListLatest returns the latest assessment per product, sorted by score descending
func (s *PredictionService) ListLatest(ctx context.Context, filter AssessmentListFilter) ([]AssessmentResponse, error) {
	assessments, err := s.assessmentRepo.FindLatest(ctx, toAssessmentFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToAssessmentResponses(assessments), nil
}

// History returns the assessment history of a product, newest first
func (s *PredictionService) History(ctx context.Context, productID uuid.UUID, filter AssessmentListFilter) ([]AssessmentResponse, error) {
	assessments, err := s.assessmentRepo.FindByProduct(ctx, productID, toAssessmentFilter(filter))
	if err != nil {
		return nil, err
	}
	return ToAssessmentResponses(assessments), nil
}

// HighRisk lists the latest assessments at or above the threshold.
// A non-positive threshold defaults to the high-band boundary.
func (s *PredictionService) HighRisk(ctx context.Context, threshold float64) ([]AssessmentResponse, error) {
	if threshold <= 0 {
		threshold = risk.BandHighThreshold
	}
	assessments, err := s.assessmentRepo.FindHighRisk(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return ToAssessmentResponses(assessments), nil
}

// ReloadModel drops the loaded model so the next prediction picks up the
// current active version
func (s *PredictionService) ReloadModel() {
	s.mu.Lock()
	s.loadedModel = nil
	s.loadedVersion = ""
	s.mu.Unlock()
}

// score runs the snapshot through the active model, or the heuristic rule
// when none is active
func (s *PredictionService) score(ctx context.Context, snapshot ml.ProductSnapshot) (float64, string) {
	model := s.activeModel(ctx)
	if model == nil {
		return heuristicScore(snapshot), risk.HeuristicModelVersion
	}

	s.mu.RLock()
	version := s.loadedVersion
	s.mu.RUnlock()

	return model.Score(snapshot), version
}

// activeModel returns the decoded active model, loading it from the artifact
// store when the active version changed since the last call
func (s *PredictionService) activeModel(ctx context.Context) *ml.Model {
	active, err := s.modelRepo.FindActive(ctx)
	if err != nil {
		if !errors.Is(err, shared.ErrNoActiveModel) {
			s.logger.Warn("failed to look up active model", zap.Error(err))
		}
		return nil
	}

	s.mu.RLock()
	if s.loadedModel != nil && s.loadedVersion == active.Version {
		model := s.loadedModel
		s.mu.RUnlock()
		return model
	}
	s.mu.RUnlock()

	data, err := s.artifacts.Get(ctx, active.ArtifactKey)
	if err != nil {
		s.logger.Error("failed to fetch model artifact",
			zap.String("version", active.Version),
			zap.String("artifact_key", active.ArtifactKey),
			zap.Error(err),
		)
		return nil
	}

	model, err := ml.DecodeArtifact(data)
	if err != nil {
		s.logger.Error("failed to decode model artifact",
			zap.String("version", active.Version),
			zap.Error(err),
		)
		return nil
	}

	s.mu.Lock()
	s.loadedModel = model
	s.loadedVersion = active.Version
	s.mu.Unlock()

	s.logger.Info("model loaded",
		zap.String("version", active.Version),
		zap.String("family", string(active.Family)),
	)

	return model
}

// persistAssessment builds, saves and caches one assessment
func (s *PredictionService) persistAssessment(ctx context.Context, product *catalog.Product, snapshot ml.ProductSnapshot, score float64, version string) (*risk.Assessment, error) {
	assessment, err := s.newAssessment(product, snapshot, score, version)
	if err != nil {
		return nil, err
	}

	if err := s.assessmentRepo.Save(ctx, assessment); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, 0, assessment); err != nil {
			s.logger.Warn("assessment cache write failed", zap.Error(err))
		}
	}

	s.publishDomainEvents(ctx, assessment)

	return assessment, nil
}

func (s *PredictionService) newAssessment(product *catalog.Product, snapshot ml.ProductSnapshot, score float64, version string) (*risk.Assessment, error) {
	position := risk.StockPosition{
		CurrentStock:   snapshot.CurrentStock,
		AvgDailyDemand: snapshot.AvgDailyDemand,
		LeadTimeDays:   snapshot.LeadTimeDays,
		MinStock:       snapshot.MinStock,
	}

	return risk.NewAssessment(
		product.ID,
		product.Code,
		score,
		version,
		encodeSnapshot(snapshot),
		encodeRecommendations(risk.BuildRecommendations(position, score)),
	)
}

func toAssessmentFilter(filter AssessmentListFilter) shared.Filter {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "score"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if filter.Band != "" {
		domainFilter.Filters["band"] = filter.Band
	}
	if filter.HighRisk != nil {
		domainFilter.Filters["high_risk"] = *filter.HighRisk
	}
	return domainFilter
}

// publishDomainEvents publishes all domain events raised by the assessment
func (s *PredictionService) publishDomainEvents(ctx context.Context, assessment *risk.Assessment) {
	if s.eventPublisher == nil {
		return
	}
	events := assessment.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	assessment.ClearDomainEvents()
}
