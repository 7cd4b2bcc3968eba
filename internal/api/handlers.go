package api

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"agrimap/server/config"
	"agrimap/server/internal/geometry"
	"agrimap/server/internal/metrics"
	"agrimap/server/internal/models"
	"agrimap/server/internal/pipeline"
	"agrimap/server/internal/queue"
)

type Handler struct {
	hub     *pipeline.Hub
	queue   *queue.ReportQueue
	logger  *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	// closed when the server shuts down, ending open streams
	closing   chan struct{}
	closeOnce sync.Once
}

// ReportRequest is the payload for submitting a price report
type ReportRequest struct {
	UserID          string                 `json:"user_id"`
	UserType        models.Role            `json:"user_type" binding:"required"`
	ProductID       string                 `json:"product_id" binding:"required"`
	Price           float64                `json:"price" binding:"required"`
	Location        *LocationRequest       `json:"location" binding:"required"`
	TrafficStatus   models.TrafficStatus   `json:"traffic_status"`
	MarketCondition models.MarketCondition `json:"market_condition"`
	Weather         *models.Weather        `json:"weather"`
	Notes           string                 `json:"notes"`
}

// LocationRequest is a submitted location. Coordinates are pointers so a
// missing value is told apart from 0.
type LocationRequest struct {
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	Barangay     string   `json:"barangay"`
	Municipality string   `json:"municipality"`
	Province     string   `json:"province"`
}

func (l *LocationRequest) toModel() models.Location {
	return models.Location{
		Latitude:     *l.Latitude,
		Longitude:    *l.Longitude,
		Barangay:     l.Barangay,
		Municipality: l.Municipality,
		Province:     l.Province,
	}
}

// SnapshotQuery holds the query parameters shared by the market views
type SnapshotQuery struct {
	Product       string `form:"product"`
	Range         string `form:"range"`
	MaxDistanceKm string `form:"max_distance_km"`
}

func NewHandler(hub *pipeline.Hub, q *queue.ReportQueue, logger *logrus.Logger, m *metrics.Metrics) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		hub:     hub,
		queue:   q,
		logger:  logger,
		metrics: m,
		now:     time.Now,
		closing: make(chan struct{}),
	}
}

// Close ends open snapshot streams. Safe to call more than once.
func (h *Handler) Close() {
	h.closeOnce.Do(func() { close(h.closing) })
}

// SubmitReport validates a report and queues it for storage
func (h *Handler) SubmitReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid report payload")
		h.metrics.ReportRejected("malformed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	product := config.GetProductByID(req.ProductID)
	if product == nil {
		h.metrics.ReportRejected("unknown_product")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown product: " + req.ProductID})
		return
	}

	report := &models.PriceReport{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		Role:            req.UserType,
		Product:         *product,
		Price:           req.Price,
		Location:        req.Location.toModel(),
		TrafficStatus:   req.TrafficStatus,
		MarketCondition: req.MarketCondition,
		Weather:         req.Weather,
		Notes:           req.Notes,
		Timestamp:       h.now().UTC(),
	}
	if err := report.Validate(); err != nil {
		h.metrics.ReportRejected("validation")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.queue.Push([]*models.PriceReport{report}); err != nil {
		h.logger.WithError(err).WithField("report_id", report.ID).Error("Failed to queue report")
		if errors.Is(err, queue.ErrQueueFull) {
			h.metrics.ReportRejected("queue_full")
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Report queue unavailable, try again later"})
		return
	}
	h.metrics.QueueDepth(h.queue.Len())

	c.JSON(http.StatusAccepted, gin.H{
		"id":     report.ID,
		"status": "queued",
	})
}

// GetClusters returns the classified clusters and pairs for a product and range
func (h *Handler) GetClusters(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GetClustersGeoJSON returns clusters as points and pairs as lines
func (h *Handler) GetClustersGeoJSON(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}

	fc := geometry.ClusterFeatures(snap.Clusters)
	fc.Features = append(fc.Features, geometry.PairFeatures(snap.Pairs).Features...)
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) GetRebalance(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Pairs)
}

func (h *Handler) GetStats(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap.Stats)
}

// GetRecommendations returns personal suggestions for a buyer or farmer
func (h *Handler) GetRecommendations(c *gin.Context) {
	rng, err := parseRange(c.Query("range"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := models.Role(c.Query("role"))
	if !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be buyer, farmer or regular"})
		return
	}

	at, err := parseLocation(c.Query("lat"), c.Query("lng"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recs, err := h.hub.Recommend(c.Request.Context(), role, at, c.Query("product"), rng)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get recommendations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get recommendations"})
		return
	}

	c.JSON(http.StatusOK, recs)
}

// GetHeatmap returns weighted points for the requested heatmap type
func (h *Handler) GetHeatmap(c *gin.Context) {
	rng, err := parseRange(c.Query("range"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind := models.HeatmapKind(c.DefaultQuery("type", string(models.HeatmapSupply)))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be supply, demand, price_high or price_low"})
		return
	}

	points, err := h.hub.Heatmap(c.Request.Context(), kind, c.Query("product"), rng)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build heatmap")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build heatmap"})
		return
	}

	c.JSON(http.StatusOK, points)
}

// snapshot resolves the query and writes an error response when it fails
func (h *Handler) snapshot(c *gin.Context) (*pipeline.Snapshot, bool) {
	var q SnapshotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return nil, false
	}

	req := pipeline.Request{ProductID: q.Product}

	rng, err := parseRange(q.Range)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	req.Range = rng

	if q.MaxDistanceKm != "" {
		km, err := strconv.ParseFloat(q.MaxDistanceKm, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_distance_km must be a number"})
			return nil, false
		}
		req.MaxDistanceKm = km
	}

	snap, err := h.hub.Snapshot(c.Request.Context(), req)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"product": req.ProductID,
			"range":   req.Range,
		}).Error("Failed to compute market snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute market snapshot"})
		return nil, false
	}
	return snap, true
}

// parseRange accepts an empty value as the configured default
func parseRange(s string) (pipeline.TimeRange, error) {
	if s == "" {
		return "", nil
	}
	return pipeline.ParseTimeRange(s)
}

func parseLocation(lat, lng string) (models.Location, error) {
	latitude, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return models.Location{}, errors.New("lat must be a number")
	}
	longitude, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return models.Location{}, errors.New("lng must be a number")
	}

	loc := models.Location{Latitude: latitude, Longitude: longitude}
	if err := loc.Validate(); err != nil {
		return models.Location{}, err
	}
	return loc, nil
}
