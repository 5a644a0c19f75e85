package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cvhub/internal/api/middleware"
	"cvhub/internal/cv"
	"cvhub/internal/database"
	"cvhub/internal/events"
)

const (
	defaultPageSize    = 10
	maxPageSize        = 100
	photoURLExpiry     = time.Hour
	maxPhotoUploadSize = 5 << 20
)

// ObjectStore is the slice of the storage client the CV gateway needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// CVHandler serves the CV listing, the owner's record, and the multipart
// create/update gateway.
type CVHandler struct {
	db        *gorm.DB
	storage   ObjectStore
	publisher events.Publisher
	logger    *slog.Logger
	clamdAddr string
}

// NewCVHandler constructs the handler. clamdAddr may be empty to disable
// upload scanning.
func NewCVHandler(db *gorm.DB, storageClient ObjectStore, publisher events.Publisher, logger *slog.Logger, clamdAddr string) *CVHandler {
	return &CVHandler{
		db:        db,
		storage:   storageClient,
		publisher: publisher,
		logger:    logger,
		clamdAddr: clamdAddr,
	}
}

type cvRecordResponse struct {
	ID        uint        `json:"id"`
	UserID    uint        `json:"userId"`
	Document  cv.Document `json:"document"`
	PhotoURL  string      `json:"photoUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

func (h *CVHandler) newCVRecordResponse(c *gin.Context, record database.CV) cvRecordResponse {
	out := cvRecordResponse{
		ID:        record.ID,
		UserID:    record.UserID,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
	if err := json.Unmarshal(record.Document, &out.Document); err != nil {
		h.loggerFromContext(c).Error("decode stored document",
			slog.Uint64("cv_id", uint64(record.ID)), slog.Any("error", err))
	}
	if record.PhotoKey != "" && h.storage != nil {
		url, err := h.storage.GeneratePresignedURL(c.Request.Context(), record.PhotoKey, photoURLExpiry)
		if err != nil {
			h.loggerFromContext(c).Error("presign photo url",
				slog.String("photo_key", record.PhotoKey), slog.Any("error", err))
		} else {
			out.PhotoURL = url
			out.Document.PersonalInfo.Photo = cv.RemotePhoto(url)
		}
	}
	return out
}

type cvListResponse struct {
	Data       []cvRecordResponse `json:"data"`
	Total      int64              `json:"total"`
	TotalPages int                `json:"totalPages"`
}

// ListCVs returns a page of CVs, optionally narrowed by a case-insensitive
// search over the candidate's name and professional title.
func (h *CVHandler) ListCVs(c *gin.Context) {
	page, err := positiveQueryInt(c, "page", 1)
	if err != nil {
		BadRequest(c, "page must be a positive integer")
		return
	}
	limit, err := positiveQueryInt(c, "limit", defaultPageSize)
	if err != nil {
		BadRequest(c, "limit must be a positive integer")
		return
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	search := strings.TrimSpace(c.Query("search"))

	ctx := c.Request.Context()
	query := h.db.WithContext(ctx).Model(&database.CV{})
	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(title) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		h.loggerFromContext(c).Error("count cvs", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	var records []database.CV
	if err := query.Order("updated_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&records).Error; err != nil {
		h.loggerFromContext(c).Error("list cvs", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	data := make([]cvRecordResponse, 0, len(records))
	for _, record := range records {
		data = append(data, h.newCVRecordResponse(c, record))
	}

	c.JSON(http.StatusOK, cvListResponse{
		Data:       data,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	})
}

// GetMyCV returns the authenticated candidate's own CV.
func (h *CVHandler) GetMyCV(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var record database.CV
	if err := h.db.WithContext(c.Request.Context()).Where("user_id = ?", userID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "cv not found")
			return
		}
		h.loggerFromContext(c).Error("load my cv", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": h.newCVRecordResponse(c, record)})
}

// CreateCV accepts the wizard's multipart submission: a "data" part holding
// the document JSON and an optional "file" part holding the photo. A user
// gets one CV; a second submission conflicts.
func (h *CVHandler) CreateCV(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(slog.Uint64("user_id", uint64(userID)))

	var existing database.CV
	if err := h.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; err == nil {
		Conflict(c, "cv already exists")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("cv lookup failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	photoKey, ok := h.storePhoto(c, userID)
	if !ok {
		return
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		logger.Error("encode document", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	record := database.CV{
		UserID:   userID,
		Document: datatypes.JSON(docJSON),
		PhotoKey: photoKey,
		FullName: doc.PersonalInfo.FirstName + " " + doc.PersonalInfo.LastName,
		Title:    doc.PersonalInfo.ProfessionalTitle,
	}
	if err := h.db.WithContext(ctx).Create(&record).Error; err != nil {
		logger.Error("create cv failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.publisher.PublishCVEvent(ctx, events.Message{Event: events.CVCreated, CVID: record.ID}); err != nil {
		logger.Error("publish cvCreated failed", slog.Any("error", err))
	}

	logger.Info("cv created", slog.Uint64("cv_id", uint64(record.ID)))
	c.JSON(http.StatusCreated, gin.H{"data": h.newCVRecordResponse(c, record)})
}

// UpdateMyCV replaces the owner's document. The path id must name the
// caller's own CV.
func (h *CVHandler) UpdateMyCV(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cvID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		BadRequest(c, "invalid cv id")
		return
	}

	doc, ok := h.bindDocument(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	logger := h.loggerFromContext(c).With(
		slog.Uint64("user_id", uint64(userID)), slog.Uint64("cv_id", cvID))

	var record database.CV
	if err := h.db.WithContext(ctx).First(&record, uint(cvID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "cv not found")
			return
		}
		logger.Error("load cv failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if record.UserID != userID {
		Forbidden(c, "forbidden")
		return
	}

	photoKey, ok := h.storePhoto(c, userID)
	if !ok {
		return
	}
	if photoKey != "" && record.PhotoKey != "" && h.storage != nil {
		if err := h.storage.DeleteObject(ctx, record.PhotoKey); err != nil {
			logger.Error("delete old photo failed",
				slog.String("photo_key", record.PhotoKey), slog.Any("error", err))
		}
	}
	if photoKey == "" {
		photoKey = record.PhotoKey
	}

	docJSON, err := json.Marshal(doc)
	if err != nil {
		logger.Error("encode document", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	updates := map[string]any{
		"document":  datatypes.JSON(docJSON),
		"photo_key": photoKey,
		"full_name": doc.PersonalInfo.FirstName + " " + doc.PersonalInfo.LastName,
		"title":     doc.PersonalInfo.ProfessionalTitle,
	}
	if err := h.db.WithContext(ctx).Model(&record).Updates(updates).Error; err != nil {
		logger.Error("update cv failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.publisher.PublishCVEvent(ctx, events.Message{Event: events.CVUpdated, CVID: record.ID}); err != nil {
		logger.Error("publish cvUpdated failed", slog.Any("error", err))
	}

	logger.Info("cv updated")
	c.JSON(http.StatusOK, gin.H{"data": h.newCVRecordResponse(c, record)})
}

// bindDocument decodes the "data" multipart field, normalizes ids and runs
// every section validator. It writes the error response itself on failure.
func (h *CVHandler) bindDocument(c *gin.Context) (cv.Document, bool) {
	raw := c.PostForm("data")
	if raw == "" {
		BadRequest(c, "missing data field")
		return cv.Document{}, false
	}

	var doc cv.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		BadRequest(c, "data field is not valid JSON")
		return cv.Document{}, false
	}
	cv.NormalizeDocument(&doc)

	if errs := validateDocument(doc); len(errs) > 0 {
		ValidationFailed(c, errs)
		return cv.Document{}, false
	}
	return doc, true
}

// validateDocument aggregates the per-section validators over the whole
// aggregate, prefixing item errors with their list position.
func validateDocument(doc cv.Document) cv.FieldErrors {
	errs := cv.FieldErrors{}
	for field, msg := range cv.ValidatePersonalInfo(doc.PersonalInfo) {
		errs["personalInfo."+field] = msg
	}
	for i, item := range doc.Experiences {
		for field, msg := range cv.ValidateExperience(item) {
			errs[fmt.Sprintf("experiences[%d].%s", i, field)] = msg
		}
	}
	for i, item := range doc.Education {
		for field, msg := range cv.ValidateEducation(item) {
			errs[fmt.Sprintf("education[%d].%s", i, field)] = msg
		}
	}
	for i, item := range doc.Skills {
		for field, msg := range cv.ValidateSkill(item) {
			errs[fmt.Sprintf("skills[%d].%s", i, field)] = msg
		}
	}
	for i, item := range doc.Languages {
		for field, msg := range cv.ValidateLanguage(item) {
			errs[fmt.Sprintf("languages[%d].%s", i, field)] = msg
		}
	}
	if len(doc.Experiences) == 0 {
		errs["experiences"] = "at least one experience is required"
	}
	if len(doc.Education) == 0 {
		errs["education"] = "at least one education entry is required"
	}
	if len(doc.Skills) == 0 {
		errs["skills"] = "at least one skill is required"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// storePhoto scans and uploads the optional "file" part, returning the
// object key. An absent part yields an empty key. It writes the error
// response itself on failure.
func (h *CVHandler) storePhoto(c *gin.Context, userID uint) (string, bool) {
	file, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		BadRequest(c, "invalid file field")
		return "", false
	}
	if file.Size > maxPhotoUploadSize {
		BadRequest(c, "photo exceeds size limit")
		return "", false
	}

	if h.clamdAddr != "" {
		if ok := h.scanUpload(c, file); !ok {
			return "", false
		}
	}

	reader, err := file.Open()
	if err != nil {
		h.loggerFromContext(c).Error("open upload", slog.Any("error", err))
		Internal(c, "failed to read file")
		return "", false
	}
	defer reader.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := fmt.Sprintf("cv-photos/%d/%s%s", userID, uuid.NewString(), extensionForContentType(contentType))

	if _, err := h.storage.UploadFile(c.Request.Context(), objectKey, reader, file.Size, contentType); err != nil {
		h.loggerFromContext(c).Error("upload photo", slog.Any("error", err))
		Internal(c, "failed to store file")
		return "", false
	}
	return objectKey, true
}

func (h *CVHandler) scanUpload(c *gin.Context, file *multipart.FileHeader) bool {
	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to read file")
		return false
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		h.loggerFromContext(c).Error("scan upload", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return false
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return false
		}
	}
	return true
}

func extensionForContentType(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

func positiveQueryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return v, nil
}

func (h *CVHandler) loggerFromContext(c *gin.Context) *slog.Logger {
	if logger := middleware.LoggerFromContext(c); logger != nil {
		return logger
	}
	if h.logger != nil {
		return h.logger
	}
	return slog.Default()
}
