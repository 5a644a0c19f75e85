package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cvhub/internal/cv"
	"cvhub/internal/database"
	"cvhub/internal/events"
)

type fakeStorage struct {
	uploaded map[string][]byte
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: map[string][]byte{}}
}

func (s *fakeStorage) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	b, _ := io.ReadAll(reader)
	s.uploaded[objectName] = b
	return &minio.UploadInfo{}, nil
}

func (s *fakeStorage) GeneratePresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://example.invalid/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	delete(s.uploaded, objectKey)
	return nil
}

type fakePublisher struct {
	messages []events.Message
}

func (p *fakePublisher) PublishCVEvent(_ context.Context, msg events.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.User{}, &database.CV{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newCVTestHandler(t *testing.T) (*CVHandler, *gorm.DB, *fakeStorage, *fakePublisher) {
	t.Helper()
	db := newTestDB(t)
	storage := newFakeStorage()
	publisher := &fakePublisher{}
	h := NewCVHandler(db, storage, publisher, nil, "")
	return h, db, storage, publisher
}

func testDocument() cv.Document {
	return cv.Document{
		PersonalInfo: cv.PersonalInfo{
			FirstName:         "Ada",
			LastName:          "Lovelace",
			Email:             "ada@example.com",
			Phone:             "0123456789",
			Address:           "12 Analytical Row",
			City:              "London",
			ZipCode:           "EC1",
			Country:           "UK",
			ProfessionalTitle: "Engineer",
			ProfileSummary:    strings.Repeat("x", 50),
		},
		Experiences: []cv.Experience{{
			JobTitle: "Engineer", Company: "Acme", Location: "Remote",
			StartDate: "2020-01", EndDate: "2022-06", Description: strings.Repeat("d", 20),
		}},
		Education: []cv.Education{{
			Degree: "BSc", Institution: "MIT", Location: "Cambridge",
			StartDate: "2016-09", EndDate: "2020-06", Description: strings.Repeat("e", 10),
		}},
		Skills: []cv.Skill{{Name: "Go", Level: cv.SkillExpert}},
	}
}

func newMultipartDocument(t *testing.T, doc cv.Document, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	if err := writer.WriteField("data", string(docJSON)); err != nil {
		t.Fatalf("write data field: %v", err)
	}
	if fileContent != nil {
		part, err := writer.CreateFormFile("file", "photo.png")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(fileContent); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func authedContext(t *testing.T, userID uint, method, target string, body *bytes.Buffer, contentType string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var reader io.Reader
	if body != nil {
		reader = body
	}
	req := httptest.NewRequest(method, target, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.Request = req
	c.Set("userID", userID)
	return c, w
}

func seedCV(t *testing.T, db *gorm.DB, userID uint, fullName, title string) database.CV {
	t.Helper()
	docJSON, err := json.Marshal(testDocument())
	if err != nil {
		t.Fatalf("marshal document: %v", err)
	}
	record := database.CV{
		UserID:   userID,
		Document: datatypes.JSON(docJSON),
		FullName: fullName,
		Title:    title,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed cv: %v", err)
	}
	return record
}

func TestCreateCV(t *testing.T) {
	h, db, _, publisher := newCVTestHandler(t)

	body, contentType := newMultipartDocument(t, testDocument(), nil)
	c, w := authedContext(t, 1, http.MethodPost, "/cv", body, contentType)

	h.CreateCV(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var record database.CV
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.UserID != 1 {
		t.Fatalf("unexpected owner: %d", record.UserID)
	}
	if record.FullName != "Ada Lovelace" || record.Title != "Engineer" {
		t.Fatalf("denormalized columns wrong: %q %q", record.FullName, record.Title)
	}

	var stored cv.Document
	if err := json.Unmarshal(record.Document, &stored); err != nil {
		t.Fatalf("decode stored document: %v", err)
	}
	if stored.Experiences[0].ID == "" {
		t.Fatal("stored items must carry normalized ids")
	}

	if len(publisher.messages) != 1 || publisher.messages[0].Event != events.CVCreated {
		t.Fatalf("expected one cvCreated event, got %+v", publisher.messages)
	}
	if publisher.messages[0].CVID != record.ID {
		t.Fatalf("event carries wrong cv id: %+v", publisher.messages[0])
	}
}

func TestCreateCV_WithPhoto(t *testing.T) {
	h, db, storage, _ := newCVTestHandler(t)

	body, contentType := newMultipartDocument(t, testDocument(), []byte("png-bytes"))
	c, w := authedContext(t, 7, http.MethodPost, "/cv", body, contentType)

	h.CreateCV(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}
	if len(storage.uploaded) != 1 {
		t.Fatalf("expected one upload, got %v", storage.uploaded)
	}
	for key, content := range storage.uploaded {
		if !strings.HasPrefix(key, "cv-photos/7/") {
			t.Fatalf("unexpected object key: %q", key)
		}
		if string(content) != "png-bytes" {
			t.Fatalf("unexpected content: %q", content)
		}
	}

	var record database.CV
	if err := db.First(&record).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.PhotoKey == "" {
		t.Fatal("photo key not stored")
	}

	var resp struct {
		Data cvRecordResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(resp.Data.PhotoURL, "https://example.invalid/cv-photos/7/") {
		t.Fatalf("expected presigned photo url, got %q", resp.Data.PhotoURL)
	}
}

func TestCreateCV_ValidationFailure(t *testing.T) {
	h, db, _, publisher := newCVTestHandler(t)

	doc := testDocument()
	doc.PersonalInfo.ProfileSummary = "too short"
	doc.Skills = nil
	body, contentType := newMultipartDocument(t, doc, nil)
	c, w := authedContext(t, 1, http.MethodPost, "/cv", body, contentType)

	h.CreateCV(c)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, ok := resp.Fields["personalInfo.profileSummary"]; !ok {
		t.Fatalf("expected summary error, got %v", resp.Fields)
	}
	if _, ok := resp.Fields["skills"]; !ok {
		t.Fatalf("expected skills error, got %v", resp.Fields)
	}

	var count int64
	db.Model(&database.CV{}).Count(&count)
	if count != 0 {
		t.Fatal("invalid document must not be stored")
	}
	if len(publisher.messages) != 0 {
		t.Fatalf("no events expected, got %+v", publisher.messages)
	}
}

func TestCreateCV_Conflict(t *testing.T) {
	h, db, _, _ := newCVTestHandler(t)
	seedCV(t, db, 1, "Ada Lovelace", "Engineer")

	body, contentType := newMultipartDocument(t, testDocument(), nil)
	c, w := authedContext(t, 1, http.MethodPost, "/cv", body, contentType)

	h.CreateCV(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestGetMyCV(t *testing.T) {
	h, db, _, _ := newCVTestHandler(t)

	c, w := authedContext(t, 1, http.MethodGet, "/cv/myCv", nil, "")
	h.GetMyCV(c)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a cv, got %d", w.Code)
	}

	seeded := seedCV(t, db, 1, "Ada Lovelace", "Engineer")

	c, w = authedContext(t, 1, http.MethodGet, "/cv/myCv", nil, "")
	h.GetMyCV(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Data cvRecordResponse `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ID != seeded.ID || resp.Data.UserID != 1 {
		t.Fatalf("unexpected record: %+v", resp.Data)
	}
}

func TestListCVs_PaginationAndSearch(t *testing.T) {
	h, db, _, _ := newCVTestHandler(t)
	seedCV(t, db, 1, "Ada Lovelace", "Mathematician")
	seedCV(t, db, 2, "Grace Hopper", "Rear Admiral")
	seedCV(t, db, 3, "Alan Turing", "Mathematician")

	c, w := authedContext(t, 10, http.MethodGet, "/cv?page=1&limit=2", nil, "")
	h.ListCVs(c)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var page cvListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if page.Total != 3 || page.TotalPages != 2 || len(page.Data) != 2 {
		t.Fatalf("unexpected page: total=%d totalPages=%d rows=%d", page.Total, page.TotalPages, len(page.Data))
	}

	// Case-insensitive search over name and title.
	c, w = authedContext(t, 10, http.MethodGet, "/cv?search=mathematician&page=1&limit=10", nil, "")
	h.ListCVs(c)
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if page.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", page.Total)
	}

	c, w = authedContext(t, 10, http.MethodGet, "/cv?search=grace&page=1&limit=10", nil, "")
	h.ListCVs(c)
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if page.Total != 1 || page.Data[0].UserID != 2 {
		t.Fatalf("expected the one name match, got %+v", page)
	}
}

func TestListCVs_RejectsBadParams(t *testing.T) {
	h, _, _, _ := newCVTestHandler(t)

	c, w := authedContext(t, 10, http.MethodGet, "/cv?page=0", nil, "")
	h.ListCVs(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page=0, got %d", w.Code)
	}

	c, w = authedContext(t, 10, http.MethodGet, "/cv?limit=abc", nil, "")
	h.ListCVs(c)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestUpdateMyCV(t *testing.T) {
	h, db, _, publisher := newCVTestHandler(t)
	seeded := seedCV(t, db, 1, "Ada Lovelace", "Engineer")

	doc := testDocument()
	doc.PersonalInfo.ProfessionalTitle = "Staff Engineer"
	body, contentType := newMultipartDocument(t, doc, nil)
	c, w := authedContext(t, 1, http.MethodPatch, "/cv/updateMyCv/1", body, contentType)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(seeded.ID)}}

	h.UpdateMyCV(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var record database.CV
	if err := db.First(&record, seeded.ID).Error; err != nil {
		t.Fatalf("load record: %v", err)
	}
	if record.Title != "Staff Engineer" {
		t.Fatalf("title not updated: %q", record.Title)
	}
	if len(publisher.messages) != 1 || publisher.messages[0].Event != events.CVUpdated {
		t.Fatalf("expected one cvUpdated event, got %+v", publisher.messages)
	}
}

func TestUpdateMyCV_OwnershipEnforced(t *testing.T) {
	h, db, _, publisher := newCVTestHandler(t)
	seeded := seedCV(t, db, 2, "Grace Hopper", "Rear Admiral")

	body, contentType := newMultipartDocument(t, testDocument(), nil)
	c, w := authedContext(t, 1, http.MethodPatch, "/cv/updateMyCv/1", body, contentType)
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(seeded.ID)}}

	h.UpdateMyCV(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", w.Code, w.Body.String())
	}
	if len(publisher.messages) != 0 {
		t.Fatalf("no events expected, got %+v", publisher.messages)
	}
}
