package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"cvhub/internal/cv"
)

// SubmitCV packages the finished document into a multipart request with two
// named parts: "data" (the JSON-encoded document) and, when a local-file
// photo is attached, "file" (the raw bytes). There is no retry and no
// rollback of the caller's in-memory state; a failed submission may simply
// be re-issued by the user.
func (c *Client) SubmitCV(ctx context.Context, doc cv.Document) (*CVRecord, error) {
	return c.sendDocument(ctx, http.MethodPost, "/cv", doc)
}

// UpdateMyCV patches an existing CV with the reassembled document, using the
// same multipart shape as SubmitCV.
func (c *Client) UpdateMyCV(ctx context.Context, id uint, doc cv.Document) (*CVRecord, error) {
	return c.sendDocument(ctx, http.MethodPatch, fmt.Sprintf("/cv/updateMyCv/%d", id), doc)
}

func (c *Client) sendDocument(ctx context.Context, method, path string, doc cv.Document) (*CVRecord, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	docJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal cv document: %w", err)
	}
	if err := writer.WriteField("data", string(docJSON)); err != nil {
		return nil, fmt.Errorf("write data part: %w", err)
	}

	if photo := doc.PersonalInfo.Photo; photo.Kind == cv.PhotoLocalFile {
		part, err := writer.CreatePart(photoPartHeader(photo))
		if err != nil {
			return nil, fmt.Errorf("create file part: %w", err)
		}
		if _, err := part.Write(photo.Data); err != nil {
			return nil, fmt.Errorf("write file part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp struct {
		Data CVRecord `json:"data"`
	}
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func photoPartHeader(photo cv.Photo) textproto.MIMEHeader {
	filename := "photo" + extensionFor(photo.ContentType)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	contentType := photo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	return h
}

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
