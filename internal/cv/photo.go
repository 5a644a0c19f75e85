package cv

import (
	"encoding/json"
	"fmt"
)

// PhotoKind tags the two shapes a profile photo may take: raw bytes picked
// from the local machine before submission, or a URL once the server hosts
// the object.
type PhotoKind int

const (
	PhotoNone PhotoKind = iota
	PhotoLocalFile
	PhotoRemoteURL
)

// Photo is a tagged variant. The zero value means no photo.
type Photo struct {
	Kind        PhotoKind
	Data        []byte
	ContentType string
	URL         string
}

// LocalPhoto wraps raw file bytes awaiting upload.
func LocalPhoto(data []byte, contentType string) Photo {
	return Photo{Kind: PhotoLocalFile, Data: data, ContentType: contentType}
}

// RemotePhoto wraps an already-hosted photo URL.
func RemotePhoto(url string) Photo {
	return Photo{Kind: PhotoRemoteURL, URL: url}
}

// Present reports whether a photo is attached in either form.
func (p Photo) Present() bool { return p.Kind != PhotoNone }

// MarshalJSON encodes remote photos as their URL string. Local bytes never
// travel inside the JSON document; they go as a separate multipart part.
func (p Photo) MarshalJSON() ([]byte, error) {
	if p.Kind == PhotoRemoteURL && p.URL != "" {
		return json.Marshal(p.URL)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a URL string or null.
func (p *Photo) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Photo{}
		return nil
	}
	var url string
	if err := json.Unmarshal(data, &url); err != nil {
		return fmt.Errorf("photo must be a url string or null: %w", err)
	}
	if url == "" {
		*p = Photo{}
		return nil
	}
	*p = RemotePhoto(url)
	return nil
}
