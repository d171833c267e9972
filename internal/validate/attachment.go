package validate

import (
	"io"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"souqbridge-identity/internal/domain"
)

// Attachment is an uploaded file as seen by the validator. Open may be
// called more than once.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Ext is the lowercased filename extension, including the dot.
func (a Attachment) Ext() string {
	return strings.ToLower(filepath.Ext(a.Filename))
}

// Policy is the document allow-list: extension to accepted MIME types.
type Policy struct {
	MaxBytes int64
	Types    map[string][]string
}

func DefaultPolicy(maxBytes int64) Policy {
	return Policy{
		MaxBytes: maxBytes,
		Types: map[string][]string{
			".pdf":  {"application/pdf"},
			".jpg":  {"image/jpeg"},
			".jpeg": {"image/jpeg"},
			".png":  {"image/png"},
			".mp4":  {"video/mp4"},
			".avi":  {"video/x-msvideo", "video/avi", "video/msvideo"},
			".mov":  {"video/quicktime"},
		},
	}
}

// Check rejects a file whose extension, declared type, size or sniffed
// content falls outside the policy.
func (p Policy) Check(field string, a Attachment) error {
	allowed, ok := p.Types[a.Ext()]
	if !ok {
		return domain.Upload(field + ": file type not allowed")
	}
	declared, _, err := mime.ParseMediaType(a.ContentType)
	if err != nil || !slices.Contains(allowed, strings.ToLower(declared)) {
		return domain.Upload(field + ": content type not allowed")
	}
	if a.Size <= 0 {
		return domain.Upload(field + ": file is empty")
	}
	if p.MaxBytes > 0 && a.Size > p.MaxBytes {
		return domain.Upload(field + ": file is too large")
	}
	if a.Open == nil {
		return domain.Upload(field + ": file is unreadable")
	}

	rc, err := a.Open()
	if err != nil {
		return &domain.Error{Kind: domain.KindUpload, Msg: field + ": file is unreadable", Err: err}
	}
	defer rc.Close()
	sniffed, err := mimetype.DetectReader(rc)
	if err != nil {
		return &domain.Error{Kind: domain.KindUpload, Msg: field + ": file is unreadable", Err: err}
	}
	for _, m := range allowed {
		if sniffed.Is(m) {
			return nil
		}
	}
	return domain.Upload(field + ": file content does not match its type")
}
