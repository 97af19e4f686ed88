package utils

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"onboardbuddy/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

const MaxUploadSize = 5 * 1024 * 1024

var (
	ErrFileTooLarge = errors.New("file exceeds the 5 MB limit")
	ErrNotAnImage   = errors.New("file must be an image")
)

// StoredObject is where an upload ended up.
type StoredObject struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// ObjectStorage talks to the Supabase Storage REST API.
type ObjectStorage struct {
	client  *fasthttp.Client
	baseURL string
	key     string
	bucket  string
}

func NewObjectStorage(cfg config.StorageConfig) *ObjectStorage {
	return &ObjectStorage{
		client: &fasthttp.Client{
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     cfg.ServiceKey,
		bucket:  cfg.Bucket,
	}
}

// ValidateImage enforces the size limit and sniffs the content as image/*.
func ValidateImage(data []byte) (*mimetype.MIME, error) {
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, ErrNotAnImage
	}
	return mtype, nil
}

// ObjectPath builds "<folder>/<owner>/<uuid><ext>"; the original filename only
// contributes its extension when sniffing found none.
func ObjectPath(folder string, ownerID uint, filename string, mtype *mimetype.MIME) string {
	ext := mtype.Extension()
	if ext == "" {
		ext = strings.ToLower(path.Ext(filename))
	}
	return fmt.Sprintf("%s/%d/%s%s", strings.Trim(folder, "/"), ownerID, uuid.NewString(), ext)
}

func (s *ObjectStorage) objectURL(p string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, p)
}

func (s *ObjectStorage) publicURL(p string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, p)
}

func (s *ObjectStorage) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	req.Header.Set("Authorization", "Bearer "+s.key)
	if deadline, ok := ctx.Deadline(); ok {
		return s.client.DoDeadline(req, resp, deadline)
	}
	return s.client.Do(req, resp)
}

func (s *ObjectStorage) Upload(ctx context.Context, data []byte, filename, folder string, ownerID uint) (StoredObject, error) {
	mtype, err := ValidateImage(data)
	if err != nil {
		return StoredObject{}, err
	}
	objectPath := ObjectPath(folder, ownerID, filename, mtype)

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.objectURL(objectPath))
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType(mtype.String())
	req.Header.Set("Cache-Control", "max-age=3600")
	req.Header.Set("x-upsert", "false")
	req.SetBody(data)

	if err := s.do(ctx, req, resp); err != nil {
		return StoredObject{}, fmt.Errorf("upload %s: %w", objectPath, err)
	}
	if resp.StatusCode() >= 300 {
		return StoredObject{}, fmt.Errorf("upload %s: storage returned %d: %s", objectPath, resp.StatusCode(), resp.Body())
	}
	return StoredObject{URL: s.publicURL(objectPath), Path: objectPath}, nil
}

// Delete removes one object. A missing object is not an error.
func (s *ObjectStorage) Delete(ctx context.Context, objectPath string) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.objectURL(objectPath))
	req.Header.SetMethod(fasthttp.MethodDelete)

	if err := s.do(ctx, req, resp); err != nil {
		return fmt.Errorf("delete %s: %w", objectPath, err)
	}
	if code := resp.StatusCode(); code >= 300 && code != fasthttp.StatusNotFound {
		return fmt.Errorf("delete %s: storage returned %d", objectPath, code)
	}
	return nil
}
