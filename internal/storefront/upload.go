package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
)

// UploadTarget is where an uploaded image ends up, either ProductImageTarget or
// GalleryTarget.
type UploadTarget interface {
	endpoint() string
	formData() map[string]string
	String() string
}

// ProductImageTarget attaches an image to an existing product.
//
// When Primary is set the image is flagged as the product's primary image,
// otherwise the product id is repeated in the form body.
type ProductImageTarget struct {
	ProductId int
	Primary   bool
}

func (t ProductImageTarget) endpoint() string {
	return fmt.Sprintf("/api/admin/products/%d/images", t.ProductId)
}

func (t ProductImageTarget) formData() map[string]string {
	if t.Primary {
		return map[string]string{"is_primary": "true"}
	}
	return map[string]string{"product_id": strconv.Itoa(t.ProductId)}
}

func (t ProductImageTarget) String() string {
	return fmt.Sprintf("product %d", t.ProductId)
}

// GalleryTarget creates a standalone gallery item.
type GalleryTarget struct {
	Title       string
	Description string
	IsFeatured  bool
}

func (GalleryTarget) endpoint() string {
	return "/api/admin/gallery"
}

func (t GalleryTarget) formData() map[string]string {
	return map[string]string{
		"title":       t.Title,
		"description": t.Description,
		"is_featured": strconv.FormatBool(t.IsFeatured),
	}
}

func (t GalleryTarget) String() string {
	return fmt.Sprintf("gallery %q", t.Title)
}

// UploadResult is the storefront's record of the upload, Raw holds the decoded
// response body and may be nil if the body was not json.
type UploadResult struct {
	Status int
	Raw    map[string]any
}

// UploadImage posts the file at localPath as the multipart field `image`.
//
// 200 and 201 are success, any other status returns a *StatusError wrapping
// ErrUploadRejected with the response body truncated.
func (s *Session) UploadImage(ctx context.Context, localPath string, target UploadTarget) (UploadResult, error) {
	mtype, err := mimetype.DetectFile(localPath)
	if err != nil {
		s.tel.ReportBroken(report_session_upload_image, target.String(), fmt.Errorf("detect mimetype: %w", err))
		return UploadResult{}, fmt.Errorf("upload %s: %w", localPath, err)
	}

	f, err := os.Open(localPath)
	if err != nil {
		s.tel.ReportBroken(report_session_upload_image, target.String(), err)
		return UploadResult{}, fmt.Errorf("upload %s: %w", localPath, err)
	}
	defer f.Close()

	res, err := s.http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		SetMultipartField("image", filepath.Base(localPath), mtype.String(), f).
		SetMultipartFormData(target.formData()).
		Post(target.endpoint())
	if err != nil {
		s.tel.ReportBroken(report_session_upload_image, target.String(), err)
		return UploadResult{}, fmt.Errorf("upload to %s: %w", target, err)
	}

	if !isCreated(res.StatusCode()) {
		err := newStatusError(ErrUploadRejected, "upload to "+target.String(), res.StatusCode(), res.Body())
		s.tel.ReportWarning(report_session_upload_image, target.String(), err)
		return UploadResult{}, err
	}

	result := UploadResult{Status: res.StatusCode()}
	var raw map[string]any
	if json.Unmarshal(res.Body(), &raw) == nil {
		result.Raw = raw
	}
	return result, nil
}
