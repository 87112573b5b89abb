package transfer

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const defaultExtension = ".jpg"

// ScratchDir is a directory holding downloaded images until they are uploaded.
type ScratchDir struct {
	Root string
}

// NewScratchDir creates root if it does not exist yet.
func NewScratchDir(root string) (ScratchDir, error) {
	err := os.MkdirAll(root, 0755)
	if err != nil {
		return ScratchDir{}, fmt.Errorf("create scratch dir: %w", err)
	}
	return ScratchDir{Root: root}, nil
}

// Sub returns (and creates) a nested scratch directory.
func (d ScratchDir) Sub(name string) (ScratchDir, error) {
	return NewScratchDir(filepath.Join(d.Root, name))
}

func (d ScratchDir) Asset(name string) ScratchAsset {
	return ScratchAsset{Path: filepath.Join(d.Root, name)}
}

// ScratchAsset is a single downloaded image, it only lives between its download
// and its upload.
type ScratchAsset struct {
	Path string
}

func (a ScratchAsset) Name() string {
	return filepath.Base(a.Path)
}

// Remove deletes the file, failures are ignored.
func (a ScratchAsset) Remove() {
	_ = os.Remove(a.Path)
}

// ImageExtension returns the extension of the url's path (query and fragment
// ignored), or ".jpg" if it has none.
func ImageExtension(rawUrl string) string {
	p := rawUrl
	parsed, err := url.Parse(rawUrl)
	if err == nil {
		p = parsed.Path
	} else if i := strings.IndexAny(rawUrl, "?#"); i >= 0 {
		p = rawUrl[:i]
	}

	ext := path.Ext(p)
	if ext == "" || ext == "." {
		return defaultExtension
	}
	return ext
}

var unsafeFilenameChars = strings.NewReplacer("/", "_", "\\", "_", " ", "_")

// ProductImageName is the scratch name of the primary image of a product.
func ProductImageName(slug, imageUrl string) string {
	return unsafeFilenameChars.Replace(slug) + ImageExtension(imageUrl)
}

// IndexedProductImageName is the scratch name of the idx-th image of a product.
func IndexedProductImageName(slug string, idx int, imageUrl string) string {
	return fmt.Sprintf("%s_%d%s", unsafeFilenameChars.Replace(slug), idx, ImageExtension(imageUrl))
}

// GalleryImageName derives a scratch name from a gallery title,
// "Black Walnut Desk" becomes "gallery_black_walnut_desk.jpg".
func GalleryImageName(title, imageUrl string) string {
	name := unsafeFilenameChars.Replace(strings.ToLower(title))
	return "gallery_" + name + ImageExtension(imageUrl)
}
