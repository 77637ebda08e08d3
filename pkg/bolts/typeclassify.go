package bolts

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"oer-preproc/pkg/bolt"
)

// extensionTypes maps known file extensions to coarse material types.
var extensionTypes = map[string]string{
	".pdf":  "text",
	".txt":  "text",
	".doc":  "text",
	".docx": "text",
	".ppt":  "text",
	".pptx": "text",
	".html": "text",
	".htm":  "text",
	".mp4":  "video",
	".webm": "video",
	".mkv":  "video",
	".mov":  "video",
	".mp3":  "audio",
	".wav":  "audio",
	".ogg":  "audio",
	".png":  "image",
	".jpg":  "image",
	".jpeg": "image",
	".gif":  "image",
	".svg":  "image",
}

// TypeClassify derives the material type and mimetype from the material
// URL's file extension. A URL without a known extension classifies as text,
// the common case for HTML course pages.
type TypeClassify struct {
	bolt.Base
}

// NewTypeClassify creates the type-classification stage.
func NewTypeClassify() *TypeClassify {
	return &TypeClassify{}
}

// Process fills the type and mimetype fields when they are not already set.
func (t *TypeClassify) Process(ctx context.Context, env bolt.Envelope) (bolt.Emission, error) {
	m := env.Material

	parsed, err := url.Parse(m.MaterialURL)
	if err != nil {
		return bolt.Fail(m, t.Name(), fmt.Errorf("unparseable material url: %w", err)), nil
	}

	ext := strings.ToLower(path.Ext(parsed.Path))
	if m.Type == "" {
		if materialType, ok := extensionTypes[ext]; ok {
			m.Type = materialType
		} else {
			m.Type = "text"
		}
	}
	if m.Mimetype == "" && ext != "" {
		m.Mimetype = mime.TypeByExtension(ext)
	}

	return bolt.Main(m), nil
}
