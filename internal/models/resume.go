package models

// ResumeKind tells which form of resume data a candidate holds
type ResumeKind string

const (
	ResumeNone   ResumeKind = ""
	ResumeText   ResumeKind = "text"
	ResumeImages ResumeKind = "images"
)

// PageImage is one rendered resume page
type PageImage struct {
	MIMEType string `json:"mime_type" yaml:"mime_type"`
	Data     []byte `json:"data" yaml:"data"`
}

// Resume holds uploaded resume data. Text is always set once a resume exists;
// Images is only set for documents that were rendered to pages.
type Resume struct {
	Kind      ResumeKind  `json:"kind" yaml:"kind"`
	FileName  string      `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	ObjectKey string      `json:"object_key,omitempty" yaml:"object_key,omitempty"`
	Text      string      `json:"text,omitempty" yaml:"text,omitempty"`
	Images    []PageImage `json:"images,omitempty" yaml:"-"`
}

// NewTextResume builds a text-only resume.
func NewTextResume(text string) Resume {
	return Resume{Kind: ResumeText, Text: text}
}

// NewImageResume builds a resume made of page images plus their extracted text.
func NewImageResume(images []PageImage, extractedText string) Resume {
	return Resume{Kind: ResumeImages, Images: images, Text: extractedText}
}

// HasData reports whether there is anything to analyse.
func (r Resume) HasData() bool {
	switch r.Kind {
	case ResumeText:
		return r.Text != ""
	case ResumeImages:
		return len(r.Images) > 0 || r.Text != ""
	default:
		return false
	}
}

// Clone deep copies the page images.
func (r Resume) Clone() Resume {
	if r.Images == nil {
		return r
	}
	images := make([]PageImage, len(r.Images))
	for i, img := range r.Images {
		data := make([]byte, len(img.Data))
		copy(data, img.Data)
		images[i] = PageImage{MIMEType: img.MIMEType, Data: data}
	}
	r.Images = images
	return r
}
