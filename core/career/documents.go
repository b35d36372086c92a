package career

import (
	"time"

	"github.com/trezcool/pathways/core"
)

// Document kinds
const (
	DocumentResume      = "resume"
	DocumentCoverLetter = "cover_letter"
	DocumentPortfolio   = "portfolio"
	DocumentTranscript  = "transcript"
	DocumentOther       = "other"
)

// Document is the metadata of a career document; the file itself lives at URL.
type Document struct {
	Meta
	Title   string `json:"title" db:"title" validate:"required,max=200"`
	Kind    string `json:"kind" db:"kind" validate:"required,oneof=resume cover_letter portfolio transcript other"`
	URL     string `json:"url" db:"url" validate:"required,url"`
	Version int    `json:"version" db:"version" validate:"min=1"`
}

type NewDocument struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
	URL   string `json:"url"`
}

func (nd NewDocument) Build(meta Meta) Document {
	return Document{
		Meta:    meta,
		Title:   core.CleanString(nd.Title),
		Kind:    orDefault(core.CleanString(nd.Kind, true /* lower */), DocumentResume),
		URL:     core.CleanString(nd.URL),
		Version: 1,
	}
}

// UpdateDocument bumps the version whenever the URL changes, unless a version is given.
type UpdateDocument struct {
	Title   *string `json:"title"`
	Kind    *string `json:"kind"`
	URL     *string `json:"url"`
	Version *int    `json:"version"`
}

func (ud UpdateDocument) Apply(d Document, updatedAt time.Time) Document {
	origURL := d.URL
	patchString(&d.Title, ud.Title)
	patchString(&d.Kind, ud.Kind, true /* lower */)
	patchString(&d.URL, ud.URL)
	switch {
	case ud.Version != nil:
		d.Version = *ud.Version
	case d.URL != origURL:
		d.Version++
	}
	d.UpdatedAt = updatedAt
	return d
}
