package career

import (
	"time"

	"github.com/trezcool/pathways/core"
)

// Note categories
const (
	NoteGeneral  = "general"
	NoteCareer   = "career"
	NoteAcademic = "academic"
	NoteFollowUp = "followup"
)

type Note struct {
	Meta
	AuthorID string `json:"author_id" db:"author_id"`
	Content  string `json:"content" db:"content" validate:"required,max=10000"`
	Category string `json:"category" db:"category" validate:"required,oneof=general career academic followup"`
}

type NewNote struct {
	AuthorID string `json:"-"` // set from the authenticated user
	Content  string `json:"content"`
	Category string `json:"category"`
}

func (nn NewNote) Build(meta Meta) Note {
	return Note{
		Meta:     meta,
		AuthorID: nn.AuthorID,
		Content:  core.CleanString(nn.Content),
		Category: orDefault(core.CleanString(nn.Category, true /* lower */), NoteGeneral),
	}
}

type UpdateNote struct {
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

func (un UpdateNote) Apply(n Note, updatedAt time.Time) Note {
	patchString(&n.Content, un.Content)
	patchString(&n.Category, un.Category, true /* lower */)
	n.UpdatedAt = updatedAt
	return n
}
