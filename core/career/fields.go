package career

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pathways/core"
)

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// patchString sets *dst to the cleaned *src, if src is set.
func patchString(dst *string, src *string, lower ...bool) {
	if src != nil {
		*dst = core.CleanString(*src, lower...)
	}
}

func patchTime(dst *time.Time, src *time.Time) {
	if src != nil {
		*dst = src.UTC()
	}
}

func nullTimeFromPtr(t *time.Time) null.Time {
	if t == nil || t.IsZero() {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}
