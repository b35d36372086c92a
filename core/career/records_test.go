package career

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

var (
	created = time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	updated = created.Add(48 * time.Hour)
	meta    = Meta{ID: "rec", StudentID: "std", CreatedAt: created, UpdatedAt: created}
)

func TestApplication_appliedAt(t *testing.T) {
	earlier := created.Add(-24 * time.Hour)

	tests := []struct {
		name    string
		build   NewApplication
		update  *UpdateApplication
		wantSet bool
		wantAt  time.Time
	}{
		{name: "draft", build: NewApplication{Company: "A", Position: "B"}},
		{name: "applied on create", build: NewApplication{Status: "Applied"}, wantSet: true, wantAt: created},
		{name: "explicit date kept", build: NewApplication{Status: "offer", AppliedAt: &earlier}, wantSet: true, wantAt: earlier},
		{
			name:    "leaves draft on update",
			build:   NewApplication{},
			update:  &UpdateApplication{Status: strPtr(ApplicationApplied)},
			wantSet: true, wantAt: updated,
		},
		{
			name:    "later updates keep the date",
			build:   NewApplication{Status: ApplicationApplied},
			update:  &UpdateApplication{Status: strPtr(ApplicationRejected)},
			wantSet: true, wantAt: created,
		},
		{name: "stays draft", build: NewApplication{}, update: &UpdateApplication{Notes: strPtr("call back")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.build.Build(meta)
			if tt.update != nil {
				a = tt.update.Apply(a, updated)
			}
			assert.Equal(t, tt.wantSet, a.AppliedAt.Valid)
			if tt.wantSet {
				assert.True(t, tt.wantAt.Equal(a.AppliedAt.Time))
			}
		})
	}
}

func TestDocument_version(t *testing.T) {
	doc := NewDocument{Title: " CV ", URL: "https://files.test/cv.pdf"}.Build(meta)
	assert.Equal(t, 1, doc.Version)
	assert.Equal(t, "CV", doc.Title)
	assert.Equal(t, DocumentResume, doc.Kind)

	tests := []struct {
		name        string
		update      UpdateDocument
		wantVersion int
	}{
		{name: "no change", update: UpdateDocument{}, wantVersion: 1},
		{name: "same url", update: UpdateDocument{URL: strPtr(" https://files.test/cv.pdf ")}, wantVersion: 1},
		{name: "new url", update: UpdateDocument{URL: strPtr("https://files.test/cv2.pdf")}, wantVersion: 2},
		{name: "explicit", update: UpdateDocument{URL: strPtr("https://files.test/cv2.pdf"), Version: intPtr(5)}, wantVersion: 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.update.Apply(doc, updated)
			assert.Equal(t, tt.wantVersion, got.Version)
			assert.Equal(t, updated, got.UpdatedAt)
			assert.Equal(t, created, got.CreatedAt)
		})
	}
}

func TestConsultation_defaults(t *testing.T) {
	at := time.Date(2026, 3, 2, 11, 0, 0, 0, time.FixedZone("WAT", 3600))
	c := NewConsultation{Topic: "Internships", ScheduledAt: at}.Build(meta)

	assert.Equal(t, defaultConsultationMinutes, c.DurationMinutes)
	assert.Equal(t, ModeInPerson, c.Mode)
	assert.Equal(t, ConsultationScheduled, c.Status)
	assert.Equal(t, time.UTC, c.ScheduledAt.Location())
	assert.Equal(t, time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC), c.Ends())

	c = UpdateConsultation{DurationMinutes: intPtr(90), Status: strPtr(" Completed ")}.Apply(c, updated)
	assert.Equal(t, ConsultationCompleted, c.Status)
	assert.Equal(t, time.Date(2026, 3, 2, 11, 30, 0, 0, time.UTC), c.Ends())
}

func TestUpdateNote_clearsWithEmptyString(t *testing.T) {
	n := NewNote{AuthorID: "usr", Content: "hi", Category: "Career"}.Build(meta)
	assert.Equal(t, NoteCareer, n.Category)

	n = UpdateNote{Category: strPtr("")}.Apply(n, updated)
	assert.Equal(t, "", n.Category)
	assert.Equal(t, "hi", n.Content)
	assert.Equal(t, "usr", n.AuthorID)
}
