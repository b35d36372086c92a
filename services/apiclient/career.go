package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/trezcool/pathways/core/career"
)

// Records is the API of one kind of career record: R is the record, N and U its create and update payloads.
type Records[R career.Record, N, U any] struct {
	c    *Client
	kind string // path segment, e.g. "notes"
}

func (r Records[R, N, U]) path(studentID string, id ...string) string {
	p := studentPath(studentID) + "/" + r.kind
	if len(id) > 0 {
		p += "/" + url.PathEscape(id[0])
	}
	return p
}

// List returns the student's records, newest first.
func (r Records[R, N, U]) List(ctx context.Context, studentID string, opts ...CallOption) ([]R, error) {
	var recs []R
	err := r.c.Do(ctx, http.MethodGet, r.path(studentID), nil, &recs, opts...)
	return recs, err
}

func (r Records[R, N, U]) Get(ctx context.Context, studentID, id string, opts ...CallOption) (R, error) {
	var rec R
	err := r.c.Do(ctx, http.MethodGet, r.path(studentID, id), nil, &rec, opts...)
	return rec, err
}

func (r Records[R, N, U]) Create(ctx context.Context, studentID string, data N) (R, error) {
	var rec R
	err := r.c.Do(ctx, http.MethodPost, r.path(studentID), data, &rec)
	return rec, err
}

func (r Records[R, N, U]) Update(ctx context.Context, studentID, id string, data U) (R, error) {
	var rec R
	err := r.c.Do(ctx, http.MethodPut, r.path(studentID, id), data, &rec)
	return rec, err
}

func (r Records[R, N, U]) Delete(ctx context.Context, studentID, id string) error {
	return r.c.Do(ctx, http.MethodDelete, r.path(studentID, id), nil, nil)
}

func (c *Client) Notes() Records[career.Note, career.NewNote, career.UpdateNote] {
	return Records[career.Note, career.NewNote, career.UpdateNote]{c: c, kind: "notes"}
}

func (c *Client) Consultations() Records[career.Consultation, career.NewConsultation, career.UpdateConsultation] {
	return Records[career.Consultation, career.NewConsultation, career.UpdateConsultation]{c: c, kind: "consultations"}
}

func (c *Client) Applications() Records[career.Application, career.NewApplication, career.UpdateApplication] {
	return Records[career.Application, career.NewApplication, career.UpdateApplication]{c: c, kind: "applications"}
}

func (c *Client) Workshops() Records[career.Workshop, career.NewWorkshop, career.UpdateWorkshop] {
	return Records[career.Workshop, career.NewWorkshop, career.UpdateWorkshop]{c: c, kind: "workshops"}
}

func (c *Client) MockInterviews() Records[career.MockInterview, career.NewMockInterview, career.UpdateMockInterview] {
	return Records[career.MockInterview, career.NewMockInterview, career.UpdateMockInterview]{c: c, kind: "mock-interviews"}
}

func (c *Client) Documents() Records[career.Document, career.NewDocument, career.UpdateDocument] {
	return Records[career.Document, career.NewDocument, career.UpdateDocument]{c: c, kind: "documents"}
}

func (c *Client) EmployerConnections() Records[career.EmployerConnection, career.NewEmployerConnection, career.UpdateEmployerConnection] {
	return Records[career.EmployerConnection, career.NewEmployerConnection, career.UpdateEmployerConnection]{
		c: c, kind: "employer-connections",
	}
}
