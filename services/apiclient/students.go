package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/student"
)

func studentPath(id string) string {
	return "/students/" + url.PathEscape(id)
}

// ListStudents returns the students matching filter, sorted by ordering (e.g. "last_name,-created_at").
func (c *Client) ListStudents(ctx context.Context, filter *student.QueryFilter, ordering string, opts ...CallOption) ([]student.Student, error) {
	params := make(url.Values)
	if filter != nil {
		setParam(params, "search", filter.Search)
		for _, status := range filter.Statuses {
			params.Add("status", status)
		}
		setParam(params, "program", filter.Program)
		setIntParam(params, "graduation_year", filter.GraduationYear)
		setParam(params, "advisor_id", filter.AdvisorID)
		setIntParam(params, "limit", filter.Limit)
		setIntParam(params, "offset", filter.Offset)
	}
	setParam(params, "ordering", ordering)

	path := "/students"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var students []student.Student
	err := c.Do(ctx, http.MethodGet, path, nil, &students, opts...)
	return students, err
}

func setParam(params url.Values, key, val string) {
	if val != "" {
		params.Set(key, val)
	}
}

func setIntParam(params url.Values, key string, val int) {
	if val != 0 {
		params.Set(key, strconv.Itoa(val))
	}
}

func (c *Client) GetStudent(ctx context.Context, id string, opts ...CallOption) (student.Student, error) {
	var s student.Student
	err := c.Do(ctx, http.MethodGet, studentPath(id), nil, &s, opts...)
	return s, err
}

func (c *Client) CreateStudent(ctx context.Context, ns student.NewStudent) (student.Student, error) {
	var s student.Student
	err := c.Do(ctx, http.MethodPost, "/students", ns, &s)
	return s, err
}

func (c *Client) UpdateStudent(ctx context.Context, id string, us student.UpdateStudent) (student.Student, error) {
	var s student.Student
	err := c.Do(ctx, http.MethodPut, studentPath(id), us, &s)
	return s, err
}

// DeleteStudent deletes the student and all their records.
func (c *Client) DeleteStudent(ctx context.Context, id string) error {
	return c.Do(ctx, http.MethodDelete, studentPath(id), nil, nil)
}

// Overview is a student with all their career records.
type Overview struct {
	Student             student.Student             `json:"student"`
	Notes               []career.Note               `json:"notes"`
	Consultations       []career.Consultation       `json:"consultations"`
	Applications        []career.Application        `json:"applications"`
	Workshops           []career.Workshop           `json:"workshops"`
	MockInterviews      []career.MockInterview      `json:"mock_interviews"`
	Documents           []career.Document           `json:"documents"`
	EmployerConnections []career.EmployerConnection `json:"employer_connections"`
}

// StudentOverview fetches a student and all their records concurrently.
// It fails on the first error.
func (c *Client) StudentOverview(ctx context.Context, id string, opts ...CallOption) (Overview, error) {
	var ov Overview
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		ov.Student, err = c.GetStudent(ctx, id, opts...)
		return err
	})
	g.Go(func() (err error) {
		ov.Notes, err = c.Notes().List(ctx, id, opts...)
		return err
	})
	g.Go(func() (err error) {
		ov.Consultations, err = c.Consultations().List(ctx, id, opts...)
		return err
	})
	g.Go(func() (err error) {
		ov.Applications, err = c.Applications().List(ctx, id, opts...)
		return err
	})
	g.Go(func() (err error) {
		ov.Workshops, err = c.Workshops().List(ctx, id, opts...)
		return err
	})
	g.Go(func() (err error) {
		ov.MockInterviews, err = c.MockInterviews().List(ctx, id, opts...)
		return err
	})
	g.Go(func() (err error) {
		ov.Documents, err = c.Documents().List(ctx, id, opts...)
		return err
	})
	g.Go(func() (err error) {
		ov.EmployerConnections, err = c.EmployerConnections().List(ctx, id, opts...)
		return err
	})

	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return ov, nil
}
