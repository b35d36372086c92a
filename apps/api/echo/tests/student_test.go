package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/student"
	"github.com/trezcool/pathways/core/user"
	"github.com/trezcool/pathways/tests"
)

type roleTokens struct {
	none, viewer, advisor, admin string
	advisorUsr                   user.User
}

func createStaff(t *testing.T, app *testutil.App) roleTokens {
	none := testutil.CreateUser(t, app.UserRepo, "Nobody", "nobody", "nobody@test.cd", pwd, nil, true)
	viewer := testutil.CreateUser(t, app.UserRepo, "Viewer", "viewer", "viewer@test.cd", pwd, []string{user.RoleViewer}, true)
	advisor := testutil.CreateUser(t, app.UserRepo, "Advisor", "advisor", "advisor@test.cd", pwd, []string{user.RoleAdvisor}, true)
	admin := testutil.CreateUser(t, app.UserRepo, "Admin", "admin", "admin@test.cd", pwd, []string{user.RoleAdmin}, true)
	return roleTokens{
		none:       app.Token(t, none),
		viewer:     app.Token(t, viewer),
		advisor:    app.Token(t, advisor),
		admin:      app.Token(t, admin),
		advisorUsr: advisor,
	}
}

func Test_studentApi_query(t *testing.T) {
	app := testutil.NewApp(t)
	tk := createStaff(t, app)

	ada := testutil.CreateStudent(t, app.StudentSvc, "Ada", "Lovelace", "ada@test.cd", func(ns *student.NewStudent) {
		year := 2022
		ns.GraduationYear = &year
		ns.Program = "Mathematics"
		ns.AdvisorID = tk.advisorUsr.ID
	})
	grace := testutil.CreateStudent(t, app.StudentSvc, "Grace", "Hopper", "grace@test.cd", func(ns *student.NewStudent) {
		ns.Status = student.StatusAlumni
		ns.StudentNumber = "CS-042"
	})
	alan := testutil.CreateStudent(t, app.StudentSvc, "Alan", "Turing", "alan@test.cd", func(ns *student.NewStudent) {
		ns.Status = student.StatusProspective
		ns.Program = "Mathematics"
	})

	path := func(ordering string, params ...string) string {
		v := make(url.Values)
		for i := 0; i+1 < len(params); i += 2 {
			v.Add(params[i], params[i+1])
		}
		if ordering != "" {
			v.Set("ordering", ordering)
		}
		return "/v1/students?" + v.Encode()
	}

	runHTTPTests(t, app, []httpTest{
		{name: "auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "role required", path: "/v1/students", token: tk.none,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "all by last name", path: path("last_name"), token: tk.viewer, wantData: marshalList(t, grace, ada, alan)},
		{name: "all by -last_name", path: path("-last_name"), token: tk.viewer, wantData: marshalList(t, alan, ada, grace)},
		{name: "unknown ordering is ignored", path: path("password_hash,last_name"), token: tk.viewer, wantData: marshalList(t, grace, ada, alan)},
		{name: "search name", path: path("last_name", "search", "LOVE"), token: tk.viewer, wantData: marshalList(t, ada)},
		{name: "search full name", path: path("last_name", "search", "alan tur"), token: tk.viewer, wantData: marshalList(t, alan)},
		{name: "search student number", path: path("", "search", "cs-042"), token: tk.viewer, wantData: marshalList(t, grace)},
		{name: "search unknown", path: path("", "search", "lol"), token: tk.viewer, wantData: marshalList(t)},
		{
			name: "statuses", path: path("last_name", "status", "alumni", "status", "prospective"),
			token: tk.viewer, wantData: marshalList(t, grace, alan),
		},
		{name: "program", path: path("last_name", "program", "mathematics"), token: tk.viewer, wantData: marshalList(t, ada, alan)},
		{name: "program wildcard is literal", path: path("", "program", "%"), token: tk.viewer, wantData: marshalList(t)},
		{name: "search wildcard is literal", path: path("", "search", "_"), token: tk.viewer, wantData: marshalList(t)},
		{name: "graduation year", path: path("", "graduation_year", "2022"), token: tk.viewer, wantData: marshalList(t, ada)},
		{name: "advisor", path: path("", "advisor_id", tk.advisorUsr.ID), token: tk.viewer, wantData: marshalList(t, ada)},
		{name: "limit & offset", path: path("last_name", "limit", "1", "offset", "1"), token: tk.viewer, wantData: marshalList(t, ada)},
		{name: "bad graduation year", path: path("", "graduation_year", "soon"), token: tk.viewer, wantCode: http.StatusBadRequest},
	})
}

func Test_studentApi_create(t *testing.T) {
	app := testutil.NewApp(t)
	tk := createStaff(t, app)
	testutil.CreateStudent(t, app.StudentSvc, "Ada", "Lovelace", "ada@test.cd")

	valid := marshalObj(t, student.NewStudent{FirstName: "Grace", LastName: "Hopper", Email: "Grace@Test.cd"})

	runHTTPTests(t, app, []httpTest{
		{
			name: "viewer cannot create", method: http.MethodPost, path: "/v1/students", body: valid, token: tk.viewer,
			wantCode: http.StatusForbidden, wantData: marshalObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/students", body: []byte(`{}`), token: tk.advisor,
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"first_name": "this field is required",
				"last_name":  "this field is required",
				"email":      "this field is required",
			}),
		},
		{
			name: "invalid values", method: http.MethodPost, path: "/v1/students", token: tk.advisor,
			body: []byte(`{"first_name":"X","last_name":"Y","email":"nope","status":"expelled","phone":"call me"}`),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{
				"email":           "email must be a valid email address",
				"status":          "status must be one of [prospective active alumni inactive]",
				"phone":           "invalid phone number",
			}),
		},
		{
			name: "duplicate email", method: http.MethodPost, path: "/v1/students", token: tk.advisor,
			body:     marshalObj(t, student.NewStudent{FirstName: "A", LastName: "L", Email: " ADA@test.cd"}),
			wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": student.ErrEmailExists.Error()}),
		},
	})

	var s student.Student
	req, rec := newAuthRequest(http.MethodPost, "/v1/students", tk.advisor, valid)
	decode(t, app, req, rec, http.StatusCreated, &s)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "grace@test.cd", s.Email)
	assert.Equal(t, student.StatusActive, s.Status)
	assert.Equal(t, []string{}, s.CareerInterests)
	assert.False(t, s.AdvisorID.Valid)
}

func Test_studentApi_detail(t *testing.T) {
	app := testutil.NewApp(t)
	tk := createStaff(t, app)
	ada := testutil.CreateStudent(t, app.StudentSvc, "Ada", "Lovelace", "ada@test.cd")
	testutil.CreateStudent(t, app.StudentSvc, "Grace", "Hopper", "grace@test.cd")
	notFound := marshalObj(t, httpErr{Error: student.ErrNotFound.Error()})

	runHTTPTests(t, app, []httpTest{
		{name: "get", path: "/v1/students/" + ada.ID, token: tk.viewer, wantData: marshalObj(t, ada)},
		{name: "get: not a uuid", path: "/v1/students/42", token: tk.viewer, wantCode: http.StatusNotFound, wantData: notFound},
		{
			name: "get: unknown", path: "/v1/students/5f6ef2a4-5d3e-4b8a-9d6b-3c0f6a0e9b11", token: tk.viewer,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "update: viewer", method: http.MethodPut, path: "/v1/students/" + ada.ID, token: tk.viewer,
			body: []byte(`{"program":"Poetry"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "update: email taken", method: http.MethodPut, path: "/v1/students/" + ada.ID, token: tk.advisor,
			body: []byte(`{"email":"grace@test.cd"}`), wantCode: http.StatusBadRequest,
			wantData: marshalObj(t, map[string]string{"email": student.ErrEmailExists.Error()}),
		},
		{
			name: "update: unknown", method: http.MethodPut, path: "/v1/students/5f6ef2a4-5d3e-4b8a-9d6b-3c0f6a0e9b11",
			token: tk.advisor, body: []byte(`{"program":"Poetry"}`), wantCode: http.StatusNotFound,
		},
		{
			name: "delete: advisor", method: http.MethodDelete, path: "/v1/students/" + ada.ID, token: tk.advisor,
			wantCode: http.StatusForbidden,
		},
		{
			name: "delete: unknown", method: http.MethodDelete, path: "/v1/students/5f6ef2a4-5d3e-4b8a-9d6b-3c0f6a0e9b11",
			token: tk.admin, wantCode: http.StatusNotFound,
		},
	})

	t.Run("update", func(t *testing.T) {
		var s student.Student
		body := []byte(`{"program":" Poetry ","career_interests":["writing","math","writing"],"advisor_id":"` + tk.advisorUsr.ID + `"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+ada.ID, tk.advisor, body)
		decode(t, app, req, rec, http.StatusOK, &s)
		assert.Equal(t, "Poetry", s.Program)
		assert.Equal(t, []string{"writing", "math"}, s.CareerInterests)
		assert.Equal(t, tk.advisorUsr.ID, s.AdvisorID.String)
		assert.Equal(t, ada.FirstName, s.FirstName, "unset fields are kept")
		assert.False(t, s.UpdatedAt.Before(ada.UpdatedAt))

		// an empty advisor unassigns
		req, rec = newAuthRequest(http.MethodPut, "/v1/students/"+ada.ID, tk.advisor, []byte(`{"advisor_id":""}`))
		decode(t, app, req, rec, http.StatusOK, &s)
		assert.False(t, s.AdvisorID.Valid)
	})

	t.Run("delete cascades", func(t *testing.T) {
		ctx := context.Background()
		note, err := app.CareerSvc.Notes.Create(ctx, ada.ID, career.NewNote{Content: "first meeting"})
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodDelete, "/v1/students/"+ada.ID, tk.admin)
		decode(t, app, req, rec, http.StatusNoContent, nil)

		_, err = app.StudentSvc.GetByID(ctx, ada.ID)
		assert.Equal(t, student.ErrNotFound, err)
		recs, err := app.DB.CareerRepositories().Notes.QueryByStudent(ctx, ada.ID)
		require.NoError(t, err)
		assert.Empty(t, recs)
		_, err = app.DB.CareerRepositories().Notes.Get(ctx, note.ID)
		assert.Equal(t, career.ErrNotFound, err)
	})
}
