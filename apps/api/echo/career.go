package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/pathways/core/career"
	"github.com/trezcool/pathways/core/user"
)

// recordApi serves one kind of career record under /students/:id/<kind>.
// N and U are the create and update payloads of the kind.
type recordApi[R career.Record, N career.Builder[R], U career.Patcher[R]] struct {
	kind    string
	coll    *career.Collection[R]
	userSvc user.ServiceInterface

	// prepare fills the server-side fields of a create payload, like its author.
	prepare func(data *N, usr user.User)
}

func registerRecordAPI[R career.Record, N career.Builder[R], U career.Patcher[R]](
	sg *echo.Group,
	kind string,
	coll *career.Collection[R],
	userSvc user.ServiceInterface,
	prepare func(data *N, usr user.User),
) {
	api := recordApi[R, N, U]{kind: kind, coll: coll, userSvc: userSvc, prepare: prepare}

	editor := editorMiddleware(userSvc)
	rg := sg.Group("/" + kind)
	rg.GET("", api.query)
	rg.POST("", api.create, editor)
	rg.GET("/:rid", api.retrieve)
	rg.PUT("/:rid", api.update, editor)
	rg.DELETE("/:rid", api.destroy, editor)
}

func registerCareerAPI(sg *echo.Group, deps *ServerDeps) {
	svc, usrSvc := deps.CareerSvc, deps.UserSvc

	registerRecordAPI[career.Note, career.NewNote, career.UpdateNote](
		sg, "notes", svc.Notes, usrSvc,
		func(n *career.NewNote, usr user.User) { n.AuthorID = usr.ID },
	)
	registerRecordAPI[career.Consultation, career.NewConsultation, career.UpdateConsultation](
		sg, "consultations", svc.Consultations, usrSvc,
		func(c *career.NewConsultation, usr user.User) {
			if c.AdvisorID == "" {
				c.AdvisorID = usr.ID
			}
		},
	)
	registerRecordAPI[career.Application, career.NewApplication, career.UpdateApplication](
		sg, "applications", svc.Applications, usrSvc, nil,
	)
	registerRecordAPI[career.Workshop, career.NewWorkshop, career.UpdateWorkshop](
		sg, "workshops", svc.Workshops, usrSvc, nil,
	)
	registerRecordAPI[career.MockInterview, career.NewMockInterview, career.UpdateMockInterview](
		sg, "mock-interviews", svc.MockInterviews, usrSvc,
		func(mi *career.NewMockInterview, usr user.User) {
			if mi.InterviewerID == "" {
				mi.InterviewerID = usr.ID
			}
		},
	)
	registerRecordAPI[career.Document, career.NewDocument, career.UpdateDocument](
		sg, "documents", svc.Documents, usrSvc, nil,
	)
	registerRecordAPI[career.EmployerConnection, career.NewEmployerConnection, career.UpdateEmployerConnection](
		sg, "employer-connections", svc.EmployerConnections, usrSvc, nil,
	)
}

func (api *recordApi[R, N, U]) query(ctx echo.Context) error {
	recs, err := api.coll.QueryByStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrapf(err, "querying %s", api.kind)
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *recordApi[R, N, U]) create(ctx echo.Context) error {
	var data N
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrapf(err, "binding %s payload", api.kind)
	}
	if api.prepare != nil {
		usr, err := getContextUser(ctx, api.userSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		api.prepare(&data, usr)
	}

	rec, err := api.coll.Create(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrapf(err, "creating %s", api.kind)
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *recordApi[R, N, U]) retrieve(ctx echo.Context) error {
	rec, err := api.coll.Get(ctx.Request().Context(), ctx.Param("id"), ctx.Param("rid"))
	if err != nil {
		return errors.Wrapf(err, "finding %s", api.kind)
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *recordApi[R, N, U]) update(ctx echo.Context) error {
	var data U
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrapf(err, "binding %s payload", api.kind)
	}
	rec, err := api.coll.Update(ctx.Request().Context(), ctx.Param("id"), ctx.Param("rid"), data)
	if err != nil {
		return errors.Wrapf(err, "updating %s", api.kind)
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *recordApi[R, N, U]) destroy(ctx echo.Context) error {
	if err := api.coll.Delete(ctx.Request().Context(), ctx.Param("id"), ctx.Param("rid")); err != nil {
		return errors.Wrapf(err, "deleting %s", api.kind)
	}
	return ctx.NoContent(http.StatusNoContent)
}
