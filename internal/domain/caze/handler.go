package caze

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/epitrack/epitrack/internal/domain/person"
	"github.com/epitrack/epitrack/internal/domain/user"
	"github.com/epitrack/epitrack/internal/platform/auth"
	"github.com/epitrack/epitrack/pkg/pagination"
)

type Handler struct {
	svc   *Service
	users user.Repository
}

func NewHandler(svc *Service, users user.Repository) *Handler {
	return &Handler{svc: svc, users: users}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/cases", h.ListCases)
	api.GET("/cases/duplicates", h.DuplicatePairs)
	api.POST("/cases/similar", h.SimilarCases)
	api.GET("/cases/:id", h.GetCase)
	api.GET("/cases/:id/followup", h.FollowUpList)
	api.POST("/cases", h.SaveCase)
	api.PUT("/cases/:id", h.SaveCase)
	api.DELETE("/cases/:id", h.DeleteCase)
	api.POST("/cases/:id/clone", h.CloneCase)
	api.POST("/cases/:leadId/merge/:duplicateId", h.MergeCases)
}

func (h *Handler) ListCases(c echo.Context) error {
	p := pagination.FromContext(c)
	cases, total, err := h.svc.ListCases(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(cases, total, p.Limit, p.Offset))
}

func (h *Handler) GetCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	caze, err := h.svc.GetCase(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caze)
}

func (h *Handler) SaveCase(c echo.Context) error {
	var caze Case
	if err := c.Bind(&caze); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if idParam := c.Param("id"); idParam != "" {
		id, err := uuid.Parse(idParam)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
		}
		caze.ID = id
	}
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	if err := h.svc.SaveCase(c.Request().Context(), &caze, actor); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caze)
}

func (h *Handler) DeleteCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteCase(c.Request().Context(), id, actor); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) CloneCase(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	clone, err := h.svc.CloneCase(c.Request().Context(), id, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, clone)
}

func (h *Handler) MergeCases(c echo.Context) error {
	leadID, err := uuid.Parse(c.Param("leadId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid lead case id")
	}
	duplicateID, err := uuid.Parse(c.Param("duplicateId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid duplicate case id")
	}
	actor, err := h.actor(c)
	if err != nil {
		return err
	}
	lead, err := h.svc.Merge(c.Request().Context(), leadID, duplicateID, actor)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lead)
}

// similarRequest carries the reference case and person a caller wants
// duplicates for, e.g. before registering a new case.
type similarRequest struct {
	Case   *Case          `json:"case"`
	Person *person.Person `json:"person"`
}

func (h *Handler) SimilarCases(c echo.Context) error {
	var req similarRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	matches, err := h.svc.GetSimilarCases(c.Request().Context(),
		MatchInput{Case: req.Case, Person: req.Person})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, matches)
}

func (h *Handler) DuplicatePairs(c echo.Context) error {
	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}
	pairs, err := h.svc.DuplicatePairs(c.Request().Context(), limit)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pairs)
}

func (h *Handler) FollowUpList(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid case id")
	}
	interval := 14
	if raw := c.QueryParam("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid days")
		}
		interval = parsed
	}
	detail, err := h.svc.FollowUpList(c.Request().Context(), id, interval)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// actor resolves the authenticated user for right checks. Requests without
// a resolvable user are rejected before the service runs.
func (h *Handler) actor(c echo.Context) (*user.User, error) {
	id := auth.UserID(c)
	if id == uuid.Nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user identity")
	}
	actor, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "could not resolve user")
	}
	if actor == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
	}
	return actor, nil
}

func httpError(err error) error {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		return echo.NewHTTPError(http.StatusBadRequest, map[string]string{
			"code": vErr.Code, "message": vErr.Message,
		})
	case errors.Is(err, ErrAccessDenied):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "case not found")
	case errors.Is(err, ErrDataIntegrity):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
