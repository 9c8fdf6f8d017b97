package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"ratiodash/internal/chart"
	"ratiodash/internal/dataset"
	"ratiodash/internal/engine"
	"ratiodash/internal/models"
	"ratiodash/internal/session"
)

// ChartStateHeader is set on chart responses that carry no image.
const ChartStateHeader = "X-Chart-State"

type Handler struct {
	datasets *dataset.Registry
	sessions *session.Store
	logger   logrus.FieldLogger
}

func NewHandler(datasets *dataset.Registry, sessions *session.Store, logger logrus.FieldLogger) *Handler {
	return &Handler{datasets: datasets, sessions: sessions, logger: logger}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.HTTPErrorHandler = h.ErrorHandler

	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.GET("/datasets", h.ListDatasets)
	api.GET("/datasets/:dataset/options", h.GetOptions)
	api.GET("/datasets/:dataset/categories/:category/indicators", h.GetIndicators)
	api.GET("/datasets/:dataset/banks", h.GetBanks)
	api.GET("/datasets/:dataset/view", h.GetView)
	api.POST("/datasets/:dataset/sessions", h.CreateSession)

	api.GET("/sessions/:id", h.GetSession)
	api.PATCH("/sessions/:id", h.UpdateSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.GET("/sessions/:id/chart", h.GetChart)
}

// --- HELPERS ---

func httpError(code int, err error) *echo.HTTPError {
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

// ErrorHandler writes every handler error as a models.ErrorResponse.
func (h *Handler) ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.Path()).Error("request failed")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, models.ErrorResponse{Error: msg})
	}
	if err != nil {
		h.logger.WithError(err).Warn("write error response")
	}
}

func (h *Handler) dashboard(c echo.Context) (*engine.Dashboard, error) {
	d, err := h.datasets.Get(c.Param("dataset"))
	if err != nil {
		return nil, httpError(http.StatusNotFound, err)
	}
	return d, nil
}

// loadSession resolves :id to a session and its dashboard.
func (h *Handler) loadSession(c echo.Context) (session.Session, *engine.Dashboard, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return session.Session{}, nil, httpError(http.StatusBadRequest, errors.New("malformed session id"))
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		return session.Session{}, nil, httpError(http.StatusNotFound, err)
	}
	d, err := h.datasets.Get(sess.Dataset)
	if err != nil {
		return session.Session{}, nil, httpError(http.StatusNotFound, err)
	}
	return sess, d, nil
}

// --- DATASET HANDLERS ---

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"datasets": len(h.datasets.List()),
		"sessions": h.sessions.Len(),
	})
}

func (h *Handler) ListDatasets(c echo.Context) error {
	list := h.datasets.List()
	out := make([]models.DatasetSummary, 0, len(list))
	for _, d := range list {
		fields := make([]string, 0)
		for _, f := range d.Resolver().Fields() {
			fields = append(fields, string(f))
		}
		out = append(out, models.DatasetSummary{
			Name:       d.Name(),
			Title:      d.Presentation().Title,
			Percent:    d.Presentation().Percent,
			HasCountry: d.Table().HasCountry(),
			Rows:       d.Table().Len(),
			Indicators: len(d.Table().Indicators),
			Fields:     fields,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// GetOptions returns the option lists of the default selection.
func (h *Handler) GetOptions(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d.Initial().Options)
}

func (h *Handler) GetIndicators(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	raw := c.Param("category")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}

	cat, err := d.Index().ParseCategory(raw)
	if err != nil {
		return httpError(http.StatusNotFound, err)
	}
	list, err := d.Index().IndicatorsFor(cat)
	if err != nil {
		return httpError(http.StatusNotFound, err)
	}
	def, _ := engine.ResolveDefault(list)
	return c.JSON(http.StatusOK, models.CategoryIndicators{
		Category:   string(cat),
		Indicators: list,
		Default:    def,
	})
}

// GetBanks lists the banks of the given countries (repeat ?country=).
// Datasets without a country column return every bank.
func (h *Handler) GetBanks(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	t := d.Table()
	if !t.HasCountry() {
		return c.JSON(http.StatusOK, models.BankOptions{Banks: t.Distinct(engine.DimBank)})
	}
	countries := c.QueryParams()["country"]
	return c.JSON(http.StatusOK, models.BankOptions{
		Countries: countries,
		Banks:     t.DistinctWhere(engine.DimBank, engine.DimCountry, countries),
	})
}

// GetView filters and projects without a session.
func (h *Handler) GetView(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	q := c.QueryParams()
	indicator := q.Get("indicator")
	if indicator == "" {
		return httpError(http.StatusBadRequest, errors.New("indicator is required"))
	}

	view := d.Table().Filter(q["bank"], q["period"])
	points, err := view.Project(indicator)
	if err != nil {
		return httpError(http.StatusBadRequest, err)
	}
	return c.JSON(http.StatusOK, models.ViewResponse{
		Indicator: indicator,
		Rows:      view.Len(),
		Points:    points,
	})
}

// --- SESSION HANDLERS ---

func (h *Handler) CreateSession(c echo.Context) error {
	d, err := h.dashboard(c)
	if err != nil {
		return err
	}
	st := d.Initial()
	sess := h.sessions.Create(d.Name(), st.Selection)

	h.logger.WithFields(logrus.Fields{
		"session": sess.ID.String(),
		"dataset": d.Name(),
	}).Debug("session created")
	return c.JSON(http.StatusCreated, models.SessionResponse{ID: sess.ID, Dataset: d.Name(), State: st})
}

func (h *Handler) GetSession(c echo.Context) error {
	sess, d, err := h.loadSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.SessionResponse{ID: sess.ID, Dataset: sess.Dataset, State: d.Resolve(sess.Selection)})
}

func (h *Handler) UpdateSession(c echo.Context) error {
	sess, d, err := h.loadSession(c)
	if err != nil {
		return err
	}

	var req models.ChangeRequest
	if err := c.Bind(&req); err != nil {
		return httpError(http.StatusBadRequest, errors.New("malformed change request"))
	}
	field, err := engine.ParseField(req.Field)
	if err != nil {
		return httpError(http.StatusBadRequest, err)
	}

	var st engine.State
	updated, err := h.sessions.Update(sess.ID, func(sel engine.Selection) (engine.Selection, error) {
		next, err := d.Apply(sel, engine.Change{Field: field, Values: req.Values})
		if err != nil {
			return sel, err
		}
		st = next
		return next.Selection, nil
	})
	switch {
	case errors.Is(err, engine.ErrUnknownField):
		return httpError(http.StatusBadRequest, err)
	case errors.Is(err, session.ErrNotFound):
		return httpError(http.StatusNotFound, err)
	case err != nil:
		return err
	}

	if st.Message != "" {
		h.logger.WithFields(logrus.Fields{
			"session": updated.ID.String(),
			"field":   field,
		}).Info(st.Message)
	}
	return c.JSON(http.StatusOK, models.SessionResponse{ID: updated.ID, Dataset: updated.Dataset, State: st})
}

func (h *Handler) DeleteSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return httpError(http.StatusBadRequest, errors.New("malformed session id"))
	}
	if err := h.sessions.Delete(id); err != nil {
		return httpError(http.StatusNotFound, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetChart renders the session's current state. A selection without data
// answers 204 with X-Chart-State: no-data.
func (h *Handler) GetChart(c echo.Context) error {
	sess, d, err := h.loadSession(c)
	if err != nil {
		return err
	}
	format, err := chart.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return httpError(http.StatusBadRequest, err)
	}

	st := d.Resolve(sess.Selection)
	if st.Status == engine.StatusNoData {
		c.Response().Header().Set(ChartStateHeader, "no-data")
		return c.NoContent(http.StatusNoContent)
	}

	pres := d.Presentation()
	spec := chart.Spec{
		Kind:    st.Selection.Chart,
		Title:   pres.Title + ": " + st.Selection.Indicator,
		YLabel:  st.Selection.Indicator,
		Percent: pres.Percent,
		Format:  format,
	}
	var buf bytes.Buffer
	if err := chart.Render(&buf, spec, st.Points); err != nil {
		if errors.Is(err, chart.ErrNoData) {
			c.Response().Header().Set(ChartStateHeader, "no-data")
			return c.NoContent(http.StatusNoContent)
		}
		h.logger.WithError(err).WithField("session", sess.ID.String()).Error("chart render failed")
		return httpError(http.StatusInternalServerError, errors.New("chart render failed"))
	}
	c.Response().Header().Set(ChartStateHeader, "ok")
	return c.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}
