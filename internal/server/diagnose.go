package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/medcrew/internal/agent/core"
	agenttele "github.com/mohammad-safakhou/medcrew/internal/agent/telemetry"
	"github.com/mohammad-safakhou/medcrew/internal/document"
)

// Runner executes the stage pipeline for one case
type Runner interface {
	Run(ctx context.Context, pc core.PatientCase) (core.PipelineResult, error)
}

type DiagnoseHandler struct {
	Crew           Runner
	Docs           document.Store
	Tele           *agenttele.Telemetry
	PublicURL      string
	RequestTimeout time.Duration
	Logger         *log.Logger
}

// DiagnoseResponse is returned by POST /diagnose. Result is the final stage's text as
// written into the document.
type DiagnoseResponse struct {
	Result       string             `json:"result"`
	DownloadLink string             `json:"download_link"`
	DocumentID   string             `json:"document_id"`
	Stages       []core.StageResult `json:"stages"`
}

func (h *DiagnoseHandler) Register(e *echo.Echo) {
	e.POST("/diagnose", h.diagnose)
	e.GET("/download", h.downloadLatest)
	e.GET("/download/:id", h.download)
}

func (h *DiagnoseHandler) diagnose(c echo.Context) error {
	if _, err := c.FormParams(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form: "+err.Error())
	}
	pc := core.PatientCase{
		Gender:         c.FormValue("gender"),
		Age:            c.FormValue("age"),
		Symptoms:       c.FormValue("symptoms"),
		MedicalHistory: c.FormValue("medical_history"),
	}

	ctx := c.Request().Context()
	if h.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.RequestTimeout)
		defer cancel()
	}

	res, err := h.Crew.Run(ctx, pc)
	if err != nil {
		return err
	}

	doc, err := document.New(res.Final())
	if err == nil {
		err = h.Docs.Save(ctx, doc)
	}
	h.Tele.RecordDocument(err)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, DiagnoseResponse{
		Result:       doc.Body,
		DownloadLink: h.baseURL(c) + "/download",
		DocumentID:   doc.ID,
		Stages:       res.Stages,
	})
}

func (h *DiagnoseHandler) baseURL(c echo.Context) string {
	if h.PublicURL != "" {
		return h.PublicURL
	}
	return fmt.Sprintf("%s://%s", c.Scheme(), c.Request().Host)
}

// downloadLatest serves whichever document was saved last, regardless of who asked for it.
func (h *DiagnoseHandler) downloadLatest(c echo.Context) error {
	doc, err := h.Docs.Latest(c.Request().Context())
	if err != nil {
		return err
	}
	return sendDocument(c, doc)
}

func (h *DiagnoseHandler) download(c echo.Context) error {
	doc, err := h.Docs.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return sendDocument(c, doc)
}

func sendDocument(c echo.Context, doc document.Document) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", document.Filename))
	return c.Blob(http.StatusOK, document.ContentType, doc.Data)
}
