package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/medcrew/internal/agent/core"
	"github.com/mohammad-safakhou/medcrew/internal/document"
)

const (
	errUpstreamLLM = "upstream_llm_error"
	errRender      = "render_error"
	errNotFound    = "not_found"
	errBadRequest  = "bad_request"
	errTimeout     = "timeout"
	errCanceled    = "canceled"
	errInternal    = "internal_error"
)

// statusClientClosedRequest is the nginx convention for a caller that went away mid-request
const statusClientClosedRequest = 499

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		code, kind, msg := classify(err)
		req := c.Request()
		if kind == errCanceled {
			logger.Printf("%s %s from %s: client canceled", req.Method, req.URL.Path, c.RealIP())
			return
		}
		logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, ErrorResponse{Error: msg, Type: kind})
		}
	}
}

func classify(err error) (int, string, string) {
	var (
		upstream  *core.UpstreamLLMError
		renderErr *document.RenderError
		httpErr   *echo.HTTPError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, errTimeout, "request timed out"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, errCanceled, "request canceled"
	case errors.As(err, &upstream):
		return http.StatusBadGateway, errUpstreamLLM, err.Error()
	case errors.As(err, &renderErr):
		return http.StatusInternalServerError, errRender, err.Error()
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound, errNotFound, err.Error()
	case errors.As(err, &httpErr):
		msg := http.StatusText(httpErr.Code)
		if httpErr.Message != nil {
			msg = fmt.Sprint(httpErr.Message)
		}
		switch {
		case httpErr.Code == http.StatusNotFound:
			return httpErr.Code, errNotFound, msg
		case httpErr.Code >= 400 && httpErr.Code < 500:
			return httpErr.Code, errBadRequest, msg
		default:
			return httpErr.Code, errInternal, msg
		}
	default:
		return http.StatusInternalServerError, errInternal, err.Error()
	}
}
