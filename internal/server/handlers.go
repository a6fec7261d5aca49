package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ankek/archdiagram/internal/ir"
	"github.com/ankek/archdiagram/internal/pipeline"
	"github.com/ankek/archdiagram/internal/renderer"
	"github.com/ankek/archdiagram/internal/translator"
)

const maxBodyBytes = 1 << 20

// FallbackHeader reports whether a raw image response is a placeholder
const FallbackHeader = "X-Diagram-Fallback"

// wantsImage reports whether the caller asked for the image itself rather
// than the JSON envelope
func wantsImage(accept string) bool {
	return strings.Contains(accept, "image/") && !strings.Contains(accept, "application/json")
}

// GenerateRequest is the body of POST /generate-diagram
type GenerateRequest struct {
	ArchitectureDescription string `json:"architecture_description"`
	OutputFormat            string `json:"output_format"`
	LayoutDirection         string `json:"layout_direction"`
}

// GenerateResponse carries the base64 encoded image
type GenerateResponse struct {
	ImageData   string `json:"image_data"`
	ImageFormat string `json:"image_format"`
	Fallback    bool   `json:"fallback"`
}

// ErrorResponse is returned for every failed request
type ErrorResponse struct {
	Detail    string `json:"detail"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type handler struct {
	generator Generator
	opts      Options
}

func (h *handler) root(c *gin.Context) {
	endpoints := []string{"/generate-diagram", "/healthz"}
	if h.opts.Gatherer != nil {
		endpoints = append(endpoints, "/metrics")
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "API server is running",
		"service":   h.opts.Service,
		"version":   h.opts.Version,
		"endpoints": endpoints,
	})
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *handler) generate(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var body GenerateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		h.fail(c, http.StatusBadRequest, "validation_error", "invalid request body: "+err.Error())
		return
	}
	if body.OutputFormat == "" {
		body.OutputFormat = string(ir.FormatPNG)
	}
	if body.LayoutDirection == "" {
		body.LayoutDirection = string(ir.DirectionTB)
	}

	res, err := h.generator.Generate(c.Request.Context(), ir.RenderRequest{
		Description: body.ArchitectureDescription,
		Format:      body.OutputFormat,
		Direction:   body.LayoutDirection,
	})
	if err != nil {
		status, kind := classify(err)
		h.fail(c, status, kind, err.Error())
		return
	}

	if wantsImage(c.GetHeader("Accept")) {
		c.Header(FallbackHeader, strconv.FormatBool(res.Fallback))
		c.Data(http.StatusOK, res.Format.MIMEType(), res.Image)
		return
	}

	c.JSON(http.StatusOK, GenerateResponse{
		ImageData:   base64.StdEncoding.EncodeToString(res.Image),
		ImageFormat: string(res.Format),
		Fallback:    res.Fallback,
	})
}

// classify maps pipeline errors to an HTTP status and error kind
func classify(err error) (int, string) {
	var (
		ve *pipeline.ValidationError
		te *translator.TranslationError
		re *renderer.RenderError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, "validation_error"
	case errors.As(err, &te):
		return http.StatusBadGateway, "translation_error"
	case errors.As(err, &re):
		return http.StatusInternalServerError, "render_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (h *handler) fail(c *gin.Context, status int, kind, detail string) {
	logger := zerolog.Ctx(c.Request.Context())
	logger.Warn().Int("status", status).Str("error", kind).Msg(detail)

	c.JSON(status, ErrorResponse{
		Detail:    detail,
		Error:     kind,
		RequestID: requestID(c),
	})
}
