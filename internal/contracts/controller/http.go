package controller

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	authmw "github.com/corvusHold/rentmail/internal/auth/middleware"
	domain "github.com/corvusHold/rentmail/internal/contracts/domain"
	edomain "github.com/corvusHold/rentmail/internal/email/domain"
	"github.com/corvusHold/rentmail/internal/metrics"
	"github.com/corvusHold/rentmail/internal/platform/ratelimit"
	"github.com/corvusHold/rentmail/internal/platform/validation"
	udomain "github.com/corvusHold/rentmail/internal/users/domain"
)

const (
	msgMissingContract   = "Missing contract data or userId"
	msgUserNotFound      = "User not found"
	msgNoEmail           = "User has no email address"
	msgSendFailed        = "Failed to send email"
	msgMissingDataOrFile = "Missing data or file"
	msgInvalidContract   = "Invalid contract data"
	msgFileTooLarge      = "File too large"
	msgAttachmentFailed  = "Failed to send email with attachment"
)

// multipart overhead allowed on top of the file itself before the body is cut off
const formOverhead = 1 << 20

type Controller struct {
	svc       domain.Notifier
	maxUpload int64
	log       zerolog.Logger
	// optional rate limit dependencies
	rl     ratelimit.Store
	limit  int
	window time.Duration
}

func New(svc domain.Notifier, maxUpload int64, log zerolog.Logger) *Controller {
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Controller{svc: svc, maxUpload: maxUpload, log: log}
}

// WithRateLimit limits submissions per caller. A nil store keeps counters in memory.
func (h *Controller) WithRateLimit(store ratelimit.Store, limit int, window time.Duration) *Controller {
	if store == nil {
		store = ratelimit.NewMemoryStore()
	}
	h.rl, h.limit, h.window = store, limit, window
	return h
}

// Register mounts the submission routes behind auth.
func (h *Controller) Register(e *echo.Echo, auth echo.MiddlewareFunc) {
	mws := []echo.MiddlewareFunc{auth, authmw.RequirePrincipal}
	if h.rl != nil {
		mws = append(mws, ratelimit.MiddlewareWithStore(ratelimit.Policy{
			Name:   "contracts:send",
			Limit:  h.limit,
			Window: h.window,
			Key:    ratelimit.KeyUserOrIP("contracts:send"),
			Log:    h.log,
		}, h.rl))
	}
	e.POST("/sendEmail", h.sendEmail, mws...)
	e.POST("/sendEmailWithAttachment", h.sendEmailWithAttachment, mws...)
}

type sendEmailReq struct {
	ContractData *domain.Contract `json:"contractData"`
}

func (h *Controller) sendEmail(c echo.Context) error {
	const endpoint = "sendEmail"
	var req sendEmailReq
	if err := c.Bind(&req); err != nil {
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgInvalidContract})
	}
	if req.ContractData == nil {
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgMissingContract})
	}
	if err := c.Validate(req.ContractData); err != nil {
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err, msgMissingContract))
	}

	if err := h.svc.Submit(c.Request().Context(), *req.ContractData); err != nil {
		return h.fail(c, endpoint, err, msgSendFailed)
	}
	metrics.IncSubmission(endpoint, "success")
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (h *Controller) sendEmailWithAttachment(c echo.Context) error {
	const endpoint = "sendEmailWithAttachment"
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, h.maxUpload+formOverhead)

	form, err := c.MultipartForm()
	if err != nil {
		metrics.IncSubmission(endpoint, "invalid")
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": msgFileTooLarge})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgMissingDataOrFile})
	}
	raw := firstValue(form, "contractData")
	files := form.File["file"]
	if raw == "" || len(files) == 0 {
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgMissingDataOrFile})
	}

	var contract domain.Contract
	if err := json.Unmarshal([]byte(raw), &contract); err != nil {
		metrics.IncSubmission(endpoint, "invalid")
		h.log.Debug().Err(err).Msg("contractData is not valid JSON")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgInvalidContract})
	}
	if err := c.Validate(&contract); err != nil {
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, validation.ErrorResponse(err, msgMissingContract))
	}

	fh := files[0]
	if fh.Size > h.maxUpload {
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgFileTooLarge})
	}
	att, err := readAttachment(fh)
	if err != nil {
		metrics.IncSubmission(endpoint, "invalid")
		h.log.Warn().Err(err).Str("file", fh.Filename).Msg("read uploaded file")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgMissingDataOrFile})
	}

	if err := h.svc.SubmitWithAttachment(c.Request().Context(), contract, att); err != nil {
		return h.fail(c, endpoint, err, msgAttachmentFailed)
	}
	metrics.IncSubmission(endpoint, "success")
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// fail maps notifier errors to responses; anything unrecognised is a downstream failure.
func (h *Controller) fail(c echo.Context, endpoint string, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrMissingUserID):
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgMissingContract})
	case errors.Is(err, udomain.ErrNotFound):
		metrics.IncSubmission(endpoint, "not_found")
		return c.JSON(http.StatusNotFound, map[string]string{"error": msgUserNotFound})
	case errors.Is(err, domain.ErrNoEmail):
		metrics.IncSubmission(endpoint, "invalid")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": msgNoEmail})
	}
	metrics.IncSubmission(endpoint, "failure")
	uid, _ := authmw.UserID(c)
	h.log.Error().Err(err).Str("endpoint", endpoint).Str("caller", uid).Msg("contract notification failed")
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": fallback})
}

func firstValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func readAttachment(fh *multipart.FileHeader) (edomain.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return edomain.Attachment{}, err
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return edomain.Attachment{}, err
	}
	ct := fh.Header.Get(echo.HeaderContentType)
	if ct == "" || ct == echo.MIMEOctetStream {
		ct = http.DetectContentType(content)
	}
	return edomain.Attachment{Filename: fh.Filename, ContentType: ct, Content: content}, nil
}
