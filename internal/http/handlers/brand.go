package handlers

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/http/response"
	"github.com/yungbote/brandprompt-backend/internal/pkg/ctxutil"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
	"github.com/yungbote/brandprompt-backend/internal/services"
)

type BrandHandler struct {
	log        *logger.Logger
	onboarding services.OnboardingService
	lifecycle  services.BrandLifecycleService
}

func NewBrandHandler(
	log *logger.Logger,
	onboarding services.OnboardingService,
	lifecycle services.BrandLifecycleService,
) *BrandHandler {
	return &BrandHandler{
		log:        log.With("handler", "BrandHandler"),
		onboarding: onboarding,
		lifecycle:  lifecycle,
	}
}

type onboardRequest struct {
	BrandName string `json:"brandName"`
	URL       string `json:"url"`
}

// commitRequest accepts both id/_id and promptSet/promptData.
type commitRequest struct {
	ID         string          `json:"id"`
	LegacyID   string          `json:"_id"`
	PromptSet  json.RawMessage `json:"promptSet"`
	PromptData json.RawMessage `json:"promptData"`
}

type brandRecordResponse struct {
	BrandRecord *brand.BrandRecord `json:"brandRecord"`
}

// POST /api/onboard
func (h *BrandHandler) Onboard(c *gin.Context) {
	const op = "BrandHandler.Onboard"
	var req onboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, brand.Validation(op, "request body must be a JSON object with brandName and url"))
		return
	}
	rec, err := h.onboarding.Onboard(c.Request.Context(), req.BrandName, req.URL)
	if err != nil {
		h.logFailure(c, "onboard failed", err)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, brandRecordResponse{BrandRecord: rec})
}

// POST /api/commit-prompts
func (h *BrandHandler) CommitPrompts(c *gin.Context) {
	const op = "BrandHandler.CommitPrompts"
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, brand.Validation(op, "request body must be a JSON object"))
		return
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = strings.TrimSpace(req.LegacyID)
	}
	if id == "" {
		response.RespondError(c, brand.Validation(op, "Brand ID is required"))
		return
	}
	raw := req.PromptSet
	if isAbsent(raw) {
		raw = req.PromptData
	}
	if isAbsent(raw) {
		response.RespondError(c, brand.Validation(op, "Prompt data is required"))
		return
	}
	ps, err := brand.DecodePromptSet(raw)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	rec, err := h.lifecycle.Update(c.Request.Context(), id, ps)
	if err != nil {
		h.logFailure(c, "commit prompts failed", err, "record_id", id)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, brandRecordResponse{BrandRecord: rec})
}

// GET /api/brands/:id
func (h *BrandHandler) GetBrand(c *gin.Context) {
	const op = "BrandHandler.GetBrand"
	id := strings.TrimSpace(c.Param("id"))
	if !brand.ValidID(id) {
		response.RespondError(c, brand.Validation(op, "invalid brand ID format"))
		return
	}
	rec, err := h.lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, brandRecordResponse{BrandRecord: rec})
}

// GET /api/brands?q=&brandName=&url=&page=&limit=
func (h *BrandHandler) ListBrands(c *gin.Context) {
	const op = "BrandHandler.ListBrands"
	page, err := queryInt(c, "page", 1)
	if err != nil {
		response.RespondError(c, brand.Validation(op, "page must be an integer"))
		return
	}
	limit, err := queryInt(c, "limit", services.DefaultPageLimit)
	if err != nil {
		response.RespondError(c, brand.Validation(op, "limit must be an integer"))
		return
	}
	filter := brand.RecordFilter{
		Query:     c.Query("q"),
		BrandName: c.Query("brandName"),
		URL:       c.Query("url"),
	}
	out, err := h.lifecycle.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/brands/stats
func (h *BrandHandler) BrandStats(c *gin.Context) {
	out, err := h.lifecycle.Stats(c.Request.Context())
	if err != nil {
		h.logFailure(c, "brand stats failed", err)
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, out)
}

func (h *BrandHandler) logFailure(c *gin.Context, msg string, err error, kv ...interface{}) {
	fields := append(ctxutil.LogFields(c.Request.Context()), "kind", brand.KindOf(err), "error", err)
	fields = append(fields, kv...)
	if brand.HTTPStatus(brand.KindOf(err)) >= 500 {
		h.log.Error(msg, fields...)
		return
	}
	h.log.Warn(msg, fields...)
}

func isAbsent(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
