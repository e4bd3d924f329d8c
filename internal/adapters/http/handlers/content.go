package handlers

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/jsamuelsen/verse-service/internal/adapters/codec"
	"github.com/jsamuelsen/verse-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/verse-service/internal/app"
	"github.com/jsamuelsen/verse-service/internal/domain"
)

// ViewSource returns the most recently rendered view, or nil.
type ViewSource interface {
	Latest() *domain.View
}

// ContentHandler serves the browse and edit API.
type ContentHandler struct {
	orch  *app.Orchestrator
	views ViewSource
}

// NewContentHandler creates a content handler. views is typically the
// snapshot renderer the orchestrator renders into; nil reads the view from
// the orchestrator directly.
func NewContentHandler(orch *app.Orchestrator, views ViewSource) *ContentHandler {
	return &ContentHandler{orch: orch, views: views}
}

// GetView handles GET /api/v1/view
//
// @Summary Current view
// @Tags view
// @Produce json
// @Success 200 {object} dto.ViewResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/view [get]
func (h *ContentHandler) GetView(c *gin.Context) {
	h.respondView(c, http.StatusOK)
}

func (h *ContentHandler) respondView(c *gin.Context, status int) {
	var view *domain.View
	if h.views != nil {
		view = h.views.Latest()
	}

	if view == nil {
		view = h.orch.View()
	}

	if view == nil {
		dto.RespondWithError(c, app.ErrNotLoaded)
		return
	}

	c.JSON(status, dto.NewViewResponse(view, h.orch.SearchPending()))
}

// SelectCategory handles PUT /api/v1/view/category
func (h *ContentHandler) SelectCategory(c *gin.Context) {
	var req dto.CategoryRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	if err := h.orch.SelectCategory(c.Request.Context(), req.Category); err != nil {
		dto.RespondWithError(c, err)
		return
	}

	h.respondView(c, http.StatusOK)
}

// Search handles PUT /api/v1/view/search
//
// Typed input is debounced and answered with 202; the view catches up once
// the input has been quiet. Immediate requests apply at once.
func (h *ContentHandler) Search(c *gin.Context) {
	var req dto.SearchRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	if !req.Immediate {
		h.orch.SetQuery(req.Query)
		h.respondView(c, http.StatusAccepted)

		return
	}

	if err := h.orch.SearchNow(c.Request.Context(), req.Query); err != nil {
		dto.RespondWithError(c, err)
		return
	}

	h.respondView(c, http.StatusOK)
}

// SetMode handles PUT /api/v1/view/mode
func (h *ContentHandler) SetMode(c *gin.Context) {
	var req dto.ModeRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	mode, err := domain.ParseViewMode(req.Mode)
	if err == nil {
		err = h.orch.SetViewMode(c.Request.Context(), mode)
	}

	if err != nil {
		dto.RespondWithError(c, err)
		return
	}

	h.respondView(c, http.StatusOK)
}

// ListCategories handles GET /api/v1/categories
func (h *ContentHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewCategoryResponses(h.orch.Categories()))
}

// GetColor handles GET /api/v1/colors/:category
func (h *ContentHandler) GetColor(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewColorResponse(h.orch.ColorFor(c.Param("category"))))
}

// List handles GET /api/v1/{poems,quotes}
//
// @Summary List a collection
// @Tags content
// @Produce json
// @Param category query string false "Category, empty or all for every item"
// @Param q query string false "Case-insensitive search"
// @Success 200 {object} dto.ListResponse
// @Failure 400 {object} dto.ErrorResponse
func (h *ContentHandler) List(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q dto.ListQuery
		if err := dto.BindQueryAndValidate(c, &q); err != nil {
			dto.RespondWithBindError(c, err)
			return
		}

		items := h.orch.Items(v, q.FilterState())

		resp := dto.ListResponse{
			Items:     make([]dto.ItemResponse, 0, len(items)),
			Count:     len(items),
			NoResults: len(items) == 0,
		}

		for i := range items {
			resp.Items = append(resp.Items, dto.NewItemResponse(&items[i], h.orch.ColorFor(items[i].Category)))
		}

		c.JSON(http.StatusOK, resp)
	}
}

// Get handles GET /api/v1/{poems,quotes}/:id
func (h *ContentHandler) Get(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := itemID(c)
		if !ok {
			return
		}

		item, err := h.orch.Item(v, id)
		if err != nil {
			dto.RespondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.NewItemResponse(&item, h.orch.ColorFor(item.Category)))
	}
}

// Text handles GET /api/v1/{poems,quotes}/:id/text
func (h *ContentHandler) Text(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := itemID(c)
		if !ok {
			return
		}

		item, err := h.orch.Item(v, id)
		if err != nil {
			dto.RespondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.TextResponse{Text: item.PlainText()})
	}
}

// Create handles POST /api/v1/{poems,quotes}
//
// @Summary Add a user item
// @Tags content
// @Accept json
// @Produce json
// @Param body body dto.ItemRequest true "Item fields"
// @Success 201 {object} dto.ItemResponse
// @Failure 400 {object} dto.ErrorResponse
func (h *ContentHandler) Create(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ItemRequest
		if err := dto.BindAndValidate(c, &req); err != nil {
			dto.RespondWithBindError(c, err)
			return
		}

		item, err := h.orch.Create(c.Request.Context(), v, req.Fields())
		if err != nil {
			dto.RespondWithError(c, err)
			return
		}

		h.respondItem(c, http.StatusCreated, item)
	}
}

// Update handles PUT /api/v1/{poems,quotes}/:id
//
// @Summary Replace a user item's fields
// @Tags content
// @Accept json
// @Produce json
// @Success 200 {object} dto.ItemResponse
// @Failure 403 {object} dto.ErrorResponse "original content"
// @Failure 404 {object} dto.ErrorResponse
func (h *ContentHandler) Update(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := itemID(c)
		if !ok {
			return
		}

		var req dto.ItemRequest
		if err := dto.BindAndValidate(c, &req); err != nil {
			dto.RespondWithBindError(c, err)
			return
		}

		item, err := h.orch.Update(c.Request.Context(), v, id, req.Fields())
		if err != nil {
			dto.RespondWithError(c, err)
			return
		}

		h.respondItem(c, http.StatusOK, item)
	}
}

// Delete handles DELETE /api/v1/{poems,quotes}/:id
func (h *ContentHandler) Delete(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := itemID(c)
		if !ok {
			return
		}

		if err := h.orch.Delete(c.Request.Context(), v, id); err != nil {
			dto.RespondWithError(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// GetSession handles GET /api/v1/{poems,quotes}/edit
func (h *ContentHandler) GetSession(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sessionResponse(h.orch.Session(v)))
	}
}

// BeginEdit handles POST /api/v1/{poems,quotes}/:id/edit
func (h *ContentHandler) BeginEdit(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := itemID(c)
		if !ok {
			return
		}

		item, err := h.orch.BeginEdit(c.Request.Context(), v, id)
		if err != nil {
			dto.RespondWithError(c, err)
			return
		}

		h.respondItem(c, http.StatusOK, item)
	}
}

// CancelEdit handles DELETE /api/v1/{poems,quotes}/edit
func (h *ContentHandler) CancelEdit(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.orch.CancelEdit(v)
		c.Status(http.StatusNoContent)
	}
}

// SaveEdit handles POST /api/v1/{poems,quotes}/edit/save
//
// Updates the item under edit, or creates a new one when no edit is open.
func (h *ContentHandler) SaveEdit(v domain.Variant) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ItemRequest
		if err := dto.BindAndValidate(c, &req); err != nil {
			dto.RespondWithBindError(c, err)
			return
		}

		item, created, err := h.orch.SaveEdit(c.Request.Context(), v, req.Fields())
		if err != nil {
			dto.RespondWithError(c, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}

		h.respondItem(c, status, item)
	}
}

// Reset handles POST /api/v1/reset
//
// @Summary Discard every user change
// @Tags content
// @Produce json
// @Success 200 {object} dto.ViewResponse
// @Router /api/v1/reset [post]
func (h *ContentHandler) Reset(c *gin.Context) {
	if err := h.orch.Reset(c.Request.Context()); err != nil {
		dto.RespondWithError(c, err)
		return
	}

	h.respondView(c, http.StatusOK)
}

// Export handles GET /api/v1/export?format=json|yaml
func (h *ContentHandler) Export(c *gin.Context) {
	format, err := codec.ParseFormat(c.Query("format"))
	if err != nil {
		dto.RespondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := codec.ForFormat(format).Encode(&buf, h.orch.Snapshot()); err != nil {
		dto.RespondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+format.Filename()+`"`)
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// GetTheme handles GET /api/v1/theme
func (h *ContentHandler) GetTheme(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ThemeResponse{Theme: string(h.orch.State().Theme)})
}

// SetTheme handles PUT /api/v1/theme; an empty body toggles.
func (h *ContentHandler) SetTheme(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "unreadable request body")
		return
	}

	ctx := c.Request.Context()

	if len(bytes.TrimSpace(body)) == 0 {
		theme, err := h.orch.ToggleTheme(ctx)
		if err != nil {
			dto.RespondWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, dto.ThemeResponse{Theme: string(theme)})

		return
	}

	var req dto.ThemeRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "malformed request body")
		return
	}

	if err := dto.Validate(&req); err != nil {
		dto.RespondWithBindError(c, err)
		return
	}

	theme := domain.Theme(req.Theme)
	if err := h.orch.SetTheme(ctx, theme); err != nil {
		dto.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ThemeResponse{Theme: string(theme)})
}

// RegisterRoutes mounts the content API on rg.
func (h *ContentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	view := rg.Group("/view")
	view.GET("", h.GetView)
	view.PUT("/category", h.SelectCategory)
	view.PUT("/search", h.Search)
	view.PUT("/mode", h.SetMode)

	rg.GET("/categories", h.ListCategories)
	rg.GET("/colors/:category", h.GetColor)

	for _, v := range domain.Variants {
		g := rg.Group("/" + v.Plural())
		g.GET("", h.List(v))
		g.POST("", h.Create(v))
		g.GET("/edit", h.GetSession(v))
		g.DELETE("/edit", h.CancelEdit(v))
		g.POST("/edit/save", h.SaveEdit(v))
		g.GET("/:id", h.Get(v))
		g.PUT("/:id", h.Update(v))
		g.DELETE("/:id", h.Delete(v))
		g.GET("/:id/text", h.Text(v))
		g.POST("/:id/edit", h.BeginEdit(v))
	}

	rg.POST("/reset", h.Reset)
	rg.GET("/export", h.Export)
	rg.GET("/theme", h.GetTheme)
	rg.PUT("/theme", h.SetTheme)
}

func (h *ContentHandler) respondItem(c *gin.Context, status int, item domain.Item) {
	vi := domain.ViewItem{Item: item}
	c.JSON(status, dto.NewItemResponse(&vi, h.orch.ColorFor(item.Category)))
}

func itemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		dto.RespondWithErrorCode(c, dto.ErrorCodeBadRequest, "id must be an integer")
		return 0, false
	}

	return id, true
}

func sessionResponse(s app.EditSession) dto.SessionResponse {
	resp := dto.SessionResponse{Variant: string(s.Variant), Status: string(s.Status)}
	if s.Status == app.EditEditing {
		id := s.ID
		resp.ID = &id
	}

	return resp
}
