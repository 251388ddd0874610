package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Leganyst/booking-core/internal/calendar"
	"github.com/Leganyst/booking-core/internal/commerce"
	"github.com/Leganyst/booking-core/internal/model"
	"github.com/Leganyst/booking-core/internal/scheduling"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type Handler struct {
	svc    *scheduling.Service
	linker *commerce.Linker
	log    *zap.Logger
}

func NewHandler(svc *scheduling.Service, linker *commerce.Linker, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, linker: linker, log: log}
}

func tenant(c *gin.Context) uuid.UUID {
	id, _ := TenantID(c)
	return id
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, name+" must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInstant(c *gin.Context, name string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, c.Query(name))
	if err != nil {
		badRequest(c, name+" must be RFC 3339")
		return time.Time{}, false
	}
	return t, true
}

func queryDate(c *gin.Context, name string) (time.Time, bool) {
	d, err := time.Parse(time.DateOnly, c.Query(name))
	if err != nil {
		badRequest(c, name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// Reserve handles POST /api/v1/bookings
func (h *Handler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	b, err := h.svc.Reserve(c.Request.Context(), scheduling.ReserveRequest{
		TenantID:       tenant(c),
		ResourceID:     uuid.MustParse(req.ResourceID),
		StartsAt:       req.StartsAt,
		EndsAt:         req.EndsAt,
		VariantID:      optionalUUID(req.VariantID),
		CustomerID:     optionalUUID(req.CustomerID),
		Notes:          req.Notes,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(toBookingResponse(b)))
}

// GetBooking handles GET /api/v1/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.GetBooking(c.Request.Context(), tenant(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Success(toBookingResponse(b)))
}

// BookingHistory handles GET /api/v1/bookings/:id/history
func (h *Handler) BookingHistory(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	events, err := h.svc.BookingHistory(c.Request.Context(), tenant(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			Type:       string(e.EventType),
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			At:         e.CreatedAt.UTC(),
		})
	}
	c.JSON(http.StatusOK, Success(out))
}

// Confirm handles POST /api/v1/bookings/:id/confirm
func (h *Handler) Confirm(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Confirm(c.Request.Context(), tenant(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Success(toBookingResponse(b)))
}

// Cancel handles POST /api/v1/bookings/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	b, err := h.svc.Cancel(c.Request.Context(), tenant(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Success(toBookingResponse(b)))
}

// CreateResource handles POST /api/v1/resources
func (h *Handler) CreateResource(c *gin.Context) {
	var req CreateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	res, err := h.svc.CreateResource(c.Request.Context(), tenant(c), scheduling.ResourceInput{
		Name:     req.Name,
		TimeZone: req.TimeZone,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(toResourceResponse(res)))
}

// ListResources handles GET /api/v1/resources?active=true&page=1&per_page=20
func (h *Handler) ListResources(c *gin.Context) {
	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	resources, err := h.svc.ListResources(c.Request.Context(), tenant(c), onlyActive)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	result := calendar.Paginate(resources, page, perPage)

	out := make([]ResourceResponse, 0, len(result.Items))
	for i := range result.Items {
		out = append(out, toResourceResponse(&result.Items[i]))
	}
	c.JSON(http.StatusOK, SuccessWithMeta(out, &Meta{
		Page:    result.Page,
		PerPage: result.PageSize,
		Total:   result.Total,
		HasNext: result.HasNext,
	}))
}

// DeactivateResource handles DELETE /api/v1/resources/:id
func (h *Handler) DeactivateResource(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateResource(c.Request.Context(), tenant(c), id); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddRule handles POST /api/v1/resources/:id/rules
func (h *Handler) AddRule(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req AddRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	weekday, err := calendar.ParseWeekday(req.Weekday)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := calendar.ParseClock(req.StartTime)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	end, err := calendar.ParseClock(req.EndTime)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	rule, err := h.svc.AddRule(c.Request.Context(), tenant(c), id, scheduling.RuleInput{
		Weekday: weekday,
		Start:   start,
		End:     end,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(gin.H{
		"id":         rule.ID,
		"weekday":    rule.Weekday.String(),
		"start_time": rule.StartTime.String(),
		"end_time":   rule.EndTime.String(),
	}))
}

// AddOverride handles POST /api/v1/resources/:id/overrides
func (h *Handler) AddOverride(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req AddOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		badRequest(c, "date must be YYYY-MM-DD")
		return
	}
	in := scheduling.OverrideInput{
		Date: date,
		Kind: model.OverrideKind(req.Kind),
		Note: req.Note,
	}
	if in.Kind == "" {
		in.Kind = model.OverrideKindClose
	}
	if req.StartTime != "" || req.EndTime != "" {
		start, err := calendar.ParseClock(req.StartTime)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		end, err := calendar.ParseClock(req.EndTime)
		if err != nil {
			badRequest(c, err.Error())
			return
		}
		in.Start, in.End = &start, &end
	}

	o, err := h.svc.AddOverride(c.Request.Context(), tenant(c), id, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(gin.H{
		"id":       o.ID,
		"date":     o.Day().Format(time.DateOnly),
		"kind":     o.Kind,
		"full_day": o.IsFullDay(),
	}))
}

// Windows handles GET /api/v1/resources/:id/windows?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) Windows(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}
	windows, err := h.svc.Windows(c.Request.Context(), tenant(c), id, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, Success(toWindows(windows)))
}

// ListBookings handles GET /api/v1/resources/:id/bookings?from=&to=&page=&per_page=
func (h *Handler) ListBookings(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	from, ok := queryInstant(c, "from")
	if !ok {
		return
	}
	to, ok := queryInstant(c, "to")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))

	result, err := h.svc.ListBookings(c.Request.Context(), tenant(c), id, from, to, page, perPage)
	if err != nil {
		h.fail(c, err)
		return
	}
	out := make([]BookingResponse, 0, len(result.Items))
	for i := range result.Items {
		out = append(out, toBookingResponse(&result.Items[i]))
	}
	c.JSON(http.StatusOK, SuccessWithMeta(out, &Meta{
		Page:    result.Page,
		PerPage: result.PageSize,
		Total:   result.Total,
		HasNext: result.HasNext,
	}))
}

// LinkVariantResource handles POST /api/v1/variants/:id/resources
func (h *Handler) LinkVariantResource(c *gin.Context) {
	variantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req LinkResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	vr, err := h.linker.LinkVariantResource(c.Request.Context(), tenant(c), variantID, uuid.MustParse(req.ResourceID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(gin.H{"id": vr.ID, "variant_id": vr.VariantID, "resource_id": vr.ResourceID}))
}

// VariantResources handles GET /api/v1/variants/:id/resources
func (h *Handler) VariantResources(c *gin.Context) {
	variantID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resources, err := h.linker.ResourcesForVariant(c.Request.Context(), tenant(c), variantID)
	if err != nil {
		h.fail(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	result := calendar.Paginate(resources, page, perPage)

	out := make([]ResourceResponse, 0, len(result.Items))
	for i := range result.Items {
		out = append(out, toResourceResponse(&result.Items[i]))
	}
	c.JSON(http.StatusOK, SuccessWithMeta(out, &Meta{
		Page:    result.Page,
		PerPage: result.PageSize,
		Total:   result.Total,
		HasNext: result.HasNext,
	}))
}

// AddCartLine handles POST /api/v1/carts/:id/lines
func (h *Handler) AddCartLine(c *gin.Context) {
	cartID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req CartLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	line := &model.CartLine{
		CartID:     cartID,
		VariantID:  uuid.MustParse(req.VariantID),
		ResourceID: optionalUUID(req.ResourceID),
		Quantity:   req.Quantity,
	}
	if err := h.linker.AddCartLine(c.Request.Context(), tenant(c), line); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(gin.H{"id": line.ID}))
}

// AddStock handles POST /api/v1/stock
func (h *Handler) AddStock(c *gin.Context) {
	var req StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	s := &model.Stock{
		WarehouseID: uuid.MustParse(req.WarehouseID),
		VariantID:   uuid.MustParse(req.VariantID),
		Quantity:    req.Quantity,
	}
	if err := h.linker.AddStock(c.Request.Context(), tenant(c), s); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(gin.H{"id": s.ID}))
}

// RedeemVoucher handles POST /api/v1/vouchers/:id/redemptions
func (h *Handler) RedeemVoucher(c *gin.Context) {
	voucherID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req RedemptionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	red := &model.VoucherRedemption{VoucherID: voucherID, CustomerID: optionalUUID(req.CustomerID)}
	if err := h.linker.RedeemVoucher(c.Request.Context(), tenant(c), red); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, Success(gin.H{"id": red.ID}))
}
