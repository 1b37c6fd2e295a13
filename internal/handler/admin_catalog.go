package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"tourboat-booking/internal/model"
	"tourboat-booking/internal/repository"
)

// CatalogHandler exposes the operator endpoints for providers, boats, boat
// pricing and the merchandise catalogue.
type CatalogHandler struct {
	Boats *repository.BoatRepo
	Merch *repository.MerchandiseRepo
}

func NewCatalogHandler(boats *repository.BoatRepo, merch *repository.MerchandiseRepo) *CatalogHandler {
	return &CatalogHandler{Boats: boats, Merch: merch}
}

// ----- providers -----

// CreateProvider handles POST /v1/admin/providers.
func (h *CatalogHandler) CreateProvider(c echo.Context) error {
	var body struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	p := &model.Provider{Name: name}
	if err := h.Boats.CreateProvider(c.Request().Context(), p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// ListProviders handles GET /v1/admin/providers.
func (h *CatalogHandler) ListProviders(c echo.Context) error {
	items, err := h.Boats.ListProviders(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ----- boats -----

type boatBody struct {
	ProviderID uint64 `json:"provider_id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
}

// CreateBoat handles POST /v1/admin/boats.
func (h *CatalogHandler) CreateBoat(c echo.Context) error {
	var body boatBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.Capacity <= 0 || body.ProviderID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider_id, name and positive capacity required"})
	}
	b := &model.Boat{ProviderID: body.ProviderID, Name: body.Name, Capacity: body.Capacity}
	if err := h.Boats.Create(c.Request().Context(), b); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// GetBoat handles GET /v1/admin/boats/:id.
func (h *CatalogHandler) GetBoat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	b, err := h.Boats.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	pricing, err := h.Boats.PricingByBoat(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"boat": b, "pricing": pricing})
}

// ListBoats handles GET /v1/admin/boats with an optional provider filter.
func (h *CatalogHandler) ListBoats(c echo.Context) error {
	ctx := c.Request().Context()
	if pid := c.QueryParam("provider_id"); pid != "" {
		providerID, err := parseQueryID(pid)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid provider_id"})
		}
		items, err := h.Boats.ListByProvider(ctx, providerID)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"items": items})
	}
	items, err := h.Boats.ListAll(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateBoat handles PUT /v1/admin/boats/:id.  Shrinking capacity below an
// existing ticket-type cap is rejected by the repository.
func (h *CatalogHandler) UpdateBoat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body boatBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.Boats.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		b.Name = name
	}
	if body.Capacity > 0 {
		b.Capacity = body.Capacity
	}
	if err := h.Boats.Update(c.Request().Context(), b); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, b)
}

// DeleteBoat handles DELETE /v1/admin/boats/:id.
func (h *CatalogHandler) DeleteBoat(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Boats.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- boat pricing -----

type boatPricingBody struct {
	TicketType string `json:"ticket_type"`
	PriceCents int64  `json:"price_cents"`
	Capacity   *int   `json:"capacity"`
}

// CreateBoatPricing handles POST /v1/admin/boats/:id/pricing.
func (h *CatalogHandler) CreateBoatPricing(c echo.Context) error {
	boatID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body boatPricingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.TicketType = strings.TrimSpace(strings.ToLower(body.TicketType))
	if body.TicketType == "" || body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ticket_type and non-negative price_cents required"})
	}
	p := &model.BoatPricing{BoatID: boatID, TicketType: body.TicketType, PriceCents: body.PriceCents, Capacity: body.Capacity}
	if err := h.Boats.CreatePricing(c.Request().Context(), p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

// UpdateBoatPricing handles PUT /v1/admin/boats/:id/pricing/:pricingID.
func (h *CatalogHandler) UpdateBoatPricing(c echo.Context) error {
	boatID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	pricingID, err := parseID(c, "pricingID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pricing id"})
	}
	var body boatPricingBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	p := &model.BoatPricing{ID: pricingID, BoatID: boatID, PriceCents: body.PriceCents, Capacity: body.Capacity}
	if err := h.Boats.UpdatePricing(c.Request().Context(), p); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteBoatPricing handles DELETE /v1/admin/boats/:id/pricing/:pricingID.
func (h *CatalogHandler) DeleteBoatPricing(c echo.Context) error {
	boatID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	pricingID, err := parseID(c, "pricingID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pricing id"})
	}
	if err := h.Boats.DeletePricing(c.Request().Context(), boatID, pricingID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- merchandise -----

type merchandiseBody struct {
	ProviderID  uint64 `json:"provider_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents"`
}

// CreateMerchandise handles POST /v1/admin/merchandise.
func (h *CatalogHandler) CreateMerchandise(c echo.Context) error {
	var body merchandiseBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.ProviderID == 0 || body.PriceCents < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider_id, name and non-negative price_cents required"})
	}
	m := &model.Merchandise{ProviderID: body.ProviderID, Name: body.Name, Description: body.Description, PriceCents: body.PriceCents}
	if err := h.Merch.Create(c.Request().Context(), m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// GetMerchandise handles GET /v1/admin/merchandise/:id, variations included.
func (h *CatalogHandler) GetMerchandise(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	m, err := h.Merch.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// UpdateMerchandise handles PUT /v1/admin/merchandise/:id.
func (h *CatalogHandler) UpdateMerchandise(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body merchandiseBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	m, err := h.Merch.GetByID(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if name := strings.TrimSpace(body.Name); name != "" {
		m.Name = name
	}
	if body.Description != "" {
		m.Description = body.Description
	}
	if body.PriceCents >= 0 {
		m.PriceCents = body.PriceCents
	}
	if err := h.Merch.Update(c.Request().Context(), m); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// DeleteMerchandise handles DELETE /v1/admin/merchandise/:id.
func (h *CatalogHandler) DeleteMerchandise(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.Merch.Delete(c.Request().Context(), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateVariation handles POST /v1/admin/merchandise/:id/variations.
func (h *CatalogHandler) CreateVariation(c echo.Context) error {
	merchandiseID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Value         string `json:"value"`
		QuantityTotal int    `json:"quantity_total"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Value = strings.TrimSpace(body.Value)
	if body.Value == "" || body.QuantityTotal < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value and non-negative quantity_total required"})
	}
	v := &model.MerchandiseVariation{MerchandiseID: merchandiseID, Value: body.Value, QuantityTotal: body.QuantityTotal}
	if err := h.Merch.CreateVariation(c.Request().Context(), v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// UpdateVariation handles PUT /v1/admin/merchandise/:id/variations/:variationID.
func (h *CatalogHandler) UpdateVariation(c echo.Context) error {
	variationID, err := parseID(c, "variationID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid variation id"})
	}
	var body struct {
		Value         string `json:"value"`
		QuantityTotal int    `json:"quantity_total"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	v, err := h.Merch.GetVariation(c.Request().Context(), variationID)
	if err != nil {
		return fail(c, err)
	}
	if value := strings.TrimSpace(body.Value); value != "" {
		v.Value = value
	}
	if body.QuantityTotal > 0 {
		v.QuantityTotal = body.QuantityTotal
	}
	if err := h.Merch.UpdateVariation(c.Request().Context(), v); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
