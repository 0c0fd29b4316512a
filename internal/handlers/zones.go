package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dialbed/internal/models"
	"dialbed/internal/service"
)

type setpointRequest struct {
	SetpointC *float64 `json:"setpoint_c" binding:"required"`
}

type powerRequest struct {
	On *bool `json:"on" binding:"required"`
}

type endpointRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// parseZone resolves the :zone path parameter, writing a 404 on failure.
func (h *Handler) parseZone(c *gin.Context) (models.ZoneID, bool) {
	id, err := models.ParseZoneID(c.Param("zone"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown zone"})
		return 0, false
	}
	return id, true
}

func (h *Handler) writeZone(c *gin.Context, id models.ZoneID) {
	st, err := h.services.Zone(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown zone"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      List zones
// @Tags         zones
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "zones"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/zones [get]
// @Security     BearerAuth
func (h *Handler) listZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"zones": h.services.Snapshot()})
}

// @Summary      Get one zone
// @Tags         zones
// @Produce      json
// @Param        zone  path      string  true  "Zone name"  Enums(bed,pillow)
// @Success      200   {object}  models.ZoneStatus
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/zones/{zone} [get]
// @Security     BearerAuth
func (h *Handler) getZone(c *gin.Context) {
	id, ok := h.parseZone(c)
	if !ok {
		return
	}
	h.writeZone(c, id)
}

// @Summary      Set zone setpoint
// @Description  Celsius input, clamped to the accepted range. The applied value is in the returned zone state.
// @Tags         zones
// @Accept       json
// @Produce      json
// @Param        zone   path      string           true  "Zone name"  Enums(bed,pillow)
// @Param        input  body      setpointRequest  true  "Target setpoint"
// @Success      200    {object}  models.ZoneStatus
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /api/v1/zones/{zone}/setpoint [put]
// @Security     BearerAuth
func (h *Handler) setSetpoint(c *gin.Context) {
	id, ok := h.parseZone(c)
	if !ok {
		return
	}
	var input setpointRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.services.SetSetpoint(c.Request.Context(), id, *input.SetpointC); err != nil {
		h.writeZoneError(c, err)
		return
	}
	h.writeZone(c, id)
}

// @Summary      Set zone power
// @Tags         zones
// @Accept       json
// @Produce      json
// @Param        zone   path      string        true  "Zone name"  Enums(bed,pillow)
// @Param        input  body      powerRequest  true  "Power state"
// @Success      200    {object}  models.ZoneStatus
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /api/v1/zones/{zone}/power [put]
// @Security     BearerAuth
func (h *Handler) setPower(c *gin.Context) {
	id, ok := h.parseZone(c)
	if !ok {
		return
	}
	var input powerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.SetPower(c.Request.Context(), id, *input.On); err != nil {
		h.writeZoneError(c, err)
		return
	}
	h.writeZone(c, id)
}

// @Summary      Set zone remote endpoint
// @Tags         zones
// @Accept       json
// @Produce      json
// @Param        zone   path      string           true  "Zone name"  Enums(bed,pillow)
// @Param        input  body      endpointRequest  true  "IPv4 address, dotted quad"
// @Success      200    {object}  models.ZoneStatus
// @Failure      400    {object}  map[string]string
// @Failure      404    {object}  map[string]string
// @Router       /api/v1/zones/{zone}/endpoint [put]
// @Security     BearerAuth
func (h *Handler) setEndpoint(c *gin.Context) {
	id, ok := h.parseZone(c)
	if !ok {
		return
	}
	var input endpointRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ep, err := models.ParseEndpoint(input.Endpoint)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.services.SetEndpoint(c.Request.Context(), id, ep); err != nil {
		h.log.Errorw("set_endpoint_failed", "zone", id, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save endpoint"})
		return
	}
	h.writeZone(c, id)
}

// @Summary      Make a zone the active edit target
// @Tags         zones
// @Produce      json
// @Param        zone  path      string  true  "Zone name"  Enums(bed,pillow)
// @Success      200   {object}  models.ZoneStatus
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/zones/{zone}/activate [post]
// @Security     BearerAuth
func (h *Handler) activateZone(c *gin.Context) {
	id, ok := h.parseZone(c)
	if !ok {
		return
	}
	if err := h.services.SetActive(c.Request.Context(), id); err != nil {
		h.writeZoneError(c, err)
		return
	}
	h.writeZone(c, id)
}

func (h *Handler) writeZoneError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUnknownZone) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown zone"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
