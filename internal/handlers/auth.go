package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type pairRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// @Summary      Pair a client
// @Description  Exchanges the device pairing PIN for a bearer token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        input  body      pairRequest  true  "Pairing PIN"
// @Success      200    {object}  map[string]string  "token"
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /auth/pair [post]
func (h *Handler) pair(c *gin.Context) {
	var input pairRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.services.Pair(c.Request.Context(), input.PIN)
	if err != nil {
		h.log.Infow("pair_rejected", "err", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid pin"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
