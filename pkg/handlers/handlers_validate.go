package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/callup-allocator-go/pkg/allocator"
	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// ValidateInput checks a roster without allocating. Multipart requests carry
// a roster_file (and optional sheet query); anything else is JSON players
// and matches.
func (h *Handler) ValidateInput(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.validateUpload(c)
		return
	}

	var input models.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	cfg := h.Config.Allocation()
	if input.Config != nil {
		cfg = *input.Config
	}

	players := make([]*models.Player, len(input.Players))
	for i := range input.Players {
		players[i] = &input.Players[i]
	}
	if len(players) == 0 {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": "At least one player is required", "field": "players"})
		return
	}
	if _, err := allocator.NewAllocator(players, input.Matches, cfg); err != nil {
		invalid(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"player_count": len(players),
			"match_count":  len(input.Matches),
		},
	})
}

func (h *Handler) validateUpload(c *gin.Context) {
	r, err := parseUpload(c, c.Query("sheet"))
	if err != nil {
		invalid(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true, "stats": r.Stats()})
}

func invalid(c *gin.Context, err error) {
	var vErr *models.ValidationError
	var readErr *models.InputReadError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &readErr):
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": readErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"valid": false, "error": err.Error()})
	}
}
