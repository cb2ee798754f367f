package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/arnavshah/callup-allocator-go/pkg/allocator"
	"github.com/arnavshah/callup-allocator-go/pkg/database"
	"github.com/arnavshah/callup-allocator-go/pkg/logger"
	"github.com/arnavshah/callup-allocator-go/pkg/models"
	"github.com/arnavshah/callup-allocator-go/pkg/report"
	"github.com/arnavshah/callup-allocator-go/pkg/roster"
	"github.com/arnavshah/callup-allocator-go/pkg/workbook"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AllocateResponse is the JSON body of a successful allocation
type AllocateResponse struct {
	RunID string `json:"run_id"`
	report.Summary
}

// uploadParams mirror the CLI flags; unset values fall back to config
type uploadParams struct {
	Sheet                   string `form:"sheet"`
	MaxHomeBase             *int   `form:"max_home_base"`
	MaxAwayBase             *int   `form:"max_away_base"`
	GKCap                   *int   `form:"gk_cap"`
	RequireExactReserveFour *bool  `form:"require_exact_reserve_four"`
	PreferGKVolunteers      *bool  `form:"prefer_gk_volunteers"`
	Format                  string `form:"format"`
}

func (p uploadParams) apply(cfg models.AllocationConfig) models.AllocationConfig {
	if p.MaxHomeBase != nil {
		cfg.MaxHomeBase = *p.MaxHomeBase
	}
	if p.MaxAwayBase != nil {
		cfg.MaxAwayBase = *p.MaxAwayBase
	}
	if p.GKCap != nil {
		cfg.GKCap = *p.GKCap
	}
	if p.RequireExactReserveFour != nil {
		cfg.RequireExactReserveFour = *p.RequireExactReserveFour
	}
	if p.PreferGKVolunteers != nil {
		cfg.PreferGKVolunteers = *p.PreferGKVolunteers
	}
	return cfg
}

// AllocateJSON runs an allocation over players and matches posted as JSON
func (h *Handler) AllocateJSON(c *gin.Context) {
	var input models.AllocateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	runID := uuid.NewString()
	res, err := h.allocate(c, runID, players, input.Matches, cfg)
	if err != nil {
		respondError(c, err)
		return
	}

	h.recordRun(c, database.AllocationRun{RunID: runID, Source: "json"}, len(input.Matches), len(players), res)
	c.JSON(http.StatusOK, AllocateResponse{RunID: runID, Summary: report.Summarize(res, cfg)})
}

// AllocateUpload runs an allocation over an uploaded roster file and answers
// with JSON or, for format=xlsx, the allocation workbook.
func (h *Handler) AllocateUpload(c *gin.Context) {
	var params uploadParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if params.Format == "" {
		params.Format = "json"
	}
	if params.Format != "json" && params.Format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or xlsx"})
		return
	}

	r, ok := h.readRoster(c, params.Sheet)
	if !ok {
		return
	}

	cfg := params.apply(h.Config.Allocation())
	runID := uuid.NewString()
	res, err := h.allocate(c, runID, r.Players, r.Matches, cfg)
	if err != nil {
		respondError(c, err)
		return
	}

	h.recordRun(c, database.AllocationRun{RunID: runID, Source: "upload", Sheet: r.Table.Sheet}, len(r.Matches), len(r.Players), res)

	if params.Format == "xlsx" {
		var buf bytes.Buffer
		if err := workbook.WriteTo(&buf, r, res, cfg); err != nil {
			respondError(c, err)
			return
		}
		c.Header("X-Run-ID", runID)
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="allocation-%s.xlsx"`, runID[:8]))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, AllocateResponse{RunID: runID, Summary: report.Summarize(res, cfg)})
}

// readRoster parses the multipart roster_file; it answers the request itself on failure
func (h *Handler) readRoster(c *gin.Context, sheet string) (*roster.Roster, bool) {
	r, err := parseUpload(c, sheet)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return r, true
}

func parseUpload(c *gin.Context, sheet string) (*roster.Roster, error) {
	header, err := c.FormFile("roster_file")
	if err != nil {
		return nil, models.NewValidationError("roster_file", "roster_file is required")
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open roster file: %w", err)
	}
	defer file.Close()

	tbl, err := workbook.ReadTableFrom(file, filepath.Ext(header.Filename), sheet)
	if err != nil {
		var readErr *models.InputReadError
		if errors.As(err, &readErr) {
			readErr.Path = header.Filename
		}
		return nil, err
	}
	return roster.Parse(tbl, roster.DefaultColumns())
}

func (h *Handler) allocate(c *gin.Context, runID string, players []*models.Player, matches []models.Match, cfg models.AllocationConfig) (*models.AllocationResult, error) {
	a, err := allocator.NewAllocator(players, matches, cfg)
	if err != nil {
		return nil, err
	}

	log := logger.WithRunContext(runID, "").WithFields(logrus.Fields{
		"http_path": c.FullPath(),
		"players":   len(players),
		"matches":   len(matches),
	})
	res := a.WithLogger(log).Run()
	log.WithField("violations", len(res.Violations)).Info("Allocation complete")
	return res, nil
}

// recordRun stores run history and bumps daily usage; failures are logged only
func (h *Handler) recordRun(c *gin.Context, run database.AllocationRun, matches, players int, res *models.AllocationResult) {
	key, ok := currentKey(c)
	if !ok {
		return
	}

	run.KeyID = key.ID
	run.Matches = matches
	run.Players = players
	run.Violations = len(res.Violations)
	run.FairnessScore = res.FairnessScore

	log := logger.WithRunContext(run.RunID, run.Sheet)
	if err := h.DB.Create(&run).Error; err != nil {
		log.WithError(err).Error("Could not store allocation run")
	}
	if err := database.RecordUsage(h.DB, key.ID, matches, players); err != nil {
		log.WithError(err).Error("Could not record usage")
	}
}

func respondError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	var readErr *models.InputReadError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Message, "field": vErr.Field})
	case errors.As(err, &readErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": readErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
