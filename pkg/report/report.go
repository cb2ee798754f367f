package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arnavshah/callup-allocator-go/pkg/models"
)

// Format selects how a summary is rendered
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json or yaml (case-insensitive)
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", models.NewValidationError("summary", "unknown format %q (want text, json or yaml)", s)
	}
}

// Summary is the machine-readable view of a run
type Summary struct {
	Config        models.AllocationConfig  `json:"config" yaml:"config"`
	FairnessScore float64                  `json:"fairness_score" yaml:"fairness_score"`
	Players       []models.PlayerStats     `json:"players" yaml:"players"`
	Matches       []models.MatchAssignment `json:"matches" yaml:"matches"`
	Violations    []models.CapViolation    `json:"cap_violations" yaml:"cap_violations"`
}

// Summarize builds a Summary with empty lists instead of nil ones
func Summarize(res *models.AllocationResult, cfg models.AllocationConfig) Summary {
	s := Summary{
		Config:        cfg,
		FairnessScore: res.FairnessScore,
		Players:       append([]models.PlayerStats{}, res.Stats...),
		Matches:       make([]models.MatchAssignment, len(res.Matches)),
		Violations:    append([]models.CapViolation{}, res.Violations...),
	}
	for i, m := range res.Matches {
		m.Goalkeepers = nonNil(m.Goalkeepers)
		m.Line1 = nonNil(m.Line1)
		m.Line2 = nonNil(m.Line2)
		m.ReserveLine = nonNil(m.ReserveLine)
		m.PossibleReserves = nonNil(m.PossibleReserves)
		s.Matches[i] = m
	}
	return s
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

// Render writes the run summary to w in the requested format
func Render(w io.Writer, format Format, res *models.AllocationResult, cfg models.AllocationConfig) error {
	s := Summarize(res, cfg)

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml summary: %w", err)
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, Text(s))
		return err
	default:
		return models.NewValidationError("summary", "unknown format %q", format)
	}
}

// Text renders a summary for people reading a terminal
func Text(s Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Caps: home %d, away %d, goalkeeper %d\n",
		s.Config.MaxHomeBase, s.Config.MaxAwayBase, s.Config.GKCap)

	for _, m := range s.Matches {
		fmt.Fprintf(&b, "\n%s [%s]\n", m.Match.Label, m.Match.Venue)
		line(&b, "Goalkeepers", m.Goalkeepers)
		line(&b, "Line 1", m.Line1)
		line(&b, "Line 2", m.Line2)
		line(&b, "Reserve line", m.ReserveLine)
		line(&b, "Possible reserves", m.PossibleReserves)
	}

	b.WriteString("\nPlayers\n")
	for _, p := range s.Players {
		fmt.Fprintf(&b, "  %s (%d): home %d, away %d, reserve %d, goalkeeper %d, total %d\n",
			p.Name, p.PlayerID, p.BaseHome, p.BaseAway, p.ReserveCalls, p.GKAssignments, p.Appearances())
	}

	if len(s.Violations) == 0 {
		b.WriteString("\nCap violations: none\n")
	} else {
		fmt.Fprintf(&b, "\nCap violations (%d)\n", len(s.Violations))
		for _, v := range s.Violations {
			fmt.Fprintf(&b, "  %s: %s (id %d)\n", v.Match, v.PlayerName, v.PlayerID)
		}
	}

	fmt.Fprintf(&b, "\nFairness score: %.1f\n", s.FairnessScore)
	return b.String()
}

func line(b *strings.Builder, label string, names []string) {
	list := "-"
	if len(names) > 0 {
		list = strings.Join(names, ", ")
	}
	fmt.Fprintf(b, "  %-18s %s\n", label+":", list)
}

// Warnings formats cap violations as one warning line each
func Warnings(violations []models.CapViolation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, fmt.Sprintf("goalkeeper cap exceeded in %s: %s (id %d)", v.Match, v.PlayerName, v.PlayerID))
	}
	return out
}
