package planner

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/grammar-school-go/gs"
	"github.com/Conceptual-Machines/magda-composer/internal/llm"
	"github.com/Conceptual-Machines/magda-composer/internal/models"
)

// TrackPlanParser parses Track Plan DSL code using Grammar School.
// A parser is not safe for concurrent use.
type TrackPlanParser struct {
	engine  *gs.Engine
	planDSL *TrackPlanDSL
	tracks  []models.TrackConfig
}

// TrackPlanDSL implements the DSL side-effect methods
type TrackPlanDSL struct {
	parser *TrackPlanParser
}

// NewTrackPlanParser creates a new track plan DSL parser
func NewTrackPlanParser() (*TrackPlanParser, error) {
	parser := &TrackPlanParser{
		planDSL: &TrackPlanDSL{},
		tracks:  make([]models.TrackConfig, 0),
	}

	parser.planDSL.parser = parser

	grammar := llm.GetTrackPlanDSLGrammar()
	larkParser := gs.NewLarkParser()

	engine, err := gs.NewEngine(grammar, parser.planDSL, larkParser)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	parser.engine = engine
	return parser, nil
}

// ParseDSL parses DSL code and returns the planned tracks in call order
func (p *TrackPlanParser) ParseDSL(dslCode string) ([]models.TrackConfig, error) {
	code := normalizeDSL(dslCode)
	if code == "" {
		return nil, fmt.Errorf("empty DSL code")
	}

	p.tracks = make([]models.TrackConfig, 0)

	ctx := context.Background()
	if err := p.engine.Execute(ctx, code); err != nil {
		return nil, fmt.Errorf("failed to execute DSL: %w", err)
	}

	if len(p.tracks) == 0 {
		return nil, fmt.Errorf("no tracks found in DSL code")
	}

	log.Printf("✅ Track Plan DSL Parser: Translated %d tracks from DSL", len(p.tracks))
	return p.tracks, nil
}

// Track handles track() calls
func (d *TrackPlanDSL) Track(args gs.Args) error {
	p := d.parser

	roleName := ""
	if roleValue, ok := args["role"]; ok && roleValue.Kind == gs.ValueString {
		roleName = roleValue.Str
	}
	role, ok := models.ParseRole(roleName)
	if !ok {
		return fmt.Errorf("track: unknown role %q", roleName)
	}

	instrument := ""
	if instValue, ok := args["instrument"]; ok && instValue.Kind == gs.ValueString {
		instrument = strings.Trim(instValue.Str, "\"")
	}

	priority := 0
	if prioValue, ok := args["priority"]; ok && prioValue.Kind == gs.ValueNumber {
		priority = int(prioValue.Num)
	}

	density := 0.0
	if densValue, ok := args["density"]; ok && densValue.Kind == gs.ValueNumber {
		density = densValue.Num
	}

	p.tracks = append(p.tracks, models.TrackConfig{
		Role:       role,
		Instrument: instrument,
		Priority:   priority,
		Density:    density,
	})
	log.Printf("🎼 Track: role=%s, instrument=%s, priority=%d, density=%.2f", role, instrument, priority, density)

	return nil
}

var (
	commaSpace = regexp.MustCompile(`\s*,\s*`)
	equalsPad  = regexp.MustCompile(`\s*=\s*`)
	openParen  = regexp.MustCompile(`\(\s*`)
	closeParen = regexp.MustCompile(`\s*\)`)

	adjacentCalls = regexp.MustCompile(`\)\s*;?\s*track\s*\(`)
)

// normalizeDSL strips code fences and puts the calls into the canonical
// spacing the grammar expects
func normalizeDSL(code string) string {
	lines := strings.Split(strings.TrimSpace(code), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}

	joined := adjacentCalls.ReplaceAllString(strings.Join(kept, " "), ");track(")
	var calls []string
	for _, stmt := range strings.Split(joined, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		stmt = commaSpace.ReplaceAllString(stmt, ", ")
		stmt = equalsPad.ReplaceAllString(stmt, "=")
		stmt = openParen.ReplaceAllString(stmt, "(")
		stmt = closeParen.ReplaceAllString(stmt, ")")
		calls = append(calls, stmt)
	}
	return strings.Join(calls, ";")
}
