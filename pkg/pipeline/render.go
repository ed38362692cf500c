package pipeline

import (
	"context"
	"strings"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/errors"
	"github.com/matzehuels/pageflow/pkg/render/routes"
)

// =============================================================================
// Render
// =============================================================================

// Render generates output artifacts of plan in the requested formats.
func Render(ctx context.Context, plan layout.Plan, opts Options) (map[string][]byte, error) {
	artifacts := make(map[string][]byte, len(opts.Formats))
	if len(opts.Formats) == 0 {
		return artifacts, nil
	}

	var dot string
	for _, format := range opts.Formats {
		if format != FormatJSON && dot == "" {
			dot = routes.ToDOT(plan, routes.Options{Detailed: opts.Detailed, Collapse: opts.Collapse})
		}

		var data []byte
		var err error
		switch format {
		case FormatJSON:
			data, err = document.MarshalPlan(plan)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = routes.RenderSVG(ctx, dot)
		case FormatPNG:
			data, err = routes.RenderPNG(ctx, dot)
		default:
			return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRender, err, "render %s", format)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

// formatList is the comma-joined list used in log lines.
func formatList(formats []string) string {
	if len(formats) == 0 {
		return "none"
	}
	return strings.Join(formats, ",")
}
