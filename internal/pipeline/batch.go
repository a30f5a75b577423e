package pipeline

import (
	"context"
	"path/filepath"
)

// RunBatch processes inputs one after another with the settings of base.
// Outputs go next to each input, or into outputDir when it is set. A failed
// input does not stop the others; results keep the order of inputs.
func (c *Controller) RunBatch(
	ctx context.Context,
	base Config,
	inputs []string,
	outputDir string,
) []*Result {
	results := make([]*Result, 0, len(inputs))
	for i, input := range inputs {
		cfg := base
		cfg.InputPath = input
		cfg.OutputPath = ""
		if outputDir != "" {
			cfg.OutputPath = filepath.Join(outputDir, filepath.Base(cfg.ResolvedOutputPath()))
		}

		c.logger.Infow("batch item", "index", i+1, "total", len(inputs), "input", input)
		results = append(results, c.Run(ctx, cfg))
	}

	failed := 0
	for _, res := range results {
		if !res.Success {
			failed++
		}
	}
	if failed > 0 {
		c.logger.Warnw("batch finished with failures", "failed", failed, "total", len(results))
	}
	return results
}
