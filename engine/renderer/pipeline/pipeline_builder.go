package pipeline

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption configures a Pipeline in NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithShaders attaches shaders by their own stage. A later shader of the same stage
// replaces an earlier one.
//
// Parameters:
//   - shaders: the stage shaders, nil entries are skipped
//
// Returns:
//   - PipelineBuilderOption: a function that attaches the shaders
func WithShaders(shaders ...shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		for _, s := range shaders {
			if s != nil {
				p.shaders[s.Type()] = s
			}
		}
	}
}

// WithCullMode sets which triangle faces are culled.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.CullMode = mode
	}
}

// WithColorTargets makes the pipeline offscreen, writing one fragment output per format
// into single-sample render targets with a depth attachment.
//
// Parameters:
//   - formats: the format of each color attachment
//
// Returns:
//   - PipelineBuilderOption: a function that sets the color targets
func WithColorTargets(formats ...wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.state.ColorTargets = formats
	}
}
