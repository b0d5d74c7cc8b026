// Package host bundles the collaborator contracts the engine consults
// but never constructs itself: mask rendering, video blending, blueprint
// construction, and a logger, as a single struct rather than a scatter
// of package-level callbacks.
package host

import (
	"github.com/rs/zerolog"

	"github.com/keagan/mec/internal/blueprint"
	"github.com/keagan/mec/internal/codec"
	"github.com/keagan/mec/internal/mask"
)

// Environment is the set of collaborators an embedding application
// supplies to the engine at startup.
type Environment struct {
	MaskFromJSON     func(mask.Descriptor) (mask.Creator, error)
	Blender          mask.Blender
	BlueprintFactory blueprint.Factory
	ChooseHwFormat   codec.HwFormatChooser
	Logger           zerolog.Logger
}

// Default returns an Environment backed by the engine's own reference
// implementations: the rect-only mask creator, the x/image draw
// blender, the single-node gain blueprint graph, and the default
// hardware pixel format chooser. An embedder overrides individual
// fields to plug in richer implementations without touching engine
// code.
func Default(logger zerolog.Logger) Environment {
	return Environment{
		MaskFromJSON:     mask.FromJSON,
		Blender:          mask.NewDrawBlender(),
		BlueprintFactory: blueprint.NewGraphFactory(),
		ChooseHwFormat:   codec.DefaultHwFormatChooser,
		Logger:           logger,
	}
}
