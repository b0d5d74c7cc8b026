package host

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestDefaultWiresAllCollaborators(t *testing.T) {
	env := Default(zerolog.Nop())
	if env.MaskFromJSON == nil {
		t.Fatal("expected MaskFromJSON to be wired")
	}
	if env.Blender == nil {
		t.Fatal("expected Blender to be wired")
	}
	if env.BlueprintFactory == nil {
		t.Fatal("expected BlueprintFactory to be wired")
	}
	if env.ChooseHwFormat == nil {
		t.Fatal("expected ChooseHwFormat to be wired")
	}
}
