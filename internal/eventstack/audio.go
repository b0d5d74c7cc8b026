package eventstack

import (
	"fmt"

	"github.com/keagan/mec/internal/event"
	"github.com/keagan/mec/internal/frameprim"
)

// AudioKind is the audio capability implementation: identical curve/
// blueprint steps as video, but no masks and no blender. The frame
// passes through unchanged if the blueprint is not executable.
type AudioKind struct{}

func NewAudioKind() *AudioKind { return &AudioKind{} }

func (k *AudioKind) ApplyEvent(ev *event.Event, in *frameprim.AudioFrame, pos int64) (*frameprim.AudioFrame, error) {
	if !ev.Blueprint.IsExecutable() {
		return in, nil
	}

	rel := pos - ev.Start
	for _, name := range ev.Curves.Names() {
		v, err := ev.Curves.Value(name, rel)
		if err != nil {
			return in, err
		}
		ev.Blueprint.SetFilter(name, v)
	}

	duration := in.DurationMs
	out, err := ev.Blueprint.RunAudioFilter(in, rel, ev.Length(), duration)
	if err != nil {
		return in, fmt.Errorf("audio kind: run blueprint: %w", err)
	}
	return out, nil
}
