// Package blueprint declares the opaque dataflow-graph collaborator
// contract an Event owns one of, plus a small reference implementation
// used by tests and the CLI demo so the engine is runnable without a
// real external blueprint host.
package blueprint

import "github.com/keagan/mec/internal/frameprim"

// Runner is the opaque blueprint contract an Event owns one of. Real
// blueprint graphs are supplied by the host environment (internal/host);
// this module only ever calls the methods below.
type Runner interface {
	// IsValid reports whether the graph parsed successfully.
	IsValid() bool
	// IsExecutable reports whether the graph can run a frame transform
	// at all; audio events may own a non-executable blueprint.
	IsExecutable() bool
	// SetFilter binds a named scalar input, the target of a curve
	// evaluation.
	SetFilter(name string, value float64)
	// RunVideoFilter transforms a decoded video frame at timeline
	// position pos within an event of the given length.
	RunVideoFilter(in *frameprim.VideoFrame, pos, length int64) (*frameprim.VideoFrame, error)
	// RunAudioFilter transforms a decoded audio frame; duration is the
	// frame's own length.
	RunAudioFilter(in *frameprim.AudioFrame, pos, length, duration int64) (*frameprim.AudioFrame, error)
	// Serialize returns the graph's own JSON subtree, stored as "bp" in
	// the event's on-disk schema.
	Serialize() ([]byte, error)
}

// Factory builds a Runner from a graph's own JSON subtree, the "bp" key
// of an event document. Supplied by the host environment at Event
// construction / JSON restore time.
type Factory func(kind string, name string, graphJSON []byte) (Runner, error)
