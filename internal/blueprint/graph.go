package blueprint

import (
	"encoding/json"
	"fmt"

	"github.com/keagan/mec/internal/frameprim"
)

// Node is a single scalar-input DSP step, the unit a reference Graph is
// built from. Real blueprint hosts compose much richer node kinds; this
// module only needs one to exercise the engine end to end.
type Node interface {
	Name() string
	SetInput(name string, value float64)
	ApplyVideo(in *frameprim.VideoFrame) (*frameprim.VideoFrame, error)
}

// Graph is a reference Runner implementation: an ordered list of Nodes,
// each applied in turn to the frame the previous node produced.
type Graph struct {
	kind  string
	name  string
	nodes []Node
	valid bool
}

// NewGainGraph builds a Graph containing a single node that scales every
// byte of a video frame's luminance plane by its "gain" input. It is the
// reference graph used by tests and the CLI demo.
func NewGainGraph(name string) *Graph {
	return &Graph{
		kind:  "gain",
		name:  name,
		nodes: []Node{&gainNode{gain: 1.0}},
		valid: true,
	}
}

func (g *Graph) IsValid() bool      { return g.valid }
func (g *Graph) IsExecutable() bool { return len(g.nodes) > 0 }

func (g *Graph) SetFilter(name string, value float64) {
	for _, n := range g.nodes {
		n.SetInput(name, value)
	}
}

func (g *Graph) RunVideoFilter(in *frameprim.VideoFrame, pos, length int64) (*frameprim.VideoFrame, error) {
	frame := in
	for _, n := range g.nodes {
		out, err := n.ApplyVideo(frame)
		if err != nil {
			return nil, fmt.Errorf("blueprint: node %s: %w", n.Name(), err)
		}
		frame = out
	}
	return frame, nil
}

func (g *Graph) RunAudioFilter(in *frameprim.AudioFrame, pos, length, duration int64) (*frameprim.AudioFrame, error) {
	// The reference graph only implements a video transform; an audio
	// event passes the frame through unchanged when its blueprint is
	// not executable for audio.
	return in, nil
}

func (g *Graph) Serialize() ([]byte, error) {
	return json.Marshal(struct {
		Kind string `json:"kind"`
		Name string `json:"name"`
	}{g.kind, g.name})
}

// gainNode multiplies every sample of a video frame's luminance plane by a
// scalar gain input.
type gainNode struct {
	gain float64
}

func (n *gainNode) Name() string { return "gain" }

func (n *gainNode) SetInput(name string, value float64) {
	if name == "gain" {
		n.gain = value
	}
}

func (n *gainNode) ApplyVideo(in *frameprim.VideoFrame) (*frameprim.VideoFrame, error) {
	if in == nil {
		return nil, nil
	}
	out := in.Clone()
	for i, v := range out.Data {
		scaled := float64(v) * n.gain
		if scaled > 255 {
			scaled = 255
		}
		if scaled < 0 {
			scaled = 0
		}
		out.Data[i] = byte(scaled)
	}
	return out, nil
}

// NewGraphFactory returns a Factory that builds reference Graphs, used by
// the host environment when no real blueprint host is wired in.
func NewGraphFactory() Factory {
	return func(kind, name string, graphJSON []byte) (Runner, error) {
		switch kind {
		case "gain", "":
			return NewGainGraph(name), nil
		default:
			return nil, fmt.Errorf("blueprint: unknown reference graph kind %q", kind)
		}
	}
}
