// Package project implements project persistence: a single JSON
// document describing tracks, clips, and events, guarded by a lock so
// a long-running save can't race a concurrent mutation.
package project

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/keagan/mec/internal/blueprint"
	"github.com/keagan/mec/internal/clip"
	"github.com/keagan/mec/internal/event"
	"github.com/keagan/mec/internal/eventstack"
	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/mecerr"
	"github.com/keagan/mec/internal/track"
)

// majorVersion/minorVersion make up CurrentVersion's two halves; bump
// majorVersion for a breaking document-shape change, minorVersion for
// an additive one.
const (
	majorVersion = 1
	minorVersion = 0
)

// CurrentVersion is written into every project file's mec_proj_version
// field and checked on load: the major version occupies the top byte,
// the minor version the next one down.
const CurrentVersion = majorVersion<<24 | minorVersion<<16

// Document is the on-disk shape: mec_proj_version, proj_name, and a
// proj_content subtree holding the track/clip/event graph.
type Document struct {
	Version int     `json:"mec_proj_version"`
	Name    string  `json:"proj_name"`
	Content Content `json:"proj_content"`
}

type Content struct {
	VideoTracks []TrackJSON `json:"video_tracks"`
	AudioTracks []TrackJSON `json:"audio_tracks"`
}

type TrackJSON struct {
	ID        string      `json:"id"`
	OutWidth  int         `json:"out_width,omitempty"`
	OutHeight int         `json:"out_height,omitempty"`
	FrameRate frameprim.Rational `json:"frame_rate,omitempty"`
	Clips     []ClipJSON  `json:"clips"`
}

type ClipJSON struct {
	ID          string      `json:"id"`
	SourceID    string      `json:"source_id"`
	SourceDurMs int64       `json:"source_duration_ms"`
	Start       int64       `json:"start"`
	StartOffset int64       `json:"start_offset"`
	EndOffset   int64       `json:"end_offset"`
	Direction   int         `json:"direction"`
	Events      []event.JSON `json:"events"`
}

// Project is an opened, in-memory editable project bound to a path on
// disk. The zero value is not opened; use CreateNew or Load.
type Project struct {
	mu       sync.Mutex
	path     string
	doc      Document
	opened   bool
	videoKind eventstack.Kind[*frameprim.VideoFrame]
	audioKind eventstack.Kind[*frameprim.AudioFrame]
	bpFactory blueprint.Factory

	VideoTracks []*track.Track[*frameprim.VideoFrame]
	AudioTracks []*track.Track[*frameprim.AudioFrame]
}

// New returns an unopened Project wired with the capabilities needed to
// rebuild tracks/clips/events from disk.
func New(videoKind eventstack.Kind[*frameprim.VideoFrame], audioKind eventstack.Kind[*frameprim.AudioFrame], bpFactory blueprint.Factory) *Project {
	return &Project{videoKind: videoKind, audioKind: audioKind, bpFactory: bpFactory}
}

// CreateNew initializes a brand-new, empty project at path, failing
// with mecerr.AlreadyExists if a file already sits there.
func (p *Project) CreateNew(path, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return mecerr.Newf(mecerr.AlreadyExists, "project: %s already exists", path)
	}
	p.path = path
	p.doc = Document{Version: CurrentVersion, Name: name}
	p.opened = true
	return nil
}

// parseDocument decodes a project file's raw bytes. A file carrying a
// mec_proj_version field parses as a normal Document; the absence of
// that field signals a legacy file whose root IS the content, so the
// whole document is parsed directly as a Content subtree instead.
func parseDocument(raw []byte) (Document, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Document{}, err
	}
	if _, hasVersion := probe["mec_proj_version"]; !hasVersion {
		var content Content
		if err := json.Unmarshal(raw, &content); err != nil {
			return Document{}, err
		}
		return Document{Content: content}, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Load reads and parses a project document from path.
func (p *Project) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, err := os.ReadFile(path)
	if err != nil {
		return mecerr.Wrap(mecerr.FileInvalid, "project: read "+path, err)
	}
	doc, err := parseDocument(raw)
	if err != nil {
		return mecerr.Wrap(mecerr.ParseFailed, "project: parse "+path, err)
	}

	videoTracks := make([]*track.Track[*frameprim.VideoFrame], 0, len(doc.Content.VideoTracks))
	for _, tj := range doc.Content.VideoTracks {
		t, err := rebuildTrack(tj, p.videoKind, p.bpFactory, track.Compositor[*frameprim.VideoFrame](track.VideoCrossfade{}))
		if err != nil {
			return err
		}
		videoTracks = append(videoTracks, t)
	}
	audioTracks := make([]*track.Track[*frameprim.AudioFrame], 0, len(doc.Content.AudioTracks))
	for _, tj := range doc.Content.AudioTracks {
		t, err := rebuildTrack(tj, p.audioKind, p.bpFactory, track.Compositor[*frameprim.AudioFrame](track.AudioCrossfade{}))
		if err != nil {
			return err
		}
		audioTracks = append(audioTracks, t)
	}

	p.path = path
	p.doc = doc
	p.VideoTracks = videoTracks
	p.AudioTracks = audioTracks
	p.opened = true
	return nil
}

func rebuildTrack[F any](tj TrackJSON, kind eventstack.Kind[F], bpFactory blueprint.Factory, compositor track.Compositor[F]) (*track.Track[F], error) {
	t := track.New[F](tj.ID, tj.OutWidth, tj.OutHeight, tj.FrameRate, compositor)
	for _, cj := range tj.Clips {
		src := clip.Source{ID: cj.SourceID, DurationMs: cj.SourceDurMs}
		c, err := clip.New[F](cj.ID, src, cj.Start, cj.StartOffset, cj.EndOffset, clip.Direction(cj.Direction), kind)
		if err != nil {
			return nil, fmt.Errorf("project: rebuild clip %q: %w", cj.ID, err)
		}
		for _, ej := range cj.Events {
			ev, err := event.FromJSON(&ej, bpFactory)
			if err != nil {
				return nil, fmt.Errorf("project: rebuild event %q: %w", ej.ID, err)
			}
			if err := c.Filter.AddEvent(ev); err != nil {
				return nil, fmt.Errorf("project: rebuild event %q: %w", ej.ID, err)
			}
		}
		if err := t.Insert(c); err != nil {
			return nil, fmt.Errorf("project: rebuild clip %q: %w", cj.ID, err)
		}
	}
	return t, nil
}

// Save serializes the opened project's current track/clip/event graph
// and writes it to its bound path. It fails with mecerr.NotOpened if
// the project has not been opened.
func (p *Project) Save() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.opened {
		return mecerr.New(mecerr.NotOpened, "project: not opened")
	}

	videoTracks, err := serializeTracks(p.VideoTracks)
	if err != nil {
		return err
	}
	audioTracks, err := serializeTracks(p.AudioTracks)
	if err != nil {
		return err
	}
	p.doc.Version = CurrentVersion
	p.doc.Content = Content{VideoTracks: videoTracks, AudioTracks: audioTracks}

	raw, err := json.MarshalIndent(p.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("project: marshal: %w", err)
	}
	if err := os.WriteFile(p.path, raw, 0o644); err != nil {
		return mecerr.Wrap(mecerr.FileInvalid, "project: write "+p.path, err)
	}
	return nil
}

func serializeTracks[F any](tracks []*track.Track[F]) ([]TrackJSON, error) {
	out := make([]TrackJSON, 0, len(tracks))
	for _, t := range tracks {
		tj := TrackJSON{ID: t.ID, OutWidth: t.OutWidth, OutHeight: t.OutHeight, FrameRate: t.FrameRate}
		for _, c := range t.Clips() {
			cj := ClipJSON{
				ID:          c.ID,
				SourceID:    c.Source.ID,
				SourceDurMs: c.Source.DurationMs,
				Start:       c.Start,
				StartOffset: c.StartOffset,
				EndOffset:   c.EndOffset,
				Direction:   int(c.Direction),
			}
			for _, ev := range c.Filter.Events() {
				ej, err := ev.ToJSON()
				if err != nil {
					return nil, fmt.Errorf("project: serialize event %q: %w", ev.ID, err)
				}
				cj.Events = append(cj.Events, *ej)
			}
			tj.Clips = append(tj.Clips, cj)
		}
		out = append(out, tj)
	}
	return out, nil
}

// Close marks the project unopened. Further Save calls fail with
// mecerr.NotOpened until Load or CreateNew is called again.
func (p *Project) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = false
	p.VideoTracks = nil
	p.AudioTracks = nil
}

// IsOpened reports whether the project is currently opened: true after
// CreateNew or Load, false before either and after Close.
func (p *Project) IsOpened() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opened
}
