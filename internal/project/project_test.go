package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/keagan/mec/internal/blueprint"
	"github.com/keagan/mec/internal/clip"
	"github.com/keagan/mec/internal/curve"
	"github.com/keagan/mec/internal/event"
	"github.com/keagan/mec/internal/eventstack"
	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/mecerr"
	"github.com/keagan/mec/internal/track"
)

func newTestProject() *Project {
	return New(eventstack.NewVideoKind(nil), eventstack.NewAudioKind(), blueprint.NewGraphFactory())
}

func TestCreateNewRejectsExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proj.json")

	p := newTestProject()
	if err := p.CreateNew(path, "demo"); err != nil {
		t.Fatal(err)
	}
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	p2 := newTestProject()
	err := p2.CreateNew(path, "demo2")
	if !mecerr.Is(err, mecerr.AlreadyExists) {
		t.Fatalf("expected ALREADY_EXISTS, got %v", err)
	}
}

func TestSaveBeforeOpenFails(t *testing.T) {
	p := newTestProject()
	err := p.Save()
	if !mecerr.Is(err, mecerr.NotOpened) {
		t.Fatalf("expected NOT_OPENED, got %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proj.json")

	p := newTestProject()
	if err := p.CreateNew(path, "demo"); err != nil {
		t.Fatal(err)
	}

	vt := track.New[*frameprim.VideoFrame]("v1", 1920, 1080, frameprim.Rational{Num: 30, Den: 1}, track.VideoCrossfade{})
	src := clip.Source{ID: "source-a", DurationMs: 5000}
	c, err := clip.New[*frameprim.VideoFrame]("c1", src, 0, 0, 0, clip.Forward, eventstack.NewVideoKind(nil))
	if err != nil {
		t.Fatal(err)
	}
	cs := curve.NewSet()
	cs.Add(&curve.Curve{Name: "gain", Keypoints: []curve.Keypoint{{X: 0, Value: 1}, {X: 1000, Value: 2}}})
	ev, err := event.New("e1", 0, 1000, 0, blueprint.NewGainGraph("e1"), cs)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Filter.AddEvent(ev); err != nil {
		t.Fatal(err)
	}
	if err := vt.Insert(c); err != nil {
		t.Fatal(err)
	}
	p.VideoTracks = []*track.Track[*frameprim.VideoFrame]{vt}

	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	loaded := newTestProject()
	if err := loaded.Load(path); err != nil {
		t.Fatal(err)
	}
	if len(loaded.VideoTracks) != 1 {
		t.Fatalf("expected 1 video track, got %d", len(loaded.VideoTracks))
	}
	clips := loaded.VideoTracks[0].Clips()
	if len(clips) != 1 || clips[0].ID != "c1" {
		t.Fatalf("unexpected clips after reload: %+v", clips)
	}
	events := clips[0].Filter.Events()
	if len(events) != 1 || events[0].ID != "e1" {
		t.Fatalf("unexpected events after reload: %+v", events)
	}
}

func TestCurrentVersionIsBitPacked(t *testing.T) {
	if CurrentVersion != 1<<24 {
		t.Fatalf("expected CurrentVersion %d<<24, got %d", majorVersion, CurrentVersion)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "proj.json")
	p := newTestProject()
	if err := p.CreateNew(path, "demo"); err != nil {
		t.Fatal(err)
	}
	if err := p.Save(); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var probe struct {
		Version int `json:"mec_proj_version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		t.Fatal(err)
	}
	if probe.Version != 1<<24 {
		t.Fatalf("expected mec_proj_version %d, got %d", 1<<24, probe.Version)
	}
}

func TestLoadLegacyFileWhoseRootIsContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.json")

	legacy := `{
		"video_tracks": [{
			"id": "v1",
			"out_width": 1920,
			"out_height": 1080,
			"clips": [{
				"id": "c1",
				"source_id": "source-a",
				"source_duration_ms": 5000,
				"start": 0,
				"start_offset": 0,
				"end_offset": 0,
				"direction": 0,
				"events": []
			}]
		}],
		"audio_tracks": []
	}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	p := newTestProject()
	if err := p.Load(path); err != nil {
		t.Fatalf("Load legacy file: %v", err)
	}
	if len(p.VideoTracks) != 1 {
		t.Fatalf("expected 1 video track from legacy root, got %d", len(p.VideoTracks))
	}
	clips := p.VideoTracks[0].Clips()
	if len(clips) != 1 || clips[0].ID != "c1" {
		t.Fatalf("unexpected clips from legacy load: %+v", clips)
	}
}

func TestCloseRequiresReopenBeforeSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proj.json")

	p := newTestProject()
	if err := p.CreateNew(path, "demo"); err != nil {
		t.Fatal(err)
	}
	p.Close()

	err := p.Save()
	if !mecerr.Is(err, mecerr.NotOpened) {
		t.Fatalf("expected NOT_OPENED after Close, got %v", err)
	}
}
