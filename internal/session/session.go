// Package session wraps a Player with the interactive controls of the viewer
// and the HTTP server: play/pause, playback speed, looping, goal and id
// display, snapshots, and per-run recording and history. A Session is safe
// for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cxd309/mapf-player/internal/config"
	"github.com/cxd309/mapf-player/internal/engine"
	"github.com/cxd309/mapf-player/internal/graph"
	"github.com/cxd309/mapf-player/internal/monitoring"
	"github.com/cxd309/mapf-player/internal/plan"
	"github.com/cxd309/mapf-player/internal/recorder"
	"github.com/cxd309/mapf-player/internal/snapshot"
	"github.com/cxd309/mapf-player/internal/store"
)

// ErrNoStore is returned by Runs when no run history is configured.
var ErrNoStore = errors.New("run history is not configured")

// Deps are the optional collaborators of a Session.
type Deps struct {
	// Store receives a row per run when set.
	Store *store.Store
	// Source names the plan's origin in the run history.
	Source string
}

// Status is a point-in-time view of the session.
type Status struct {
	RunID     string       `json:"run_id,omitempty"`
	Makespan  float64      `json:"makespan"`
	Playing   bool         `json:"playing"`
	Looping   bool         `json:"looping"`
	Speed     float64      `json:"speed"`
	ShowGoals bool         `json:"show_goals"`
	ShowIDs   bool         `json:"show_ids"`
	Frame     engine.Frame `json:"frame"`
}

// Session is an interactive playback.
type Session struct {
	mu        sync.Mutex
	cfg       config.Config
	deps      Deps
	graph     *graph.Graph
	plan      *plan.Plan
	player    *engine.Player
	playing   bool
	speed     float64
	showGoals bool
	showIDs   bool

	runID    string
	rec      *recorder.Recording
	finished bool
}

// New creates a session for p drawn on g; either may be nil.
func New(g *graph.Graph, p *plan.Plan, cfg config.Config, deps Deps) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	player, err := engine.NewPlayer(p, engine.Options{Looping: cfg.Loop})
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:     cfg,
		deps:    deps,
		graph:   g,
		plan:    p,
		player:  player,
		playing: cfg.Autoplay,
		speed:   cfg.Speed,
	}
	player.OnReset(s.rewound)
	s.startRun()
	return s, nil
}

// rewound follows every player reset, including a step below zero and a
// looping wrap. A reset after the run finished starts a new run. Called with
// mu held.
func (s *Session) rewound() {
	if s.finished {
		s.startRun()
	}
}

// startRun gives the playback a new run id and, when configured, a new
// recording wired to the player's hooks. Called with mu held or before the
// session is shared.
func (s *Session) startRun() {
	s.finished = false
	s.rec = nil
	s.runID = ""
	if s.player.Empty() {
		return
	}
	s.runID = recorder.NewRunID()

	var onSwitch func(engine.Switch)
	recFinish := func(engine.Frame) {}
	if s.cfg.RecordDir != "" {
		rec, err := recorder.Create(s.cfg.RecordDir, s.runID)
		if err != nil {
			monitoring.Logf("[session] recording disabled: %v", err)
		} else {
			s.rec = rec
			onSwitch, recFinish = rec.Hooks(s.player.Frame)
		}
	}
	s.player.OnSwitch(onSwitch)
	s.player.OnFinish(func(f engine.Frame) {
		recFinish(f)
		s.endRun(true)
	})
}

// endRun stores the current run. Called with mu held.
func (s *Session) endRun(finished bool) {
	if s.finished || s.runID == "" {
		return
	}
	s.finished = finished
	if s.deps.Store == nil {
		return
	}
	run := store.Run{
		ID:       s.runID,
		Source:   s.deps.Source,
		Agents:   s.plan.Len(),
		Makespan: s.player.Makespan(),
		Finished: finished,
	}
	if s.rec != nil {
		run.Entries = s.rec.Len()
		run.RecordingPath = s.rec.Path
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.deps.Store.RecordRun(ctx, run); err != nil {
		monitoring.Logf("[session] %v", err)
	}
}

// Graph returns the graph, or nil.
func (s *Session) Graph() *graph.Graph { return s.graph }

// Plan returns the plan, or nil.
func (s *Session) Plan() *plan.Plan { return s.plan }

// Status returns the current state of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status()
}

func (s *Session) status() Status {
	return Status{
		RunID:     s.runID,
		Makespan:  s.player.Makespan(),
		Playing:   s.playing,
		Looping:   s.player.Looping(),
		Speed:     s.speed,
		ShowGoals: s.showGoals,
		ShowIDs:   s.showIDs,
		Frame:     s.player.Frame(),
	}
}

// Step moves playback by dt seconds. With atomic set the step stops at the
// first segment boundary.
func (s *Session) Step(dt float64, atomic bool) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if atomic {
		s.player.StepOnce(dt)
	} else {
		s.player.Step(dt)
	}
	return s.status()
}

// StepForward steps by the current speed.
func (s *Session) StepForward() Status { return s.Step(s.Speed(), false) }

// StepBackward steps back by the current speed.
func (s *Session) StepBackward() Status { return s.Step(-s.Speed(), false) }

// Tick advances one autoplay frame if playing.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		s.player.Step(s.speed)
	}
}

// Run drives autoplay at the configured frame rate until ctx is done.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.FrameInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Reset rewinds to t = 0. A reset after the run finished starts a new run.
func (s *Session) Reset() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.Reset()
	return s.status()
}

// Seek jumps to time t, clamped to the timeline.
func (s *Session) Seek(t float64) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.SetTime(t)
	return s.status()
}

// SetLooping enables or disables looping.
func (s *Session) SetLooping(on bool) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.SetLooping(on)
	return s.status()
}

// ToggleLooping flips looping.
func (s *Session) ToggleLooping() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.player.SetLooping(!s.player.Looping())
	return s.status()
}

// SetPlaying starts or pauses autoplay.
func (s *Session) SetPlaying(on bool) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = on
	return s.status()
}

// TogglePlaying flips autoplay.
func (s *Session) TogglePlaying() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = !s.playing
	return s.status()
}

// Speed returns the autoplay step in plan seconds per frame.
func (s *Session) Speed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.speed
}

// SetSpeed sets the autoplay step, clamped to [0, config.MaxSpeed].
func (s *Session) SetSpeed(v float64) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = config.ClampSpeed(v)
	return s.status()
}

// AdjustSpeed changes the speed by n configured increments.
func (s *Session) AdjustSpeed(n int) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = config.ClampSpeed(s.speed + float64(n)*s.cfg.SpeedStep)
	return s.status()
}

// ToggleGoals flips goal highlighting.
func (s *Session) ToggleGoals() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showGoals = !s.showGoals
	return s.status()
}

// ToggleIDs flips agent id labels.
func (s *Session) ToggleIDs() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showIDs = !s.showIDs
	return s.status()
}

func (s *Session) scene() snapshot.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot.Scene{
		Graph:     s.graph,
		Plan:      s.plan,
		Frame:     s.player.Frame(),
		ShowGoals: s.showGoals,
		ShowIDs:   s.showIDs,
	}
}

// Snapshot renders the current frame to w.
func (s *Session) Snapshot(w io.Writer, format string) (int64, error) {
	return snapshot.WriteTo(s.scene(), w, format)
}

// SaveSnapshot writes the current frame to the configured snapshot directory
// and returns the file path.
func (s *Session) SaveSnapshot(format string) (string, error) {
	sc := s.scene()
	dir := s.cfg.SnapshotDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}
	path := filepath.Join(dir, snapshot.Filename(sc.Frame.Time, format))
	if err := snapshot.Save(sc, path); err != nil {
		return "", err
	}
	monitoring.Logf("[session] snapshot saved to %s", path)
	return path, nil
}

// Runs lists up to limit stored runs, newest first.
func (s *Session) Runs(ctx context.Context, limit int) ([]store.Run, error) {
	if s.deps.Store == nil {
		return nil, ErrNoStore
	}
	return s.deps.Store.ListRuns(ctx, limit)
}

// Close ends the current run, storing it as unfinished if it never reached
// the makespan, and closes its recording.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endRun(false)
	if s.rec != nil {
		return s.rec.Close()
	}
	return nil
}
