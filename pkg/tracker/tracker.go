// Package tracker decodes bar positions and rhythmic patterns from beat
// times and per-frame audio features.
//
// A [Tracker] is built once from a pattern file and holds the shared,
// immutable HMM. Batch decoding ([Tracker.Decode]) runs exact Viterbi over
// a whole recording; streaming decoding ([Session.Feed]) filters forward
// one frame at a time. Any number of sessions may run concurrently against
// one Tracker; a single Session must stay confined to one goroutine.
package tracker

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/00001101-xt/bartrack/pkg/barhmm"
	"github.com/00001101-xt/bartrack/pkg/beatsync"
	"github.com/00001101-xt/bartrack/pkg/pattern"
)

// Config controls decoding behavior.
type Config struct {
	// PatternChangeProb is the per-beat probability of switching to a
	// different rhythmic pattern. The live drummer pipeline uses 1e-3;
	// the default keeps the pattern extremely sticky.
	PatternChangeProb float64

	// FPS is the feature frame rate in Hz.
	FPS float64

	// Subdivisions overrides the number of beat subdivisions. Zero means
	// "use whatever the pattern file was fitted with"; a non-zero value
	// that disagrees with the file is a construction error.
	Subdivisions int

	// Downbeats restricts output to records with beat number 1.
	Downbeats bool

	// BumpBeatNumber remaps every emitted beat number n to
	// (n mod beatsPerBar)+1, for consumers whose label convention is
	// shifted by one beat relative to the internal indexing.
	BumpBeatNumber bool

	// ReturnPattern includes the decoded pattern index in each record.
	// When false, BeatRecord.Pattern is -1.
	ReturnPattern bool
}

// DefaultConfig mirrors the defaults of the downbeat tracking pipeline.
func DefaultConfig() Config {
	return Config{
		PatternChangeProb: 1e-7,
		FPS:               100,
	}
}

// BeatRecord is one decoded beat.
type BeatRecord struct {
	Time    float64 // beat time in seconds
	Number  int     // 1-based beat number within the bar
	Pattern int     // decoded pattern index, or -1 if not requested
}

// Tracker owns the shared decoding models for one pattern configuration.
type Tracker struct {
	cfg         Config
	beatsPerBar []int
	ss          *barhmm.StateSpace
	hmm         *barhmm.HMM
	syncCfg     beatsync.Config
}

// New builds a Tracker from a validated pattern file.
func New(file *pattern.File, cfg Config) (*Tracker, error) {
	if err := file.Validate(); err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	subdiv := file.Patterns[0].Subdivisions()
	if cfg.Subdivisions != 0 && cfg.Subdivisions != subdiv {
		return nil, fmt.Errorf("tracker: configured %d subdivisions, pattern file was fitted with %d", cfg.Subdivisions, subdiv)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("tracker: frame rate %v, want > 0", cfg.FPS)
	}

	mixtures, err := file.Build()
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	ss, err := barhmm.NewStateSpace(file.BeatsPerBar())
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	tm, err := barhmm.NewTransitionModel(ss, cfg.PatternChangeProb)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	om, err := barhmm.NewObservationModel(ss, mixtures)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}

	syncCfg := beatsync.DefaultConfig()
	syncCfg.Subdivisions = subdiv
	syncCfg.FPS = cfg.FPS
	syncCfg.FeatDim = file.FeatDim()

	return &Tracker{
		cfg:         cfg,
		beatsPerBar: file.BeatsPerBar(),
		ss:          ss,
		hmm:         barhmm.New(tm, om),
		syncCfg:     syncCfg,
	}, nil
}

// record maps a decoded state to an output record, applying the output
// shaping options.
func (t *Tracker) record(time float64, state int) *BeatRecord {
	p := t.ss.Pattern(state)
	number := t.ss.Position(state) + 1
	return t.shape(time, number, p)
}

func (t *Tracker) shape(time float64, number, p int) *BeatRecord {
	if t.cfg.BumpBeatNumber {
		number = number%t.beatsPerBar[p] + 1
	}
	rec := &BeatRecord{Time: time, Number: number, Pattern: -1}
	if t.cfg.ReturnPattern {
		rec.Pattern = p
	}
	return rec
}

// Decode runs batch decoding over a full recording.
//
// beats are timestamps in seconds; features is the per-frame feature
// sequence. The decoded beat numbers follow the most probable state path;
// the final beat, which closes the last aggregated interval, wraps the
// last decoded position by its pattern's bar length. With cfg.Downbeats
// only records with beat number 1 are returned.
func (t *Tracker) Decode(beats []float64, features [][]float64) ([]BeatRecord, error) {
	syncBeats, blocks, err := beatsync.Synchronize(t.syncCfg, beats, features)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	if len(blocks) == 0 {
		return []BeatRecord{}, nil
	}

	logDens, err := t.hmm.ObservationModel().LogDensities(blocks)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}
	path, _, err := t.hmm.Viterbi(logDens)
	if err != nil {
		return nil, fmt.Errorf("tracker: %w", err)
	}

	records := make([]BeatRecord, 0, len(syncBeats))
	for i, state := range path {
		records = append(records, *t.record(syncBeats[i], state))
	}
	// Extrapolate the final beat by advancing the last decoded position.
	last := path[len(path)-1]
	p := t.ss.Pattern(last)
	lastNumber := (t.ss.Position(last)+1)%t.beatsPerBar[p] + 1
	records = append(records, *t.shape(syncBeats[len(syncBeats)-1], lastNumber, p))

	if !t.cfg.Downbeats {
		return records, nil
	}
	downbeats := records[:0]
	for _, rec := range records {
		if rec.Number == 1 {
			downbeats = append(downbeats, rec)
		}
	}
	return downbeats, nil
}

// Session is one streaming decoding session. It owns its synchronizer and
// forward filter; its methods must not be called concurrently.
type Session struct {
	tracker *Tracker
	sync    *beatsync.Synchronizer
	fwd     *barhmm.Forward
	log     *slog.Logger
}

// NewSession creates an independent streaming session against the shared
// models.
func (t *Tracker) NewSession() *Session {
	return &Session{
		tracker: t,
		sync:    beatsync.NewSynchronizer(t.syncCfg),
		fwd:     t.hmm.NewForward(),
		log:     slog.Default().With("session", uuid.NewString()),
	}
}

// Feed consumes one frame's beat event and feature value and returns a
// decoded record, or nil while no beat-synchronous feature is available
// yet (warm-up, frames between beats, or downbeat filtering).
//
// A failing observation update is reported as an error and skipped; the
// session's forward distribution is left untouched so the stream can
// continue with the next frame.
func (s *Session) Feed(beat beatsync.Beat, feature []float64) (*BeatRecord, error) {
	syncedBeat, block := s.sync.Process(beat, feature)
	if block == nil || !syncedBeat.Present() {
		return nil, nil
	}

	row, err := s.tracker.hmm.ObservationModel().LogDensitiesAt(block)
	if err != nil {
		return nil, fmt.Errorf("tracker: score beat %v: %w", syncedBeat.Time(), err)
	}
	state, err := s.fwd.Step(row)
	if err != nil {
		return nil, fmt.Errorf("tracker: beat %v: %w", syncedBeat.Time(), err)
	}

	rec := s.tracker.record(syncedBeat.Time(), state)
	s.log.Debug("decoded beat", "time", rec.Time, "number", rec.Number, "pattern", s.tracker.ss.Pattern(state))
	if s.tracker.cfg.Downbeats && rec.Number != 1 {
		return nil, nil
	}
	return rec, nil
}
