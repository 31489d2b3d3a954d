// Package audio граница со звуковой подсистемой. Вызовы без ответа:
// симуляция не читает результатов.
package audio

import (
	"sync"

	"github.com/annel0/taskverse/internal/logging"
)

// Sound одиночный звук
type Sound string

const (
	SoundCollision  Sound = "collision"
	SoundFullImpact Sound = "full_impact"
	SoundRifle      Sound = "rifle"
	SoundPlasma     Sound = "plasma"
	SoundRocket     Sound = "rocket"
	SoundNuke       Sound = "nuke"
	SoundExplosion  Sound = "explosion"
	SoundLanding    Sound = "landing"
	SoundClaim      Sound = "claim"
	SoundWarp       Sound = "warp"
	SoundPortal     Sound = "portal"
	SoundHorn       Sound = "horn"
	SoundEmote      Sound = "emote"
	SoundBossIntro  Sound = "boss_intro"
	SoundDefeat     Sound = "defeat"
	SoundVictory    Sound = "victory"
)

// Loop зацикленный звук с громкостью по близости
type Loop string

const (
	LoopThrust    Loop = "thrust"
	LoopBoost     Loop = "boost"
	LoopBlackHole Loop = "black_hole"
	LoopMerchant  Loop = "merchant"
	LoopBoss      Loop = "boss"
)

// Sink принимает звуковые команды
type Sink interface {
	Play(s Sound)
	// UpdateProximity задаёт близость источника, level в [0,1]
	UpdateProximity(l Loop, level float64)
	Start(l Loop)
	Stop(l Loop)
}

// NopSink ничего не воспроизводит
type NopSink struct{}

func (NopSink) Play(Sound) {}
func (NopSink) UpdateProximity(Loop, float64) {}
func (NopSink) Start(Loop) {}
func (NopSink) Stop(Loop) {}

// Call одна записанная команда
type Call struct {
	Op    string
	Name  string
	Level float64
}

// Recorder запоминает команды; используется в тестах и отладочном API
type Recorder struct {
	mu      sync.Mutex
	calls   []Call
	playing map[Loop]bool
}

// NewRecorder создаёт пустой Recorder
func NewRecorder() *Recorder {
	return &Recorder{playing: make(map[Loop]bool)}
}

func (r *Recorder) add(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}

func (r *Recorder) Play(s Sound) { r.add(Call{Op: "play", Name: string(s)}) }

func (r *Recorder) UpdateProximity(l Loop, level float64) {
	r.add(Call{Op: "proximity", Name: string(l), Level: clampLevel(level)})
}

func (r *Recorder) Start(l Loop) {
	r.mu.Lock()
	r.playing[l] = true
	r.mu.Unlock()
	r.add(Call{Op: "start", Name: string(l)})
}

func (r *Recorder) Stop(l Loop) {
	r.mu.Lock()
	delete(r.playing, l)
	r.mu.Unlock()
	r.add(Call{Op: "stop", Name: string(l)})
}

// Calls копия записанных команд
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// Played сколько раз проигран звук s
func (r *Recorder) Played(s Sound) int {
	n := 0
	for _, c := range r.Calls() {
		if c.Op == "play" && c.Name == string(s) {
			n++
		}
	}
	return n
}

// Playing зацикленный звук запущен
func (r *Recorder) Playing(l Loop) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playing[l]
}

// Reset очищает журнал
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.calls = nil
	r.mu.Unlock()
}

// LogSink пишет команды в лог (headless клиент)
type LogSink struct {
	Logger *logging.Logger
}

func (s LogSink) Play(snd Sound) { s.Logger.Trace("♪ %s", snd) }

func (s LogSink) UpdateProximity(l Loop, level float64) {
	s.Logger.Trace("♪ %s близость %.2f", l, clampLevel(level))
}

func (s LogSink) Start(l Loop) { s.Logger.Debug("♪ start %s", l) }

func (s LogSink) Stop(l Loop) { s.Logger.Debug("♪ stop %s", l) }

func clampLevel(level float64) float64 {
	if level != level || level < 0 {
		return 0
	}
	if level > 1 {
		return 1
	}
	return level
}

// ProximityLevel уровень близости по расстоянию: 1 вплотную, 0 за radius
func ProximityLevel(dist, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	return clampLevel(1 - dist/radius)
}
