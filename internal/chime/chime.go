// Package chime plays a short tone whenever the recognized gesture changes.
package chime

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/garland/internal/gesture"
)

const (
	// SampleRate is the speaker rate.
	SampleRate = beep.SampleRate(44100)
	// Duration is the length of a single chime.
	Duration = 180 * time.Millisecond
	// Volume is the peak amplitude of a chime.
	Volume = 0.2
)

// Frequency returns the chime pitch for g in Hz. Every gesture gets its
// own note of a C major chord.
func Frequency(g gesture.Gesture) float64 {
	switch g {
	case gesture.Fist:
		return 523.25
	case gesture.Open:
		return 659.25
	case gesture.Pinch:
		return 783.99
	default:
		return 392.00
	}
}

// Tone is a sine wave with a short attack and an exponential decay.
type Tone struct {
	sr    beep.SampleRate
	freq  float64
	pos   int
	total int
}

// NewTone creates a tone of the given frequency and length.
func NewTone(sr beep.SampleRate, freq float64, d time.Duration) *Tone {
	return &Tone{sr: sr, freq: freq, total: sr.N(d)}
}

// Stream implements beep.Streamer.
func (t *Tone) Stream(samples [][2]float64) (n int, ok bool) {
	if t.pos >= t.total {
		return 0, false
	}
	attack := t.sr.N(5 * time.Millisecond)
	for i := range samples {
		if t.pos >= t.total {
			return i, true
		}
		sec := float64(t.pos) / float64(t.sr)
		env := math.Exp(-6 * float64(t.pos) / float64(t.total))
		if t.pos < attack {
			env *= float64(t.pos) / float64(attack)
		}
		v := Volume * env * math.Sin(2*math.Pi*t.freq*sec)
		samples[i] = [2]float64{v, v}
		t.pos++
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (t *Tone) Err() error { return nil }

// Len is the tone length in samples.
func (t *Tone) Len() int { return t.total }

// Player mixes chimes into the system speaker. A Player whose speaker
// failed to start stays silent.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	played      int
	log         logrus.FieldLogger
}

// NewPlayer creates a silent player. Call Init to open the speaker.
func NewPlayer(logger logrus.FieldLogger) *Player {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Player{
		mixer: &beep.Mixer{},
		log:   logger.WithField("component", "chime"),
	}
}

// Init opens the speaker. Machines without audio return an error and the
// player stays silent.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}
	if err := speaker.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Play queues the chime for g.
func (p *Player) Play(g gesture.Gesture) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	tone := NewTone(SampleRate, Frequency(g), Duration)
	speaker.Lock()
	p.mixer.Add(beep.Take(tone.Len(), tone))
	speaker.Unlock()
	p.played++
}

// OnGesture plays the chime for next. Returning to IDLE is silent.
func (p *Player) OnGesture(prev, next gesture.Gesture) {
	if next == gesture.Idle || prev == next {
		return
	}
	p.log.WithField("gesture", next).Debug("chime")
	p.Play(next)
}

// Played counts the chimes queued so far.
func (p *Player) Played() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.played
}

// Close silences the player.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}
