package chime

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/ayusman/garland/internal/gesture"
)

func TestFrequencyDistinct(t *testing.T) {
	seen := map[float64]gesture.Gesture{}
	for _, g := range gesture.All {
		f := Frequency(g)
		if other, ok := seen[f]; ok {
			t.Errorf("%s and %s share %f Hz", g, other, f)
		}
		seen[f] = g
	}
}

func TestToneStream(t *testing.T) {
	rate := beep.SampleRate(44100)
	tone := NewTone(rate, 440, 100*time.Millisecond)

	if tone.Len() != rate.N(100*time.Millisecond) {
		t.Fatalf("Len() = %d, want %d", tone.Len(), rate.N(100*time.Millisecond))
	}

	samples := make([][2]float64, 512)
	total := 0
	peak := 0.0
	for {
		n, ok := tone.Stream(samples)
		if !ok {
			break
		}
		for i := 0; i < n; i++ {
			if samples[i][0] != samples[i][1] {
				t.Fatalf("sample %d is not mono: %v", total+i, samples[i])
			}
			peak = math.Max(peak, math.Abs(samples[i][0]))
		}
		total += n
	}

	if total != tone.Len() {
		t.Errorf("streamed %d samples, want %d", total, tone.Len())
	}
	if peak > Volume || peak == 0 {
		t.Errorf("peak = %f, want in (0, %f]", peak, Volume)
	}
	if tone.Err() != nil {
		t.Errorf("Err() = %v", tone.Err())
	}
}

func TestToneStartsSilent(t *testing.T) {
	tone := NewTone(SampleRate, 523.25, Duration)
	samples := make([][2]float64, 1)
	tone.Stream(samples)
	if samples[0][0] != 0 {
		t.Errorf("first sample = %f, want 0", samples[0][0])
	}
}

func TestPlayerUninitializedIsSilent(t *testing.T) {
	logger, _ := test.NewNullLogger()
	p := NewPlayer(logger)

	p.OnGesture(gesture.Idle, gesture.Fist)
	p.Play(gesture.Open)
	p.Close()

	if p.Played() != 0 {
		t.Errorf("Played() = %d, want 0 without a speaker", p.Played())
	}
}
