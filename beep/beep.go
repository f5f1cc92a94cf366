// Package beep plays short feedback tones: a tick when a hotkey fires and a
// low double beep when its action fails.
package beep

import (
	"math"
	"sync"
	"sync/atomic"
)

const sampleRate = 44100

// tone is a decaying sine played count times, gap seconds apart.
type tone struct {
	freq   float64
	volume float64
	decay  float64
	length float64
	gap    float64
	count  int
}

var (
	fireTone  = tone{freq: 1200, volume: 0.5, decay: 60, length: 0.05, count: 1}
	errorTone = tone{freq: 350, volume: 0.6, decay: 30, length: 0.08, gap: 0.05, count: 2}
)

// pcm renders t as mono signed 16-bit samples at sampleRate.
func (t tone) pcm() []int16 {
	n := int(sampleRate * t.length)
	gap := int(sampleRate * t.gap)
	out := make([]int16, 0, t.count*n+(t.count-1)*gap)
	for r := 0; r < t.count; r++ {
		if r > 0 {
			out = append(out, make([]int16, gap)...)
		}
		for i := 0; i < n; i++ {
			s := float64(i) / sampleRate
			out = append(out, int16(math.Sin(2*math.Pi*t.freq*s)*32767*t.volume*math.Exp(-s*t.decay)))
		}
	}
	return out
}

var (
	disabled atomic.Bool
	playing  atomic.Bool

	setupOnce    sync.Once
	ready        bool
	fireSamples  []int16
	errorSamples []int16
)

func Disable() { disabled.Store(true) }

// Init renders the tones and opens the audio output. Playing without Init
// does it on first use.
func Init() { setupOnce.Do(setup) }

func setup() {
	fireSamples = fireTone.pcm()
	errorSamples = errorTone.pcm()
	ready = open() == nil
}

func PlayFire()  { play(&fireSamples) }
func PlayError() { play(&errorSamples) }

// play starts a tone in the background. It is dropped while beeps are
// disabled, the output is unavailable, or another tone is still playing.
func play(samples *[]int16) {
	if disabled.Load() {
		return
	}
	Init()
	if !ready || !playing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer playing.Store(false)
		output(*samples)
	}()
}
