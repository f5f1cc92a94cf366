//go:build darwin

package beep

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
)

var audio *malgo.AllocatedContext

func open() error {
	var err error
	audio, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	return err
}

// output plays pcm on a fresh playback device, so a device lost across
// sleep/wake is never reused, and returns once it drained.
func output(pcm []int16) {
	cfg := malgo.DefaultDeviceConfig(malgo.Playback)
	cfg.Playback.Format = malgo.FormatS16
	cfg.Playback.Channels = 1
	cfg.SampleRate = sampleRate

	pos := 0
	drained := make(chan struct{})
	var once sync.Once
	dev, err := malgo.InitDevice(audio.Context, cfg, malgo.DeviceCallbacks{
		Data: func(out, _ []byte, frames uint32) {
			n := 0
			for ; n < int(frames) && pos < len(pcm); n++ {
				binary.LittleEndian.PutUint16(out[n*2:], uint16(pcm[pos]))
				pos++
			}
			clear(out[n*2:])
			// the previous buffer has been consumed once a callback finds nothing left
			if n == 0 {
				once.Do(func() { close(drained) })
			}
		},
	})
	if err != nil {
		return
	}
	defer dev.Uninit()
	if err := dev.Start(); err != nil {
		return
	}
	select {
	case <-drained:
	case <-time.After(time.Second):
	}
	dev.Stop()
}
