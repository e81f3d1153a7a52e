package tts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// Duration estimates the playing time of a.
func Duration(a *Audio) (time.Duration, error) {
	switch a.Format {
	case FormatMP3:
		return mp3Duration(a.Data)
	case FormatWAV:
		return wavDuration(a.Data)
	}
	return 0, fmt.Errorf("unknown format %q", a.Format)
}

func mp3Duration(data []byte) (time.Duration, error) {
	d, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode mp3: %w", err)
	}
	// go-mp3 always decodes to 16-bit stereo.
	const bytesPerFrame = 4
	frames := d.Length() / bytesPerFrame
	if frames <= 0 || d.SampleRate() <= 0 {
		return 0, errors.New("empty mp3 stream")
	}
	return time.Duration(frames) * time.Second / time.Duration(d.SampleRate()), nil
}

// wavDuration walks the RIFF chunks for the byte rate and the start of the
// data chunk. The data length is taken from the buffer since streamed
// WAVs carry a placeholder size.
func wavDuration(data []byte) (time.Duration, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, errors.New("not a RIFF/WAVE stream")
	}
	var byteRate uint32
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		switch id {
		case "fmt ":
			if body+12 > len(data) {
				return 0, errors.New("truncated fmt chunk")
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			if byteRate == 0 {
				return 0, errors.New("data chunk before fmt chunk")
			}
			n := int64(len(data) - body)
			return time.Duration(n) * time.Second / time.Duration(byteRate), nil
		}
		if size < 0 || body+size > len(data) {
			break
		}
		pos = body + size + size%2
	}
	return 0, errors.New("no data chunk")
}
