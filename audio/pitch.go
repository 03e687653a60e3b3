// SPDX-License-Identifier: EPL-2.0

package audio

// PitchReader changes the reported sample rate of a reader by a pitch
// factor. A Resampler placed after it turns that into an audible pitch
// shift. It is not safe for concurrent use.
type PitchReader struct {
	Reader
	pitch float32
}

func NewPitchReader(r Reader, pitch float32) *PitchReader {
	return &PitchReader{Reader: r, pitch: pitch}
}

func (p *PitchReader) Pitch() float32 { return p.pitch }

func (p *PitchReader) SetPitch(pitch float32) {
	if pitch > 0 {
		p.pitch = pitch
	}
}

func (p *PitchReader) Specs() Specs {
	s := p.Reader.Specs()
	s.Rate *= float64(p.pitch)
	return s
}
