// SPDX-License-Identifier: EPL-2.0

package sequencer

import (
	"math"
	"slices"
	"testing"
)

func TestProperty_Constant(t *testing.T) {
	t.Parallel()

	p := NewProperty(3)
	p.WriteFrames(0, []float32{9, 9, 9, 8, 8, 8})
	p.Write(1, 2, 3)

	if p.Animated() {
		t.Fatal("Animated() = true after Write")
	}
	for _, pos := range []float32{-5, 0, 0.5, 1, 10.25, 1e6} {
		out := make([]float32, 3)
		p.Read(pos, out)
		if !slices.Equal(out, []float32{1, 2, 3}) {
			t.Errorf("Read(%v) = %v, want [1 2 3]", pos, out)
		}
	}
}

func TestProperty_DefaultValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		count int
		value []float32
		want  []float32
	}{
		{name: "zero", count: 2, want: []float32{0, 0}},
		{name: "partial", count: 3, value: []float32{4}, want: []float32{4, 0, 0}},
		{name: "full", count: 1, value: []float32{0.5}, want: []float32{0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := NewProperty(tt.count, tt.value...)
			out := make([]float32, tt.count)
			p.Read(3, out)
			if !slices.Equal(out, tt.want) {
				t.Errorf("Read() = %v, want %v", out, tt.want)
			}
		})
	}
}

func TestProperty_HoldsLastKnownFrame(t *testing.T) {
	t.Parallel()

	p := NewProperty(1, 5)
	p.WriteFrames(10, []float32{1, 2})

	if !p.Animated() {
		t.Fatal("Animated() = false after WriteFrames")
	}
	want := []float32{5, 5, 5, 5, 5, 5, 5, 5, 5, 5, 1, 2}
	if got := p.Values(); !slices.Equal(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}

	// a write inside the gap splits it; the frames after it hold the new value
	p.WriteFrames(4, []float32{9})
	want = []float32{5, 5, 5, 5, 9, 9, 9, 9, 9, 9, 1, 2}
	if got := p.Values(); !slices.Equal(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}

	// growing past the end holds the last frame
	p.WriteFrames(15, []float32{3})
	want = append(want, 2, 2, 2, 3)
	if got := p.Values(); !slices.Equal(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}

	for frame, v := range want {
		if got := p.scalar(float32(frame)); got != v {
			t.Errorf("frame %d = %v, want %v", frame, got, v)
		}
	}
}

func TestProperty_OverwriteKnownFrames(t *testing.T) {
	t.Parallel()

	p := NewProperty(2)
	p.WriteFrames(0, []float32{1, 1, 2, 2, 3, 3})
	p.WriteFrames(1, []float32{7, 8})

	want := []float32{1, 1, 7, 8, 3, 3}
	if got := p.Values(); !slices.Equal(got, want) {
		t.Fatalf("Values() = %v, want %v", got, want)
	}
	if p.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", p.Frames())
	}
}

func TestProperty_Interpolates(t *testing.T) {
	t.Parallel()

	p := NewProperty(1)
	p.WriteFrames(0, []float32{0, 1, 2, 3, 4})

	tests := []struct {
		pos  float32
		want float32
	}{
		{pos: -1, want: 0},
		{pos: 0, want: 0},
		{pos: 1.5, want: 1.5},
		{pos: 2, want: 2},
		{pos: 2.25, want: 2.25},
		{pos: 4, want: 4},
		{pos: 40, want: 4},
	}

	for _, tt := range tests {
		if got := p.scalar(tt.pos); math.Abs(float64(got-tt.want)) > 1e-6 {
			t.Errorf("Read(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestProperty_FlatSegmentsStayFlat(t *testing.T) {
	t.Parallel()

	p := NewProperty(3)
	p.WriteFrames(0, []float32{1, 2, 3, 1, 2, 3, 1, 2, 3})

	for _, pos := range []float32{0.1, 0.5, 1.3, 1.9} {
		v := p.vec3(pos)
		if v.X != 1 || v.Y != 2 || v.Z != 3 {
			t.Errorf("Read(%v) = %+v, want {1 2 3}", pos, v)
		}
	}
}

func TestProperty_IgnoresEmptyWrites(t *testing.T) {
	t.Parallel()

	p := NewProperty(2, 1, 1)
	p.WriteFrames(-1, []float32{5, 5})
	p.WriteFrames(0, []float32{5})

	if p.Animated() {
		t.Error("Animated() = true after rejected writes")
	}
}
