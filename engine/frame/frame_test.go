package frame

import (
	"errors"
	"slices"
	"testing"
)

// recorder builds stages that append their name to a shared log.
type recorder struct {
	log  []StageName
	fail StageName
}

func (r *recorder) stage(name StageName) Stage {
	return StageFunc(name, func(f *Frame) error {
		r.log = append(r.log, name)
		if name == r.fail {
			return errors.New("device lost")
		}
		return nil
	})
}

func (r *recorder) all(names ...StageName) []Stage {
	out := make([]Stage, len(names))
	for i, n := range names {
		out[i] = r.stage(n)
	}
	return out
}

func TestNewGraphOrdersStages(t *testing.T) {
	r := &recorder{}
	reversed := slices.Clone(Order)
	slices.Reverse(reversed)

	g, err := NewGraph(r.all(reversed...)...)
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}
	if !slices.Equal(g.Stages(), Order) {
		t.Errorf("Stages() = %v, want %v", g.Stages(), Order)
	}
	if err := g.SubmitFrame(1, 0.016); err != nil {
		t.Fatalf("SubmitFrame: %v", err)
	}
	if !slices.Equal(r.log, Order) {
		t.Errorf("executed %v, want %v", r.log, Order)
	}
}

func TestNewGraphErrors(t *testing.T) {
	r := &recorder{}
	tests := []struct {
		name   string
		stages []Stage
		want   error
	}{
		{"missing present", r.all(Order[:4]...), ErrMissingStage},
		{"duplicate geometry", append(r.all(Order...), r.stage(StageGeometry)), ErrDuplicateStage},
		{"unknown stage", append(r.all(Order...), r.stage("bloom")), ErrUnknownStage},
		{"empty", nil, ErrMissingStage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGraph(tt.stages...); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubmitFrameAbortsOnError(t *testing.T) {
	r := &recorder{fail: StageGeometry}
	g, err := NewGraph(r.all(Order...)...)
	if err != nil {
		t.Fatal(err)
	}
	err = g.SubmitFrame(0, 0)
	if err == nil || err.Error() != "frame 0: stage geometry: device lost" {
		t.Errorf("err = %v", err)
	}
	if want := Order[:3]; !slices.Equal(r.log, want) {
		t.Errorf("executed %v, want %v", r.log, want)
	}
	if g.Frames() != 1 {
		t.Errorf("Frames() = %d, want 1", g.Frames())
	}
}

func TestSubmitFramePassesFrameState(t *testing.T) {
	var seen []Frame
	stages := make([]Stage, len(Order))
	for i, n := range Order {
		stages[i] = StageFunc(n, func(f *Frame) error {
			if n == StageAdvanceLights {
				seen = append(seen, *f)
			}
			return nil
		})
	}
	g, err := NewGraph(stages...)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 3 {
		if err := g.SubmitFrame(float32(i)*0.5, 0.5); err != nil {
			t.Fatal(err)
		}
	}
	want := []Frame{{0, 0, 0.5}, {1, 0.5, 0.5}, {2, 1, 0.5}}
	if !slices.Equal(seen, want) {
		t.Errorf("frames = %+v, want %+v", seen, want)
	}
	if g.Frames() != 3 {
		t.Errorf("Frames() = %d, want 3", g.Frames())
	}
}
