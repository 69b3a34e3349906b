package progress

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/yungbote/pcmm-backend/internal/domain/pcmm"
)

func element(subs int) *types.Element {
	e := &types.Element{ID: uuid.New()}
	for i := 0; i < subs; i++ {
		e.Subelements = append(e.Subelements, types.Subelement{ID: uuid.New(), ElementID: e.ID})
	}
	return e
}

func TestMaxProgress(t *testing.T) {
	w := DefaultWeights()
	cases := []struct {
		name string
		f    Features
		want int
	}{
		{"all", Features{true, true, true}, 100},
		{"no planning", Features{true, true, false}, 80},
		{"evidence only", Features{Evidence: true}, 60},
		{"none", Features{}, 0},
	}
	for _, tc := range cases {
		if got := MaxProgress(tc.f, w); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestElementMaxSubscoreByMode(t *testing.T) {
	e := element(4)
	if got := ElementMaxSubscore(e, types.ModeDefault); got != 4 {
		t.Fatalf("default: expected 4, got %d", got)
	}
	if got := ElementMaxSubscore(e, types.ModeSimplified); got != 1 {
		t.Fatalf("simplified: expected 1, got %d", got)
	}
	if got := ElementMaxSubscore(nil, types.ModeDefault); got != 0 {
		t.Fatalf("nil: expected 0, got %d", got)
	}
}

func TestCoverage(t *testing.T) {
	e := element(3)
	foreign := types.SubelementTarget{SubelementID: uuid.New()}
	targets := []types.Target{
		types.ForSubelement(&e.Subelements[0]),
		types.ForSubelement(&e.Subelements[0]),
		types.ForSubelement(&e.Subelements[2]),
		foreign,
		types.ForElement(e),
	}
	if got := Coverage(e, types.ModeDefault, targets); got != 2 {
		t.Fatalf("default: expected 2 distinct subelements, got %d", got)
	}
	if got := Coverage(e, types.ModeSimplified, targets); got != 1 {
		t.Fatalf("simplified: expected 1, got %d", got)
	}
	if got := Coverage(e, types.ModeSimplified, targets[:4]); got != 0 {
		t.Fatalf("simplified without element rows: expected 0, got %d", got)
	}
}

func TestScore(t *testing.T) {
	w := DefaultWeights()
	all := Features{true, true, true}
	cases := []struct {
		name  string
		parts Parts
		f     Features
		want  int
	}{
		{"complete", Parts{Part{4, 4}, Part{4, 4}, Part{2, 2}}, all, 100},
		{"half evidence", Parts{Part{2, 4}, Part{}, Part{}}, all, 30},
		// 1/3*60 + 1/3*20 = 26.67
		{"thirds round up", Parts{Part{1, 3}, Part{1, 3}, Part{0, 3}}, all, 27},
		// 1/8*20 = 2.5
		{"half rounds up", Parts{Part{}, Part{1, 8}, Part{}}, all, 3},
		{"zero max contributes zero", Parts{Part{3, 0}, Part{0, 0}, Part{0, 0}}, all, 0},
		{"disabled feature ignored", Parts{Part{4, 4}, Part{4, 4}, Part{2, 2}}, Features{true, true, false}, 80},
	}
	for _, tc := range cases {
		if got := Score(tc.parts, tc.f, w); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestScoreBounds(t *testing.T) {
	w := DefaultWeights()
	for mask := 0; mask < 8; mask++ {
		f := Features{mask&1 != 0, mask&2 != 0, mask&4 != 0}
		ceiling := MaxProgress(f, w)
		for s := 0; s <= 6; s++ {
			for m := 0; m <= 5; m++ {
				p := Parts{Part{s, m}, Part{m - s, m}, Part{s, m + 1}}
				got := Score(p, f, w)
				if got < 0 || got > ceiling {
					t.Fatalf("score %d outside [0,%d] for %+v %+v", got, ceiling, p, f)
				}
			}
		}
	}
}

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Fatalf("empty: expected 0, got %d", got)
	}
	if got := Mean([]int{50, 51}); got != 50 {
		t.Fatalf("expected truncated 50, got %d", got)
	}
	if got := Mean([]int{100, 99, 99}); got != 99 {
		t.Fatalf("expected 99, got %d", got)
	}
}
