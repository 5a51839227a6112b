package scoring

import (
	"math"
	"testing"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

func boolp(v bool) *bool { return &v }

func f64p(v float64) *float64 { return &v }

func q(id string) show.Question { return show.Question{ShowQuestionID: id} }

func gridOf(cells map[string]map[string]show.Cell) show.Grid {
	g := show.Grid{}
	for team, row := range cells {
		g[team] = row
	}
	return g
}

func TestCellPoints(t *testing.T) {
	cases := []struct {
		name         string
		cell         show.Cell
		question     show.Question
		cfg          Config
		correctCount int
		want         float64
	}{
		{
			name:     "pub mode correct with bonus",
			cell:     show.Cell{IsCorrect: boolp(true), QuestionBonus: 5},
			question: q("q1"),
			cfg:      Config{Mode: show.ModePub, PubPoints: 10},
			want:     15,
		},
		{
			name:     "pub mode per-question override beats show default",
			cell:     show.Cell{IsCorrect: boolp(true)},
			question: show.Question{ShowQuestionID: "q1", Points: f64p(25)},
			cfg:      Config{Mode: show.ModePub, PubPoints: 10},
			want:     25,
		},
		{
			name:     "incorrect earns nothing even with bonus",
			cell:     show.Cell{IsCorrect: boolp(false), QuestionBonus: 5},
			question: q("q1"),
			cfg:      Config{Mode: show.ModePub, PubPoints: 10},
			want:     0,
		},
		{
			name:     "ungraded earns nothing",
			cell:     show.Cell{},
			question: q("q1"),
			cfg:      Config{Mode: show.ModePub, PubPoints: 10},
			want:     0,
		},
		{
			name:     "override forces points on unanswered cell",
			cell:     show.Cell{OverridePoints: f64p(7), QuestionBonus: 2},
			question: q("q1"),
			cfg:      Config{Mode: show.ModePub, PubPoints: 10},
			want:     9,
		},
		{
			name:         "pooled splits among correct teams",
			cell:         show.Cell{IsCorrect: boolp(true)},
			question:     q("q1"),
			cfg:          Config{Mode: show.ModePooled, PoolPerQuestion: 100},
			correctCount: 3,
			want:         33,
		},
		{
			name:         "pooled never divides by zero",
			cell:         show.Cell{IsCorrect: boolp(true)},
			question:     q("q1"),
			cfg:          Config{Mode: show.ModePooled, PoolPerQuestion: 100},
			correctCount: 0,
			want:         100,
		},
		{
			name:         "pooled-adaptive scales pool by active teams",
			cell:         show.Cell{IsCorrect: boolp(true)},
			question:     q("q1"),
			cfg:          Config{Mode: show.ModePooledAdaptive, PoolContribution: 15, TeamCount: 4},
			correctCount: 2,
			want:         30,
		},
		{
			name:     "NaN bonus coerces to zero",
			cell:     show.Cell{IsCorrect: boolp(true), QuestionBonus: math.NaN()},
			question: q("q1"),
			cfg:      Config{Mode: show.ModePub, PubPoints: 10},
			want:     10,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CellPoints(tc.cell, tc.question, tc.cfg, tc.correctCount)
			if got != tc.want {
				t.Fatalf("CellPoints: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCellPoints_NonNegative(t *testing.T) {
	cfgs := []Config{
		{Mode: show.ModePub, PubPoints: 10},
		{Mode: show.ModePooled, PoolPerQuestion: 100},
		{Mode: show.ModePooledAdaptive, PoolContribution: 15, TeamCount: 6},
	}
	cells := []show.Cell{
		{},
		{IsCorrect: boolp(true)},
		{IsCorrect: boolp(false), QuestionBonus: 3},
		{IsCorrect: boolp(true), QuestionBonus: 4},
		{OverridePoints: f64p(7), QuestionBonus: 1},
	}
	for _, cfg := range cfgs {
		for _, cell := range cells {
			for k := 0; k <= 4; k++ {
				if got := CellPoints(cell, q("q1"), cfg, k); got < 0 {
					t.Fatalf("negative points %v for cell %+v cfg %+v k=%d", got, cell, cfg, k)
				}
			}
		}
	}
}

func TestPooledAdaptive_PoolFixedPerRound(t *testing.T) {
	// The per-team award moves with correctCount, but teamCount*contribution
	// is the whole pot: summing the award over the correct teams must land
	// within rounding distance of it regardless of the split.
	cfg := Config{Mode: show.ModePooledAdaptive, PoolContribution: 15, TeamCount: 4}
	pool := float64(cfg.TeamCount) * cfg.PoolContribution
	for k := 1; k <= cfg.TeamCount; k++ {
		each := CellPoints(show.Cell{IsCorrect: boolp(true)}, q("q1"), cfg, k)
		total := each * float64(k)
		if math.Abs(total-pool) > float64(k) {
			t.Fatalf("k=%d: distributed %v, pool %v", k, total, pool)
		}
	}
}

func TestAnsweredAllAndCorrectCount(t *testing.T) {
	teams := []string{"t1", "t2", "t3"}
	g := gridOf(map[string]map[string]show.Cell{
		"t1": {"q1": {IsCorrect: boolp(true)}},
		"t2": {"q1": {IsCorrect: boolp(false)}},
	})

	if AnsweredAll(g, teams, "q1") {
		t.Fatalf("t3 is ungraded; AnsweredAll should be false")
	}
	if got := CorrectCount(g, teams, "q1"); got != 1 {
		t.Fatalf("CorrectCount: got %d, want 1", got)
	}

	g["t3"] = map[string]show.Cell{"q1": {IsCorrect: boolp(false)}}
	if !AnsweredAll(g, teams, "q1") {
		t.Fatalf("all graded; AnsweredAll should be true")
	}
}

func TestSolo(t *testing.T) {
	teams := []string{"t1", "t2", "t3"}

	g := gridOf(map[string]map[string]show.Cell{
		"t1": {"q1": {IsCorrect: boolp(true)}},
		"t2": {"q1": {IsCorrect: boolp(false)}},
	})
	if _, ok := Solo(g, teams, "q1"); ok {
		t.Fatalf("no solo while a team is ungraded, even with one correct answer")
	}

	g["t3"] = map[string]show.Cell{"q1": {IsCorrect: boolp(false)}}
	id, ok := Solo(g, teams, "q1")
	if !ok || id != "t1" {
		t.Fatalf("want solo t1, got %q ok=%v", id, ok)
	}

	g["t2"]["q1"] = show.Cell{IsCorrect: boolp(true)}
	if _, ok := Solo(g, teams, "q1"); ok {
		t.Fatalf("two correct teams is not a solo")
	}
}

func TestPlacement_TiesUseUpRankSlots(t *testing.T) {
	places := Placement(map[string]float64{"A": 30, "B": 30, "C": 20})
	want := map[string]int{"A": 1, "B": 1, "C": 3}
	for id, p := range want {
		if places[id] != p {
			t.Fatalf("place[%s]: got %d, want %d (full: %v)", id, places[id], p, places)
		}
	}
}

func TestPlacement_AllDistinct(t *testing.T) {
	places := Placement(map[string]float64{"A": 5, "B": 15, "C": 10})
	want := map[string]int{"B": 1, "C": 2, "A": 3}
	for id, p := range want {
		if places[id] != p {
			t.Fatalf("place[%s]: got %d, want %d", id, places[id], p)
		}
	}
}

func TestPooledEndToEnd(t *testing.T) {
	teams := map[string]show.Team{
		"T1": {ShowTeamID: "T1", Name: "Alpha", ShowBonus: 5},
		"T2": {ShowTeamID: "T2", Name: "Beta"},
	}
	questions := []show.Question{q("Q1")}
	g := gridOf(map[string]map[string]show.Cell{
		"T1": {"Q1": {IsCorrect: boolp(true)}},
		"T2": {"Q1": {IsCorrect: boolp(true)}},
	})
	cfg := Config{Mode: show.ModePooled, PoolPerQuestion: 100, TeamCount: 2}

	totals := Totals(teams, questions, g, cfg)
	if totals["T1"] != 55 || totals["T2"] != 50 {
		t.Fatalf("totals: got %v, want T1=55 T2=50", totals)
	}

	places := Placement(totals)
	if places["T1"] != 1 || places["T2"] != 2 {
		t.Fatalf("places: got %v, want T1=1 T2=2", places)
	}
}

func TestTeamTotal_SkipsTiebreakers(t *testing.T) {
	team := show.Team{ShowTeamID: "T1"}
	questions := []show.Question{
		q("Q1"),
		{ShowQuestionID: "TB1", IsTiebreaker: true},
	}
	g := gridOf(map[string]map[string]show.Cell{
		"T1": {
			"Q1":  {IsCorrect: boolp(true)},
			"TB1": {IsCorrect: boolp(true)},
		},
	})
	cfg := Config{Mode: show.ModePub, PubPoints: 10}
	if got := TeamTotal(team, questions, g, []string{"T1"}, cfg); got != 10 {
		t.Fatalf("TeamTotal: got %v, want 10 (tiebreaker must not score)", got)
	}
}

func TestFromState_AdaptiveUsesRoundActiveTeams(t *testing.T) {
	st := show.NewState("s1")
	st.ScoringMode = show.ModePooledAdaptive
	st.PoolContribution = 15
	st.Teams = map[string]show.Team{
		"t1": {ShowTeamID: "t1"},
		"t2": {ShowTeamID: "t2"},
		"t3": {ShowTeamID: "t3"},
	}
	st.Grid = gridOf(map[string]map[string]show.Cell{
		"t1": {"q1": {IsCorrect: boolp(true)}},
		"t2": {"q1": {IsCorrect: boolp(false)}},
		// t3 never graded this round
	})

	cfg := FromState(st, []show.Question{q("q1")})
	if cfg.TeamCount != 2 {
		t.Fatalf("adaptive TeamCount: got %d, want 2 round-active teams", cfg.TeamCount)
	}

	st.ScoringMode = show.ModePooled
	cfg = FromState(st, []show.Question{q("q1")})
	if cfg.TeamCount != 3 {
		t.Fatalf("pooled TeamCount: got %d, want full roster 3", cfg.TeamCount)
	}
}
