// Package scoring derives point totals, rankings, and solo detections from a
// show's grid. Everything here is pure: no I/O, no shared state, and no
// error paths — bad numeric input degrades to zero instead of failing.
package scoring

import (
	"math"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

// Config is the scoring rule set in effect for one round.
type Config struct {
	Mode             show.Mode
	PubPoints        float64
	PoolPerQuestion  float64
	PoolContribution float64
	// TeamCount feeds pooled-adaptive mode. For that mode it must be the
	// count of teams active in the round, not the show-wide roster size.
	TeamCount int
}

// FromState builds the rule set for a round. questions are the round's
// questions (tiebreakers included or not; only graded cells matter for the
// active-team count).
func FromState(st show.State, questions []show.Question) Config {
	cfg := Config{
		Mode:             st.ScoringMode,
		PubPoints:        sanitize(st.PubPoints),
		PoolPerQuestion:  sanitize(st.PoolPerQuestion),
		PoolContribution: sanitize(st.PoolContribution),
		TeamCount:        len(st.Teams),
	}
	if cfg.Mode == show.ModePooledAdaptive {
		cfg.TeamCount = ActiveTeamCount(st.Grid, teamIDs(st), questions)
	}
	return cfg
}

func teamIDs(st show.State) []string {
	ids := make([]string, 0, len(st.Teams))
	for id := range st.Teams {
		ids = append(ids, id)
	}
	return ids
}

// AnsweredAll reports whether every listed team has a definite mark for the
// question.
func AnsweredAll(grid show.Grid, teamIDs []string, questionID string) bool {
	if len(teamIDs) == 0 {
		return false
	}
	for _, id := range teamIDs {
		if !grid[id][questionID].Graded() {
			return false
		}
	}
	return true
}

// CorrectCount counts teams marked correct for the question.
func CorrectCount(grid show.Grid, teamIDs []string, questionID string) int {
	n := 0
	for _, id := range teamIDs {
		c := grid[id][questionID]
		if c.IsCorrect != nil && *c.IsCorrect {
			n++
		}
	}
	return n
}

// ActiveTeamCount counts teams with at least one graded cell among the
// round's questions. Pooled-adaptive pools scale by this, so a team that
// skipped the round doesn't inflate the pot.
func ActiveTeamCount(grid show.Grid, teamIDs []string, questions []show.Question) int {
	n := 0
	for _, id := range teamIDs {
		for _, q := range questions {
			if grid[id][q.ShowQuestionID].Graded() {
				n++
				break
			}
		}
	}
	return n
}

// CellPoints computes the points one cell is worth. An override replaces
// the automatic value and makes the cell count as correct regardless of its
// mark; otherwise an unmarked or wrong cell is worth nothing.
func CellPoints(cell show.Cell, q show.Question, cfg Config, correctCount int) float64 {
	bonus := sanitize(cell.QuestionBonus)
	if cell.OverridePoints != nil {
		return sanitize(*cell.OverridePoints) + bonus
	}
	if cell.IsCorrect == nil || !*cell.IsCorrect {
		return 0
	}
	return autoEarned(q, cfg, correctCount) + bonus
}

func autoEarned(q show.Question, cfg Config, correctCount int) float64 {
	if correctCount < 1 {
		correctCount = 1
	}
	switch cfg.Mode {
	case show.ModePooled:
		return math.Round(cfg.PoolPerQuestion / float64(correctCount))
	case show.ModePooledAdaptive:
		pool := float64(cfg.TeamCount) * cfg.PoolContribution
		return math.Round(pool / float64(correctCount))
	default: // pub
		if q.Points != nil {
			return sanitize(*q.Points)
		}
		return cfg.PubPoints
	}
}

// TeamTotal sums a team's cell points over the given questions plus its
// one-time show bonus. Tiebreaker questions never contribute.
func TeamTotal(team show.Team, questions []show.Question, grid show.Grid, teamIDs []string, cfg Config) float64 {
	total := sanitize(team.ShowBonus)
	for _, q := range questions {
		if q.IsTiebreaker {
			continue
		}
		cell, ok := grid[team.ShowTeamID][q.ShowQuestionID]
		if !ok {
			continue
		}
		total += CellPoints(cell, q, cfg, CorrectCount(grid, teamIDs, q.ShowQuestionID))
	}
	return total
}

// Totals computes every team's total for the given questions under cfg.
func Totals(teams map[string]show.Team, questions []show.Question, grid show.Grid, cfg Config) map[string]float64 {
	ids := make([]string, 0, len(teams))
	for id := range teams {
		ids = append(ids, id)
	}
	out := make(map[string]float64, len(teams))
	for id, t := range teams {
		out[id] = TeamTotal(t, questions, grid, ids, cfg)
	}
	return out
}

// Solo returns the single team that answered the question correctly, but
// only once every team has been graded for it. With ungraded teams, or with
// zero or multiple correct answers, there is no solo.
func Solo(grid show.Grid, teamIDs []string, questionID string) (string, bool) {
	if !AnsweredAll(grid, teamIDs, questionID) {
		return "", false
	}
	soloID := ""
	for _, id := range teamIDs {
		c := grid[id][questionID]
		if c.IsCorrect != nil && *c.IsCorrect {
			if soloID != "" {
				return "", false
			}
			soloID = id
		}
	}
	return soloID, soloID != ""
}

// sanitize maps NaN/Inf to zero so malformed numbers never poison a total.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
