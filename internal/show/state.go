package show

// Mode selects how correct answers convert to points.
type Mode string

const (
	ModePub            Mode = "pub"
	ModePooled         Mode = "pooled"
	ModePooledAdaptive Mode = "pooled-adaptive"
)

// Team is one scoreboard entry, unique by ShowTeamID within a show.
type Team struct {
	ShowTeamID string  `json:"showTeamId"`
	Name       string  `json:"teamName"`
	ShowBonus  float64 `json:"showBonus"`
	IsLeague   bool    `json:"isLeague"`
}

// Cell is the graded state of one team's answer to one question. A cell
// exists only once something has been written to it; absence means ungraded.
type Cell struct {
	// IsCorrect is tri-state: nil means not yet graded.
	IsCorrect          *bool    `json:"isCorrect,omitempty"`
	QuestionBonus      float64  `json:"questionBonus,omitempty"`
	OverridePoints     *float64 `json:"overridePoints,omitempty"`
	TiebreakerGuessRaw string   `json:"tiebreakerGuessRaw,omitempty"`
	TiebreakerGuess    *float64 `json:"tiebreakerGuess,omitempty"`
}

// Graded reports whether the cell has a definite correct/incorrect mark.
func (c Cell) Graded() bool { return c.IsCorrect != nil }

// Grid maps showTeamId -> showQuestionId -> Cell.
type Grid map[string]map[string]Cell

// Question is the scoring-relevant view of one question. Points, when set,
// overrides the show-wide pub value for this question only.
type Question struct {
	ShowQuestionID string   `json:"showQuestionId"`
	Text           string   `json:"text,omitempty"`
	Answer         string   `json:"answer,omitempty"`
	Points         *float64 `json:"points,omitempty"`
	IsTiebreaker   bool     `json:"isTiebreaker,omitempty"`
}

// Tiebreaker is a host-authored question attached to a round at runtime.
// At most one per round; it joins the round's question set for display and
// tiebreak resolution but never contributes to totals.
type Tiebreaker struct {
	ShowQuestionID string  `json:"showQuestionId"`
	Text           string  `json:"text"`
	Answer         float64 `json:"answer"`
}

// QuestionEdit captures a host's runtime edits to a content-supplied
// question. Nil fields are untouched.
type QuestionEdit struct {
	Text   *string  `json:"text,omitempty"`
	Answer *string  `json:"answer,omitempty"`
	Points *float64 `json:"points,omitempty"`
}

// HostInfo is show-night metadata edited freely by the hosts.
type HostInfo struct {
	Host          string `json:"host,omitempty"`
	CoHost        string `json:"cohost,omitempty"`
	Location      string `json:"location,omitempty"`
	TotalGames    int    `json:"totalGames,omitempty"`
	StartTimes    string `json:"startTimes,omitempty"`
	Announcements string `json:"announcements,omitempty"`
}

// State is the canonical scoring state of one show.
type State struct {
	ShowID        string                  `json:"showId"`
	Teams         map[string]Team         `json:"teams"`
	EntryOrder    []string                `json:"entryOrder"`
	Grid          Grid                    `json:"grid"`
	Tiebreakers   map[string]Tiebreaker   `json:"tiebreakers"`
	QuestionEdits map[string]QuestionEdit `json:"questionEdits"`
	HostInfo      HostInfo                `json:"hostInfo"`
	// Prizes is newline-joined prize text, one prize per line.
	Prizes string `json:"prizes"`

	ScoringMode      Mode    `json:"scoringMode"`
	PubPoints        float64 `json:"pubPoints"`
	PoolPerQuestion  float64 `json:"poolPerQuestion"`
	PoolContribution float64 `json:"poolContribution"`
}

// NewState returns a defaulted state for a show that has not been hydrated
// or seeded yet.
func NewState(showID string) State {
	return State{
		ShowID:           showID,
		Teams:            map[string]Team{},
		EntryOrder:       []string{},
		Grid:             Grid{},
		Tiebreakers:      map[string]Tiebreaker{},
		QuestionEdits:    map[string]QuestionEdit{},
		ScoringMode:      ModePub,
		PubPoints:        10,
		PoolPerQuestion:  100,
		PoolContribution: 10,
	}
}

// Clone returns a deep copy. Reducers clone before mutating so every State
// value handed out stays immutable from the holder's point of view.
func (s State) Clone() State {
	out := s
	out.Teams = make(map[string]Team, len(s.Teams))
	for id, t := range s.Teams {
		out.Teams[id] = t
	}
	out.EntryOrder = append([]string(nil), s.EntryOrder...)
	out.Grid = make(Grid, len(s.Grid))
	for teamID, row := range s.Grid {
		cp := make(map[string]Cell, len(row))
		for qid, cell := range row {
			cp[qid] = cloneCell(cell)
		}
		out.Grid[teamID] = cp
	}
	out.Tiebreakers = make(map[string]Tiebreaker, len(s.Tiebreakers))
	for rid, tb := range s.Tiebreakers {
		out.Tiebreakers[rid] = tb
	}
	out.QuestionEdits = make(map[string]QuestionEdit, len(s.QuestionEdits))
	for qid, qe := range s.QuestionEdits {
		out.QuestionEdits[qid] = cloneQuestionEdit(qe)
	}
	return out
}

func cloneCell(c Cell) Cell {
	if c.IsCorrect != nil {
		v := *c.IsCorrect
		c.IsCorrect = &v
	}
	if c.OverridePoints != nil {
		v := *c.OverridePoints
		c.OverridePoints = &v
	}
	if c.TiebreakerGuess != nil {
		v := *c.TiebreakerGuess
		c.TiebreakerGuess = &v
	}
	return c
}

func cloneQuestionEdit(e QuestionEdit) QuestionEdit {
	if e.Text != nil {
		v := *e.Text
		e.Text = &v
	}
	if e.Answer != nil {
		v := *e.Answer
		e.Answer = &v
	}
	if e.Points != nil {
		v := *e.Points
		e.Points = &v
	}
	return e
}

// Cell returns the cell for (team, question); the zero Cell when ungraded.
func (s State) Cell(teamID, questionID string) Cell {
	return s.Grid[teamID][questionID]
}

// setCell writes a cell, creating the team's row on first write. Callers
// must hold a cloned State.
func (s *State) setCell(teamID, questionID string, c Cell) {
	row := s.Grid[teamID]
	if row == nil {
		row = map[string]Cell{}
		s.Grid[teamID] = row
	}
	row[questionID] = c
}

// EditedQuestions returns qs with any host QuestionEdits applied, in the
// same order. The input slice is not modified.
func (s State) EditedQuestions(qs []Question) []Question {
	out := append([]Question(nil), qs...)
	for i, q := range out {
		e, ok := s.QuestionEdits[q.ShowQuestionID]
		if !ok {
			continue
		}
		if e.Text != nil {
			out[i].Text = *e.Text
		}
		if e.Answer != nil {
			out[i].Answer = *e.Answer
		}
		if e.Points != nil {
			v := *e.Points
			out[i].Points = &v
		}
	}
	return out
}

// Patch is a shallow field-level merge into a show's state. Nil fields are
// left untouched; non-nil fields replace wholesale.
type Patch struct {
	Teams            map[string]Team
	EntryOrder       []string
	Grid             Grid
	Tiebreakers      map[string]Tiebreaker
	HostInfo         *HostInfo
	Prizes           *string
	ScoringMode      *Mode
	PubPoints        *float64
	PoolPerQuestion  *float64
	PoolContribution *float64
}

// Merge applies p on top of s, returning the merged copy.
func (s State) Merge(p Patch) State {
	out := s.Clone()
	if p.Teams != nil {
		out.Teams = p.Teams
	}
	if p.EntryOrder != nil {
		out.EntryOrder = p.EntryOrder
	}
	if p.Grid != nil {
		out.Grid = p.Grid
	}
	if p.Tiebreakers != nil {
		out.Tiebreakers = p.Tiebreakers
	}
	if p.HostInfo != nil {
		out.HostInfo = *p.HostInfo
	}
	if p.Prizes != nil {
		out.Prizes = *p.Prizes
	}
	if p.ScoringMode != nil {
		out.ScoringMode = *p.ScoringMode
	}
	if p.PubPoints != nil {
		out.PubPoints = *p.PubPoints
	}
	if p.PoolPerQuestion != nil {
		out.PoolPerQuestion = *p.PoolPerQuestion
	}
	if p.PoolContribution != nil {
		out.PoolContribution = *p.PoolContribution
	}
	return out
}
