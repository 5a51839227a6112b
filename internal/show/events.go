package show

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrMissingField = errors.New("missing required field")
)

// Event names carried on the sync channel. Every connected host applies the
// same reducer for a given name, which is what keeps the caches converging.
const (
	EvtMark            = "mark"
	EvtCellEdit        = "cellEdit"
	EvtTeamBonus       = "teamBonus"
	EvtTeamAdd         = "teamAdd"
	EvtTeamRename      = "teamRename"
	EvtTeamRemove      = "teamRemove"
	EvtTBEdit          = "tbEdit"
	EvtPrizesUpdate    = "prizesUpdate"
	EvtHostInfoUpdate  = "hostInfoUpdate"
	EvtScoringSettings = "scoringSettingsUpdate"
	EvtQuestionEdit    = "questionEdit"
	EvtTiebreakerAdded = "tiebreakerAdded"
	EvtPing            = "ping"
)

// ScoringSettings is the payload body of a scoringSettingsUpdate.
type ScoringSettings struct {
	Mode             Mode `json:"scoringMode"`
	PubPoints        Flex `json:"pubPoints"`
	PoolPerQuestion  Flex `json:"poolPerQuestion"`
	PoolContribution Flex `json:"poolContribution"`
}

// Payload is the superset of fields any sync event can carry. Which fields
// are required depends on the event name; see the reducer table.
type Payload struct {
	ShowID     string `json:"showId"`
	TeamID     string `json:"showTeamId,omitempty"`
	QuestionID string `json:"showQuestionId,omitempty"`
	RoundID    string `json:"roundId,omitempty"`

	IsCorrect  *bool            `json:"isCorrect,omitempty"`
	Cell       *Cell            `json:"cell,omitempty"`
	Team       *Team            `json:"team,omitempty"`
	TeamName   string           `json:"teamName,omitempty"`
	Bonus      *Flex            `json:"bonus,omitempty"`
	GuessRaw   *string          `json:"guessRaw,omitempty"`
	Prizes     *string          `json:"prizes,omitempty"`
	HostInfo   *HostInfo        `json:"hostInfo,omitempty"`
	Scoring    *ScoringSettings `json:"scoring,omitempty"`
	Edit       *QuestionEdit    `json:"edit,omitempty"`
	Tiebreaker *Tiebreaker      `json:"tiebreaker,omitempty"`
}

type reducerFunc func(State, Payload) State

type reducer struct {
	validate func(Payload) error
	apply    reducerFunc
}

func need(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return nil
}

// reducers routes an event name to a validation step and a pure state
// transition. Transport and merge logic stay decoupled: the channel only
// knows names and payloads, this table owns the semantics.
var reducers = map[string]reducer{
	EvtMark: {
		validate: func(p Payload) error {
			if err := need("showTeamId", p.TeamID); err != nil {
				return err
			}
			return need("showQuestionId", p.QuestionID)
		},
		apply: func(s State, p Payload) State {
			c := s.Cell(p.TeamID, p.QuestionID)
			if p.IsCorrect == nil {
				c.IsCorrect = nil
			} else {
				v := *p.IsCorrect
				c.IsCorrect = &v
			}
			s.setCell(p.TeamID, p.QuestionID, c)
			return s
		},
	},
	EvtCellEdit: {
		validate: func(p Payload) error {
			if err := need("showTeamId", p.TeamID); err != nil {
				return err
			}
			if err := need("showQuestionId", p.QuestionID); err != nil {
				return err
			}
			if p.Cell == nil {
				return fmt.Errorf("%w: cell", ErrMissingField)
			}
			return nil
		},
		apply: func(s State, p Payload) State {
			s.setCell(p.TeamID, p.QuestionID, cloneCell(*p.Cell))
			return s
		},
	},
	EvtTeamBonus: {
		validate: func(p Payload) error { return need("showTeamId", p.TeamID) },
		apply: func(s State, p Payload) State {
			t, ok := s.Teams[p.TeamID]
			if !ok {
				return s
			}
			var bonus float64
			if p.Bonus != nil {
				bonus = float64(*p.Bonus)
			}
			t.ShowBonus = bonus
			s.Teams[p.TeamID] = t
			return s
		},
	},
	EvtTeamAdd: {
		validate: func(p Payload) error {
			if p.Team == nil {
				return fmt.Errorf("%w: team", ErrMissingField)
			}
			return need("showTeamId", p.Team.ShowTeamID)
		},
		apply: func(s State, p Payload) State {
			id := p.Team.ShowTeamID
			if _, exists := s.Teams[id]; exists {
				return s
			}
			s.Teams[id] = *p.Team
			s.EntryOrder = append(s.EntryOrder, id)
			return s
		},
	},
	EvtTeamRename: {
		validate: func(p Payload) error {
			if err := need("showTeamId", p.TeamID); err != nil {
				return err
			}
			return need("teamName", p.TeamName)
		},
		apply: func(s State, p Payload) State {
			t, ok := s.Teams[p.TeamID]
			if !ok {
				return s
			}
			t.Name = p.TeamName
			s.Teams[p.TeamID] = t
			return s
		},
	},
	EvtTeamRemove: {
		validate: func(p Payload) error { return need("showTeamId", p.TeamID) },
		apply: func(s State, p Payload) State {
			delete(s.Teams, p.TeamID)
			delete(s.Grid, p.TeamID)
			order := s.EntryOrder[:0]
			for _, id := range s.EntryOrder {
				if id != p.TeamID {
					order = append(order, id)
				}
			}
			s.EntryOrder = order
			return s
		},
	},
	EvtTBEdit: {
		validate: func(p Payload) error {
			if err := need("showTeamId", p.TeamID); err != nil {
				return err
			}
			return need("showQuestionId", p.QuestionID)
		},
		apply: func(s State, p Payload) State {
			c := s.Cell(p.TeamID, p.QuestionID)
			raw := ""
			if p.GuessRaw != nil {
				raw = *p.GuessRaw
			}
			c.TiebreakerGuessRaw = raw
			c.TiebreakerGuess = ParseGuess(raw)
			s.setCell(p.TeamID, p.QuestionID, c)
			return s
		},
	},
	EvtPrizesUpdate: {
		validate: func(p Payload) error {
			if p.Prizes == nil {
				return fmt.Errorf("%w: prizes", ErrMissingField)
			}
			return nil
		},
		apply: func(s State, p Payload) State {
			s.Prizes = *p.Prizes
			return s
		},
	},
	EvtHostInfoUpdate: {
		validate: func(p Payload) error {
			if p.HostInfo == nil {
				return fmt.Errorf("%w: hostInfo", ErrMissingField)
			}
			return nil
		},
		apply: func(s State, p Payload) State {
			s.HostInfo = *p.HostInfo
			return s
		},
	},
	EvtScoringSettings: {
		validate: func(p Payload) error {
			if p.Scoring == nil {
				return fmt.Errorf("%w: scoring", ErrMissingField)
			}
			return nil
		},
		apply: func(s State, p Payload) State {
			sc := p.Scoring
			if sc.Mode != "" {
				s.ScoringMode = sc.Mode
			}
			s.PubPoints = nonNegative(float64(sc.PubPoints))
			s.PoolPerQuestion = nonNegative(float64(sc.PoolPerQuestion))
			s.PoolContribution = nonNegative(float64(sc.PoolContribution))
			return s
		},
	},
	EvtQuestionEdit: {
		validate: func(p Payload) error {
			if err := need("showQuestionId", p.QuestionID); err != nil {
				return err
			}
			if p.Edit == nil {
				return fmt.Errorf("%w: edit", ErrMissingField)
			}
			return nil
		},
		apply: func(s State, p Payload) State {
			e := s.QuestionEdits[p.QuestionID]
			in := *p.Edit
			if in.Text != nil {
				e.Text = in.Text
			}
			if in.Answer != nil {
				e.Answer = in.Answer
			}
			if in.Points != nil {
				e.Points = in.Points
			}
			s.QuestionEdits[p.QuestionID] = cloneQuestionEdit(e)
			return s
		},
	},
	EvtTiebreakerAdded: {
		validate: func(p Payload) error {
			if err := need("roundId", p.RoundID); err != nil {
				return err
			}
			if p.Tiebreaker == nil {
				return fmt.Errorf("%w: tiebreaker", ErrMissingField)
			}
			return need("showQuestionId", p.Tiebreaker.ShowQuestionID)
		},
		apply: func(s State, p Payload) State {
			s.Tiebreakers[p.RoundID] = *p.Tiebreaker
			return s
		},
	},
	EvtPing: {
		validate: func(Payload) error { return nil },
		apply:    func(s State, _ Payload) State { return s },
	},
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Known reports whether event is in the dispatch table.
func Known(event string) bool {
	_, ok := reducers[event]
	return ok
}

// Apply runs the reducer for event against s and returns the new state.
// s is never mutated; validation failures and unknown events return the
// original state with an error so callers can drop the event.
func Apply(s State, event string, p Payload) (State, error) {
	r, ok := reducers[event]
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
	if err := r.validate(p); err != nil {
		return s, fmt.Errorf("%s: %w", event, err)
	}
	return r.apply(s.Clone(), p), nil
}
