// Package content is the read-only collaborator that supplies show
// structure: rounds, categories, questions, media, and show-level scoring
// defaults. The core consumes it once per show selection to seed a fresh
// state; it never writes back.
package content

import (
	"sort"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

type Show struct {
	ID       string `gorm:"column:id;primaryKey"`
	Name     string `gorm:"column:name"`
	Venue    string `gorm:"column:venue"`
	HostName string `gorm:"column:host_name"`
	CoHost   string `gorm:"column:cohost"`

	ScoringMode      string  `gorm:"column:scoring_mode"`
	PubPoints        float64 `gorm:"column:pub_points"`
	PoolPerQuestion  float64 `gorm:"column:pool_per_question"`
	PoolContribution float64 `gorm:"column:pool_contribution"`
}

func (Show) TableName() string { return "shows" }

type Round struct {
	ID         string     `gorm:"column:id;primaryKey"`
	ShowID     string     `gorm:"column:show_id;index"`
	Position   int        `gorm:"column:position"`
	Name       string     `gorm:"column:name"`
	Categories []Category `gorm:"foreignKey:RoundID"`
}

func (Round) TableName() string { return "rounds" }

type Category struct {
	ID        string     `gorm:"column:id;primaryKey"`
	RoundID   string     `gorm:"column:round_id;index"`
	Position  int        `gorm:"column:position"`
	Name      string     `gorm:"column:name"`
	Questions []Question `gorm:"foreignKey:CategoryID"`
}

func (Category) TableName() string { return "categories" }

type Question struct {
	ID         string   `gorm:"column:id;primaryKey"`
	CategoryID string   `gorm:"column:category_id;index"`
	Position   int      `gorm:"column:position"`
	Text       string   `gorm:"column:text"`
	Answer     string   `gorm:"column:answer"`
	MediaURL   string   `gorm:"column:media_url"`
	Points     *float64 `gorm:"column:points"`
}

func (Question) TableName() string { return "questions" }

// Bundle is one show's full structure as loaded from the content source.
type Bundle struct {
	Show   Show
	Rounds []Round
}

// Defaults seeds a fresh show state from the content source's show-level
// configuration. Hydration may later override it per the persister's
// precedence rules.
func (b Bundle) Defaults() show.State {
	st := show.NewState(b.Show.ID)
	if m := show.Mode(b.Show.ScoringMode); m == show.ModePub || m == show.ModePooled || m == show.ModePooledAdaptive {
		st.ScoringMode = m
	}
	if b.Show.PubPoints > 0 {
		st.PubPoints = b.Show.PubPoints
	}
	if b.Show.PoolPerQuestion > 0 {
		st.PoolPerQuestion = b.Show.PoolPerQuestion
	}
	if b.Show.PoolContribution > 0 {
		st.PoolContribution = b.Show.PoolContribution
	}
	st.HostInfo.Host = b.Show.HostName
	st.HostInfo.CoHost = b.Show.CoHost
	st.HostInfo.Location = b.Show.Venue
	return st
}

// RoundQuestions returns a round's questions in category-then-position
// order with the state's host edits applied, and the round's tiebreaker,
// if one was added, appended last.
func (b Bundle) RoundQuestions(roundID string, st show.State) []show.Question {
	var round *Round
	for i := range b.Rounds {
		if b.Rounds[i].ID == roundID {
			round = &b.Rounds[i]
			break
		}
	}
	if round == nil {
		return nil
	}

	cats := append([]Category(nil), round.Categories...)
	sort.Slice(cats, func(i, j int) bool { return cats[i].Position < cats[j].Position })

	var qs []show.Question
	for _, cat := range cats {
		questions := append([]Question(nil), cat.Questions...)
		sort.Slice(questions, func(i, j int) bool { return questions[i].Position < questions[j].Position })
		for _, q := range questions {
			sq := show.Question{
				ShowQuestionID: q.ID,
				Text:           q.Text,
				Answer:         q.Answer,
			}
			if q.Points != nil {
				v := *q.Points
				sq.Points = &v
			}
			qs = append(qs, sq)
		}
	}

	qs = st.EditedQuestions(qs)

	if tb, ok := st.Tiebreakers[roundID]; ok {
		qs = append(qs, show.Question{
			ShowQuestionID: tb.ShowQuestionID,
			Text:           tb.Text,
			IsTiebreaker:   true,
		})
	}
	return qs
}
