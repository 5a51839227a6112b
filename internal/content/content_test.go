package content

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jodyrakow/triviavanguard/internal/show"
)

func f64p(v float64) *float64 { return &v }

func sampleBundle() Bundle {
	return Bundle{
		Show: Show{
			ID:          "show-1",
			Name:        "Tuesday Trivia",
			Venue:       "The Rusty Anchor",
			HostName:    "Jo",
			ScoringMode: "pooled",
			PubPoints:   10, PoolPerQuestion: 150, PoolContribution: 15,
		},
		Rounds: []Round{
			{
				ID: "r1", ShowID: "show-1", Position: 1, Name: "General",
				Categories: []Category{
					{
						ID: "c2", RoundID: "r1", Position: 2, Name: "Science",
						Questions: []Question{
							{ID: "q3", CategoryID: "c2", Position: 1, Text: "Symbol for tungsten?", Answer: "W"},
						},
					},
					{
						ID: "c1", RoundID: "r1", Position: 1, Name: "History",
						Questions: []Question{
							{ID: "q2", CategoryID: "c1", Position: 2, Text: "Year of Magna Carta?", Answer: "1215", Points: f64p(20)},
							{ID: "q1", CategoryID: "c1", Position: 1, Text: "First Roman emperor?", Answer: "Augustus"},
						},
					},
				},
			},
		},
	}
}

func TestDefaults_SeedsFromShowConfig(t *testing.T) {
	st := sampleBundle().Defaults()
	require.Equal(t, "show-1", st.ShowID)
	require.Equal(t, show.ModePooled, st.ScoringMode)
	require.Equal(t, float64(150), st.PoolPerQuestion)
	require.Equal(t, "Jo", st.HostInfo.Host)
	require.Equal(t, "The Rusty Anchor", st.HostInfo.Location)
}

func TestDefaults_UnknownModeFallsBack(t *testing.T) {
	b := sampleBundle()
	b.Show.ScoringMode = "tournament"
	st := b.Defaults()
	require.Equal(t, show.ModePub, st.ScoringMode)
}

func TestRoundQuestions_OrderedAcrossCategories(t *testing.T) {
	b := sampleBundle()
	st := show.NewState("show-1")

	qs := b.RoundQuestions("r1", st)
	require.Len(t, qs, 3)
	require.Equal(t, "q1", qs[0].ShowQuestionID, "category position then question position")
	require.Equal(t, "q2", qs[1].ShowQuestionID)
	require.Equal(t, "q3", qs[2].ShowQuestionID)
	require.NotNil(t, qs[1].Points)
	require.Equal(t, float64(20), *qs[1].Points)
}

func TestRoundQuestions_AppendsTiebreakerAndAppliesEdits(t *testing.T) {
	b := sampleBundle()
	st := show.NewState("show-1")
	st.Tiebreakers["r1"] = show.Tiebreaker{ShowQuestionID: "tb1", Text: "Attendance tonight?", Answer: 61}
	st.QuestionEdits["q1"] = show.QuestionEdit{Points: f64p(30)}

	qs := b.RoundQuestions("r1", st)
	require.Len(t, qs, 4)
	last := qs[len(qs)-1]
	require.True(t, last.IsTiebreaker)
	require.Equal(t, "tb1", last.ShowQuestionID)
	require.NotNil(t, qs[0].Points)
	require.Equal(t, float64(30), *qs[0].Points, "host edit overrides content points")
}

func TestRoundQuestions_UnknownRound(t *testing.T) {
	qs := sampleBundle().RoundQuestions("r9", show.NewState("show-1"))
	require.Nil(t, qs)
}
