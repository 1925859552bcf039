package extract_test

import (
	"testing"

	"github.com/ahammadshawki8/chimera/pkg/service/extract"
	"github.com/m-mizutani/gt"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		msg      string
		expected extract.Importance
	}{
		{"Please remember that the deploy window is Friday", extract.ImportanceHigh},
		{"I prefer tabs over spaces", extract.ImportanceHigh},
		{"We are usually on call in pairs", extract.ImportanceMedium},
		{"what is the weather in Tokyo today", extract.ImportanceLow},
		{"hi", extract.ImportanceNone},
	}

	for _, tc := range testCases {
		t.Run(tc.msg, func(t *testing.T) {
			gt.Value(t, extract.Classify(tc.msg)).Equal(tc.expected)
		})
	}
}

func TestExtract(t *testing.T) {
	t.Run("high importance yields facts and exchange", func(t *testing.T) {
		candidates := extract.Extract("Remember this. I prefer Go for backend server code.", "Noted.")
		gt.Array(t, candidates).Length(2).Required()

		fact := candidates[0]
		gt.Value(t, fact.Source).Equal("user")
		gt.Value(t, fact.Content).Equal("I prefer Go for backend server code")
		gt.Array(t, fact.Tags).Has("preference")
		gt.Array(t, fact.Tags).Has("backend")

		exchange := candidates[1]
		gt.Value(t, exchange.Source).Equal("exchange")
		gt.String(t, exchange.Title).Contains("Important: ")
		gt.Value(t, exchange.Content).Equal("User: Remember this. I prefer Go for backend server code.\n\nAssistant: Noted.")
		gt.Array(t, exchange.Tags).Has("full-exchange")
		gt.Array(t, exchange.Tags).Has("high-importance")
	})

	t.Run("ordinary message yields nothing", func(t *testing.T) {
		gt.Array(t, extract.Extract("what time is it over there", "It is noon.")).Length(0)
	})
}

func TestTags(t *testing.T) {
	gt.Value(t, extract.Tags("the weather is nice")).Equal([]string{"general"})
	gt.Value(t, extract.Tags("our team is building a react frontend")).Equal([]string{"project", "frontend", "team"})
}

func TestScore(t *testing.T) {
	gt.Value(t, extract.Score("plain words")).Equal(0.5)
	gt.Bool(t, extract.Score("remember: this is important and I must keep in mind") <= 1).True()
	gt.Bool(t, extract.Score("remember this") > 0.5).True()
}
