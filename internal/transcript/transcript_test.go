package transcript

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDocument = `{
	"transcripts": [
		{
			"channel_id": 0,
			"sentences": [
				{"channel_id": 0, "sentence_id": 1, "begin_time": 0, "end_time": 4200, "text": "Welcome to the lecture."},
				{"channel_id": 0, "sentence_id": 2, "begin_time": 5000, "end_time": 10000, "text": "Today we cover sorting."},
				{"channel_id": 0, "sentence_id": 3, "begin_time": 13500, "end_time": 18000, "text": "Let us start with quicksort."}
			]
		}
	]
}`

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	require.Len(t, doc.Transcripts, 1)
	require.Len(t, doc.Transcripts[0].Sentences, 3)

	first := doc.Transcripts[0].Sentences[0]
	assert.Equal(t, 1, first.SentenceID)
	assert.Equal(t, "Welcome to the lecture.", first.Text)
	assert.Equal(t, 4200, first.EndTime)
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse(strings.NewReader("{not json"))
	require.Error(t, err)
}

func TestSentence_TimeConversion(t *testing.T) {
	s := Sentence{BeginTime: 13500, EndTime: 18000}

	assert.InDelta(t, 13.5, s.BeginSec(), 1e-9)
	assert.InDelta(t, 18.0, s.EndSec(), 1e-9)
}

func TestAllSentences_PoolsAndOrdersChannels(t *testing.T) {
	doc := &Document{
		Transcripts: []ChannelTranscript{
			{
				ChannelID: 0,
				Sentences: []Sentence{
					{ChannelID: 0, BeginTime: 0, EndTime: 2000, Text: "a"},
					{ChannelID: 0, BeginTime: 8000, EndTime: 9000, Text: "c"},
				},
			},
			{
				ChannelID: 1,
				Sentences: []Sentence{
					{ChannelID: 1, BeginTime: 3000, EndTime: 5000, Text: "b"},
				},
			},
		},
	}

	sentences := doc.AllSentences()

	require.Len(t, sentences, 3)
	assert.Equal(t, "a", sentences[0].Text)
	assert.Equal(t, "b", sentences[1].Text)
	assert.Equal(t, "c", sentences[2].Text)
}

func TestAllSentences_Empty(t *testing.T) {
	doc := &Document{}
	assert.Empty(t, doc.AllSentences())
}

func TestSilenceGaps_MidpointOfQualifyingGap(t *testing.T) {
	// Gap from 10.0s to 13.5s is 3.5s wide; midpoint is 11.75s
	sentences := []Sentence{
		{BeginTime: 0, EndTime: 10000},
		{BeginTime: 13500, EndTime: 18000},
	}

	gaps := SilenceGaps(sentences, 2.0)

	require.Len(t, gaps, 1)
	assert.InDelta(t, 11.75, gaps[0], 1e-9)
}

func TestSilenceGaps_ShortGapIgnored(t *testing.T) {
	sentences := []Sentence{
		{BeginTime: 0, EndTime: 10000},
		{BeginTime: 11000, EndTime: 15000},
	}

	assert.Empty(t, SilenceGaps(sentences, 2.0))
}

func TestSilenceGaps_GapExactlyAtThreshold(t *testing.T) {
	sentences := []Sentence{
		{BeginTime: 0, EndTime: 10000},
		{BeginTime: 12000, EndTime: 15000},
	}

	gaps := SilenceGaps(sentences, 2.0)

	require.Len(t, gaps, 1)
	assert.InDelta(t, 11.0, gaps[0], 1e-9)
}

func TestSilenceGaps_MultipleGaps(t *testing.T) {
	sentences := []Sentence{
		{BeginTime: 0, EndTime: 5000},
		{BeginTime: 10000, EndTime: 14000},
		{BeginTime: 15000, EndTime: 20000},
		{BeginTime: 26000, EndTime: 30000},
	}

	gaps := SilenceGaps(sentences, 2.0)

	require.Len(t, gaps, 2)
	assert.InDelta(t, 7.5, gaps[0], 1e-9)
	assert.InDelta(t, 23.0, gaps[1], 1e-9)
}

func TestSilenceGaps_FewerThanTwoSentences(t *testing.T) {
	assert.Empty(t, SilenceGaps(nil, 2.0))
	assert.Empty(t, SilenceGaps([]Sentence{{BeginTime: 0, EndTime: 1000}}, 2.0))
}
