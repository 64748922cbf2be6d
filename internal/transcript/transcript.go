// Package transcript models ASR transcription documents and derives
// speech-structure signals (silence gaps) from them.
package transcript

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Sentence is one recognized sentence. Times are in milliseconds from the
// start of the recording.
type Sentence struct {
	ChannelID  int    `json:"channel_id"`
	SentenceID int    `json:"sentence_id"`
	BeginTime  int    `json:"begin_time"`
	EndTime    int    `json:"end_time"`
	Language   string `json:"language,omitempty"`
	Text       string `json:"text"`
}

// BeginSec returns the sentence start in seconds.
func (s Sentence) BeginSec() float64 {
	return float64(s.BeginTime) / 1000.0
}

// EndSec returns the sentence end in seconds.
func (s Sentence) EndSec() float64 {
	return float64(s.EndTime) / 1000.0
}

// ChannelTranscript groups the sentences of one audio channel.
type ChannelTranscript struct {
	ChannelID int        `json:"channel_id"`
	Sentences []Sentence `json:"sentences"`
}

// Document is a full ASR transcription result.
type Document struct {
	Transcripts []ChannelTranscript `json:"transcripts"`
}

// Parse decodes a transcription document from r.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("transcript: decode document: %w", err)
	}
	return &doc, nil
}

// AllSentences pools the sentences of every channel into one list ordered
// by begin time.
func (d *Document) AllSentences() []Sentence {
	var sentences []Sentence
	for _, tr := range d.Transcripts {
		sentences = append(sentences, tr.Sentences...)
	}
	sort.SliceStable(sentences, func(i, j int) bool {
		return sentences[i].BeginTime < sentences[j].BeginTime
	})
	return sentences
}

// SilenceGaps returns the midpoints (in seconds) of pauses between adjacent
// sentences that last at least minGapSec. Sentences must be ordered by
// begin time, as returned by AllSentences.
func SilenceGaps(sentences []Sentence, minGapSec float64) []float64 {
	var midpoints []float64
	for i := 0; i+1 < len(sentences); i++ {
		gap := sentences[i+1].BeginSec() - sentences[i].EndSec()
		if gap >= minGapSec {
			midpoints = append(midpoints, sentences[i].EndSec()+gap/2)
		}
	}
	return midpoints
}
