package media

import "strings"

// SelectBestSegment picks an excerpt of about targetWords words from the
// body of a transcript. The first quarter of the words is skipped to get
// past intros, and when a period falls in the last 30% of the excerpt the
// excerpt is cut there so it ends on a full sentence. Transcripts no longer
// than targetWords are returned unchanged; a non-positive target yields "".
func SelectBestSegment(transcript string, targetWords int) string {
	if strings.TrimSpace(transcript) == "" || targetWords <= 0 {
		return ""
	}
	words := strings.Fields(transcript)
	if len(words) <= targetWords {
		return transcript
	}

	start := len(words) / 4
	end := min(start+targetWords, len(words))
	segment := strings.Join(words[start:end], " ")

	if last := strings.LastIndex(segment, "."); float64(last) > float64(len(segment))*0.7 {
		segment = segment[:last+1]
	}
	return segment
}
