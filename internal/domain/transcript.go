package domain

// TranscriptEntry is one speech segment from the call provider's
// transcript artifact, delivered as a JSONL record. Immutable once fetched.
type TranscriptEntry struct {
	SpeakerID string `json:"speaker_id"`
	Type      string `json:"type"`
	Text      string `json:"text"`
	StartTS   int64  `json:"start_ts"`
	StopTS    int64  `json:"stop_ts"`
}

// SpeakerInfo is the resolved display identity attached to a transcript entry.
type SpeakerInfo struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

// AnnotatedTranscriptEntry is a transcript entry with its speaker resolved
// against the user and agent tables.
type AnnotatedTranscriptEntry struct {
	TranscriptEntry
	User SpeakerInfo `json:"user"`
}
