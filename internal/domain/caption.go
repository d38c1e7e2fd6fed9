package domain

// LocalCaption is shown for user-supplied tracks; no lookup is made for them.
const LocalCaption = "Listening to your personal collection on Siray. An authentic connection with the music you love."

// CaptionStatus is the lifecycle state of the caption for the current track.
type CaptionStatus int

const (
	// CaptionIdle means no track has been selected yet
	CaptionIdle CaptionStatus = iota

	// CaptionLoading means a lookup is in flight
	CaptionLoading

	// CaptionReady means Text holds the resolved caption
	CaptionReady

	// CaptionFailed means the lookup failed and Err holds the reason
	CaptionFailed
)

// String returns a human-readable representation of the caption status.
func (s CaptionStatus) String() string {
	switch s {
	case CaptionIdle:
		return "idle"
	case CaptionLoading:
		return "loading"
	case CaptionReady:
		return "ready"
	case CaptionFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Caption is the outcome of a caption request for one track.
// Seq is the dispatch sequence number; only the latest sequence is ever applied.
type Caption struct {
	TrackID string        `json:"track_id"`
	Seq     uint64        `json:"seq"`
	Status  CaptionStatus `json:"status"`
	Text    string        `json:"text,omitempty"`
	Err     error         `json:"-"`
}

// Reason returns the failure message, or "" if the caption did not fail.
func (c Caption) Reason() string {
	if c.Status != CaptionFailed || c.Err == nil {
		return ""
	}
	return c.Err.Error()
}
