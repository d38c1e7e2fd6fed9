package domain

import (
	"strconv"
	"time"
)

// IntentName identifies a user or timer intent emitted by the presentation layer.
type IntentName string

// Intents accepted by the dispatcher. The set is the entire presentation contract.
const (
	IntentSelect  IntentName = "select"
	IntentPlay    IntentName = "play"
	IntentNext    IntentName = "next"
	IntentPrev    IntentName = "prev"
	IntentShuffle IntentName = "shuffle"
	IntentRepeat  IntentName = "repeat"
	IntentRemove  IntentName = "remove"
	IntentSeek    IntentName = "seek"
	IntentVolume  IntentName = "volume"
	IntentMute    IntentName = "mute"
	IntentSearch  IntentName = "search"
	IntentScope   IntentName = "scope"
	IntentView    IntentName = "view"
	IntentIngest  IntentName = "ingest"
)

// Intent is a named request with string arguments.
type Intent struct {
	Name IntentName        `json:"cmd"`
	Args map[string]string `json:"args,omitempty"`
}

// NewIntent creates an intent from alternating key/value pairs.
func NewIntent(name IntentName, kv ...string) Intent {
	args := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		args[kv[i]] = kv[i+1]
	}
	return Intent{Name: name, Args: args}
}

// Arg returns the named argument or "" when absent.
func (i Intent) Arg(key string) string {
	if i.Args == nil {
		return ""
	}
	return i.Args[key]
}

// RequireArg returns the named argument or a ValidationError when it is empty.
func (i Intent) RequireArg(key string) (string, error) {
	v := i.Arg(key)
	if v == "" {
		return "", NewValidationError(key, v, "argument is required for "+string(i.Name))
	}
	return v, nil
}

// FloatArg parses the named argument as a float.
func (i Intent) FloatArg(key string) (float64, error) {
	raw, err := i.RequireArg(key)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, NewValidationError(key, raw, "must be a number")
	}
	return f, nil
}

// SecondsArg parses the named argument as a number of seconds.
func (i Intent) SecondsArg(key string) (time.Duration, error) {
	f, err := i.FloatArg(key)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}
