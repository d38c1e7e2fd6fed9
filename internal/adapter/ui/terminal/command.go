package terminal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/siraymusic/siray/internal/domain"
)

// Commands lists the shell words ParseCommand understands, for completion and help.
var Commands = []string{
	"play", "next", "prev", "shuffle", "repeat", "select", "remove",
	"seek", "vol", "mute", "search", "scope", "view", "import", "import-dir",
}

var aliases = map[string]string{
	"p": "play", "pause": "play", "n": "next", "b": "prev", "back": "prev",
	"s": "select", "rm": "remove", "volume": "vol", "find": "search", "/": "search",
}

// ParseCommand turns a shell line into an intent.
//
//	select 3          seek 1:30        vol 80
//	search the weeknd view artist M83  import a.mp3 b.flac
func ParseCommand(line string) (domain.Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return domain.Intent{}, domain.NewValidationError("command", "", "empty command")
	}
	word := strings.ToLower(fields[0])
	if full, ok := aliases[word]; ok {
		word = full
	}
	args := fields[1:]
	rest := strings.Join(args, " ")

	switch word {
	case "play":
		return domain.NewIntent(domain.IntentPlay), nil
	case "next":
		return domain.NewIntent(domain.IntentNext), nil
	case "prev":
		return domain.NewIntent(domain.IntentPrev), nil
	case "shuffle":
		return domain.NewIntent(domain.IntentShuffle), nil
	case "mute":
		return domain.NewIntent(domain.IntentMute), nil

	case "repeat":
		if rest == "" {
			return domain.NewIntent(domain.IntentRepeat), nil
		}
		return domain.NewIntent(domain.IntentRepeat, "mode", rest), nil

	case "select", "remove":
		if len(args) != 1 {
			return domain.Intent{}, domain.NewValidationError("id", rest, word+" takes exactly one track id")
		}
		return domain.NewIntent(domain.IntentName(word), "id", args[0]), nil

	case "seek":
		secs, err := parseSeconds(rest)
		if err != nil {
			return domain.Intent{}, err
		}
		return domain.NewIntent(domain.IntentSeek, "position", secs), nil

	case "vol":
		pct, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return domain.Intent{}, domain.NewValidationError("volume", rest, "must be a percentage 0-100")
		}
		return domain.NewIntent(domain.IntentVolume, "level", strconv.FormatFloat(pct/100, 'f', -1, 64)), nil

	case "search":
		return domain.NewIntent(domain.IntentSearch, "query", rest), nil

	case "scope":
		return domain.NewIntent(domain.IntentScope, "scope", rest), nil

	case "view":
		if len(args) == 0 {
			return domain.Intent{}, domain.NewValidationError("view", "", "view name is required")
		}
		return domain.NewIntent(domain.IntentView, "view", args[0], "id", strings.Join(args[1:], " ")), nil

	case "import":
		if len(args) == 0 {
			return domain.Intent{}, domain.NewValidationError("paths", "", "at least one file is required")
		}
		return domain.NewIntent(domain.IntentIngest, "paths", strings.Join(args, ",")), nil

	case "import-dir":
		if rest == "" {
			return domain.Intent{}, domain.NewValidationError("dir", "", "directory is required")
		}
		return domain.NewIntent(domain.IntentIngest, "dir", rest), nil
	}

	return domain.Intent{}, fmt.Errorf("%w: %q", domain.ErrUnknownIntent, fields[0])
}

// parseSeconds accepts "90", "90.5" or "1:30".
func parseSeconds(s string) (string, error) {
	if strings.Contains(s, ":") {
		d, err := domain.ParseClock(s)
		if err != nil {
			return "", domain.NewValidationError("position", s, "use seconds or m:ss")
		}
		return strconv.FormatFloat(d.Seconds(), 'f', -1, 64), nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return "", domain.NewValidationError("position", s, "use seconds or m:ss")
	}
	return s, nil
}
