// Package terminal renders the playback session in a plain terminal.
// Tables are drawn with go-pretty and the now-playing block with lipgloss.
package terminal

import (
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/ports"
)

const barWidth = 30

var (
	accentColor = lipgloss.Color("#1DB954")
	mutedColor  = lipgloss.Color("#B3B3B3")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	artistStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	captionStyle = lipgloss.NewStyle().Italic(true).Foreground(mutedColor).PaddingLeft(2)
	stateStyle   = lipgloss.NewStyle().Bold(true)
)

// View writes session updates to an io.Writer. It is safe for concurrent use.
type View struct {
	mu  sync.Mutex
	out io.Writer
}

// NewView creates a view writing to out.
func NewView(out io.Writer) *View {
	return &View{out: out}
}

// ShowNowPlaying implements ports.View.
func (v *View) ShowNowPlaying(state domain.SessionState) {
	var b strings.Builder
	if state.CurrentTrack == nil {
		b.WriteString(stateStyle.Render("■ nothing queued"))
		v.println(b.String())
		return
	}

	t := state.CurrentTrack
	icon := "❚❚"
	if state.Playing {
		icon = "▶"
	}
	fmt.Fprintf(&b, "%s %s  %s", stateStyle.Render(icon), titleStyle.Render(t.Title), artistStyle.Render(t.Artist))
	if t.Album != "" {
		b.WriteString(artistStyle.Render(" · " + t.Album))
	}
	if t.IsLocal {
		b.WriteString(artistStyle.Render(" [local]"))
	}

	if line := captionLine(state.Caption, t.ID); line != "" {
		b.WriteString("\n")
		b.WriteString(captionStyle.Render(line))
	}
	v.println(b.String())
}

func captionLine(c domain.Caption, trackID string) string {
	if c.TrackID != trackID {
		return ""
	}
	switch c.Status {
	case domain.CaptionLoading:
		return "fetching caption..."
	case domain.CaptionReady:
		return c.Text
	case domain.CaptionFailed:
		return "no caption: " + c.Reason()
	default:
		return ""
	}
}

// ShowProgress implements ports.View.
func (v *View) ShowProgress(position, duration float64) {
	v.println(ProgressBar(position, duration, barWidth))
}

// ProgressBar renders "1:02 [=====     ] 3:45".
func ProgressBar(position, duration float64, width int) string {
	filled := 0
	if duration > 0 {
		filled = int(position / duration * float64(width))
	}
	filled = min(max(filled, 0), width)

	return fmt.Sprintf("%s [%s%s] %s",
		domain.FormatClock(seconds(position)),
		strings.Repeat("=", filled),
		strings.Repeat(" ", width-filled),
		domain.FormatClock(seconds(duration)))
}

// ShowQueue implements ports.View.
func (v *View) ShowQueue(queue []domain.Track, currentID string) {
	if len(queue) == 0 {
		v.println("queue is empty")
		return
	}
	t := newTable("Queue")
	for i, track := range queue {
		marker := ""
		if track.ID == currentID {
			marker = text.FgGreen.Sprint("▶")
		}
		t.AppendRow(trackRow(marker, i+1, track))
	}
	v.println(t.Render())
}

// ShowTracks implements ports.View.
func (v *View) ShowTracks(title string, tracks iter.Seq[domain.Track]) {
	t := newTable(title)
	n := 0
	for track := range tracks {
		n++
		t.AppendRow(trackRow("", n, track))
	}
	if n == 0 {
		v.println(title + ": no matches")
		return
	}
	v.println(t.Render())
}

// ShowModes implements ports.View.
func (v *View) ShowModes(shuffle bool, repeat domain.RepeatMode, volume float64, muted bool) {
	vol := fmt.Sprintf("vol %d%%", int(volume*100+0.5))
	if muted {
		vol = text.FgHiBlack.Sprint(vol + " (muted)")
	}
	v.println(fmt.Sprintf("shuffle %s | repeat %s | %s", onOff(shuffle), repeat, vol))
}

// ShowError implements ports.View.
func (v *View) ShowError(err error) {
	if err == nil {
		return
	}
	v.println(text.FgHiRed.Sprint("error: " + err.Error()))
}

func (v *View) println(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, _ = fmt.Fprintln(v.out, s)
}

func newTable(title string) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.SetTitle(title)
	t.AppendHeader(table.Row{"", "#", "ID", "Title", "Artist", "Album", "Time"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 4, WidthMax: 32},
		{Number: 5, WidthMax: 28},
		{Number: 6, WidthMax: 28},
		{Number: 7, Align: text.AlignRight},
	})
	return t
}

func trackRow(marker string, n int, t domain.Track) table.Row {
	id := t.ID
	if t.IsLocal && len(id) > 14 {
		id = id[:14] + "…"
	}
	return table.Row{marker, n, id, t.Title, t.Artist, t.Album, domain.FormatClock(t.Duration)}
}

func onOff(b bool) string {
	if b {
		return text.FgGreen.Sprint("on")
	}
	return "off"
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

var _ ports.View = (*View)(nil)
