package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize/english"
	"github.com/mattn/go-runewidth"

	"github.com/nlaurent/cadence/internal/config"
	"github.com/nlaurent/cadence/internal/device"
	"github.com/nlaurent/cadence/internal/engine"
	"github.com/nlaurent/cadence/internal/errmsg"
	"github.com/nlaurent/cadence/internal/keymap"
	"github.com/nlaurent/cadence/internal/log"
	"github.com/nlaurent/cadence/internal/queue"
	"github.com/nlaurent/cadence/internal/resolver"
	"github.com/nlaurent/cadence/internal/stderr"
)

var (
	playerBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	currentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type tickMsg time.Time

// engineEventMsg wraps any engine subscription event for the UI loop.
type engineEventMsg struct{}

// engineErrorMsg carries a suppressed engine error to the footer.
type engineErrorMsg struct {
	ev engine.ErrorEvent
}

type model struct {
	eng       *engine.Engine
	sub       *engine.Subscription
	keys      *keymap.Resolver
	bar       progress.Model
	lastError string
	width     int
	height    int
}

// demoCatalog is the simulated device's collection library.
var demoCatalog = map[string][]device.SimItem{
	"morning-drive": {
		{ID: "md-01", Duration: 45 * time.Second},
		{ID: "md-02", Duration: 30 * time.Second},
		{ID: "md-03", Duration: 60 * time.Second},
		{ID: "md-04", Duration: 40 * time.Second},
		{ID: "md-05", Duration: 35 * time.Second},
	},
	"late-night": {
		{ID: "ln-01", Duration: 50 * time.Second},
		{ID: "ln-02", Duration: 55 * time.Second},
		{ID: "ln-03", Duration: 45 * time.Second},
	},
}

// staticResolver serves demo metadata without a network endpoint.
type staticResolver map[string]resolver.Metadata

func (r staticResolver) Resolve(_ context.Context, itemID string) (resolver.Metadata, error) {
	meta, ok := r[itemID]
	if !ok {
		return resolver.Metadata{}, fmt.Errorf("unknown item %q", itemID)
	}
	return meta, nil
}

var demoMetadata = staticResolver{
	"md-01": {Title: "First Light", AuthorName: "Harbor Line"},
	"md-02": {Title: "Open Road", AuthorName: "Harbor Line"},
	"md-03": {Title: "Mile Marker", AuthorName: "The Commuters"},
	"md-04": {Title: "Overpass", AuthorName: "The Commuters"},
	"md-05": {Title: "Coffee Stop", AuthorName: "Harbor Line"},
	"ln-01": {Title: "Half Moon", AuthorName: "Velvet Static"},
	"ln-02": {Title: "Streetlamp Glow", AuthorName: "Velvet Static"},
	"ln-03": {Title: "Last Train", AuthorName: "Velvet Static"},
}

func buildResolver(cfg *config.Config) resolver.Resolver {
	if cfg.Resolver.Endpoint == "" {
		return demoMetadata
	}
	inner := resolver.NewHTTP(cfg.Resolver.Endpoint)
	ttl := time.Duration(cfg.Resolver.CacheTTLDays) * 24 * time.Hour
	cached, err := resolver.OpenCache(inner, ttl)
	if err != nil {
		// A broken cache should not keep the app from starting.
		log.Warnf("metadata cache unavailable: %v", err)
		return inner
	}
	return cached
}

func initialModel() (model, *device.Sim, error) {
	cfg, err := config.Load()
	if err != nil {
		return model{}, nil, err
	}
	if err := log.Setup(cfg.Logging.Write, cfg.Logging.Level); err != nil {
		return model{}, nil, err
	}

	dev := device.NewSim(demoCatalog)
	eng := engine.New(dev, buildResolver(cfg), engine.Options{
		PollInterval:          time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		HydrationBatchSize:    cfg.Hydration.BatchSize,
		HydrationItemTimeout:  time.Duration(cfg.Hydration.ItemTimeoutS) * time.Second,
		HydrationCeiling:      time.Duration(cfg.Hydration.CeilingS) * time.Second,
		HydrationPollInterval: time.Duration(cfg.Hydration.PollIntervalMs) * time.Millisecond,
		Volume:                cfg.Volume,
	})

	return model{
		eng:  eng,
		sub:  eng.Subscribe(),
		keys: keymap.NewResolver(keymap.All),
		bar:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}, dev, nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.listenCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// listenCmd waits for the next engine event and wakes the UI.
func (m model) listenCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.sub.TrackChanged:
		case <-m.sub.QueueChanged:
		case <-m.sub.StateChanged:
		case <-m.sub.ModeChanged:
		case <-m.sub.PositionChanged:
		case <-m.sub.HydrationChanged:
		case ev := <-m.sub.Error:
			return engineErrorMsg{ev: ev}
		case <-m.sub.Done:
			return nil
		}
		return engineEventMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = maxInt(m.width-4, 20)

	case tea.KeyMsg:
		switch m.keys.Resolve(msg.String()) {
		case keymap.ActionQuit:
			m.eng.Close()
			return m, tea.Quit
		case keymap.ActionPlayPause:
			m.eng.Toggle()
		case keymap.ActionNextTrack:
			m.eng.Next()
		case keymap.ActionPrevTrack:
			m.eng.Previous()
		case keymap.ActionToggleShuffle:
			m.eng.ToggleShuffle()
		case keymap.ActionCycleRepeat:
			m.eng.CycleRepeat()
		case keymap.ActionToggleMute:
			m.eng.ToggleMute()
		case keymap.ActionVolumeUp:
			m.eng.SetVolume(m.eng.Volume() + 5)
		case keymap.ActionVolumeDown:
			m.eng.SetVolume(m.eng.Volume() - 5)
		case keymap.ActionSeekForward:
			m.eng.SeekToPercent(percentOf(m.eng) + 5)
		case keymap.ActionSeekBack:
			m.eng.SeekToPercent(percentOf(m.eng) - 5)
		case keymap.ActionRemoveCurrent:
			if t := m.eng.CurrentTrack(); t != nil {
				m.eng.RemoveTrack(t.ID)
			}
		case keymap.ActionCollectionOne:
			m.lastError = ""
			m.eng.LoadCollection("morning-drive", "Morning Drive")
		case keymap.ActionCollectionTwo:
			m.lastError = ""
			m.eng.LoadCollection("late-night", "Late Night")
		case keymap.ActionClearQueue:
			m.lastError = ""
			m.eng.ClearQueue()
		}

	case tickMsg:
		return m, tickCmd()

	case engineEventMsg:
		return m, m.listenCmd()

	case engineErrorMsg:
		m.lastError = errmsg.FormatWith(errmsg.FromEngine(msg.ev.Op), msg.ev.TrackID, msg.ev.Err)
		if m.lastError == "" {
			// Device errors carry a code instead of a wrapped error.
			m.lastError = fmt.Sprintf("Failed to %s '%s': device error %d",
				errmsg.FromEngine(msg.ev.Op), msg.ev.TrackID, msg.ev.Code)
		}
		return m, m.listenCmd()
	}

	return m, nil
}

func percentOf(e *engine.Engine) float64 {
	dur := e.Duration()
	if dur <= 0 {
		return 0
	}
	return float64(e.Position()) / float64(dur) * 100
}

func (m model) View() string {
	var b []byte
	b = append(b, m.viewQueue()...)
	b = append(b, '\n')
	b = append(b, m.viewPlayerBar()...)
	b = append(b, '\n')
	b = append(b, m.viewFooter()...)
	return string(b)
}

func (m model) viewQueue() string {
	tracks := m.eng.Queue()
	if len(tracks) == 0 {
		return dimStyle.Render("  queue empty, press 1 or 2 to load a collection")
	}
	current := m.eng.QueueIndex()

	out := ""
	for i, t := range tracks {
		line := fmt.Sprintf("  %2d. %s", i+1, trackLabel(t))
		line = runewidth.Truncate(line, maxInt(m.width-2, 20), "…")
		if i == current {
			line = currentStyle.Render("▶" + line[1:])
		}
		out += line + "\n"
	}
	return out
}

func trackLabel(t queue.Track) string {
	if t.Artist != "" {
		return fmt.Sprintf("%s - %s", t.Artist, t.Title)
	}
	return t.Title
}

func (m model) viewPlayerBar() string {
	status := "⏹"
	switch {
	case m.eng.IsPlaying():
		status = "▶"
	case m.eng.IsLoading():
		status = "…"
	case m.eng.State() == engine.StatePaused:
		status = "⏸"
	}

	title := ""
	if t := m.eng.CurrentTrack(); t != nil {
		title = trackLabel(*t)
	}

	pos := m.eng.Position()
	dur := m.eng.Duration()
	right := fmt.Sprintf("%s / %s", formatDuration(pos), formatDuration(dur))

	innerWidth := maxInt(m.width-4, 20)
	ratio := 0.0
	if dur > 0 {
		ratio = float64(pos) / float64(dur)
	}
	bar := m.bar.ViewAs(ratio)
	line := fmt.Sprintf(" %s  %s", status, runewidth.Truncate(title, maxInt(innerWidth-lipgloss.Width(right)-6, 4), "…"))
	pad := innerWidth - lipgloss.Width(line) - lipgloss.Width(right)
	if pad < 1 {
		pad = 1
	}
	for i := 0; i < pad; i++ {
		line += " "
	}
	line += right

	return playerBarStyle.Width(innerWidth + 2).Render(line + "\n" + bar)
}

func (m model) viewFooter() string {
	mode := ""
	if m.eng.Shuffle() {
		mode += "  shuffle"
	}
	if r := m.eng.Repeat(); r != engine.RepeatOff {
		mode += "  repeat:" + r.String()
	}
	vol := fmt.Sprintf("  vol %d%%", m.eng.Volume())
	if m.eng.Muted() {
		vol = "  muted"
	}
	count := english.Plural(m.eng.QueueLen(), "track", "")
	footer := dimStyle.Render(fmt.Sprintf("  %s%s%s   %s", count, mode, vol, helpHint(m.keys)))
	if m.lastError != "" {
		footer += "\n" + errorStyle.Render("  "+m.lastError)
	}
	return footer
}

// helpHint renders a compact binding summary for the footer.
func helpHint(keys *keymap.Resolver) string {
	hints := []struct {
		action keymap.Action
		label  string
	}{
		{keymap.ActionPlayPause, "play"},
		{keymap.ActionNextTrack, "next"},
		{keymap.ActionPrevTrack, "prev"},
		{keymap.ActionToggleShuffle, "shuffle"},
		{keymap.ActionCycleRepeat, "repeat"},
		{keymap.ActionQuit, "quit"},
	}
	out := ""
	for i, h := range hints {
		bound := keys.KeysFor(h.action)
		if len(bound) == 0 {
			continue
		}
		key := bound[0]
		if key == " " {
			key = "space"
		}
		if i > 0 {
			out += " "
		}
		out += key + ":" + h.label
	}
	return out
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", mins, secs)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func main() {
	m, dev, err := initialModel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	// Stray fd-2 writes would corrupt the alternate screen; divert them
	// into the log for the duration of the session.
	if err := stderr.Start(func(line string) {
		log.Warnf("stderr: %s", line)
	}); err != nil {
		log.Warnf("stderr capture unavailable: %v", err)
	}
	defer stderr.Stop()

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		stderr.WriteOriginal(fmt.Sprintf("Error: %v\n", err))
		os.Exit(1)
	}
}
