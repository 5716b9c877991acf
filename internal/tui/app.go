package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/jfmyers9/mpvctl/internal/history"
	"github.com/jfmyers9/mpvctl/internal/loader"
	"github.com/jfmyers9/mpvctl/internal/playback"
	"github.com/jfmyers9/mpvctl/internal/session"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/tview"
)

const (
	maxRecentLoads = 5
	openPage       = "open"
	mainPage       = "main"
)

// Config holds TUI configuration options
type Config struct {
	MoveStep    int           // Seconds moved by the arrow keys
	RefreshRate time.Duration // Upper bound on redraw frequency
}

// DefaultConfig returns the default TUI configuration
func DefaultConfig() Config {
	return Config{
		MoveStep:    15,
		RefreshRate: 100 * time.Millisecond,
	}
}

// Controller is the session the TUI drives. Playback and Loader may only
// be used inside functions passed to Do.
type Controller interface {
	Do(fn func())
	Playback() *playback.Reconciler
	Loader() *loader.Sequencer
}

// History lists recent loads for the recent panel.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// App is the terminal UI. Session hooks record state and mark the view
// dirty; a single goroutine turns that into redraws so the event loop
// never waits on the terminal.
type App struct {
	app        *tview.Application
	pages      *tview.Pages
	nowPlaying *tview.TextView
	progress   *tview.TextView
	loadStatus *tview.TextView
	recent     *tview.TextView
	status     *tview.TextView
	input      *tview.InputField

	config  Config
	session Controller
	history History

	dirty chan struct{}

	// mu guards everything below. Hooks write from the event loop, the
	// tview goroutine reads while drawing.
	mu       sync.Mutex
	state    playback.State
	load     loader.Status
	slider   float64
	dragging bool
	message  string
	loads    []history.Entry

	// Tview goroutine only.
	opening      bool
	barStart     int
	lastBarWidth int
}

// New creates a new TUI application with default config
func New() *App {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new TUI application with the given config
func NewWithConfig(cfg Config) *App {
	if cfg.MoveStep <= 0 {
		cfg.MoveStep = DefaultConfig().MoveStep
	}
	if cfg.RefreshRate <= 0 {
		cfg.RefreshRate = DefaultConfig().RefreshRate
	}
	a := &App{
		app:    tview.NewApplication(),
		config: cfg,
		dirty:  make(chan struct{}, 1),
	}
	a.setupUI()
	return a
}

// Hooks returns the session hooks that feed the TUI. The App is also the
// reconciler's slider.
func (a *App) Hooks() session.Hooks {
	return session.Hooks{
		Slider:         a,
		OnPlayback:     a.onPlayback,
		OnLoad:         a.onLoad,
		OnServerError:  a.onServerError,
		OnCommandError: a.onCommandError,
	}
}

// SetSession sets the session that receives user intents.
func (a *App) SetSession(s Controller) {
	a.session = s
}

// SetHistory sets the store the recent loads panel reads from.
func (a *App) SetHistory(h History) {
	a.history = h
}

// setupUI creates the UI layout
func (a *App) setupUI() {
	a.nowPlaying = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	a.nowPlaying.SetBorder(true).
		SetTitle(" Now Playing ").
		SetTitleAlign(tview.AlignLeft)

	// Left aligned so the bar starts at a known column.
	a.progress = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.progress.SetBorder(true)

	a.loadStatus = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.loadStatus.SetBorder(true).
		SetTitle(" Load ").
		SetTitleAlign(tview.AlignLeft)

	a.recent = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.recent.SetBorder(true).
		SetTitle(" Recent ").
		SetTitleAlign(tview.AlignLeft)

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter).
		SetText(fmt.Sprintf("[gray]q:quit  space:play/pause  ←/→:∓%ds  o:open  r:sync[-]", a.config.MoveStep))

	a.input = tview.NewInputField().
		SetLabel("Open: ").
		SetFieldWidth(0)
	a.input.SetBorder(true).
		SetTitle(" Path or URL ").
		SetTitleAlign(tview.AlignLeft)
	a.input.SetDoneFunc(a.handleInputDone)

	bottomRow := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(a.loadStatus, 0, 1, false).
		AddItem(a.recent, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.nowPlaying, 0, 3, false).
		AddItem(a.progress, 3, 1, false).
		AddItem(bottomRow, maxRecentLoads+2, 1, false).
		AddItem(a.status, 1, 1, false)

	a.pages = tview.NewPages().
		AddPage(mainPage, flex, true, true).
		AddPage(openPage, centered(a.input, 70, 3), true, false)

	a.app.SetInputCapture(a.handleKeyEvent)
	a.app.SetMouseCapture(a.handleMouseEvent)
	a.app.EnableMouse(true)
	a.app.SetRoot(a.pages, true)
}

// centered places p in the middle of the screen.
func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}

// Run shows the UI until the user quits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go a.handleUpdates(ctx)
	a.refreshRecent()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// Stop stops the TUI application
func (a *App) Stop() {
	a.app.Stop()
}

// handleUpdates is the only source of redraws. Bursts of changes
// collapse into one redraw per RefreshRate.
func (a *App) handleUpdates(ctx context.Context) {
	ticker := time.NewTicker(a.config.RefreshRate)
	defer ticker.Stop()

	pending := true
	for {
		select {
		case <-ctx.Done():
			a.app.Stop()
			return
		case <-a.dirty:
			pending = true
		case <-ticker.C:
			if pending {
				pending = false
				a.app.QueueUpdateDraw(a.render)
			}
		}
	}
}

func (a *App) markDirty() {
	select {
	case a.dirty <- struct{}{}:
	default:
	}
}

// SetPosition moves the slider. Called by the reconciler.
func (a *App) SetPosition(fraction float64) {
	a.mu.Lock()
	a.slider = fraction
	a.mu.Unlock()
	a.markDirty()
}

func (a *App) onPlayback(st playback.State) {
	a.mu.Lock()
	a.state = st
	if !a.dragging {
		a.slider = st.Fraction()
	}
	a.mu.Unlock()
	a.markDirty()
}

func (a *App) onLoad(st loader.Status) {
	a.mu.Lock()
	a.load = st
	if st.Phase == loader.Pending || st.Phase == loader.Uploading {
		a.message = ""
	}
	a.mu.Unlock()
	a.markDirty()

	if st.Phase == loader.Loaded {
		go a.refreshRecent()
	}
}

func (a *App) onServerError(e mpvremote.ServerError) {
	a.setMessage(fmt.Sprintf("[red]%s[-]", tview.Escape(e.Message)))
}

func (a *App) onCommandError(cmd mpvremote.Command, err error) {
	a.setMessage(fmt.Sprintf("[red]%s failed: %s[-]", cmd.Verb(), tview.Escape(err.Error())))
}

func (a *App) setMessage(msg string) {
	a.mu.Lock()
	a.message = msg
	a.mu.Unlock()
	a.markDirty()
}

// refreshRecent reloads the recent loads panel. Runs off the event loop.
func (a *App) refreshRecent() {
	if a.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	loads, err := a.history.Recent(ctx, maxRecentLoads)
	if err != nil {
		a.setMessage(fmt.Sprintf("[red]history: %s[-]", tview.Escape(err.Error())))
		return
	}

	a.mu.Lock()
	a.loads = loads
	a.mu.Unlock()
	a.markDirty()
}

// controlsEnabled reports whether playback controls should react.
func (a *App) controlsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session != nil && a.state.Phase() != playback.Disabled
}

// handleKeyEvent processes keyboard input
func (a *App) handleKeyEvent(event *tcell.EventKey) *tcell.EventKey {
	if a.opening {
		return event
	}

	switch event.Key() {
	case tcell.KeyLeft:
		a.move(-a.config.MoveStep)
		return nil
	case tcell.KeyRight:
		a.move(a.config.MoveStep)
		return nil
	case tcell.KeyRune:
	default:
		return event
	}

	switch event.Rune() {
	case 'q', 'Q':
		a.app.Stop()
		return nil
	case ' ':
		if a.controlsEnabled() {
			a.session.Do(func() { a.session.Playback().TogglePause() })
		}
		return nil
	case 'o', 'O':
		a.showOpen()
		return nil
	case 'r', 'R':
		if a.session != nil {
			a.session.Do(func() { a.session.Playback().Sync() })
		}
		return nil
	}
	return event
}

func (a *App) move(delta int) {
	if !a.controlsEnabled() {
		return
	}
	a.session.Do(func() { a.session.Playback().Move(delta) })
}

func (a *App) showOpen() {
	a.opening = true
	a.input.SetText("")
	a.pages.ShowPage(openPage)
	a.app.SetFocus(a.input)
}

func (a *App) hideOpen() {
	a.opening = false
	a.pages.HidePage(openPage)
}

func (a *App) handleInputDone(key tcell.Key) {
	source := strings.TrimSpace(a.input.GetText())
	a.hideOpen()

	if key != tcell.KeyEnter || source == "" || a.session == nil {
		return
	}
	a.session.Do(func() {
		if !a.session.Loader().RequestLoad(source) {
			a.setMessage("[yellow]A load is already in progress[-]")
		}
	})
}

// handleMouseEvent maps press, drag and release on the progress bar to
// the reconciler's slider drag.
func (a *App) handleMouseEvent(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	if a.opening || event == nil {
		return event, action
	}

	x, y := event.Position()

	a.mu.Lock()
	dragging := a.dragging
	a.mu.Unlock()

	switch action {
	case tview.MouseLeftDown:
		if !a.progress.InRect(x, y) || !a.controlsEnabled() {
			return event, action
		}
		f := fractionAt(x, a.barStart, a.lastBarWidth)
		a.setDragging(true, f)
		a.session.Do(func() {
			a.session.Playback().BeginDrag()
			a.session.Playback().Drag(f)
		})
		return nil, action
	case tview.MouseMove:
		if !dragging {
			return event, action
		}
		f := fractionAt(x, a.barStart, a.lastBarWidth)
		a.setDragging(true, f)
		a.session.Do(func() { a.session.Playback().Drag(f) })
		return nil, action
	case tview.MouseLeftUp:
		if !dragging {
			return event, action
		}
		a.mu.Lock()
		a.dragging = false
		a.mu.Unlock()
		a.session.Do(func() { a.session.Playback().EndDrag() })
		return nil, action
	}
	return event, action
}

func (a *App) setDragging(dragging bool, fraction float64) {
	a.mu.Lock()
	a.dragging = dragging
	a.slider = playback.Clamp(fraction, 1)
	a.mu.Unlock()
	a.markDirty()
}

// render redraws every panel. Runs on the tview goroutine.
func (a *App) render() {
	a.mu.Lock()
	state := a.state
	load := a.load
	slider := a.slider
	message := a.message
	loads := append([]history.Entry(nil), a.loads...)
	a.mu.Unlock()

	a.nowPlaying.SetText(nowPlayingText(state))

	_, _, width, _ := a.progress.GetInnerRect()
	pos := playback.FormatClock(state.Time)
	dur := playback.FormatClock(state.Duration)
	barWidth := width - runewidth.StringWidth(pos) - runewidth.StringWidth(dur) - 2
	// Only update cached width when GetInnerRect returns a positive value,
	// avoiding flicker from transient zero-width during layout.
	if barWidth > 0 {
		a.lastBarWidth = barWidth
	}
	if a.lastBarWidth < 10 {
		a.lastBarWidth = 10
	}
	x, _, _, _ := a.progress.GetInnerRect()
	a.barStart = x + runewidth.StringWidth(pos) + 1

	if state.Phase() == playback.Disabled {
		a.progress.SetText("[gray]" + strings.Repeat("-", a.lastBarWidth+len(pos)+len(dur)+2) + "[-]")
	} else {
		a.progress.SetText(fmt.Sprintf("%s %s %s", pos, buildProgressBar(slider, a.lastBarWidth), dur))
	}

	_, _, loadWidth, _ := a.loadStatus.GetInnerRect()
	a.loadStatus.SetText(loadStatusText(load, message, loadWidth))

	_, _, recentWidth, _ := a.recent.GetInnerRect()
	a.recent.SetText(recentText(loads, recentWidth))
}

// nowPlayingText renders the now playing panel.
func nowPlayingText(st playback.State) string {
	switch st.Phase() {
	case playback.Disabled:
		return "\n\n[gray]Nothing loaded[-]"
	case playback.Paused:
		return fmt.Sprintf("\n[white::b]%s[-:-:-]\n\n[yellow]⏸ paused[-]", tview.Escape(st.DisplayName()))
	default:
		return fmt.Sprintf("\n[white::b]%s[-:-:-]\n\n[green]▶ playing[-]", tview.Escape(st.DisplayName()))
	}
}

// loadStatusText renders the load panel: the current request and the
// last error message.
func loadStatusText(st loader.Status, message string, width int) string {
	var sb strings.Builder

	switch st.Phase {
	case loader.Idle:
		sb.WriteString("[gray]No load requested[-]")
	case loader.Uploading:
		sb.WriteString("[yellow]Uploading...[-]")
	case loader.Pending, loader.Polling:
		sb.WriteString("[yellow]Loading[-] " + tview.Escape(truncate(st.Source, width-8)))
	case loader.Loaded:
		sb.WriteString("[green]✓ Loaded[-] " + tview.Escape(truncate(st.Source, width-9)))
	case loader.Failed, loader.TimedOut:
		sb.WriteString("[red]✗ " + tview.Escape(st.Message) + "[-]")
	}

	if message != "" {
		sb.WriteString("\n\n" + message)
	}
	return sb.String()
}

// recentText renders the recent loads panel.
func recentText(loads []history.Entry, width int) string {
	if len(loads) == 0 {
		return "[gray]No recent loads[-]"
	}

	var sb strings.Builder
	for i, e := range loads {
		if i > 0 {
			sb.WriteString("\n")
		}
		clock := playback.FormatClock(e.Duration.Seconds())
		name := truncate(e.Name, width-len(clock)-1)
		sb.WriteString(fmt.Sprintf("[white]%s[-] [gray]%s[-]", tview.Escape(name), clock))
	}
	return sb.String()
}

// truncate shortens s to width display columns with a trailing "...".
func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// fractionAt maps a screen column to a position on the bar.
func fractionAt(x, barStart, barWidth int) float64 {
	if barWidth <= 0 {
		return 0
	}
	return playback.Clamp(float64(x-barStart)/float64(barWidth), 1)
}

// buildProgressBar creates a text-based progress bar
func buildProgressBar(fraction float64, width int) string {
	if width <= 0 {
		return ""
	}

	fraction = playback.Clamp(fraction, 1)
	filled := int(fraction * float64(width))
	empty := width - filled

	return "[green]" + strings.Repeat("█", filled) + "[-]" +
		"[gray]" + strings.Repeat("░", empty) + "[-]"
}
