package ui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tick/internal/auth"
	"github.com/five82/tick/internal/prefs"
	"github.com/five82/tick/internal/state"
	"github.com/five82/tick/internal/syncer"
	"github.com/five82/tick/internal/todo"
)

// View represents the current active view.
type View int

const (
	ViewList View = iota
	ViewDiagnostics
	ViewLogin
)

type focus int

const (
	focusName focus = iota
	focusDescription
	focusList
	focusCount
)

// Controller is the part of the sync controller the UI drives.
type Controller interface {
	FetchAll(ctx context.Context)
	Create(form todo.Form) error
	Delete(id string) error
	ToggleCompleted(id string) error
	Close()
}

var _ Controller = (*syncer.Controller)(nil)

// Subscription is a running push listener.
type Subscription interface {
	// Done is closed once the listener stopped.
	Done() <-chan struct{}
	// Err reports why it stopped; nil after Close.
	Err() error
	Close() error
}

var _ Subscription = (*syncer.Subscription)(nil)

// Connection is what Connect hands back once the backend is reachable.
type Connection struct {
	Controller Controller
	Subscribe  func(ctx context.Context) (Subscription, error)
	User       string
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Store   *state.Store
	// Connect authenticates and builds the controller. An error wrapping
	// auth.ErrNoSession shows the login view.
	Connect   func(ctx context.Context) (*Connection, error)
	LoginHint string
	LogPath   string
	PrefsPath string
	PollTick  time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	store     *state.Store
	connect   func(ctx context.Context) (*Connection, error)
	loginHint string
	logPath   string
	prefsPath string
	pollTick  time.Duration

	conn *Connection
	sub  Subscription

	theme         Theme
	keys          keyMap
	currentView   View
	width         int
	height        int
	ready         bool
	focus         focus
	hideCompleted bool

	inputs   [2]textinput.Model
	spinner  spinner.Model
	snapshot state.Snapshot
	selected int
	status   string

	modal    Modal
	showHelp bool

	connecting bool
	loginErr   error

	logLines []string
	logErr   error

	markdown *markdownCache
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	store := opts.Store
	if store == nil {
		store = state.NewStore()
	}
	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = 250 * time.Millisecond
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	p := prefs.Load(prefsPath)

	name := textinput.New()
	name.Placeholder = "Name"
	name.Prompt = "Name        "
	name.CharLimit = 120
	name.Focus()

	desc := textinput.New()
	desc.Placeholder = "Description"
	desc.Prompt = "Description "
	desc.CharLimit = 500

	return Model{
		ctx:           ctx,
		store:         store,
		connect:       opts.Connect,
		loginHint:     opts.LoginHint,
		logPath:       opts.LogPath,
		prefsPath:     prefsPath,
		pollTick:      pollTick,
		theme:         GetTheme(p.Theme),
		keys:          DefaultKeyMap(),
		currentView:   ViewList,
		hideCompleted: p.HideCompleted,
		inputs:        [2]textinput.Model{name, desc},
		spinner:       spinner.New(spinner.WithSpinner(spinner.Dot)),
		snapshot:      store.Snapshot(),
		connecting:    opts.Connect != nil,
		markdown:      &markdownCache{},
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		textinput.Blink,
		m.spinner.Tick,
		tickCmd(m.pollTick),
	}
	if m.connect != nil {
		cmds = append(cmds, connectCmd(m.ctx, m.connect))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		for i := range m.inputs {
			m.inputs[i].Width = max(msg.Width-20, 10)
		}
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tickCmd(m.pollTick)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case connectedMsg:
		m.connecting = false
		m.loginErr = nil
		m.conn = msg.conn
		m.currentView = ViewList
		m.status = ""
		if msg.conn.User != "" {
			m.status = "Signed in as " + msg.conn.User
		}
		return m, tea.Batch(fetchCmd(m.ctx, msg.conn.Controller), subscribeCmd(m.ctx, msg.conn.Subscribe))

	case connectFailedMsg:
		m.connecting = false
		if errors.Is(msg.err, auth.ErrNoSession) {
			m.loginErr = msg.err
			m.currentView = ViewLogin
			return m, nil
		}
		m.store.Dispatch(state.ReportError(msg.err))
		m.refresh()
		return m, nil

	case fetchedMsg:
		m.refresh()
		return m, nil

	case subscribedMsg:
		m.sub = msg.sub
		return m, waitSubscriptionCmd(msg.sub)

	case subscriptionEndedMsg:
		if msg.sub != m.sub {
			return m, nil
		}
		reason := "subscription ended"
		if msg.err != nil {
			reason = msg.err.Error()
		}
		m.status = "Live updates unavailable: " + reason
		return m, nil

	case subscribeFailedMsg:
		m.status = "Live updates unavailable: " + msg.err.Error()
		return m, nil

	case logLinesMsg:
		m.logLines = msg.lines
		m.logErr = msg.err
		return m, nil
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	switch m.currentView {
	case ViewLogin:
		b.WriteString(m.renderLogin())
	case ViewDiagnostics:
		b.WriteString(m.renderDiagnostics())
	default:
		b.WriteString(m.renderMain())
	}
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m.quit()
	}

	if m.modal != nil {
		modal, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, nil
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch m.currentView {
	case ViewLogin:
		return m.handleLoginKey(msg)
	case ViewDiagnostics:
		return m.handleDiagnosticsKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.NextFocus):
		m.setFocus((m.focus + 1) % focusCount)
		return m, nil
	case key.Matches(msg, m.keys.PrevFocus):
		m.setFocus((m.focus + focusCount - 1) % focusCount)
		return m, nil
	}

	if m.focus != focusList {
		return m.handleFormKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		m.submit()
		return m, nil
	case key.Matches(msg, m.keys.Escape):
		m.setFocus(focusList)
		return m, nil
	}

	idx := int(m.focus)
	before := m.inputs[idx].Value()
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	if value := m.inputs[idx].Value(); value != before {
		field := todo.FieldName
		if m.focus == focusDescription {
			field = todo.FieldDescription
		}
		m.store.Dispatch(state.SetInput(field, value))
		m.refresh()
	}
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := m.visibleItems()
	switch {
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.savePrefs()
	case key.Matches(msg, m.keys.HideCompleted):
		m.hideCompleted = !m.hideCompleted
		m.savePrefs()
		m.clampSelection()
	case key.Matches(msg, m.keys.Diagnostics):
		m.currentView = ViewDiagnostics
		return m, readLogCmd(m.logPath)
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(items)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.selected = max(len(items)-1, 0)
	case key.Matches(msg, m.keys.Submit):
		m.withSelected(func(item todo.Item) error {
			return m.conn.Controller.ToggleCompleted(item.ID)
		})
	case key.Matches(msg, m.keys.Delete):
		m.withSelected(func(item todo.Item) error {
			return m.conn.Controller.Delete(item.ID)
		})
		m.clampSelection()
	}
	return m, nil
}

// submit hands the stored form to the controller. A rejected form raises
// the alert and leaves state alone.
func (m *Model) submit() {
	if m.conn == nil {
		m.status = "Not connected"
		return
	}
	err := m.conn.Controller.Create(m.store.Snapshot().Form)
	if errors.Is(err, syncer.ErrMissingFields) {
		m.modal = newAlert("Missing fields", "Please enter name and description.")
		return
	}
	if err != nil {
		m.status = err.Error()
		return
	}
	m.refresh()
	m.selected = 0
	m.setFocus(focusName)
}

func (m *Model) withSelected(action func(todo.Item) error) {
	item, ok := m.selectedItem()
	if !ok || m.conn == nil {
		return
	}
	if item.Pending() {
		m.status = "Still syncing " + item.Name
		return
	}
	if err := action(item); err != nil {
		if errors.Is(err, syncer.ErrNotFound) {
			m.status = "Todo no longer exists"
		} else {
			m.status = err.Error()
		}
	}
	m.refresh()
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if m.sub != nil {
		_ = m.sub.Close()
	}
	return m, tea.Quit
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	for i := range m.inputs {
		if focus(i) == f {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

// refresh pulls a new snapshot when the store changed and mirrors the form
// back into the inputs, so a reset form clears them.
func (m *Model) refresh() {
	snap := m.store.Snapshot()
	if snap.Version == m.snapshot.Version {
		return
	}
	m.snapshot = snap
	if m.inputs[0].Value() != snap.Form.Name {
		m.inputs[0].SetValue(snap.Form.Name)
	}
	if m.inputs[1].Value() != snap.Form.Description {
		m.inputs[1].SetValue(snap.Form.Description)
	}
	m.clampSelection()
}

func (m *Model) clampSelection() {
	n := len(m.visibleItems())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m Model) visibleItems() []todo.Item {
	if !m.hideCompleted {
		return m.snapshot.Items
	}
	out := make([]todo.Item, 0, len(m.snapshot.Items))
	for _, item := range m.snapshot.Items {
		if !item.Completed {
			out = append(out, item)
		}
	}
	return out
}

func (m Model) selectedItem() (todo.Item, bool) {
	items := m.visibleItems()
	if m.selected < 0 || m.selected >= len(items) {
		return todo.Item{}, false
	}
	return items[m.selected], true
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, HideCompleted: m.hideCompleted}); err != nil {
		m.status = "Could not save preferences: " + err.Error()
	}
}

// Messages

type tickMsg time.Time

type connectedMsg struct{ conn *Connection }

type connectFailedMsg struct{ err error }

type fetchedMsg struct{}

type subscribedMsg struct{ sub Subscription }

type subscriptionEndedMsg struct {
	sub Subscription
	err error
}

type subscribeFailedMsg struct{ err error }

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func connectCmd(ctx context.Context, connect func(context.Context) (*Connection, error)) tea.Cmd {
	return func() tea.Msg {
		conn, err := connect(ctx)
		if err != nil {
			return connectFailedMsg{err: err}
		}
		return connectedMsg{conn: conn}
	}
}

func fetchCmd(ctx context.Context, ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.FetchAll(ctx)
		return fetchedMsg{}
	}
}

func subscribeCmd(ctx context.Context, subscribe func(context.Context) (Subscription, error)) tea.Cmd {
	if subscribe == nil {
		return nil
	}
	return func() tea.Msg {
		sub, err := subscribe(ctx)
		if err != nil {
			return subscribeFailedMsg{err: err}
		}
		return subscribedMsg{sub: sub}
	}
}

func waitSubscriptionCmd(sub Subscription) tea.Cmd {
	return func() tea.Msg {
		<-sub.Done()
		return subscriptionEndedMsg{sub: sub, err: sub.Err()}
	}
}

// Run starts the Bubble Tea program and tears the connection down when the
// program exits.
func Run(opts Options) error {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(opts.Context))
	final, err := p.Run()
	if m, ok := final.(Model); ok {
		if m.sub != nil {
			_ = m.sub.Close()
		}
		if m.conn != nil && m.conn.Controller != nil {
			m.conn.Controller.Close()
		}
	}
	return err
}
