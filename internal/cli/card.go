package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/taskcard/internal/core"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

// cardDisplay holds the three card regions. The regions only exist once the
// terminal size is known; until then Regions reports them as unavailable.
type cardDisplay struct {
	ready bool
	view  core.View
}

func newCardDisplay() *cardDisplay {
	return &cardDisplay{view: core.WelcomeView()}
}

func (d *cardDisplay) Regions() (core.Regions, bool) {
	if !d.ready {
		return nil, false
	}
	return d, true
}

func (d *cardDisplay) SetTitle(text string)           { d.view.Title = text }
func (d *cardDisplay) SetBody(text string)            { d.view.Body = text }
func (d *cardDisplay) SetTriggerEnabled(enabled bool) { d.view.TriggerEnabled = enabled }

type cardModel struct {
	ctx      context.Context
	workflow core.Workflow
	fetcher  core.TaskFetcher
	display  *cardDisplay
	binder   *core.ViewBinder
	spinner  spinner.Model

	// resume re-renders the stored state on first layout instead of keeping
	// the welcome card.
	resume bool

	// pending is set while this process has a fetch in flight. A stored
	// fetchingTask without one was left behind by another process and does
	// not block the trigger.
	pending bool

	width  int
	height int
	err    error
}

// taskFetchedMsg carries a finished fetch back into the update loop.
type taskFetchedMsg struct {
	req  core.FetchRequest
	task models.Task
	err  error
}

// slotChangedMsg reports that another process rewrote the stored state.
type slotChangedMsg struct{}

// Style definitions.
var (
	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2)

	cardTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cardErrorTitleStyle = cardTitleStyle.
				Background(lipgloss.Color("196"))

	cardBodyStyle = lipgloss.NewStyle().
			MarginTop(1).
			MarginBottom(1)

	triggerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46"))

	triggerDisabledStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))

	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))

	cardHelpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	cardErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newCardModel(ctx context.Context, workflow core.Workflow, fetcher core.TaskFetcher, display *cardDisplay, binder *core.ViewBinder) cardModel {
	return cardModel{
		ctx:      ctx,
		workflow: workflow,
		fetcher:  fetcher,
		display:  display,
		binder:   binder,
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
	}
}

func (m cardModel) Init() tea.Cmd {
	return nil
}

func (m cardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "enter", " ", "g":
			return m.trigger()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.display.ready {
			m.display.ready = true
			if m.resume {
				m.binder.Render(m.workflow.Current())
			}
		}
		return m, nil

	case taskFetchedMsg:
		m.pending = false
		if _, err := m.workflow.Complete(msg.req, msg.task, msg.err); err != nil {
			m.err = err
		}
		return m, nil

	case slotChangedMsg:
		m.binder.Render(m.workflow.Current())
		return m, nil

	case spinner.TickMsg:
		if !m.pending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// trigger starts a task request. It does nothing while this card has a
// request in flight, which is the only guard against overlapping requests.
func (m cardModel) trigger() (tea.Model, tea.Cmd) {
	if !m.display.ready || m.pending {
		return m, nil
	}

	req, err := m.workflow.Begin()
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.pending = true
	return m, tea.Batch(m.spinner.Tick, fetchTask(m.ctx, m.fetcher, req))
}

func fetchTask(ctx context.Context, fetcher core.TaskFetcher, req core.FetchRequest) tea.Cmd {
	return func() tea.Msg {
		task, err := fetcher.FetchTask(ctx, req.TaskID)
		return taskFetchedMsg{req: req, task: task, err: err}
	}
}

func (m cardModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	v := m.display.view

	titleStyle := cardTitleStyle
	if v.Title == "Ups ..." {
		titleStyle = cardErrorTitleStyle
	}

	width := m.width - 4
	if width > 64 {
		width = 64
	}
	if width < 20 {
		width = 20
	}

	var trigger string
	if !m.pending {
		trigger = triggerStyle.Render("[ " + core.TriggerLabel + " ]")
	} else {
		trigger = triggerDisabledStyle.Render("[ "+core.TriggerLabel+" ]") + " " + m.spinner.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(v.Title),
		cardBodyStyle.Width(width-6).Render(v.Body),
		trigger,
	)

	var b strings.Builder
	b.WriteString(cardStyle.Width(width).Render(content))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(cardErrStyle.Render(fmt.Sprintf("  Error: %s", m.err)))
		b.WriteString("\n\n")
	}
	b.WriteString(cardHelpStyle.Render("enter/space/g: get task | q: quit"))
	return b.String()
}

var runResume bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Show the interactive task card",
	Long: `Show the task card in the terminal.

The stored state is reset to start, as on every application load, and the
card shows the welcome screen. Press enter, space or g to fetch the next task,
q to quit. With --resume the stored state is kept and shown instead.

When the state lives in the file backend the card follows changes made by
other taskcard processes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if NewWorkflow == nil || Fetcher == nil {
			return fmt.Errorf("workflow not initialized")
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		display := newCardDisplay()
		binder := core.NewViewBinder(display, Reporter)
		wf := NewWorkflow(binder)

		if !runResume {
			if err := wf.Init(); err != nil {
				return fmt.Errorf("initializing state: %w", err)
			}
		}

		if err := startMetricsServer(ctx, cmd); err != nil {
			return err
		}

		m := newCardModel(ctx, wf, Fetcher, display, binder)
		m.resume = runResume
		p := tea.NewProgram(m, tea.WithAltScreen())

		if WatchState != nil {
			stop, err := WatchState(func() { p.Send(slotChangedMsg{}) })
			if err != nil {
				return fmt.Errorf("watching state: %w", err)
			}
			defer func() { _ = stop() }()
		}

		_, err := p.Run()
		return err
	},
}

func init() {
	runCmd.Flags().BoolVar(&runResume, "resume", false, "Keep the stored state instead of starting over")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	rootCmd.AddCommand(runCmd)
}
