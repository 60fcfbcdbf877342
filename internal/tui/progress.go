package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vvka-141/pgrls/internal/ingest"
	"github.com/vvka-141/pgrls/pkg/pgrls"
)

// progressMsg carries one committed batch into the model.
type progressMsg ingest.Progress

// doneMsg carries the finished run into the model.
type doneMsg struct {
	summary pgrls.Summary
	err     error
}

// seedModel renders a spinner plus running row counts while a seeding
// run is in flight, then a one-line verdict.
type seedModel struct {
	spinner  spinner.Model
	strategy string
	cancel   context.CancelFunc

	planned   int
	completed int
	failures  int

	done    bool
	summary pgrls.Summary
	err     error
}

func newSeedModel(strategy string, planned int, cancel context.CancelFunc) seedModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	return seedModel{
		spinner:  s,
		strategy: strategy,
		cancel:   cancel,
		planned:  planned,
	}
}

// Init implements tea.Model.
func (m seedModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m seedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Cancel the run; the final doneMsg still arrives with the
			// partial summary.
			m.cancel()
			return m, nil
		}
	case progressMsg:
		m.completed = msg.Completed
		m.planned = msg.Planned
		return m, nil
	case doneMsg:
		m.done = true
		m.summary = msg.summary
		m.err = msg.err
		m.completed = msg.summary.Completed
		m.failures = len(msg.summary.FailedBatches)
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m seedModel) View() string {
	if m.done {
		line := fmt.Sprintf("%d of %d rows loaded in %.1fs (%s)",
			m.summary.Completed, m.summary.Planned, m.summary.Elapsed.Seconds(), m.strategy)
		if m.err != nil {
			return ErrorStyle.Render(SymbolCross+" "+line) + "\n"
		}
		if m.failures > 0 {
			return WarningStyle.Render(fmt.Sprintf("%s %s, %d batches failed", SymbolCross, line, m.failures)) + "\n"
		}
		return SuccessStyle.Render(SymbolCheck+" "+line) + "\n"
	}

	return fmt.Sprintf("%s %s %s\n%s\n",
		m.spinner.View(),
		TitleStyle.Render("seeding"),
		CountStyle.Render(fmt.Sprintf("%d/%d rows (%s)", m.completed, m.planned, m.strategy)),
		HelpStyle.Render("q to cancel"),
	)
}

// RunSeed drives run under a live progress display. It supplies the
// progress callback, cancels ctx when the user quits, and returns run's
// summary and error unchanged once the display has shut down.
func RunSeed(ctx context.Context, strategy string, planned int,
	run func(ctx context.Context, onProgress func(ingest.Progress)) (pgrls.Summary, error),
) (pgrls.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(newSeedModel(strategy, planned, cancel), tea.WithContext(ctx))

	type result struct {
		summary pgrls.Summary
		err     error
	}
	resCh := make(chan result, 1)

	go func() {
		summary, err := run(ctx, func(p ingest.Progress) {
			program.Send(progressMsg(p))
		})
		program.Send(doneMsg{summary: summary, err: err})
		resCh <- result{summary: summary, err: err}
	}()

	// The program exits on doneMsg or on ctx cancellation; either way
	// the run goroutine always delivers its result.
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		cancel()
	}

	res := <-resCh
	return res.summary, res.err
}
