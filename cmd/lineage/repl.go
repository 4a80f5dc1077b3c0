package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mgomes/lineage/lineage"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

var errREPLSyntax = errors.New("expected `name = new Type args...`, `new Type args...` or `var.Method args...`")

type historyEntry struct {
	input  string
	output string
	isErr  bool
}

type replModel struct {
	textInput   textinput.Model
	ctx         context.Context
	dispatcher  *lineage.Dispatcher
	out         *bytes.Buffer
	env         map[string]lineage.Value
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showVars    bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlV key.Binding
	CtrlK key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous command"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next command"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlV: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "toggle vars"),
	),
	CtrlK: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

// newREPLModel wires a dispatcher over h whose output is captured per
// evaluation. opts.Output is replaced.
func newREPLModel(ctx context.Context, h *lineage.Hierarchy, opts lineage.Options) replModel {
	ti := textinput.New()
	ti.Placeholder = "x = new D, x.Method, :resolve D Method..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "lineage> "

	if ctx == nil {
		ctx = context.Background()
	}
	out := &bytes.Buffer{}
	opts.Output = out

	return replModel{
		textInput:  ti,
		ctx:        ctx,
		dispatcher: lineage.NewDispatcher(h, opts),
		out:        out,
		env:        make(map[string]lineage.Value),
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.EnterAltScreen)
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 12
		m.initialized = true
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlV):
			m.showVars = !m.showVars
			return m, nil

		case key.Matches(msg, keys.CtrlK):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			output, isErr := m.evaluate(input)
			m.history = append(m.history, historyEntry{
				input:  input,
				output: output,
				isErr:  isErr,
			})
			m.cmdHistory = append(m.cmdHistory, input)
			m.textInput.SetValue("")
			m.historyIdx = -1
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":vars", ":v":
		m.showVars = !m.showVars
	case ":types", ":t":
		var names []string
		for _, t := range m.dispatcher.Hierarchy().Types() {
			if p := t.Parent(); p != nil {
				names = append(names, t.Name()+" < "+p.Name())
			} else {
				names = append(names, t.Name())
			}
		}
		m.history = append(m.history, historyEntry{input: input, output: strings.Join(names, "\n")})
	case ":resolve":
		if len(parts) != 3 {
			m.history = append(m.history, historyEntry{input: input, output: "usage: :resolve Type Method", isErr: true})
			break
		}
		res, err := m.dispatcher.Resolve(parts[1], parts[2])
		if err != nil {
			m.history = append(m.history, historyEntry{input: input, output: err.Error(), isErr: true})
			break
		}
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("%s.%s -> %s (%s)", parts[1], parts[2], res.Owner.Name(), res.Method.Kind),
		})
	case ":reset", ":r":
		m.env = make(map[string]lineage.Value)
		m.history = append(m.history, historyEntry{
			input:  input,
			output: "Environment reset",
		})
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	words := strings.Fields(input)
	if len(words) == 0 || strings.HasSuffix(input, " ") {
		return m
	}
	lastWord := words[len(words)-1]

	var completions []string
	if recv, prefix, ok := strings.Cut(lastWord, "."); ok {
		if v, found := m.env[recv]; found && v.Kind() == lineage.KindInstance {
			for _, name := range v.Instance().Type().MethodNames() {
				if strings.HasPrefix(name, prefix) {
					completions = append(completions, recv+"."+name)
				}
			}
		}
	} else {
		candidates := []string{"new"}
		for _, t := range m.dispatcher.Hierarchy().Types() {
			candidates = append(candidates, t.Name())
		}
		for name := range m.env {
			candidates = append(candidates, name)
		}
		for _, c := range candidates {
			if strings.HasPrefix(c, lastWord) {
				completions = append(completions, c)
			}
		}
	}
	slices.Sort(completions)
	completions = slices.Compact(completions)

	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}

	return m
}

// evaluate runs one input line. Text the method bodies printed comes first,
// followed by the result or the error.
func (m replModel) evaluate(input string) (string, bool) {
	m.out.Reset()
	result, err := m.run(input)

	var lines []string
	if printed := strings.TrimRight(m.out.String(), "\n"); printed != "" {
		lines = append(lines, printed)
	}
	if err != nil {
		lines = append(lines, err.Error())
		return strings.Join(lines, "\n"), true
	}
	lines = append(lines, result.Inspect())
	return strings.Join(lines, "\n"), false
}

func (m replModel) run(input string) (lineage.Value, error) {
	target := ""
	if lhs, rhs, ok := strings.Cut(input, "="); ok && isValidIdentifier(strings.TrimSpace(lhs)) {
		target = strings.TrimSpace(lhs)
		input = rhs
	}
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return lineage.NewNil(), errREPLSyntax
	}

	var (
		result lineage.Value
		err    error
	)
	switch {
	case fields[0] == "new":
		if len(fields) < 2 {
			return lineage.NewNil(), errREPLSyntax
		}
		var inst *lineage.Instance
		inst, err = m.dispatcher.Construct(m.ctx, fields[1], parseLiterals(fields[2:])...)
		if err == nil {
			result = lineage.NewInstance(inst)
		}
	case strings.Contains(fields[0], "."):
		recv, method, _ := strings.Cut(fields[0], ".")
		v, ok := m.env[recv]
		if !ok {
			return lineage.NewNil(), fmt.Errorf("undefined variable %q", recv)
		}
		if v.Kind() != lineage.KindInstance {
			return lineage.NewNil(), fmt.Errorf("%s is a %s, not an instance", recv, v.Kind())
		}
		result, err = m.dispatcher.Invoke(m.ctx, v.Instance(), method, parseLiterals(fields[1:])...)
	case len(fields) == 1 && isValidIdentifier(fields[0]):
		v, ok := m.env[fields[0]]
		if !ok {
			return lineage.NewNil(), fmt.Errorf("undefined variable %q", fields[0])
		}
		result = v
	default:
		return lineage.NewNil(), errREPLSyntax
	}
	if err != nil {
		return lineage.NewNil(), err
	}

	m.env["_"] = result
	if target != "" {
		m.env[target] = result
	}
	return result, nil
}

func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_') {
				return false
			}
		} else {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_') {
				return false
			}
		}
	}
	return true
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	header := headerStyle.Render("lineage REPL")
	count := mutedStyle.Render(fmt.Sprintf("%d types", len(m.dispatcher.Hierarchy().Types())))
	b.WriteString(header + " " + count + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8
	if m.showHelp {
		reservedLines += 13
	}
	if m.showVars {
		reservedLines += len(m.env) + 3
	}
	availableHeight := m.height - reservedLines

	historyStart := 0
	if len(m.history) > availableHeight {
		historyStart = max(len(m.history)-availableHeight, 0)
	}

	for i := historyStart; i < len(m.history); i++ {
		entry := m.history[i]
		if entry.input != "" {
			b.WriteString(mutedStyle.Render("  › ") + entry.input + "\n")
		}
		if entry.isErr {
			b.WriteString("  " + errorStyle.Render("✗ "+entry.output) + "\n")
		} else {
			b.WriteString("  " + resultStyle.Render("→ "+entry.output) + "\n")
		}
		b.WriteString("\n")
	}

	if m.showVars {
		b.WriteString(renderVarsPanel(m.env))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+v") + helpDescStyle.Render(" vars  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderVarsPanel(env map[string]lineage.Value) string {
	if len(env) == 0 {
		return borderStyle.Render(mutedStyle.Render("No variables defined"))
	}

	names := make([]string, 0, len(env))
	for name := range env {
		names = append(names, name)
	}
	slices.Sort(names)

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Variables"))
	varNameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("  %s = %s", varNameStyle.Render(name), env[name].Inspect()))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate command history"},
		{"Tab", "Autocomplete types, variables and methods"},
		{"x = new T a b", "Construct T and bind it to x"},
		{"x.M a b", "Invoke M on x"},
		{":resolve T M", "Show which type's body T.M runs"},
		{":types", "List types with their parents"},
		{":help", "Toggle this help"},
		{":vars", "Toggle variables panel"},
		{":clear", "Clear history"},
		{":reset", "Reset environment"},
		{":quit", "Exit REPL"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-14s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}

func newREPLCommand(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Construct instances and invoke methods interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := a.loadHierarchy(file)
			if err != nil {
				return err
			}
			m := newREPLModel(cmd.Context(), h, a.dispatcherOptions(nil))
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "hierarchy YAML file")
	return cmd
}
