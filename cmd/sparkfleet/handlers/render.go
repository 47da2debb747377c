package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"gopkg.in/yaml.v3"

	"github.com/imamik/sparkfleet/internal/cluster"
)

var (
	colorGreen  = lipgloss.Color("#22c55e")
	colorYellow = lipgloss.Color("#eab308")
	colorRed    = lipgloss.Color("#ef4444")
	colorDim    = lipgloss.Color("#6b7280")
	colorWhite  = lipgloss.Color("#f9fafb")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWhite)
	dimStyle   = lipgloss.NewStyle().Foreground(colorDim)
)

// styledOutput reports whether stdout renders colour. Replaced in tests.
var styledOutput = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// Output formats accepted by describe.
const (
	OutputText = "text"
	OutputYAML = "yaml"
)

// stateStyle colours an aggregate state.
func stateStyle(state cluster.State) lipgloss.Style {
	switch state {
	case cluster.StateRunning:
		return lipgloss.NewStyle().Foreground(colorGreen)
	case cluster.StateStopped, cluster.StateInconsistent:
		return lipgloss.NewStyle().Foreground(colorRed)
	default:
		return lipgloss.NewStyle().Foreground(colorYellow)
	}
}

// renderStatus writes the fixed-format status of c. With styled set, the
// cluster name and state are coloured; the text is otherwise identical.
func renderStatus(ctx context.Context, w io.Writer, c *cluster.Cluster, styled bool) error {
	var buf bytes.Buffer
	if err := c.PrintStatus(ctx, &buf); err != nil {
		return err
	}
	if !styled {
		_, err := w.Write(buf.Bytes())
		return err
	}

	state := c.State()
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			line = titleStyle.Render(line)
		case strings.HasPrefix(line, "  state: "):
			line = "  state: " + stateStyle(state).Render(string(state))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// renderYAML writes the summaries of clusters as one YAML document.
func renderYAML(ctx context.Context, w io.Writer, clusters []*cluster.Cluster) error {
	summaries := make([]*cluster.Summary, 0, len(clusters))
	for _, c := range clusters {
		s, err := c.Describe(ctx)
		if err != nil {
			return err
		}
		summaries = append(summaries, s)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(summaries); err != nil {
		return fmt.Errorf("failed to encode clusters: %w", err)
	}
	return enc.Close()
}

// renderCommandResults writes each host's output under a host heading.
func renderCommandResults(w io.Writer, results []cluster.CommandResult, styled bool) {
	for _, r := range results {
		heading := "==> " + r.Host
		if styled {
			heading = dimStyle.Render(heading)
		}
		_, _ = fmt.Fprintln(w, heading)
		_, _ = io.WriteString(w, r.Output)
		if r.Output != "" && !strings.HasSuffix(r.Output, "\n") {
			_, _ = fmt.Fprintln(w)
		}
	}
}
