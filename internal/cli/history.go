package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/logger"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/rileyhilliard/fleetdash/internal/storage"
	"github.com/rileyhilliard/fleetdash/internal/ui"
	"github.com/rileyhilliard/fleetdash/internal/util"
)

// sparklineWidth is the number of cells in the history sparklines.
const sparklineWidth = 30

// HistoryOutput is the --json payload of `fleetdash history`.
type HistoryOutput struct {
	Server  string           `json:"server,omitempty"`
	Samples []storage.Sample `json:"samples,omitempty"`
	Servers []string         `json:"servers,omitempty"`
}

var historyColumns = []ui.TableColumn{
	{Title: "TIME", Width: 20},
	{Title: "CPU", Width: 8},
	{Title: "MEM", Width: 8},
	{Title: "DISK", Width: 8},
	{Title: "UP", Width: 10},
	{Title: "DOWN", Width: 10},
}

// historyCommand prints recorded samples for server, or the recorded server
// names when server is empty.
func historyCommand(w io.Writer, server string, limit int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Opening would create an empty database, which hides a disabled history.
	if _, err := os.Stat(cfg.History.Path); err != nil {
		return errors.WrapWithCode(err, errors.ErrStore,
			"No history recorded at "+cfg.History.Path,
			"Enable it with 'fleetdash config set history.enabled true', then run 'fleetdash monitor' for a while.")
	}

	store, err := storage.Open(cfg.History.Path, logger.NewEnvLogger("[history]"))
	if err != nil {
		return err
	}
	defer store.Close()

	if server == "" {
		names, err := store.Servers()
		if err != nil {
			return err
		}
		if machineMode {
			return WriteJSONSuccess(w, HistoryOutput{Servers: names})
		}
		fmt.Fprint(w, renderRecordedServers(names))
		return nil
	}

	samples, err := store.Recent(server, limit)
	if err != nil {
		return err
	}
	if machineMode {
		return WriteJSONSuccess(w, HistoryOutput{Server: server, Samples: samples})
	}

	if len(samples) == 0 {
		names, err := store.Servers()
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "No samples for '%s'\n", server)
		if similar := util.SuggestSimilar(server, names, 2); len(similar) > 0 {
			fmt.Fprintf(w, "Did you mean: %s\n", util.JoinOrDefault(similar, ""))
		}
		fmt.Fprintln(w)
		fmt.Fprint(w, renderRecordedServers(names))
		return nil
	}

	fmt.Fprint(w, renderHistory(server, samples))
	return nil
}

func renderRecordedServers(names []string) string {
	if len(names) == 0 {
		return ui.MutedStyle().Render("No servers recorded yet") + "\n"
	}
	var b strings.Builder
	b.WriteString("Recorded servers:\n")
	for _, name := range names {
		b.WriteString("  " + name + "\n")
	}
	return b.String()
}

func renderHistory(server string, samples []storage.Sample) string {
	rows := make([][]string, len(samples))
	cpu := make([]float64, len(samples))
	mem := make([]float64, len(samples))
	for i, s := range samples {
		rows[i] = []string{
			s.Timestamp.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%.1f%%", s.CPU),
			fmt.Sprintf("%.1f%%", s.Mem),
			fmt.Sprintf("%.1f%%", s.Storage),
			nezha.FormatSpeed(s.Up),
			nezha.FormatSpeed(s.Down),
		}
		cpu[i] = s.CPU
		mem[i] = s.Mem
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s (%s)\n\n", server, util.Count(len(samples), "sample", "samples")))
	b.WriteString(ui.RenderSimpleTable(historyColumns, rows))
	b.WriteString("\n\n")
	b.WriteString("CPU " + ui.RenderSparkline(cpu, sparklineWidth) + "\n")
	b.WriteString("MEM " + ui.RenderSparkline(mem, sparklineWidth) + "\n")
	return b.String()
}
