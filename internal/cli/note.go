package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rileyhilliard/fleetdash/internal/errors"
	"github.com/rileyhilliard/fleetdash/internal/nezha"
	"github.com/rileyhilliard/fleetdash/internal/ui"
)

// NoteOutput is the --json payload of `fleetdash note`.
type NoteOutput struct {
	Billing *BillingJSON `json:"billing,omitempty"`
	Plan    []string     `json:"plan,omitempty"`
}

// noteCommand parses arg (or stdin when arg is "-") as a public note and
// prints what it carries, evaluated at now.
func noteCommand(w io.Writer, r io.Reader, arg string, now time.Time) error {
	raw := arg
	if arg == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't read the note from stdin", "")
		}
		raw = string(data)
	}

	note := nezha.ParseNote(raw)

	if machineMode {
		out := NoteOutput{}
		if note.Billing != nil {
			out.Billing = billingJSON(*note.Billing, note.Billing.Status(now))
		}
		if note.Plan != nil {
			out.Plan = note.Plan.Labels()
		}
		return WriteJSONSuccess(w, out)
	}

	fmt.Fprint(w, renderNote(note, now))
	return nil
}

func renderNote(note nezha.NoteData, now time.Time) string {
	if note.Empty() {
		return ui.MutedStyle().Render("No billing or plan data in this note") + "\n"
	}

	var b strings.Builder
	if bi := note.Billing; bi != nil {
		b.WriteString("Billing\n")
		st := bi.Status(now)
		switch {
		case st.NeverExpires:
			b.WriteString("  Remaining: forever\n")
		case st.Expired:
			b.WriteString(ui.ErrorStyle().Render(fmt.Sprintf("  Expired: %d days", -st.DaysLeft)) + "\n")
		case st.Known:
			b.WriteString(fmt.Sprintf("  Remaining: %d days\n", st.DaysLeft))
		case bi.EndDate != "":
			b.WriteString(ui.WarningStyle().Render(fmt.Sprintf("  End date '%s' not recognized", bi.EndDate)) + "\n")
		}
		if end, ok := bi.EndTime(); ok {
			b.WriteString(fmt.Sprintf("  Ends: %s\n", end.Format("2006-01-02")))
		}
		if label := bi.AmountLabel(); label != "" {
			if st.Amount == nezha.AmountPrice {
				label = "Price: " + label
			}
			b.WriteString("  " + label + "\n")
		}
		if bi.AutoRenewal != "" {
			b.WriteString(fmt.Sprintf("  Auto renewal: %s\n", bi.AutoRenewal))
		}
	}

	if p := note.Plan; p != nil {
		if labels := p.Labels(); len(labels) > 0 {
			b.WriteString("Plan\n")
			b.WriteString("  " + strings.Join(labels, "  ") + "\n")
		}
		var stacks []string
		if p.IPv4 == "1" {
			stacks = append(stacks, "IPv4")
		}
		if p.IPv6 == "1" {
			stacks = append(stacks, "IPv6")
		}
		if len(stacks) > 0 {
			b.WriteString(ui.MutedStyle().Render("  "+strings.Join(stacks, " / ")) + "\n")
		}
	}
	return b.String()
}
