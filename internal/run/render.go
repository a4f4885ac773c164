package run

import (
	"fmt"
	"io"
	"strings"
	"time"

	"blastbot/internal/dispatch"
	"blastbot/internal/transport"
)

func (c *Controller) renderReport(rep *dispatch.Report) {
	w := c.out
	fmt.Fprintln(w, "=== announcement run report ===")
	fmt.Fprintf(w, "recipients: %d\n", rep.Total)
	fmt.Fprintf(w, "delivered:  %d (%.1f%%)\n", rep.Success, rep.SuccessRatio()*100)
	fmt.Fprintf(w, "blocked:    %d\n", rep.Blocked)
	fmt.Fprintf(w, "invalid:    %d\n", rep.Invalid)
	fmt.Fprintf(w, "transient:  %d\n", rep.Transient)
	if !rep.DoneAt.IsZero() && !rep.StartedAt.IsZero() {
		fmt.Fprintf(w, "duration:   %s\n", rep.DoneAt.Sub(rep.StartedAt).Round(time.Second))
	}
	renderSample(w, "blocked", rep.BlockedSample, rep.Blocked)
	renderSample(w, "invalid", rep.InvalidSample, rep.Invalid)
	renderSample(w, "transient", rep.TransientSample, rep.Transient)
}

func renderSample(w io.Writer, label string, sample []transport.Recipient, total int) {
	if len(sample) == 0 {
		return
	}
	parts := make([]string, 0, len(sample))
	for _, r := range sample {
		parts = append(parts, r.String())
	}
	suffix := ""
	if total > len(sample) {
		suffix = fmt.Sprintf(" (+%d more)", total-len(sample))
	}
	fmt.Fprintf(w, "%s sample: %s%s\n", label, strings.Join(parts, ", "), suffix)
}

func (c *Controller) renderHandleResults(results []dispatch.HandleResult) {
	w := c.out
	fmt.Fprintln(w, "=== test run report ===")
	for _, res := range results {
		switch res.Status {
		case dispatch.HandleSuccess:
			fmt.Fprintf(w, "%s: success (recipient %s)\n", res.Handle, res.Recipient)
		case dispatch.HandleNotFound:
			fmt.Fprintf(w, "%s: not-found\n", res.Handle)
		default:
			fmt.Fprintf(w, "%s: failed (%s)\n", res.Handle, res.Detail)
		}
	}
}
