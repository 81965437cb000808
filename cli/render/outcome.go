package render

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/pithecene-io/mediaresolve/metrics"
	"github.com/pithecene-io/mediaresolve/types"
)

// OutcomeView is the rendered result of one resolve call.
type OutcomeView struct {
	Label      string             `json:"label,omitempty" yaml:"label,omitempty"`
	ReportPath string             `json:"report_path,omitempty" yaml:"report_path,omitempty"`
	Report     *types.BatchReport `json:"report" yaml:"report"`
	Metrics    *metrics.Snapshot  `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// RenderOutcome renders a batch result. json and yaml emit the view as is;
// table prints a summary line followed by one row per handle.
func (r *Renderer) RenderOutcome(v OutcomeView) error {
	if r.format != FormatTable {
		return r.Render(v)
	}

	rep := v.Report
	summary := fmt.Sprintf("batch %s: %d handles, %d resolved, %d failed (%s)",
		rep.BatchID, rep.Total, rep.Resolved, rep.Failed,
		(time.Duration(rep.DurationMs) * time.Millisecond).String())
	if _, err := fmt.Fprintln(r.out, r.styles.summary(summary, rep.Resolved, rep.Failed)); err != nil {
		return err
	}

	if len(rep.Items) > 0 {
		w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "INDEX\tKIND\tSIZE\tDETAIL\tSTATUS")
		for _, it := range rep.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				it.Index, kindCell(it), sizeCell(it), detailCell(it), r.styles.status(it.Status))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if v.ReportPath != "" {
		fmt.Fprintf(r.out, "%s %s\n", r.styles.label.Render("report:"), v.ReportPath)
	}
	if v.Metrics != nil {
		fmt.Fprintln(r.out)
		return r.renderStructTable(v.Metrics)
	}
	return nil
}

func kindCell(it types.ReportItem) string {
	if it.Kind == "" {
		return "-"
	}
	return string(it.Kind)
}

func sizeCell(it types.ReportItem) string {
	if it.Status != types.ItemResolved {
		return "-"
	}
	return FormatBytes(it.SizeBytes)
}

func detailCell(it types.ReportItem) string {
	switch {
	case it.Status == types.ItemFailed:
		return string(it.FailureKind)
	case it.Kind == types.KindVideo:
		return it.Path
	default:
		return fmt.Sprintf("%s %dx%d", it.Format, it.Width, it.Height)
	}
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
