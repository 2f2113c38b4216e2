package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/provtrack/internal/schema"
)

// writeRecord renders one event tree as indented text.
func writeRecord(w io.Writer, rec schema.Record) {
	fmt.Fprintf(w, "Event %s\n", rec.Key)
	fmt.Fprintf(w, "  Kind: %s  Seq: %d  ID: %s\n", rec.Event.Kind, rec.Seq, formatID(rec.ID))

	switch rec.Event.Kind {
	case schema.EventFit:
		writeFit(w, rec.Event.Fit, "  ")
	case schema.EventTransform:
		writeTransform(w, rec.Event.Transform, "  ")
	case schema.EventPipeline:
		writePipeline(w, rec.Event.Pipeline, "  ")
	}
}

func writePipeline(w io.Writer, pe *schema.PipelineEvent, indent string) {
	writeFit(w, &pe.PipelineFit, indent)
	inner := indent + "  "
	for _, st := range pe.FitStages {
		if st.Kind == schema.StageNested {
			writePipeline(w, st.Nested, inner)
			continue
		}
		writeFit(w, st.Fit, inner)
	}
	for _, st := range pe.TransformStages {
		if st.Kind == schema.StageNested {
			writePipeline(w, st.Nested, inner)
			continue
		}
		writeTransform(w, st.Transform, inner)
	}
}

func writeFit(w io.Writer, fe *schema.FitEvent, indent string) {
	fmt.Fprintf(w, "%sfit %s%s  transformer=%s df=%s spec=%s\n",
		indent, fe.Model.Type, formatTag(fe.Model.Tag),
		formatID(fe.Model.ID), formatID(fe.DF.ID), formatID(fe.Spec.ID))
	fmt.Fprintf(w, "%s  data: %s\n", indent, formatFrame(fe.DF))
	fmt.Fprintf(w, "%s  state: %s\n", indent, formatFloats(fe.Model.State))
}

func writeTransform(w io.Writer, te *schema.TransformEvent, indent string) {
	fmt.Fprintf(w, "%stransform %s%s  transformer=%s old_df=%s new_df=%s\n",
		indent, te.Transformer.Type, formatTag(te.Transformer.Tag),
		formatID(te.Transformer.ID), formatID(te.OldDataFrame.ID), formatID(te.NewDataFrame.ID))
	fmt.Fprintf(w, "%s  in:  %s\n", indent, formatFrame(te.OldDataFrame))
	fmt.Fprintf(w, "%s  out: %s\n", indent, formatFrame(te.NewDataFrame))
}

// writeHyperParameters lists hyperparameters one per line. Bounds are
// shown only when the parameter declares a range.
func writeHyperParameters(w io.Writer, hps []schema.HyperParameter, indent string) {
	for _, hp := range hps {
		fmt.Fprintf(w, "%s%s = %s (%s)", indent, hp.Name, hp.Value, hp.Type)
		if !hp.Unbounded() {
			fmt.Fprintf(w, " in [%s, %s]", formatFloat(hp.MinValue), formatFloat(hp.MaxValue))
		}
		fmt.Fprintln(w)
	}
}

func formatID(id int64) string {
	if id == schema.Unassigned {
		return "-"
	}
	return strconv.FormatInt(id, 10)
}

func formatTag(tag string) string {
	if tag == "" {
		return ""
	}
	return " [" + tag + "]"
}

func formatFrame(df schema.DataFrame) string {
	cols := make([]string, len(df.Columns))
	for i, c := range df.Columns {
		cols[i] = c.Name + ":" + c.Type
	}
	return fmt.Sprintf("%d rows%s, columns [%s]", df.NumRows, formatTag(df.Tag), strings.Join(cols, " "))
}

func formatFloats(fs []float64) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = formatFloat(f)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
