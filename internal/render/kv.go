package render

import (
	"fmt"
	"io"
	"time"

	"github.com/mercury-protocol/ceres/internal/pipeline"
)

// KV is one line of machine-readable command output.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WriteKV writes pairs as stable "key: value" lines, in order.
func WriteKV(w io.Writer, pairs []KV) error {
	for _, p := range pairs {
		if _, err := fmt.Fprintf(w, "%s: %s\n", p.Key, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// GenReportKV flattens a gen report for WriteKV.
func GenReportKV(rep *pipeline.Report) []KV {
	pairs := []KV{
		{"project", rep.Project},
		{"gen_dir", rep.GenDir},
		{"reached", rep.Reached.String()},
	}
	for _, s := range rep.Stages {
		pairs = append(pairs, KV{"stage." + s.Stage.String(), s.Duration.Round(time.Millisecond).String()})
	}
	if rep.Failed {
		pairs = append(pairs, KV{"failed", "true"})
		if rep.CleanedUp {
			pairs = append(pairs, KV{"cleaned_up", "true"})
		}
	}
	return pairs
}
