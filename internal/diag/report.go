package diag

import (
	"fmt"
	"strings"
)

// Warning is one non-fatal finding. Warnings never stop a pipeline;
// they ride along in the report for the caller to judge.
type Warning struct {
	Code    string
	Message string
}

// Warning codes.
const (
	CodeDeepHierarchy    = "deep_hierarchy"
	CodeTooManyBones     = "too_many_bones"
	CodeZeroWeight       = "zero_weight_vertex"
	CodeTooManyInfl      = "too_many_influences"
	CodeUnmappedBones    = "unmapped_bones"
	CodeNotConverged     = "fit_not_converged"
	CodeFitCancelled     = "fit_cancelled"
	CodeScaleCorrected   = "scale_corrected"
	CodeFlatHandFallback = "flat_hand_fallback"
	CodeHandAlreadyRig   = "hand_already_rigged"
)

// Report aggregates everything diagnostics found over one asset run.
type Report struct {
	Asset         string
	Warnings      []Warning
	UnmappedBones []string
}

// Warnf appends a formatted warning.
func (r *Report) Warnf(code, format string, args ...any) {
	r.Warnings = append(r.Warnings, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Merge folds another report's findings into r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.UnmappedBones = append(r.UnmappedBones, other.UnmappedBones...)
}

// Clean reports whether nothing was flagged.
func (r *Report) Clean() bool {
	return len(r.Warnings) == 0 && len(r.UnmappedBones) == 0
}

func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "asset %s: ", r.Asset)
	if r.Clean() {
		b.WriteString("ok")
		return b.String()
	}
	fmt.Fprintf(&b, "%d warning(s)", len(r.Warnings))
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\n  [%s] %s", w.Code, w.Message)
	}
	if len(r.UnmappedBones) > 0 {
		fmt.Fprintf(&b, "\n  unmapped bones: %s", strings.Join(r.UnmappedBones, ", "))
	}
	return b.String()
}
