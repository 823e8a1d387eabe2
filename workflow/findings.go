package workflow

// Issue is one structured finding reported during a workflow step.
//
// Issues are free-form objects; the engine only interprets the "severity"
// field. Anything else passes through untouched.
type Issue map[string]interface{}

// StepData is the evidence folded into the consolidator for one step.
type StepData struct {
	Findings        string
	FilesChecked    []string
	RelevantFiles   []string
	RelevantContext []string
	Issues          []Issue
	Hypotheses      []string
	Images          []string
	Confidence      Confidence
}

// ConsolidatedFindings accumulates evidence across the steps of one
// tool-call session.
//
// The aggregate is exclusively owned by a single session and is mutated
// only through Update. Severity statistics are derived lazily and memoized;
// any mutation invalidates the memo. The cache has no synchronization and
// assumes single-threaded access per session.
type ConsolidatedFindings struct {
	Findings        []string
	FilesChecked    []string
	RelevantFiles   []string
	RelevantContext []string
	Issues          []Issue
	Hypotheses      []string
	Images          []string
	Confidence      Confidence

	filesSeen   map[string]bool
	relevantSet map[string]bool
	contextSeen map[string]bool
	imagesSeen  map[string]bool

	severityCache map[string]int
}

// NewConsolidatedFindings creates an empty aggregate.
func NewConsolidatedFindings() *ConsolidatedFindings {
	return &ConsolidatedFindings{
		filesSeen:   make(map[string]bool),
		relevantSet: make(map[string]bool),
		contextSeen: make(map[string]bool),
		imagesSeen:  make(map[string]bool),
	}
}

// Update folds one step's evidence into the aggregate.
//
// File and context collections merge as ordered sets; findings, issues and
// hypotheses append. The severity cache is invalidated unconditionally,
// even when the merge fails partway, so stale counts can never survive a
// failed update.
func (c *ConsolidatedFindings) Update(data StepData) (err error) {
	defer c.Invalidate()

	if data.Findings != "" {
		c.Findings = append(c.Findings, data.Findings)
	}
	c.FilesChecked = mergeSet(c.FilesChecked, c.filesSeen, data.FilesChecked)
	c.RelevantFiles = mergeSet(c.RelevantFiles, c.relevantSet, data.RelevantFiles)
	c.RelevantContext = mergeSet(c.RelevantContext, c.contextSeen, data.RelevantContext)
	c.Images = mergeSet(c.Images, c.imagesSeen, data.Images)
	c.Issues = append(c.Issues, data.Issues...)
	c.Hypotheses = append(c.Hypotheses, data.Hypotheses...)
	if data.Confidence != "" {
		if !data.Confidence.Valid() {
			return &ValidationError{Message: "unknown confidence value in step data: " + string(data.Confidence)}
		}
		c.Confidence = data.Confidence
	}

	return nil
}

// mergeSet appends unseen items to dst, tracking membership in seen.
// Order of first appearance is preserved.
func mergeSet(dst []string, seen map[string]bool, items []string) []string {
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			dst = append(dst, item)
		}
	}
	return dst
}

// SeverityCounts returns the severity-label to count mapping for the
// accumulated issues.
//
// An issue counts under its "severity" value when that value is a
// non-empty string; otherwise it counts as "unknown". Aggregation is
// case-sensitive, so distinct casings are distinct keys.
//
// The result is memoized: repeated calls before the next mutation return
// the identical map object, which callers rely on to short-circuit.
func (c *ConsolidatedFindings) SeverityCounts() map[string]int {
	if c.severityCache != nil {
		return c.severityCache
	}

	counts := make(map[string]int)
	for _, issue := range c.Issues {
		counts[severityKey(issue)]++
	}

	c.severityCache = counts
	return counts
}

// severityKey extracts the aggregation key for one issue.
func severityKey(issue Issue) string {
	if issue == nil {
		return "unknown"
	}
	if s, ok := issue["severity"].(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// Invalidate unconditionally clears the severity memo.
func (c *ConsolidatedFindings) Invalidate() {
	c.severityCache = nil
}
