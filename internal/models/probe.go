package models

// ProbeMethod records which check decided a stream's reachability.
type ProbeMethod string

const (
	ProbeHead          ProbeMethod = "HEAD"
	ProbeGetSniff      ProbeMethod = "GET-sniff"
	ProbeKnownPlatform ProbeMethod = "known-platform"
)

// ProbeConfidence distinguishes a definite verdict from one accepted on
// incomplete evidence (e.g. DNS failures from the validating network).
type ProbeConfidence string

const (
	ConfidenceDefinite     ProbeConfidence = "definite"
	ConfidenceInconclusive ProbeConfidence = "inconclusive"
)

// ProbeResult is the ephemeral outcome of one reachability probe. It is not
// persisted; the orchestrator folds Reachable into ChannelRecord.IsActive.
type ProbeResult struct {
	Reachable  bool
	Method     ProbeMethod
	Confidence ProbeConfidence
}
