package driven

import "time"

// MetricsRecorder receives operational measurements from the core.
// Implementations must not block or perform I/O.
type MetricsRecorder interface {
	SetAdmission(sessions, queueDepth int, busy bool)
	IncTakeover()
	IncQuery(intent string)
	IncCollectionFailure(collection string)
	IncFallback(stage string)
	ObserveSearch(d time.Duration)
	ObserveGeneration(d time.Duration)
}

// NopMetrics discards every measurement
type NopMetrics struct{}

func (NopMetrics) SetAdmission(int, int, bool) {}
func (NopMetrics) IncTakeover() {}
func (NopMetrics) IncQuery(string) {}
func (NopMetrics) IncCollectionFailure(string) {}
func (NopMetrics) IncFallback(string) {}
func (NopMetrics) ObserveSearch(time.Duration) {}
func (NopMetrics) ObserveGeneration(time.Duration) {}
