package substitute

import (
	"time"

	"github.com/goliatone/go-postembed/pkg/interfaces"
)

// NoOpMetrics returns a metrics recorder that drops every observation.
func NoOpMetrics() interfaces.ResolverMetrics {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) ObserveResolveDuration(string, time.Duration) {}

func (noopMetrics) IncrementResolveError(string) {}
