package sim

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/acmitools/replay/internal/sim"

func meter() metric.Meter {
	return otel.Meter(instrumentationName)
}
