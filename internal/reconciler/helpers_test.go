package reconciler

import (
	dto "github.com/prometheus/client_model/go"
)

// counterValue ищет значение счётчика name с меткой outcome.
func counterValue(mfs []*dto.MetricFamily, name, outcome string) float64 {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" && lp.GetValue() == outcome {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	return 0
}
