package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then collectors use the placement namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.pairsScored.Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "placement_matching_pairs_scored_total" {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithMetricPrefix("p"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then names carry namespace, subsystem and prefix", func() {
				manager.allocatedCandidates.Add(2)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "test_unit_p_allocated_candidates_total")
			})
		})

		Convey("When options are given empty values", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace(""),
				WithSubsystem(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(registry),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "placement")
				So(manager.subsystem, ShouldEqual, "matching")
				So(len(manager.histogramBuckets), ShouldBeGreaterThan, 0)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording allocation outcomes", func() {
			before := testutil.ToFloat64(globalManager.allocatedCandidates)
			RecordAllocation("ok", 3, 1, 12)

			Convey("Then counters advance", func() {
				So(testutil.ToFloat64(globalManager.allocatedCandidates), ShouldEqual, before+3)
				So(testutil.ToFloat64(globalManager.allocationRuns.WithLabelValues("ok")), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When recording factor errors", func() {
			RecordFactorError("skills")
			So(testutil.ToFloat64(globalManager.factorErrors.WithLabelValues("skills")), ShouldBeGreaterThanOrEqualTo, 1)
		})

		Convey("When updating gauges", func() {
			UpdateQueueSize(7)
			UpdateQueueCapacity(100)
			UpdateWorkerCount(4)
			So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 7)
			So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 100)
			So(testutil.ToFloat64(globalManager.workerCount), ShouldEqual, 4)
		})

		Convey("Then the shared registry is exposed", func() {
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
