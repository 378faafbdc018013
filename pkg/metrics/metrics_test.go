package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsOptions(t *testing.T) {
	Convey("Given metrics options", t, func() {
		Convey("When creating a manager with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithMetricPrefix("pfx"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithRefreshInterval(5*time.Second),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options should be applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.subsystem, ShouldEqual, "test_subsystem")
				So(manager.RefreshInterval(), ShouldEqual, 5*time.Second)
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
				So(manager.Enabled(), ShouldBeTrue)
			})

			Convey("And metric names should carry namespace and prefix", func() {
				manager.RecordOperation("challenge_scores", 1, 2)
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, f := range families {
					if f.GetName() == "test_namespace_test_subsystem_pfx_operations_total" {
						found = true
						So(f.GetMetric()[0].GetLabel(), ShouldNotBeEmpty)
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When invalid values are provided", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithRefreshInterval(-time.Second),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults should be kept", func() {
				So(manager.namespace, ShouldEqual, "rcscore")
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
				So(manager.RefreshInterval(), ShouldEqual, defaultRefreshInterval)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given a manager on a private registry", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When recording scoring operations", func() {
			manager.RecordOperation("challenge_error", 1, 0.2)
			manager.RecordOperation("challenge_error", 1, 0.3)
			manager.RecordOperationError("challenge_error", "length_mismatch")

			Convey("Then counters should be labelled by operation and version", func() {
				So(testutil.ToFloat64(manager.operationsTotal.WithLabelValues("challenge_error", "1")), ShouldEqual, 2)
				So(testutil.ToFloat64(manager.operationErrors.WithLabelValues("challenge_error", "length_mismatch")), ShouldEqual, 1)
			})
		})

		Convey("When recording a round", func() {
			manager.RecordRound(12, 10, 8, 3)
			manager.RecordInvalidSubmissions(2)
			manager.RecordInvalidSubmissions(0)

			Convey("Then round gauges should hold the last round", func() {
				So(testutil.ToFloat64(manager.roundsScored), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.roundParticipants), ShouldEqual, 10)
				So(testutil.ToFloat64(manager.roundPredictors), ShouldEqual, 8)
				So(testutil.ToFloat64(manager.roundStakers), ShouldEqual, 3)
				So(testutil.ToFloat64(manager.invalidSubmissions), ShouldEqual, 2)
			})
		})

		Convey("When recording distributed amounts", func() {
			manager.UpdateDistribution("stake", decimal.RequireFromString("99.5"), decimal.RequireFromString("0.5"))
			manager.UpdatePoolSurplus(decimal.NewFromInt(198200))

			Convey("Then gauges should approximate the exact amounts", func() {
				So(testutil.ToFloat64(manager.distributedAmount.WithLabelValues("stake")), ShouldEqual, 99.5)
				So(testutil.ToFloat64(manager.undistributedAmount.WithLabelValues("stake")), ShouldEqual, 0.5)
				So(testutil.ToFloat64(manager.poolSurplus), ShouldEqual, 198200)
			})
		})

		Convey("When recording HTTP traffic", func() {
			manager.RecordHTTPRequest("/v1/predictions/validate", "POST", "200", 1.5)
			manager.RecordHTTPError("/v1/predictions/validate", "POST", "client_error", "medium", 1)

			Convey("Then request and error counters should increase", func() {
				So(testutil.ToFloat64(manager.httpRequests.WithLabelValues("/v1/predictions/validate", "POST", "200")), ShouldEqual, 1)
				So(testutil.ToFloat64(manager.errorRateByType.WithLabelValues("client_error", "medium")), ShouldEqual, 1)
			})
		})

		Convey("When recording system metrics", func() {
			manager.UpdateSystem(1024, 12, 0.3)

			Convey("Then system gauges should be set", func() {
				So(testutil.ToFloat64(manager.systemMemoryUsage), ShouldEqual, 1024)
				So(testutil.ToFloat64(manager.systemGoroutineCount), ShouldEqual, 12)
			})
		})
	})

	Convey("Given a disabled manager", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()), WithMetricsEnabled(false))

		Convey("When recording", func() {
			manager.RecordRound(1, 1, 1, 1)
			manager.RecordOperation("stake_rewards", 1, 1)

			Convey("Then nothing should be counted", func() {
				So(testutil.ToFloat64(manager.roundsScored), ShouldEqual, 0)
				So(testutil.ToFloat64(manager.operationsTotal.WithLabelValues("stake_rewards", "1")), ShouldEqual, 0)
			})
		})
	})
}

func TestGlobalMetrics(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording through package functions", func() {
			So(func() {
				RecordOperation("pools", 1, 0.1)
				RecordOperationError("pools", "negative_count")
				RecordRound(5, 2, 2, 1)
				RecordInvalidSubmissions(1)
				UpdateDistribution("challenge", decimal.NewFromInt(1), decimal.Zero)
				UpdatePoolSurplus(decimal.NewFromInt(-5))
				RecordHTTPRequest("/healthz", "GET", "200", 0.5)
				RecordHTTPError("/x", "GET", "not_found", "medium", 0.5)
				UpdateSystem(1, 1, 0)
			}, ShouldNotPanic)

			Convey("Then the custom registry should expose them", func() {
				families, err := GetRegistry().Gather()
				So(err, ShouldBeNil)

				names := make([]string, 0, len(families))
				for _, f := range families {
					names = append(names, f.GetName())
				}
				So(strings.Join(names, ","), ShouldContainSubstring, "rcscore_scoring_rounds_scored_total")
				So(Default(), ShouldEqual, globalManager)
			})
		})
	})
}

func TestMetricsConcurrency(t *testing.T) {
	Convey("Given concurrent recorders", t, func() {
		manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

		Convey("When many goroutines record operations", func() {
			var wg sync.WaitGroup
			for range 20 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 50 {
						manager.RecordOperation("competition_score", 1, 0.01)
					}
				}()
			}
			wg.Wait()

			Convey("Then every call should be counted", func() {
				So(testutil.ToFloat64(manager.operationsTotal.WithLabelValues("competition_score", "1")), ShouldEqual, 1000)
			})
		})
	})
}
