package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManager(t *testing.T) {
	Convey("Given a metrics manager on a fresh registry", t, func() {
		registry := prometheus.NewRegistry()
		m := NewManager(WithRegistry(registry), WithNamespace("test"))

		Convey("When detections and frames are observed", func() {
			m.ObserveDetection(OutcomeHand, 5*time.Millisecond)
			m.ObserveDetection(OutcomeHand, 7*time.Millisecond)
			m.ObserveDetection(OutcomeNoHand, time.Millisecond)
			m.ObserveFrame(time.Millisecond, nil)
			m.ObserveFrame(time.Millisecond, errors.New("tty gone"))

			Convey("Then the counters reflect them", func() {
				So(testutil.ToFloat64(m.detections.WithLabelValues(OutcomeHand)), ShouldEqual, 2)
				So(testutil.ToFloat64(m.detections.WithLabelValues(OutcomeNoHand)), ShouldEqual, 1)
				So(testutil.ToFloat64(m.framesRendered), ShouldEqual, 2)
				So(testutil.ToFloat64(m.renderErrors), ShouldEqual, 1)
			})
		})

		Convey("When the status changes", func() {
			all := []string{"INITIALIZING...", "ACTIVE"}
			m.SetStatus("INITIALIZING...", all)
			m.SetStatus("ACTIVE", all)

			Convey("Then exactly one status is set", func() {
				So(testutil.ToFloat64(m.trackerStatus.WithLabelValues("ACTIVE")), ShouldEqual, 1)
				So(testutil.ToFloat64(m.trackerStatus.WithLabelValues("INITIALIZING...")), ShouldEqual, 0)
			})
		})

		Convey("When the handler is scraped", func() {
			m.GestureChanged("FIST")
			rec := httptest.NewRecorder()
			m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Convey("Then the namespaced metric is exposed", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, `test_tracker_gesture_changes_total{gesture="FIST"} 1`)
			})
		})
	})
}

func TestNilManager(t *testing.T) {
	Convey("Given a nil manager", t, func() {
		var m *Manager

		Convey("Then every method is a no-op", func() {
			So(func() {
				m.ObserveDetection(OutcomeError, time.Second)
				m.GestureChanged("OPEN")
				m.SetStatus("ACTIVE", nil)
				m.SetDetectionFPS(5)
				m.ObserveFrame(time.Second, nil)
				m.ClientConnected(1)
				m.FrameBroadcast()
			}, ShouldNotPanic)
			So(m.Registry(), ShouldBeNil)
		})
	})
}
