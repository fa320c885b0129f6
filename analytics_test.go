package shortstack_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/linhsuan/shortstack"
)

func TestRecorder_ClickFillsUnknownFields(t *testing.T) {
	analytics := new(MockAnalyticsRepo)
	recorder := shortstack.NewRecorder(analytics, time.Second)

	analytics.On("InsertClick", mock.Anything, mock.MatchedBy(func(e shortstack.Event) bool {
		return e.RefID == "link-1" &&
			e.IP == "unknown" &&
			e.IPRegion == "unknown" &&
			e.UserAgent == "curl/8.0" &&
			e.ID != "" &&
			!e.CreatedAt.IsZero()
	})).Return(nil)

	recorder.RecordClick("link-1", shortstack.RequestMeta{UserAgent: "curl/8.0"})
	recorder.Wait()

	analytics.AssertExpectations(t)
}

func TestRecorder_VisitWriteFailureIsSwallowed(t *testing.T) {
	analytics := new(MockAnalyticsRepo)
	recorder := shortstack.NewRecorder(analytics, time.Second)

	analytics.On("InsertVisit", mock.Anything, mock.Anything).
		Return(errors.New("database is down"))

	// Must not panic or surface the error; the caller has no channel for it.
	recorder.RecordVisit("site-1", shortstack.RequestMeta{})
	recorder.Wait()

	analytics.AssertExpectations(t)
}

func TestRecorder_WaitCoversAllInFlightWrites(t *testing.T) {
	analytics := new(MockAnalyticsRepo)
	recorder := shortstack.NewRecorder(analytics, time.Second)

	analytics.On("InsertClick", mock.Anything, mock.Anything).Return(nil)

	for range 10 {
		recorder.RecordClick("link-1", shortstack.RequestMeta{})
	}
	recorder.Wait()

	analytics.AssertNumberOfCalls(t, "InsertClick", 10)
}
