package config

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestNewDefaults(t *testing.T) {
	Convey("Given the default config", t, func() {
		c := New()

		Convey("Then it validates and exposes durations", func() {
			So(c.Validate(), ShouldBeNil)
			So(c.UpstreamTimeout(), ShouldEqual, 10*time.Second)
			So(c.BreakerOpen(), ShouldEqual, 30*time.Second)
			So(c.CacheTTL(), ShouldEqual, time.Minute)
			So(c.NominationThreshold, ShouldEqual, 2)
		})

		Convey("When a list size is zero", func() {
			c.KickListSize = 0
			err := c.Validate()

			Convey("Then validation fails with ErrInvalidConfig", func() {
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the base URL is blank", func() {
			c.APIBaseURL = "  "
			So(errors.Is(c.Validate(), ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
