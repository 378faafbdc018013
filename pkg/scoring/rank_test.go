package scoring

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAverageRanks(t *testing.T) {
	Convey("Given values to rank", t, func() {
		Convey("When values are distinct", func() {
			ranks, n := averageRanks(FromFloats([]float64{3, 1, 2}))

			Convey("Then ranks follow ascending order", func() {
				So(n, ShouldEqual, 3)
				So(ranks[0].Float64(), ShouldEqual, 3)
				So(ranks[1].Float64(), ShouldEqual, 1)
				So(ranks[2].Float64(), ShouldEqual, 2)
			})
		})

		Convey("When values tie", func() {
			ranks, n := averageRanks(FromFloats([]float64{2, 2, 2, 1}))

			Convey("Then tied values share the mean position", func() {
				So(n, ShouldEqual, 4)
				So(ranks[0].Float64(), ShouldEqual, 3)
				So(ranks[1].Float64(), ShouldEqual, 3)
				So(ranks[2].Float64(), ShouldEqual, 3)
				So(ranks[3].Float64(), ShouldEqual, 1)
			})
		})

		Convey("When some values are missing", func() {
			ranks, n := averageRanks(FromFloats([]float64{math.NaN(), 5, math.NaN(), 4}))

			Convey("Then missing values take no position", func() {
				So(n, ShouldEqual, 2)
				So(ranks[0].IsMissing(), ShouldBeTrue)
				So(ranks[1].Float64(), ShouldEqual, 2)
				So(ranks[2].IsMissing(), ShouldBeTrue)
				So(ranks[3].Float64(), ShouldEqual, 1)
			})
		})

		Convey("When there is nothing to rank", func() {
			ranks, n := averageRanks(nil)

			Convey("Then the result is empty", func() {
				So(n, ShouldEqual, 0)
				So(ranks, ShouldBeEmpty)
			})
		})
	})
}
