package main

import (
	"errors"
	"testing"

	"gridmdp/reinforcement"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseGoals(t *testing.T) {
	Convey("Goal flags are read as row,col pairs", t, func() {
		pairs, err := parseGoals("0,0; 3, 3")
		So(err, ShouldBeNil)
		So(pairs, ShouldResemble, [][]int{{0, 0}, {3, 3}})

		pairs, err = parseGoals("")
		So(err, ShouldBeNil)
		So(pairs, ShouldBeEmpty)
	})

	Convey("Malformed goals are configuration errors", t, func() {
		for _, s := range []string{"1", "1,2,3", "a,1", "1;2,2"} {
			_, err := parseGoals(s)
			So(errors.Is(err, reinforcement.ErrConfiguration), ShouldBeTrue)
		}
	})
}

func TestGetEnvWithDefault(t *testing.T) {
	Convey("Environment values override defaults", t, func() {
		t.Setenv("GRIDMDP_TEST_PORT", "9090")
		So(getEnvWithDefault("GRIDMDP_TEST_PORT", "8080"), ShouldEqual, "9090")
		So(getEnvWithDefault("GRIDMDP_TEST_UNSET", "8080"), ShouldEqual, "8080")
	})
}
