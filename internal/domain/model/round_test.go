package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	model "github.com/okian/rcscore/internal/domain/model"
	"github.com/shopspring/decimal"
	"github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

const roundYAML = `
challenge_number: 7
assets: [BTC, ETH]
asset_values: [0.12, -0.03]
participants:
  - id: alice
    predictions:
      - {asset: BTC, value: 0.1}
      - {asset: ETH, value: 0}
    history: [0.5, .nan, 0.75]
    stake: 100.25
  - id: bob
`

func validRound() model.Round {
	return model.Round{
		ChallengeNumber: 3,
		Assets:          []string{"A", "B"},
		AssetValues:     []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(2)},
		Participants: []model.Participant{
			{ID: "p1", Stake: decimal.NewFromInt(10)},
			{ID: "p2"},
		},
	}
}

func TestRoundDecoding(t *testing.T) {
	convey.Convey("Given a round file", t, func() {
		convey.Convey("When decoding YAML", func() {
			var r model.Round
			err := yaml.Unmarshal([]byte(roundYAML), &r)

			convey.Convey("Then exact values and missing history entries should survive", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(r.ChallengeNumber, convey.ShouldEqual, 7)
				convey.So(r.AssetValues[1].String(), convey.ShouldEqual, "-0.03")
				convey.So(r.Participants, convey.ShouldHaveLength, 2)

				alice := r.Participants[0]
				convey.So(alice.Submitted(), convey.ShouldBeTrue)
				convey.So(alice.Predictions[0].Value.Valid, convey.ShouldBeTrue)
				convey.So(alice.Predictions[0].Value.Decimal.String(), convey.ShouldEqual, "0.1")
				convey.So(alice.History, convey.ShouldHaveLength, 3)
				convey.So(alice.History[1].IsMissing(), convey.ShouldBeTrue)
				convey.So(alice.Stake.String(), convey.ShouldEqual, "100.25")
				convey.So(alice.Staking(), convey.ShouldBeTrue)

				bob := r.Participants[1]
				convey.So(bob.Submitted(), convey.ShouldBeFalse)
				convey.So(bob.Staking(), convey.ShouldBeFalse)
				convey.So(r.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When decoding JSON with a null prediction", func() {
			var p model.Participant
			err := json.Unmarshal([]byte(`{"id":"c","predictions":[{"asset":"A","value":null}],"stake":"5"}`), &p)

			convey.Convey("Then the prediction value should be marked invalid", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Predictions[0].Value.Valid, convey.ShouldBeFalse)
				convey.So(p.Stake.IntPart(), convey.ShouldEqual, 5)
			})
		})
	})
}

func TestRoundValidate(t *testing.T) {
	convey.Convey("Given a round", t, func() {
		r := validRound()

		convey.Convey("When it is well formed", func() {
			convey.Convey("Then it should validate", func() {
				convey.So(r.Validate(), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the challenge number is negative", func() {
			r.ChallengeNumber = -1

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(r.Validate(), model.ErrInvalidRound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When there are no assets", func() {
			r.Assets = nil

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(r.Validate(), model.ErrInvalidRound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an asset is listed twice", func() {
			r.Assets = []string{"A", "A"}

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(r.Validate(), model.ErrInvalidRound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When asset values do not match the assets", func() {
			r.AssetValues = r.AssetValues[:1]

			convey.Convey("Then it should be rejected", func() {
				err := r.Validate()
				convey.So(errors.Is(err, model.ErrInvalidRound), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "1 asset values for 2 assets")
			})
		})

		convey.Convey("When two participants share an id", func() {
			r.Participants[1].ID = "p1"

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(r.Validate(), model.ErrInvalidRound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a participant has no id", func() {
			r.Participants[1].ID = ""

			convey.Convey("Then it should be rejected", func() {
				convey.So(errors.Is(r.Validate(), model.ErrInvalidRound), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a stake is negative", func() {
			r.Participants[0].Stake = decimal.NewFromInt(-1)

			convey.Convey("Then it should be rejected", func() {
				err := r.Validate()
				convey.So(errors.Is(err, model.ErrInvalidRound), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "negative stake")
			})
		})
	})
}

func TestValidator(t *testing.T) {
	convey.Convey("Given the shared validator", t, func() {
		convey.Convey("When a round misses its assets", func() {
			err := model.Validator().Struct(model.Round{})

			convey.Convey("Then the failing field should carry its JSON name", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "'assets'")
			})
		})
	})
}
