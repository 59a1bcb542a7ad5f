package blackboard

import (
	"testing"

	"go.viam.com/test"
)

func TestVectorRoundTrip(t *testing.T) {
	encoded, err := EncodeVector([]float64{1, -2.5, 0.004})
	test.That(t, err, test.ShouldBeNil)
	decoded, err := DecodeVector(encoded)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded, test.ShouldResemble, []float64{1, -2.5, 0.004})

	_, err = DecodeVector("not a vector")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = DecodeVector("[]")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeMatrix(t *testing.T) {
	m, err := DecodeMatrix("[[1,2,3],[4,5,6]]")
	test.That(t, err, test.ShouldBeNil)
	r, c := m.Dims()
	test.That(t, r, test.ShouldEqual, 2)
	test.That(t, c, test.ShouldEqual, 3)
	test.That(t, m.At(1, 2), test.ShouldEqual, 6)

	_, err = DecodeMatrix("[[1,2],[3]]")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = DecodeMatrix("[]")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = DecodeMatrix("nope")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeVec3(t *testing.T) {
	v, err := DecodeVec3("[0.2859, 0.2787, 0.43]")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v.X, test.ShouldEqual, 0.2859)
	test.That(t, v.Y, test.ShouldEqual, 0.2787)
	test.That(t, v.Z, test.ShouldEqual, 0.43)

	_, err = DecodeVec3("[1,2]")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDecodeRotation(t *testing.T) {
	rot, err := DecodeRotation("[[0,1,0],[-1,0,0],[0,0,1]]")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rot.At(0, 1), test.ShouldEqual, 1)
	test.That(t, rot.At(1, 0), test.ShouldEqual, -1)

	_, err = DecodeRotation("[[1,0],[0,1]]")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseFloat(t *testing.T) {
	v, err := ParseFloat(" 1.5707 ")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, v, test.ShouldEqual, 1.5707)

	_, err = ParseFloat("ninety")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestParseShotPosition(t *testing.T) {
	pos, err := ParseShotPosition("120,45", 0.001)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos.X, test.ShouldAlmostEqual, 0.120, 1e-12)
	test.That(t, pos.Y, test.ShouldAlmostEqual, 0.045, 1e-12)
	test.That(t, pos.Z, test.ShouldEqual, 0)

	pos, err = ParseShotPosition(" -30.5 , 12 ", 0.001)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pos.X, test.ShouldAlmostEqual, -0.0305, 1e-12)
	test.That(t, pos.Y, test.ShouldAlmostEqual, 0.012, 1e-12)

	for _, bad := range []string{"120", "120,45,0", "x,45", "120,", ""} {
		_, err = ParseShotPosition(bad, 0.001)
		test.That(t, err, test.ShouldNotBeNil)
	}
}

func TestKeysValidate(t *testing.T) {
	test.That(t, DefaultKeys().Validate(), test.ShouldBeNil)

	keys := DefaultKeys()
	keys.MassMatrix = ""
	err := keys.Validate()
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "mass_matrix")
}

func TestConfigValidate(t *testing.T) {
	test.That(t, DefaultConfig().Validate(), test.ShouldBeNil)

	cfg := DefaultConfig()
	cfg.Address = ""
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.TargetUnitScale = 0
	test.That(t, cfg.Validate(), test.ShouldNotBeNil)
}
