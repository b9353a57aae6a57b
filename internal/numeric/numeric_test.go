package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDivS32(t *testing.T) {
	for _, c := range []struct {
		name     string
		a, b     int32
		exp      int32
		expFault Fault
	}{
		{name: "positive", a: 7, b: 2, exp: 3},
		{name: "truncates toward zero", a: -7, b: 2, exp: -3},
		{name: "divide by zero", a: 1, b: 0, expFault: FaultDivideByZero},
		{name: "overflow", a: math.MinInt32, b: -1, expFault: FaultIntegerOverflow},
	} {
		t.Run(c.name, func(t *testing.T) {
			got, fault := DivS32(uint32(c.a), uint32(c.b))
			require.Equal(t, c.expFault, fault)
			if c.expFault == FaultNone {
				require.Equal(t, c.exp, int32(got))
			}
		})
	}
}

func TestRemS32NoOverflow(t *testing.T) {
	got, fault := RemS32(uint32(int32(math.MinInt32)), uint32(int32(-1)))
	require.Equal(t, FaultNone, fault)
	require.Equal(t, uint32(0), got)
}

func TestShiftsMaskToWidth(t *testing.T) {
	require.Equal(t, uint32(2), ShlMask(uint32(1), 33, 32))
	require.Equal(t, uint32(1), ShrUMask(uint32(0x80000000), 31, 32))
	require.Equal(t, uint64(2), ShlMask(uint64(1), 65, 64))
}

func TestShrSMaskIsArithmetic(t *testing.T) {
	require.Equal(t, int32(-1), ShrSMask(int32(-1), 31, 32))
}

func TestMinMaxPropagateNaN(t *testing.T) {
	require.True(t, math.IsNaN(float64(MinFloat(float32(math.NaN()), float32(1)))))
	require.True(t, math.IsNaN(float64(MinFloat(float32(1), float32(math.NaN())))))
	require.True(t, math.IsNaN(float64(MaxFloat(math.NaN(), 1.0))))
}

func TestCopySignPreservesNaNPayload(t *testing.T) {
	nan := math.Float64frombits(0x7ff8000000000001)
	got := CopySignF64(nan, -1)
	require.True(t, math.IsNaN(got))
	require.Equal(t, uint64(1)<<63|math.Float64bits(nan), math.Float64bits(got))
}

func TestTruncToI32S(t *testing.T) {
	for _, c := range []struct {
		name     string
		f        float64
		exp      int32
		expFault Fault
	}{
		{name: "nan", f: math.NaN(), expFault: FaultInvalidConversionToInteger},
		{name: "+inf", f: math.Inf(1), expFault: FaultIntegerOverflow},
		{name: "-inf", f: math.Inf(-1), expFault: FaultIntegerOverflow},
		{name: "in range", f: 2147483647.9, exp: 2147483647},
		{name: "out of range", f: 2147483648.0, expFault: FaultIntegerOverflow},
	} {
		t.Run(c.name, func(t *testing.T) {
			got, fault := TruncToI32S(c.f)
			require.Equal(t, c.expFault, fault)
			if c.expFault == FaultNone {
				require.Equal(t, c.exp, int32(got))
			}
		})
	}
}

func TestNearestRoundsHalfToEven(t *testing.T) {
	require.Equal(t, float32(-2.0), Nearest32(-1.5))
	require.Equal(t, float32(-4.0), Nearest32(-4.5))
	require.Equal(t, -2.0, Nearest64(-1.5))
}
