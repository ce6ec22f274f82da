package instr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLine_Switch(t *testing.T) {
	ins, present, err := ParseLine("0 switch")
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, KindSwitch, ins.Kind)
	require.EqualValues(t, 0, ins.PID)
}

func TestParseLine_AllocHex(t *testing.T) {
	ins, present, err := ParseLine("1 alloc 1000")
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, KindAlloc, ins.Kind)
	require.EqualValues(t, 1, ins.PID)
	require.EqualValues(t, 0x1000, ins.Value)
}

func TestParseLine_AccessHex(t *testing.T) {
	ins, present, err := ParseLine("0 access 00001000")
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, KindAccess, ins.Kind)
	require.EqualValues(t, 0x1000, ins.Value)
}

func TestParseLine_BlankAndComments(t *testing.T) {
	_, present, err := ParseLine("   ")
	require.NoError(t, err)
	require.False(t, present)

	_, present, err = ParseLine("# a comment")
	require.NoError(t, err)
	require.False(t, present)
}

func TestParseLine_UnknownVerb(t *testing.T) {
	ins, present, err := ParseLine("0 frobnicate")
	require.NoError(t, err)
	require.True(t, present)
	require.Equal(t, KindUnknown, ins.Kind)
}

func TestParseLine_MalformedIsError(t *testing.T) {
	_, present, err := ParseLine("not-a-pid switch")
	require.Error(t, err)
	require.True(t, present)

	_, _, err = ParseLine("0 alloc")
	require.Error(t, err)

	_, _, err = ParseLine("0 access zzzz")
	require.Error(t, err)
}

func TestScan_ReportsErrorsAndContinues(t *testing.T) {
	input := "0 switch\nbad line\n0 access 100\n"
	var lines []Instruction
	var errs []error

	err := Scan(strings.NewReader(input),
		func(ins Instruction) { lines = append(lines, ins) },
		func(e error) { errs = append(errs, e) },
	)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	require.Len(t, errs, 1)
}
