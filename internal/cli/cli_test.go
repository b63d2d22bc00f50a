package cli

import (
	"bytes"
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCircuitsCommand(t *testing.T) {
	out, err := runCommand(t, "circuits")
	require.NoError(t, err)
	for _, name := range demoNames() {
		assert.Contains(t, out, name)
	}
}

func TestDumpCommand(t *testing.T) {
	out, err := runCommand(t, "dump", "-c", "displacement")
	require.NoError(t, err)
	assert.Contains(t, out, "program: 2 wires, 1 params")
	assert.Contains(t, out, "Displacement(par[0], 0) wires=[0]")
}

func TestEvalCommand(t *testing.T) {
	out, err := runCommand(t, "eval", "-c", "displacement", "--params", "0.4")
	require.NoError(t, err)
	assert.Contains(t, out, "output 0: 0.16")
	assert.Contains(t, out, "output 1: 1.6")
}

func TestGradCommandJSON(t *testing.T) {
	out, err := runCommand(t, "grad", "-c", "displacement", "--params", "0.4", "--format", "json")
	require.NoError(t, err)

	var result struct {
		Method   string      `json:"method"`
		Jacobian [][]float64 `json:"jacobian"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "B", result.Method)
	require.Len(t, result.Jacobian, 1)
	assert.InDelta(t, 0.8, result.Jacobian[0][0], 1e-6)
	assert.InDelta(t, 4.0, result.Jacobian[0][1], 1e-6)
}

func TestGradCommandMethods(t *testing.T) {
	for _, method := range []string{"best", "finite", "analytic"} {
		out, err := runCommand(t, "grad", "-c", "squeezing", "--method", method)
		require.NoError(t, err, method)
		assert.Contains(t, out, "d/dpar[0]:", method)
		assert.Contains(t, out, "d/dpar[2]:", method)
	}
}

func TestMethodsCommand(t *testing.T) {
	out, err := runCommand(t, "methods", "-c", "observable")
	require.NoError(t, err)
	assert.Contains(t, out, "par[0]: A")
	assert.Contains(t, out, "par[1]: F")
}

func TestUnknownCircuitRejected(t *testing.T) {
	_, err := runCommand(t, "eval", "-c", "teleporter")
	require.Error(t, err)
}

func TestBadParamsRejected(t *testing.T) {
	_, err := runCommand(t, "eval", "-c", "displacement", "--params", "0.4,oops")
	require.Error(t, err)
	// The parse failure stays reachable through the wrap chain.
	require.ErrorIs(t, err, strconv.ErrSyntax)
	assert.Contains(t, err.Error(), `invalid parameter "oops"`)
}

func TestUnknownMethodRejected(t *testing.T) {
	_, err := runCommand(t, "grad", "-c", "displacement", "--method", "newton")
	require.Error(t, err)
}
