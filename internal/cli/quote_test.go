package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	t.Run("Prints installment, totals and schedule", func(t *testing.T) {
		out, err := executeCommand(t, "quote", "--principal", "500000", "--rate", "10.5", "--tenure", "12", "--start", "2024-01-15")
		require.NoError(t, err)

		assert.Contains(t, out, "Monthly installment: 44074.30")
		assert.Contains(t, out, "Total payable:       528891.62")
		assert.Contains(t, out, "Total interest:      28891.62")
		assert.Contains(t, out, "DUE DATE")
		assert.Contains(t, out, "2024-02-15")
		assert.Contains(t, out, "2025-01-15")
	})

	t.Run("Zero rate splits principal evenly", func(t *testing.T) {
		out, err := executeCommand(t, "quote", "--principal", "3000", "--tenure", "3", "--start", "2024-01-15")
		require.NoError(t, err)

		assert.Contains(t, out, "Monthly installment: 1000.00")
		assert.Contains(t, out, "Total interest:      0.00")
		assert.Contains(t, out, "2024-04-15")
	})

	t.Run("Summary flag omits the table", func(t *testing.T) {
		out, err := executeCommand(t, "quote", "--principal", "100000", "--rate", "12", "--tenure", "24", "--summary")
		require.NoError(t, err)

		assert.Contains(t, out, "Monthly installment: 4707.35")
		assert.NotContains(t, out, "DUE DATE")
	})

	t.Run("Rejects non-positive tenure", func(t *testing.T) {
		_, err := executeCommand(t, "quote", "--principal", "1000", "--tenure", "0")
		assert.Error(t, err)
	})

	t.Run("Rejects malformed principal", func(t *testing.T) {
		_, err := executeCommand(t, "quote", "--principal", "lots", "--tenure", "12")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --principal")
	})

	t.Run("Rejects malformed start date", func(t *testing.T) {
		_, err := executeCommand(t, "quote", "--principal", "1000", "--tenure", "12", "--start", "15/01/2024")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --start")
	})

	t.Run("Requires principal", func(t *testing.T) {
		_, err := executeCommand(t, "quote", "--tenure", "12")
		assert.Error(t, err)
	})
}

func TestMigrateCommandArgs(t *testing.T) {
	_, err := executeCommand(t, "migrate", "sideways")
	assert.Error(t, err)

	_, err = executeCommand(t, "migrate", "up", "down")
	assert.Error(t, err)
}
