package exam

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoQuestionBank = `
questions:
  - text: 2 + 2?
    options:
      - text: "3"
      - text: "4"
        correct: true
  - text: Largest ocean?
    options:
      - text: Pacific
        correct: true
      - text: Atlantic
`

func TestParseBank(t *testing.T) {
	t.Run("valid bank", func(t *testing.T) {
		questions, err := ParseBank([]byte(twoQuestionBank))
		require.NoError(t, err)
		require.Len(t, questions, 2)
		assert.Equal(t, "2 + 2?", questions[0].Text)
		assert.True(t, questions[0].Options[1].IsCorrect)
		assert.False(t, questions[0].Options[0].IsCorrect)
	})

	t.Run("empty bank rejected", func(t *testing.T) {
		_, err := ParseBank([]byte("questions: []"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "empty")
	})

	t.Run("two correct options rejected", func(t *testing.T) {
		_, err := ParseBank([]byte(`
questions:
  - text: Pick one
    options:
      - {text: a, correct: true}
      - {text: b, correct: true}
`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one correct option")
	})

	t.Run("single option rejected", func(t *testing.T) {
		_, err := ParseBank([]byte(`
questions:
  - text: Pick one
    options:
      - {text: a, correct: true}
`))
		require.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := ParseBank([]byte("questions: [unterminated"))
		require.Error(t, err)
	})
}

func TestLoadBank(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoQuestionBank), 0o600))

	questions, err := LoadBank(path)
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	_, err = LoadBank(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
