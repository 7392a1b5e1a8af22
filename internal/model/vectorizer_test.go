package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustVectorizer(t *testing.T, js string) *Vectorizer {
	t.Helper()
	v, err := ParseVectorizer([]byte(js))
	require.NoError(t, err)
	return v
}

func TestAnalyze_TokensNgramsStopWords(t *testing.T) {
	v := mustVectorizer(t, `{
		"vocabulary": {"a": 0}, "idf": [1],
		"ngram_range": [1, 2], "stop_words": ["is"]
	}`)
	assert.Equal(t,
		[]string{"app", "not", "good", "app not", "not good"},
		v.analyze("App is NOT good!"),
	)
}

func TestAnalyze_UnicodeTokensAndAccents(t *testing.T) {
	v := mustVectorizer(t, `{"vocabulary": {"a": 0}, "idf": [1], "strip_accents": "unicode"}`)
	// single-letter tokens are dropped; accents are folded
	assert.Equal(t, []string{"aplikasi", "bagus", "cafe"}, v.analyze("Aplikasi bagus, a café!"))

	raw := mustVectorizer(t, `{"vocabulary": {"a": 0}, "idf": [1], "lowercase": false}`)
	assert.Equal(t, []string{"Café", "Über"}, raw.analyze("Café Über"))
}

func TestAnalyze_CombiningMarkEndsToken(t *testing.T) {
	v := mustVectorizer(t, `{"vocabulary": {"a": 0}, "idf": [1]}`)
	// "cafe" + U+0301; without strip_accents the mark is not part of the word
	assert.Equal(t, []string{"cafe", "ok"}, v.analyze("cafe\u0301 ok"))
	assert.Equal(t, []string{"café", "ok"}, v.analyze("caf\u00e9 ok"))
}

func TestTransform_TFIDFWithL2Norm(t *testing.T) {
	v := mustVectorizer(t, `{"vocabulary": {"good": 0, "app": 1}, "idf": [2, 1]}`)
	rows := v.Transform([]string{"good good app", "nothing known", ""})
	require.Len(t, rows, 3)

	// tf*idf = [4, 1], l2 norm = sqrt(17)
	n := math.Sqrt(17)
	assert.InDelta(t, 4/n, rows[0][0], 1e-12)
	assert.InDelta(t, 1/n, rows[0][1], 1e-12)
	assert.Empty(t, rows[1])
	assert.Empty(t, rows[2])
}

func TestTransform_SublinearAndL1(t *testing.T) {
	v := mustVectorizer(t, `{"vocabulary": {"good": 0, "app": 1}, "idf": [1, 1], "sublinear_tf": true, "norm": "l1"}`)
	row := v.Transform([]string{"good good app"})[0]
	g := 1 + math.Log(2)
	assert.InDelta(t, g/(g+1), row[0], 1e-12)
	assert.InDelta(t, 1/(g+1), row[1], 1e-12)
}

func TestParseVectorizer_Rejects(t *testing.T) {
	for name, js := range map[string]string{
		"not json":       `{`,
		"empty vocab":    `{"vocabulary": {}, "idf": []}`,
		"idf mismatch":   `{"vocabulary": {"a": 0}, "idf": [1, 2]}`,
		"index range":    `{"vocabulary": {"a": 3}, "idf": [1]}`,
		"bad norm":       `{"vocabulary": {"a": 0}, "idf": [1], "norm": "max"}`,
		"bad accents":    `{"vocabulary": {"a": 0}, "idf": [1], "strip_accents": "latin"}`,
		"bad token expr": `{"vocabulary": {"a": 0}, "idf": [1], "token_pattern": "("}`,
	} {
		_, err := ParseVectorizer([]byte(js))
		assert.Error(t, err, name)
	}
}
