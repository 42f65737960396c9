package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "John DOE", "john doe"},
		{"strips diacritics", "Søren Müller", "soren muller"},
		{"folds markless latin letters", "Åse Næss-Østergård", "ase naess-ostergard"},
		{"folds eszett", "Straße", "strasse"},
		{"collapses whitespace", "  jane   van  dyke ", "jane van dyke"},
		{"empty", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}

func TestScoreDice(t *testing.T) {
	tests := []struct {
		name        string
		a, b        string
		fusionScore int
		wantScore   int
		wantMatch   bool
	}{
		{"identical", "hello", "hello", 80, 100, true},
		{"identical short", "a", "a", 80, 100, true},
		{"short non-identical", "a", "b", 50, 0, false},
		{"disjoint", "abc", "xyz", 50, 0, false},
		{"threshold zero always matches", "abc", "xyz", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreDice(tt.a, tt.b, Config{FusionScore: tt.fusionScore})
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantMatch, got.IsMatch)
			assert.Equal(t, AlgorithmDice, got.Algorithm)
		})
	}
}

func TestScoreDicePartialOverlap(t *testing.T) {
	// "night" and "nacht" share only the bigram "ht": 2*1/(4+4) = 0.25.
	got := ScoreDice("night", "nacht", Config{FusionScore: 80})
	assert.Equal(t, 25, got.Score)
	assert.False(t, got.IsMatch)
}

func TestScoreJaroWinkler(t *testing.T) {
	cfg := Config{FusionScore: 90}

	t.Run("identical scores 100", func(t *testing.T) {
		got := ScoreJaroWinkler("martha", "martha", cfg)
		assert.Equal(t, 100, got.Score)
		assert.True(t, got.IsMatch)
	})

	t.Run("empty scores 0", func(t *testing.T) {
		got := ScoreJaroWinkler("", "martha", cfg)
		assert.Equal(t, 0, got.Score)
		assert.False(t, got.IsMatch)
	})

	t.Run("close strings score high", func(t *testing.T) {
		got := ScoreJaroWinkler("martha", "marhta", cfg)
		assert.Greater(t, got.Score, 90)
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"dwayne", "duane"},
			{"dixon", "dicksonx"},
			{"jellyfish", "smellyfish"},
		}
		for _, p := range pairs {
			ab := ScoreJaroWinkler(p[0], p[1], cfg)
			ba := ScoreJaroWinkler(p[1], p[0], cfg)
			assert.Equal(t, ab.Score, ba.Score, "pair %v", p)
		}
	})
}

func TestScoreDoubleMetaphone(t *testing.T) {
	cfg := Config{FusionScore: 70}

	tests := []struct {
		name      string
		a, b      string
		wantScore int
	}{
		{"primary match", "smith", "smyth", 100},
		{"sound-alike names", "catherine", "katherine", 100},
		{"unrelated", "smith", "gonzalez", 0},
		{"empty side", "", "smith", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreDoubleMetaphone(tt.a, tt.b, cfg)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantScore >= cfg.FusionScore, got.IsMatch)
			assert.NotEmpty(t, got.Comment)
		})
	}
}

func TestScoreName(t *testing.T) {
	cfg := Config{FusionScore: 80}

	t.Run("identical", func(t *testing.T) {
		got := ScoreName("John Doe", "John Doe", cfg)
		assert.Equal(t, 100, got.Score)
	})

	t.Run("reordered tokens score high", func(t *testing.T) {
		got := ScoreName("Doe John", "John Doe", cfg)
		assert.GreaterOrEqual(t, got.Score, 80)
	})

	t.Run("initials align", func(t *testing.T) {
		got := ScoreName("J. Doe", "John Doe", cfg)
		assert.GreaterOrEqual(t, got.Score, 70)
	})

	t.Run("unrelated names score low", func(t *testing.T) {
		got := ScoreName("John Doe", "Maria Gonzalez", cfg)
		assert.Less(t, got.Score, 50)
	})
}

func TestScoreLIG3(t *testing.T) {
	cfg := Config{FusionScore: 75}

	t.Run("identical after normalization", func(t *testing.T) {
		got := ScoreLIG3("  Renée ", "renee", cfg)
		assert.Equal(t, 100, got.Score)
		assert.True(t, got.IsMatch)
	})

	t.Run("close values score strong", func(t *testing.T) {
		got := ScoreLIG3("jonathan", "johnathan", cfg)
		assert.GreaterOrEqual(t, got.Score, 75)
		assert.NotEmpty(t, got.Comment)
	})

	t.Run("unrelated values score weak", func(t *testing.T) {
		got := ScoreLIG3("jonathan", "elizabeth", cfg)
		assert.Less(t, got.Score, 50)
		assert.Equal(t, "weak similarity", got.Comment)
	})
}

func TestScorersAreDeterministic(t *testing.T) {
	cfg := Config{FusionScore: 60}
	for _, name := range Algorithms() {
		fn, err := Lookup(name)
		require.NoError(t, err)

		first := fn("Jonathan Q. Smith", "Johnathan Smith", cfg)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, fn("Jonathan Q. Smith", "Johnathan Smith", cfg), "algorithm %s", name)
		}
	}
}

func TestThresholdConsistency(t *testing.T) {
	for _, name := range Algorithms() {
		fn, err := Lookup(name)
		require.NoError(t, err)

		for threshold := 0; threshold <= 100; threshold += 10 {
			got := fn("alice", "alicia", Config{FusionScore: threshold})
			assert.Equal(t, got.Score >= threshold, got.IsMatch,
				"algorithm %s threshold %d score %d", name, threshold, got.Score)
		}
	}
}

func TestLookupUnknownAlgorithm(t *testing.T) {
	_, err := Lookup("soundex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown similarity algorithm")
}

func TestAlgorithmChoiceChangesOutcome(t *testing.T) {
	// Emails differing by one character: low bigram overlap penalizes Dice
	// harder than character-level Jaro-Winkler.
	cfg := Config{FusionScore: 90}
	dice := ScoreDice("jdoe@example.com", "jdoa@example.com", cfg)
	jw := ScoreJaroWinkler("jdoe@example.com", "jdoa@example.com", cfg)

	assert.Greater(t, jw.Score, dice.Score)
	assert.True(t, jw.IsMatch)
}
