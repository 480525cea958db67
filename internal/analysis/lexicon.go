package analysis

// Lexicon is the fixed vocabulary behind the rule-based extractor and the
// tag normalization of the model-backed one. It is loaded once at process
// start and passed by reference; nothing mutates it afterwards.
type Lexicon struct {
	// Sentiment maps a lower-cased token or phrase to a signed weight.
	// Each token contributes its weight at most once per text.
	Sentiment map[string]int

	// Themes and Triggers map a tag to the keywords that imply it.
	Themes   map[string][]string
	Triggers map[string][]string
}

func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Sentiment: map[string]int{
			// positive
			"happy":     1,
			"joy":       2,
			"excited":   1,
			"grateful":  2,
			"peaceful":  1,
			"content":   1,
			"wonderful": 2,
			"great":     2,
			"good":      1,
			"proud":     1,
			"calm":      1,
			"relaxed":   1,
			"hopeful":   1,
			"loved":     2,
			"energized": 1,
			"amazing":   2,
			// negative
			"sad":         -1,
			"angry":       -2,
			"frustrated":  -1,
			"anxious":     -1,
			"depressed":   -2,
			"worried":     -1,
			"terrible":    -2,
			"awful":       -2,
			"exhausted":   -1,
			"lonely":      -1,
			"hopeless":    -2,
			"overwhelmed": -1,
			"miserable":   -2,
			"scared":      -1,
			"guilty":      -1,
			"burned out":  -2,
			"can't sleep": -1,
		},
		Themes: map[string][]string{
			"work":          {"work", "job", "career", "office", "meeting", "boss", "colleague"},
			"relationships": {"relationship", "friend", "family", "partner", "wife", "husband", "parents"},
			"health":        {"health", "exercise", "diet", "doctor", "workout", "sick"},
			"sleep":         {"sleep", "insomnia", "tired", "nap", "rest"},
			"stress":        {"stress", "anxiety", "worry", "fear", "pressure"},
			"finances":      {"money", "budget", "rent", "debt", "salary"},
			"growth":        {"goal", "learning", "progress", "habit", "improve"},
		},
		Triggers: map[string][]string{
			"deadline":  {"deadline", "due date", "overdue"},
			"argument":  {"argument", "fight", "argued", "conflict", "yelled"},
			"workload":  {"overtime", "workload", "too much work", "overworked"},
			"exam":      {"exam", "test results", "interview"},
			"criticism": {"criticism", "criticized", "blamed"},
			"isolation": {"alone", "ignored", "left out"},
			"money":     {"bills", "debt", "can't afford"},
		},
	}
}
