package command

import "testing"

func TestInterpret(t *testing.T) {
	t.Parallel()

	in := New()
	tests := []struct {
		text string
		want Intent
	}{
		{"What's in front of me?", SceneQuery},
		{"whats in front of me", SceneQuery},
		{"What is in front of me", SceneQuery},
		{"What’s in front of me?", SceneQuery},
		{"please DETECT OBJECTS", SceneQuery},
		{"detect object", SceneQuery},
		{"hey, what do you see", SceneQuery},
		{"Help me, what can I say", Help},
		{"help", Help},
		{"What can you do?", Help},
		{"help me, what's in front of me", Help},
		{"tell me a joke", Unrecognized},
		{"", Unrecognized},
		{"   ", Unrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			if got := in.Interpret(tt.text); got != tt.want {
				t.Errorf("Interpret(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestNewWithPatterns_OrderMatters(t *testing.T) {
	t.Parallel()

	in := NewWithPatterns([]Pattern{
		{Name: "scene", Intent: SceneQuery, Phrases: []string{"LOOK"}},
		{Name: "help", Intent: Help, Phrases: []string{"help"}},
	})
	if got := in.Interpret("help me look"); got != SceneQuery {
		t.Errorf("Interpret() = %v, want %v (first pattern wins)", got, SceneQuery)
	}
}

func TestIntentString(t *testing.T) {
	t.Parallel()

	tests := map[Intent]string{
		Unrecognized: "unrecognized",
		Help:         "help",
		SceneQuery:   "scene-query",
		Intent(42):   "unrecognized",
	}
	for in, want := range tests {
		if got := in.String(); got != want {
			t.Errorf("Intent(%d).String() = %q, want %q", in, got, want)
		}
	}
}

func TestInterpret_Phonetic(t *testing.T) {
	t.Parallel()

	in := New(WithPhonetic(0.85))
	tests := []struct {
		text string
		want Intent
	}{
		{"please detekt object", SceneQuery},
		{"what's in frunt of me", SceneQuery},
		{"what's in front of me", SceneQuery},
		{"tell me a joke", Unrecognized},
		{"what can i see", Unrecognized},
		{"what do you say", Unrecognized},
		{"what can you say", Unrecognized},
		{"", Unrecognized},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			t.Parallel()
			if got := in.Interpret(tt.text); got != tt.want {
				t.Errorf("Interpret(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestInterpret_PhoneticAmbiguous(t *testing.T) {
	t.Parallel()

	red := Pattern{Name: "red", Intent: Help, Phrases: []string{"red light"}}
	rad := Pattern{Name: "rad", Intent: SceneQuery, Phrases: []string{"rad light"}}

	if got := NewWithPatterns([]Pattern{red}, WithPhonetic(0.85)).Interpret("rud light"); got != Help {
		t.Errorf("single table: Interpret() = %v, want %v", got, Help)
	}
	if got := NewWithPatterns([]Pattern{red, rad}, WithPhonetic(0.85)).Interpret("rud light"); got != Unrecognized {
		t.Errorf("two intents: Interpret() = %v, want %v", got, Unrecognized)
	}
}

func TestInterpret_PhoneticDisabledByDefault(t *testing.T) {
	t.Parallel()

	if got := New().Interpret("please detekt object"); got != Unrecognized {
		t.Errorf("Interpret() = %v, want %v without WithPhonetic", got, Unrecognized)
	}
}

func TestSoundsAlike(t *testing.T) {
	t.Parallel()

	vocab := New().vocab
	if !soundsAlike([]string{"detekt"}, []string{"detect"}, vocab) {
		t.Error("detekt should sound like detect")
	}
	if soundsAlike([]string{"tell"}, []string{"help"}, vocab) {
		t.Error("tell should not sound like help")
	}
	if soundsAlike([]string{"see"}, []string{"say"}, vocab) {
		t.Error("see is a command word and must not stand in for say")
	}
}
