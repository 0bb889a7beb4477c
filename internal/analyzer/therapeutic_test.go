package analyzer

import (
	"math"
	"strings"
	"testing"

	"github.com/mirelle/solace/internal/profile"
	"go.uber.org/zap"
)

func newTherapeutic() *TherapeuticAnalyzer {
	return NewTherapeuticAnalyzer(zap.NewNop())
}

func TestAssessMoodBounds(t *testing.T) {
	ta := newTherapeutic()

	cases := []struct {
		text string
		want float64
	}{
		{"just an ordinary day", 5.0},
		{"happy and great", 6.0},
		{"sad and terrible and awful", 3.5},
		// Keyword-dense adversarial input must still clamp.
		{strings.Repeat("sad down terrible awful horrible depressed ", 10), 2.0},
		{strings.Repeat("happy great wonderful excellent fantastic amazing ", 10), 8.0},
	}
	for _, c := range cases {
		got := ta.AssessMood(c.text)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("AssessMood(%q) = %v, want %v", c.text[:min(len(c.text), 40)], got, c.want)
		}
		if got < 1.0 || got > 10.0 {
			t.Errorf("mood %v out of [1,10]", got)
		}
	}
}

func TestAssessAnxietyBounds(t *testing.T) {
	ta := newTherapeutic()

	if got := ta.AssessAnxiety("all fine"); got != 3.0 {
		t.Errorf("baseline anxiety = %v, want 3.0", got)
	}
	if got := ta.AssessAnxiety("I am anxious and worried"); got != 6.0 {
		t.Errorf("two hits = %v, want 6.0", got)
	}
	dense := "anxious worried panic nervous scared frightened overwhelmed stressed tense restless"
	if got := ta.AssessAnxiety(dense); got != 10.0 {
		t.Errorf("dense input = %v, want clamp at 10.0", got)
	}
}

func TestDetectCrisis(t *testing.T) {
	ta := newTherapeutic()

	ok, risk := ta.DetectCrisis("today was fine")
	if ok || risk != 0 {
		t.Errorf("clean text: crisis=%v risk=%v", ok, risk)
	}

	ok, risk = ta.DetectCrisis("I feel hopeless")
	if !ok || risk != 2.0 {
		t.Errorf("one phrase: crisis=%v risk=%v, want true/2.0", ok, risk)
	}

	// Monotonic in phrase count.
	ok2, risk2 := ta.DetectCrisis("I feel hopeless and want to die")
	if !ok2 || risk2 <= risk {
		t.Errorf("two phrases: risk=%v, want > %v", risk2, risk)
	}

	// Case-insensitive substring guarantee.
	ok, _ = ta.DetectCrisis("Sometimes I think about SUICIDE")
	if !ok {
		t.Error("upper-cased crisis phrase not detected")
	}

	// Risk caps at 10.
	_, risk = ta.DetectCrisis(strings.Join(crisisPhrases, " "))
	if risk != 10.0 {
		t.Errorf("all phrases: risk=%v, want 10.0", risk)
	}
}

func TestIdentifyCoping(t *testing.T) {
	ta := newTherapeutic()

	got := ta.IdentifyCoping("I went for a walk and tried to reframe things with friends")
	want := map[string]bool{
		"cognitive: reframe":  true,
		"behavioral: walk":    true,
		"social: friends":     true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %d entries", got, len(want))
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected strategy %q", s)
		}
	}
}

func TestUpdateAssessment(t *testing.T) {
	ta := newTherapeutic()
	a := profile.NewTherapeuticAssessment()

	ta.UpdateAssessment(a, "I feel sad and anxious, but talking to my family helps")
	// mood: 0.7*5.0 + 0.3*4.5, anxiety: 0.7*5.0 + 0.3*4.5
	if math.Abs(a.MoodScore-4.85) > 1e-9 {
		t.Errorf("mood = %v, want 4.85", a.MoodScore)
	}
	if math.Abs(a.AnxietyLevel-4.85) > 1e-9 {
		t.Errorf("anxiety = %v, want 4.85", a.AnxietyLevel)
	}
	if len(a.CopingStrategies) == 0 {
		t.Fatal("expected coping strategies")
	}

	// Coping dedupes on repeat, risk factors never do.
	before := len(a.CopingStrategies)
	ta.UpdateAssessment(a, "talking to my family helps")
	if len(a.CopingStrategies) != before {
		t.Errorf("coping grew on duplicate: %d -> %d", before, len(a.CopingStrategies))
	}

	ta.UpdateAssessment(a, "I feel hopeless")
	ta.UpdateAssessment(a, "I feel hopeless")
	if len(a.RiskFactors) != 2 {
		t.Errorf("risk factors = %d, want 2 (one per crisis turn)", len(a.RiskFactors))
	}
}
