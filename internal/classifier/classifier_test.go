package classifier

import (
	"math"
	"testing"
	"time"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/shared"
)

var fixedNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestClassifier() *Classifier {
	return New(DefaultRules(), WithClock(func() time.Time { return fixedNow }))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestClassifier(t *testing.T) {
	c := newTestClassifier()

	t.Run("ExtractCompany", func(t *testing.T) {
		tt := []struct {
			name, subject, from, want string
		}{
			{name: "employer domain", from: "Jane Doe <jane@initech.com>", want: "Initech"},
			{name: "domain is capitalized", from: "hr@ACME.io", want: "Acme"},
			{name: "blocked domain uses local part", from: "noreply@gmail.com", want: "noreply"},
			{name: "blocked domain uses display name", from: `"Globex Talent" <jobs@talent.com>`, want: "Globex"},
			{name: "subject token", subject: "thanks from Acme", from: "<x@gmail.com>", want: "Acme"},
			{name: "short tokens are skipped", subject: "re: an Hooli update", from: "", want: "Hooli"},
			{name: "fallback", subject: "hi there", from: "", want: models.UnknownCompany},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if got := c.ExtractCompany(tc.subject, tc.from); got != tc.want {
					t.Errorf("expected %q, got %q", tc.want, got)
				}
			})
		}
	})

	t.Run("ExtractRole", func(t *testing.T) {
		tt := []struct {
			name, subject, snippet string
			want                   string
		}{
			{name: "clause", subject: "Application for Backend Engineer at Initech", want: "Backend Engineer"},
			{name: "title noun", subject: "Senior Platform Engineer opening", want: "Senior Platform"},
			{name: "too short", subject: "Application for QA at Initech"},
			{name: "no match", subject: "Hello", snippet: "Thanks"},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				got := c.ExtractRole(tc.subject, tc.snippet)
				if tc.want == "" {
					if got != nil {
						t.Errorf("expected no role, got %q", *got)
					}
					return
				}
				if got == nil || *got != tc.want {
					t.Errorf("expected %q, got %v", tc.want, shared.Deref(got))
				}
			})
		}
	})

	t.Run("InferStatus", func(t *testing.T) {
		tt := []struct {
			name, subject, snippet string
			want                   models.Status
		}{
			{name: "interview wins over rejection", subject: "Interview invitation", snippet: "Unfortunately the slot moved", want: models.StatusInterview},
			{name: "assessment", subject: "Coding challenge", want: models.StatusAssessment},
			{name: "offer", subject: "Good news", snippet: "We are pleased to extend an offer", want: models.StatusOffer},
			{name: "rejected", subject: "Update on your application", snippet: "Unfortunately, we decided to go with others", want: models.StatusRejected},
			{name: "default", subject: "Thank you for applying", snippet: "We received your application", want: models.StatusApplied},
		}

		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if got := c.InferStatus(tc.subject, tc.snippet); got != tc.want {
					t.Errorf("expected %s, got %s", tc.want, got)
				}
			})
		}
	})

	t.Run("IsRelevant", func(t *testing.T) {
		if !c.IsRelevant(map[string]string{"subject": "Your application at Initech"}, "") {
			t.Error("expected application mail to be relevant")
		}
		if c.IsRelevant(map[string]string{"subject": "Weekly newsletter", "from": "news@shop.com"}, "Sale ends soon") {
			t.Error("expected newsletter to be irrelevant")
		}
		if !c.IsRelevant(map[string]string{"subject": "Hello", "from": "careers@initech.com"}, "") {
			t.Error("expected sender address to count toward relevance")
		}
	})

	t.Run("Confidence", func(t *testing.T) {
		base := c.Confidence(map[string]string{"subject": "Hello", "from": "friend@gmail.com"}, "See you soon")
		if !approx(base, 0.5) {
			t.Errorf("expected base confidence 0.5, got %v", base)
		}

		domain := c.Confidence(map[string]string{"subject": "Hello", "from": "jobs@initech.com"}, "")
		if !approx(domain, 0.8) {
			t.Errorf("expected 0.8 for keyword plus employer domain, got %v", domain)
		}

		signal := c.Confidence(map[string]string{"subject": "Hello interview", "from": "jobs@initech.com"}, "")
		if signal <= domain {
			t.Errorf("adding a signal should raise confidence: %v <= %v", signal, domain)
		}

		capped := c.Confidence(map[string]string{
			"subject": "Interview for the role - job application",
			"from":    "talent@initech.com",
		}, "the recruiter for hiring position wants an assessment")
		if capped > 1.0 || !approx(capped, 1.0) {
			t.Errorf("expected confidence capped at 1.0, got %v", capped)
		}

		upper := c.Confidence(map[string]string{"subject": "Hello", "from": "friend@GMAIL.com"}, "")
		if !approx(upper, 0.5) {
			t.Errorf("consumer domains should match case-insensitively, got %v", upper)
		}

		tt := []struct {
			name    string
			headers map[string]string
			snippet string
			want    float64
		}{
			{name: "signal only in sender", headers: map[string]string{"subject": "Hello", "from": "offers@acme.com"}, want: 0.9},
			{name: "signal and keyword in sender", headers: map[string]string{"subject": "Hello", "from": "interview-team@acme.com"}, want: 1.0},
			{name: "signal in snippet", headers: map[string]string{"subject": "Hello", "from": "friend@gmail.com"}, snippet: "we were rejected", want: 0.7},
		}
		for _, tc := range tt {
			t.Run(tc.name, func(t *testing.T) {
				if got := c.Confidence(tc.headers, tc.snippet); !approx(got, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, got)
				}
			})
		}

		t.Run("never decreases as keywords are added", func(t *testing.T) {
			headers := map[string]string{"subject": "Hello", "from": "friend@gmail.com"}
			snippet := ""
			prev := c.Confidence(headers, snippet)
			for _, kw := range c.Rules().ConfidenceKeywords {
				snippet += " " + kw
				got := c.Confidence(headers, snippet)
				if got < prev {
					t.Errorf("adding %q lowered confidence: %v < %v", kw, got, prev)
				}
				if got > 1.0 {
					t.Errorf("confidence %v exceeds 1.0 after adding %q", got, kw)
				}
				prev = got
			}
			if !approx(prev, 1.0) {
				t.Errorf("expected every keyword to saturate at 1.0, got %v", prev)
			}
		})
	})

	t.Run("Classify", func(t *testing.T) {
		headers := map[string]string{
			"from":    "Jane Doe <jane@initech.com>",
			"subject": "Interview for Backend Engineer at Initech",
			"date":    "Tue, 4 Mar 2025 10:15:00 -0800",
		}
		got := c.Classify(headers, "We would like to schedule a call.")

		if got.Company != "Initech" {
			t.Errorf("expected Initech, got %q", got.Company)
		}
		if shared.Deref(got.Role) != "Backend Engineer" {
			t.Errorf("expected Backend Engineer, got %q", shared.Deref(got.Role))
		}
		if got.Status != models.StatusInterview {
			t.Errorf("expected interview, got %s", got.Status)
		}
		want := time.Date(2025, 3, 4, 18, 15, 0, 0, time.UTC)
		if !got.AppliedAt.Equal(want) || got.AppliedAt.Location() != time.UTC {
			t.Errorf("expected %v in UTC, got %v", want, got.AppliedAt)
		}
		if got.AppliedAtEstimated {
			t.Error("expected parsed date not to be estimated")
		}
		if !approx(got.Confidence, 1.0) {
			t.Errorf("expected confidence 1.0, got %v", got.Confidence)
		}

		extracted := c.Extract(headers, "We would like to schedule a call.")
		if extracted.Confidence != 0 {
			t.Errorf("Extract should not score, got %v", extracted.Confidence)
		}
	})

	t.Run("FromConfig", func(t *testing.T) {
		custom := FromConfig(shared.ClassifierConfig{
			CompanyBlocklist: []string{"Initech"},
			ConsumerDomains:  []string{"initech"},
		})

		if got := custom.ExtractCompany("", "jobs@initech.com"); got != "jobs" {
			t.Errorf("expected blocked domain to fall through to local part, got %q", got)
		}
		score := custom.Confidence(map[string]string{"subject": "Hello", "from": "jobs@initech.com"}, "")
		if !approx(score, 0.6) {
			t.Errorf("expected consumer override to drop the domain weight, got %v", score)
		}
		if len(custom.Rules().RelevanceKeywords) != len(DefaultRules().RelevanceKeywords) {
			t.Error("empty overrides should keep the default tables")
		}
	})
}

func TestParseAppliedAt(t *testing.T) {
	now := func() time.Time { return fixedNow }

	tt := []struct {
		name      string
		value     string
		want      time.Time
		estimated bool
	}{
		{name: "rfc 2822", value: "Tue, 4 Mar 2025 10:15:00 -0800", want: time.Date(2025, 3, 4, 18, 15, 0, 0, time.UTC)},
		{name: "zone comment", value: "Tue, 4 Mar 2025 10:15:00 +0000 (UTC)", want: time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)},
		{name: "rfc 3339", value: "2025-03-04T10:15:00Z", want: time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)},
		{name: "date and time", value: "2025-03-04 10:15:00", want: time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)},
		{name: "date only", value: "2025-03-04", want: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "long form", value: "March 4, 2025", want: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "short month", value: "Mar 4, 2025", want: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "day first", value: "4 March 2025", want: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)},
		{name: "garbage", value: "sometime last week", want: fixedNow, estimated: true},
		{name: "empty", value: "", want: fixedNow, estimated: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, estimated := ParseAppliedAt(tc.value, now)
			if !got.Equal(tc.want) {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
			if estimated != tc.estimated {
				t.Errorf("expected estimated=%v, got %v", tc.estimated, estimated)
			}
		})
	}
}
