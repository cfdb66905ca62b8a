package questions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	domainQuestion = "Describe a business analysis you have carried out."
)

func TestGenerateTriggerCombinations(t *testing.T) {
	cases := []struct {
		name         string
		study        string
		target       string
		wantLen      int
		wantDomain   bool
		wantEmployer bool
	}{
		{name: "no triggers", study: "Informatik", target: "Acme GmbH", wantLen: 4},
		{name: "empty profile", study: "", target: "", wantLen: 4},
		{name: "study only", study: "BWL", target: "Acme GmbH", wantLen: 5, wantDomain: true},
		{name: "employer only", study: "Physics", target: "Goldman Sachs", wantLen: 5, wantEmployer: true},
		{name: "both", study: "Wirtschaftsinformatik", target: "Goldman Sachs", wantLen: 6, wantDomain: true, wantEmployer: true},
		{name: "case insensitive", study: "INTERNATIONAL BUSINESS", target: "jpmorgan chase", wantLen: 6, wantDomain: true, wantEmployer: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			qs := Generate(tc.study, tc.target)
			require.Len(t, qs, tc.wantLen)

			assert.Equal(t, tc.wantDomain, qs[2] == domainQuestion)
			if tc.wantEmployer {
				assert.Contains(t, qs[len(qs)-1], tc.target)
			}
		})
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	a := Generate("Wirtschaftsinformatik", "Goldman Sachs")
	b := Generate("Wirtschaftsinformatik", "Goldman Sachs")
	assert.Equal(t, a, b)

	a[0] = "mutated"
	assert.NotEqual(t, a[0], Generate("Wirtschaftsinformatik", "Goldman Sachs")[0])
}

func TestGenerateEmployerPlaceholder(t *testing.T) {
	qs := Generate("", "")
	assert.Contains(t, qs[1], "the company")

	qs = Generate("", "Siemens")
	assert.Contains(t, qs[1], "Siemens")
}

func TestGenerateFullOrdering(t *testing.T) {
	qs := Generate("Wirtschaftsinformatik", "Goldman Sachs")
	assert.Equal(t, "Tell me about yourself and your academic background.", qs[0])
	assert.Equal(t, "Why are you interested in this internship at Goldman Sachs?", qs[1])
	assert.Equal(t, domainQuestion, qs[2])
	assert.Equal(t, "Describe a situation in which you solved a problem as part of a team.", qs[3])
	assert.Equal(t, "How do you deal with stress and tight deadlines?", qs[4])
	assert.Contains(t, qs[5], "financial industry")
}

func TestParseRejectsInvalidCatalog(t *testing.T) {
	_, err := Parse([]byte("base: [a, b]\ndefault_employer: x\n"))
	require.Error(t, err)

	_, err = Parse([]byte(":::not yaml"))
	require.Error(t, err)
}
