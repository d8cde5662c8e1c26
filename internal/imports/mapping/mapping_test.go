package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"First Name", "first name"},
		{"  Prénom / Nom  ", "prenom nom"},
		{"E-Mail_Address", "e mail address"},
		{"Job Title (current)", "job title current"},
		{"***", ""},
		{"Ville\tNatale", "ville natale"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	table := Default()
	tests := []struct {
		header string
		want   Field
		ok     bool
	}{
		{"Prénom", FieldFirstName, true},
		{"Achternaam", FieldLastName, true},
		{"E-Mail Address", FieldEmail, true},
		{"Contact Email", FieldEmail, true},
		{"Work Email (primary)", FieldEmail, true},
		{"Job Title (current)", FieldTitle, true},
		{"Mobile Phone #", FieldPhone, true},
		{"LinkedIn Profile URL", FieldLinkedInURL, true},
		{"Company Website", FieldCompanyDomain, true},
		{"Deal Stage", FieldPipelineStage, true},
		{"Relationship Status", FieldRelationshipTier, true},
		{"Full Name", FieldFullName, true},
		{"Favourite colour", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := table.Match(tt.header)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("Match(%q) = %q,%v want %q,%v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMapBindsFirstClaimant(t *testing.T) {
	m := Default().Map([]string{"Company Name", "Email", "Company", "Notes", "Shoe size"})

	require.Len(t, m.Columns, 5)
	assert.Equal(t, FieldCompanyName, m.Columns[0].Field)
	assert.Equal(t, FieldEmail, m.Columns[1].Field)
	assert.Empty(t, m.Columns[2].Field, "second company column must stay unmapped")
	assert.Equal(t, FieldNotes, m.Columns[3].Field)
	assert.Empty(t, m.Columns[4].Field)

	row := []string{" Acme ", "ada@acme.io", "Other", "hi"}
	assert.Equal(t, "Acme", m.Value(row, FieldCompanyName))
	assert.Equal(t, "", m.Value(row, FieldPhone))
	assert.True(t, m.Has(FieldEmail))
	assert.False(t, m.Has(FieldPhone))
}

func TestExportColumnsRoundTrip(t *testing.T) {
	table := Default()
	for _, f := range ExportColumns {
		got, ok := table.Match(string(f))
		require.True(t, ok, "export column %s must map back", f)
		assert.Equal(t, f, got)
	}
}

func TestParseRejectsAmbiguousAlias(t *testing.T) {
	_, err := Parse([]byte("email:\n  - mail\nnotes:\n  - Mail\n"))
	assert.Error(t, err)
}
