package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erasmus-writer/resource-engine/factory"
	"github.com/erasmus-writer/resource-engine/generic"
)

func TestParseGrid_DefaultsRole(t *testing.T) {
	f := factory.NewGridFactory("Researcher")

	rows, err := f.ParseGrid([]byte(`{"rates":[{"nation":"Italy","area":"Group 2","daily_rate":241}]}`))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Italy", rows[0].Nation)
	assert.Equal(t, "Researcher", rows[0].Role)
	assert.Equal(t, "Group 2", rows[0].Area)
	assert.Equal(t, "241", rows[0].DailyRate.String())
}

func TestParseGrid_DocumentAndRowRoles(t *testing.T) {
	f := factory.NewGridFactory("Researcher")

	rows, err := f.ParseGrid([]byte(`{
		"role": "Trainer",
		"rates": [
			{"nation": "Spain", "daily_rate": "190"},
			{"nation": "Spain", "role": "Manager", "daily_rate": "250.50"}
		]
	}`))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Trainer", rows[0].Role)
	assert.Equal(t, "Manager", rows[1].Role)
	assert.Equal(t, "250.5", rows[1].DailyRate.String())
}

func TestParseGrid_Rejects(t *testing.T) {
	f := factory.NewGridFactory("Researcher")

	tests := map[string]string{
		"invalid json":   `{"rates": [`,
		"empty nation":   `{"rates":[{"nation":" ","daily_rate":1}]}`,
		"negative rate":  `{"rates":[{"nation":"Italy","daily_rate":-1}]}`,
		"unparsable":     `{"rates":[{"nation":"Italy","daily_rate":"lots"}]}`,
		"duplicate pair": `{"rates":[{"nation":"Italy","daily_rate":1},{"nation":"ITALY","daily_rate":2}]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := f.ParseGrid([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseGrid_NegativeRate_IsClientError(t *testing.T) {
	_, err := factory.NewGridFactory("Researcher").ParseGrid([]byte(`{"rates":[{"nation":"Italy","daily_rate":-5}]}`))
	assert.ErrorIs(t, err, generic.ErrInvalidRate)
}

func TestParseGrid_NoRoleAnywhere(t *testing.T) {
	_, err := factory.NewGridFactory("").ParseGrid([]byte(`{"rates":[{"nation":"Italy","daily_rate":1}]}`))
	assert.Error(t, err)
}

func TestErasmusGrid_Parses(t *testing.T) {
	rows, err := factory.NewGridFactory("Researcher").ParseGrid([]byte(factory.ErasmusGridJSON()))
	require.NoError(t, err)
	assert.NotEmpty(t, rows)

	var italy *generic.StandardCost
	for i := range rows {
		if rows[i].Nation == "Italy" {
			italy = &rows[i]
		}
	}
	require.NotNil(t, italy)
	assert.Equal(t, "241", italy.DailyRate.String())
	assert.Equal(t, "Researcher", italy.Role)
}
