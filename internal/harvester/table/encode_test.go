package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestTable() *Table {
	return &Table{
		Columns: []string{"destination_workload", "route", "value"},
		Rows: []Row{
			{"destination_workload": "frontend", "route": "/cart, /checkout", "value": "120"},
			{"destination_workload": "cartservice", "value": "35.5"},
		},
	}
}

func TestEncode_Csv(t *testing.T) {
	out, err := encodeTestTable().Bytes("csv")
	require.NoError(t, err)
	assert.Equal(t,
		"destination_workload,route,value\n"+
			"frontend,\"/cart, /checkout\",120\n"+
			"cartservice,,35.5\n",
		string(out))
}

func TestEncode_Tsv(t *testing.T) {
	out, err := encodeTestTable().Bytes("tsv")
	require.NoError(t, err)
	assert.Equal(t,
		"destination_workload\troute\tvalue\n"+
			"frontend\t/cart, /checkout\t120\n"+
			"cartservice\t\t35.5\n",
		string(out))
}

func TestEncode_Txt(t *testing.T) {
	out, err := encodeTestTable().Bytes("txt")
	require.NoError(t, err)
	assert.Equal(t,
		"destination_workload  route             value\n"+
			"frontend              /cart, /checkout  120\n"+
			"cartservice                             35.5\n",
		string(out))
}

func TestEncode_HeaderOnly(t *testing.T) {
	out, err := (&Table{Columns: []string{"value"}}).Bytes("csv")
	require.NoError(t, err)
	assert.Equal(t, "value\n", string(out))
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := encodeTestTable().Bytes("xlsx")
	assert.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ContentType("csv"))
	assert.Equal(t, "text/tab-separated-values", ContentType("tsv"))
	assert.Equal(t, "text/plain", ContentType("txt"))
}
