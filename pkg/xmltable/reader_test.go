package xmltable_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/xmletl/pkg/xmltable"
)

const searchResponse = `<?xml version="1.0" encoding="UTF-8"?>
<response>
  <result name="response" numFound="2" start="0">
    <doc>
      <str name="checksum">c1</str>
      <str name="download_link">http://example.com/DLTINS_1.zip</str>
      <str name="file_type">DLTINS</str>
    </doc>
    <doc>
      <str name="checksum">c2</str>
      <str name="download_link">http://example.com/FULINS_1.zip</str>
      <str name="file_type">FULINS</str>
    </doc>
  </result>
</response>`

const modifiedRecords = `<?xml version="1.0" encoding="UTF-8"?>
<BizData xmlns="urn:iso:std:iso:20022:tech:xsd:head.003.001.01">
  <Pyld>
    <Document xmlns="urn:iso:std:iso:20022:tech:xsd:auth.036.001.02">
      <FinInstrmRptgRefDataDltaRpt>
        <FinInstrm>
          <ModfdRcrd>
            <FinInstrmGnlAttrbts>
              <Id>DE000A1</Id>
              <FullNm>Banana Call</FullNm>
              <ClssfctnTp>RFSTCA</ClssfctnTp>
              <NtnlCcy>EUR</NtnlCcy>
            </FinInstrmGnlAttrbts>
            <Issr>529900</Issr>
          </ModfdRcrd>
        </FinInstrm>
        <FinInstrm>
          <ModfdRcrd>
            <FinInstrmGnlAttrbts>
              <Id>DE000B2</Id>
              <FullNm>Plum Put</FullNm>
            </FinInstrmGnlAttrbts>
            <Issr>529901</Issr>
          </ModfdRcrd>
        </FinInstrm>
      </FinInstrmRptgRefDataDltaRpt>
    </Document>
  </Pyld>
</BizData>`

func TestReadShallowRenamesPositionally(t *testing.T) {
	t.Parallel()

	got, err := xmltable.Read(strings.NewReader(searchResponse), xmltable.Options{
		Path:  "//result//doc",
		Names: []string{"checksum", "download_link", "file_type"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"checksum", "download_link", "file_type"}, got.Columns())
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"c2", "http://example.com/FULINS_1.zip", "FULINS"}, got.Row(1))
}

func TestReadShallowRenamesCombinedColumns(t *testing.T) {
	t.Parallel()

	got, err := xmltable.Read(strings.NewReader(`<r><doc><a>1</a><b>2</b><c>4</c></doc><doc><b>3</b></doc></r>`), xmltable.Options{
		Path:  "//doc",
		Names: []string{"x", "y"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y", "c"}, got.Columns())
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"1", "2", "4"}, got.Row(0))
	assert.Equal(t, []string{"", "3", ""}, got.Row(1))
}

func TestReadShallowSuffixesRepeatedChildren(t *testing.T) {
	t.Parallel()

	got, err := xmltable.Read(strings.NewReader(searchResponse), xmltable.Options{Path: ".//doc"})
	require.NoError(t, err)

	assert.Equal(t, []string{"str", "str.1", "str.2"}, got.Columns())
	assert.Equal(t, []string{"c1", "http://example.com/DLTINS_1.zip", "DLTINS"}, got.Row(0))
}

func TestReadShallowIncludesAttributes(t *testing.T) {
	t.Parallel()

	got, err := xmltable.Read(strings.NewReader(searchResponse), xmltable.Options{Path: "/response/result"})
	require.NoError(t, err)

	require.Equal(t, 1, got.Len())
	v, err := got.Value(0, "numFound")
	require.NoError(t, err)
	assert.Equal(t, "2", v)
	assert.True(t, got.Has("doc"))
}

func TestReadFieldsScansDescendants(t *testing.T) {
	t.Parallel()

	got, err := xmltable.Read(strings.NewReader(modifiedRecords), xmltable.Options{
		Path:   "//ModfdRcrd",
		Fields: []string{"Id", "FullNm", "NtnlCcy", "Issr"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Id", "FullNm", "NtnlCcy", "Issr"}, got.Columns())
	require.Equal(t, 2, got.Len())
	assert.Equal(t, []string{"DE000A1", "Banana Call", "EUR", "529900"}, got.Row(0))
	assert.Equal(t, []string{"DE000B2", "Plum Put", "", "529901"}, got.Row(1))
}

func TestReadNamespacedPath(t *testing.T) {
	t.Parallel()

	got, err := xmltable.Read(strings.NewReader(modifiedRecords), xmltable.Options{
		Path:       ".//auth:ModfdRcrd",
		Namespaces: map[string]string{"auth": "urn:iso:std:iso:20022:tech:xsd:auth.036.001.02"},
		Fields:     []string{"Id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())

	got, err = xmltable.Read(strings.NewReader(modifiedRecords), xmltable.Options{
		Path:       ".//head:ModfdRcrd",
		Namespaces: map[string]string{"head": "urn:iso:std:iso:20022:tech:xsd:head.003.001.01"},
		Fields:     []string{"Id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestReadNoMatchGivesEmptyTable(t *testing.T) {
	t.Parallel()

	got, err := xmltable.Read(strings.NewReader(searchResponse), xmltable.Options{Path: "//missing"})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestReadMalformedXML(t *testing.T) {
	t.Parallel()

	_, err := xmltable.Read(strings.NewReader("<a><b></a>"), xmltable.Options{Path: "//b"})
	assert.Error(t, err)
}

func TestReadLatin1Document(t *testing.T) {
	t.Parallel()

	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?><r><doc><n>caf\xe9</n></doc></r>"
	got, err := xmltable.Read(strings.NewReader(doc), xmltable.Options{Path: "//doc"})
	require.NoError(t, err)

	v, err := got.Value(0, "n")
	require.NoError(t, err)
	assert.Equal(t, "café", v)
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		expr string
		err  error
	}{
		"descendant":     {expr: "//result//doc"},
		"dot descendant": {expr: ".//doc"},
		"absolute":       {expr: "/response/result"},
		"relative root":  {expr: "response"},
		"wildcard":       {expr: "//result/*"},
		"prefixed":       {expr: "//a:doc"},
		"empty":          {expr: "", err: xmltable.ErrUnsupportedPath},
		"predicate":      {expr: "//doc[1]", err: xmltable.ErrUnsupportedPath},
		"attribute":      {expr: "//doc/@name", err: xmltable.ErrUnsupportedPath},
		"empty step":     {expr: "//a///b", err: xmltable.ErrUnsupportedPath},
		"unknown prefix": {expr: "//x:doc", err: xmltable.ErrUnknownPrefix},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p, err := xmltable.ParsePath(tc.expr, map[string]string{"a": "urn:a"})
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expr, p.String())
		})
	}
}
