package inventory

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/market"
)

const feed = `Остатки на складе;;;;
Дата: 01.03.2024;;;;
;;;;
Наименование;Код;Количество;Цена;Бренд
Casio MTP-1302;136748;>10;5'990.00 руб;Casio
Casio LTP-1302;136749;1;4'490.00 руб;Casio
Итого;;;;
Orient RA-AC0F;  136750 ;3;"12'500.00 руб";Orient
`

func encode(t *testing.T, s string) []byte {
	t.Helper()
	data, err := charmap.Windows1251.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return data
}

func zipped(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	require.NoError(t, err)
	_, err = f.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

var want = []market.InventoryItem{
	{Code: "136748", Quantity: ">10", Price: "5'990.00 руб"},
	{Code: "136749", Quantity: "1", Price: "4'490.00 руб"},
	{Code: "136750", Quantity: "3", Price: "12'500.00 руб"},
}

func TestRead(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	items, err := NewLoader().Read(ctx, bytes.NewReader(encode(t, feed)))
	require.NoError(t, err)
	assert.Equal(t, want, items)
	tl.AssertContains(t, "Dropped inventory rows without a code")
	tl.AssertContains(t, `"dropped":1`)
}

func TestReadUTF8(t *testing.T) {
	items, err := NewLoader(WithEncoding(nil)).Read(context.Background(), strings.NewReader(feed))
	require.NoError(t, err)
	assert.Equal(t, want, items)
}

func TestReadMissingHeader(t *testing.T) {
	_, err := NewLoader().Read(context.Background(), bytes.NewReader(encode(t, "Код;Цена\n1;2\n")))
	assert.True(t, errors.IsValidationError(err))
}

func TestLoadZipFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ostatki.zip")
	require.NoError(t, os.WriteFile(path, zipped(t, "ostatki.csv", encode(t, feed)), 0o600))

	items, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, want, items)
}

func TestLoadPlainCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ostatki.csv")
	require.NoError(t, os.WriteFile(path, encode(t, feed), 0o600))

	items, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

var wantXLS = []market.InventoryItem{
	{Code: "A-100", Quantity: "5", Price: "5'990.00 руб"},
	{Code: "B-200", Quantity: ">10", Price: "12 500.00 руб"},
	{Code: "C-300", Quantity: "1", Price: "0.50 руб"},
}

func readFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "ostatki.xls"))
	require.NoError(t, err)
	return data
}

func TestReadXLS(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)

	// header sits on row 17 below a title, as in the warehouse export
	items, err := NewLoader().ReadXLS(ctx, bytes.NewReader(readFixture(t)))
	require.NoError(t, err)
	assert.Equal(t, wantXLS, items)
	tl.AssertContains(t, `"dropped":1`)
}

func TestSheetRowsBlankRows(t *testing.T) {
	// the export has no record for the rows between the title and the header
	rows, err := sheetRows(bytes.NewReader(readFixture(t)))
	require.NoError(t, err)
	require.Greater(t, len(rows), 2)

	assert.Contains(t, strings.Join(rows[0], " "), "Остатки товаров на складе")
	assert.Empty(t, rows[1])

	header, _, ok := locateHeader(rows)
	require.True(t, ok)
	assert.Greater(t, header, 1)
}

func TestLoadZippedXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ostatki.zip")
	require.NoError(t, os.WriteFile(path, zipped(t, "ostatki.xls", readFixture(t)), 0o600))

	items, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, wantXLS, items)
}

func TestLoadArchivePrefersXLS(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, entry := range []struct {
		name string
		data []byte
	}{
		{"readme.txt", []byte("stock export")},
		{"ostatki.csv", encode(t, feed)},
		{"ostatki.xls", readFixture(t)},
	} {
		f, err := w.Create(entry.name)
		require.NoError(t, err)
		_, err = f.Write(entry.data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "ostatki.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	items, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, wantXLS, items)
}

func TestLoadPlainXLSFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ostatki.xls")
	require.NoError(t, os.WriteFile(path, readFixture(t), 0o600))

	items, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, wantXLS, items)
}

func TestLoadMalformedXLS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ostatki.xls")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o600))

	_, err := NewLoader().Load(context.Background(), path)
	var ioErr *errors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "parse", ioErr.Operation)
}

func TestLoadDownload(t *testing.T) {
	archive := zipped(t, "ostatki.csv", encode(t, feed))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/upload/files/ostatki.zip" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(archive)
	}))
	defer server.Close()

	loader := NewLoader(WithHTTPClient(server.Client()))

	items, err := loader.Load(context.Background(), server.URL+"/upload/files/ostatki.zip")
	require.NoError(t, err)
	assert.Equal(t, want, items)

	_, err = loader.Load(context.Background(), server.URL+"/missing.zip")
	var ioErr *errors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "download", ioErr.Operation)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.zip"))
	var ioErr *errors.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.True(t, os.IsNotExist(ioErr.Err))
}

func TestLoadEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, zip.NewWriter(&buf).Close())
	path := filepath.Join(t.TempDir(), "empty.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	// an empty archive has no local file header, so it is read as CSV
	_, err := NewLoader().Load(context.Background(), path)
	assert.Error(t, err)
}
