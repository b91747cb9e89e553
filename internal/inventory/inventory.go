// Package inventory loads the local watch inventory feed: a zip archive
// (downloaded or on disk) holding the stock spreadsheet. The warehouse
// exports it as a BIFF .xls workbook; a semicolon-separated Windows-1251
// CSV export is read as well.
package inventory

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/agentstation/marketsync/pkg/constants"
	"github.com/agentstation/marketsync/pkg/errors"
	"github.com/agentstation/marketsync/pkg/logging"
	"github.com/agentstation/marketsync/pkg/market"
)

var zipMagic = []byte("PK\x03\x04")

// Loader reads inventory feeds.
type Loader struct {
	http     *http.Client
	encoding encoding.Encoding
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client feeds are downloaded with.
func WithHTTPClient(hc *http.Client) Option {
	return func(l *Loader) {
		if hc != nil {
			l.http = hc
		}
	}
}

// WithEncoding sets the feed character encoding. A nil encoding reads UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(l *Loader) {
		l.encoding = enc
	}
}

// NewLoader creates a Loader for Windows-1251 feeds.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		http:     &http.Client{Timeout: constants.InventoryDownloadTimeout},
		encoding: charmap.Windows1251,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the feed at source, an http(s) URL or a local path. Zip
// archives are unpacked; workbooks are read as XLS and anything else as CSV.
func (l *Loader) Load(ctx context.Context, source string) ([]market.InventoryItem, error) {
	if source == "" {
		source = constants.DefaultInventoryURL
	}

	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = l.download(ctx, source)
	} else {
		data, err = os.ReadFile(source)
		err = errors.WrapIO("read", source, err)
	}
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Debug().
		Str("source", source).
		Int("bytes", len(data)).
		Msg("Inventory feed fetched")

	if bytes.HasPrefix(data, zipMagic) {
		return l.readZip(ctx, data, source)
	}
	return l.readSheet(ctx, data, source)
}

// readSheet parses a single spreadsheet export, picking the format by
// content and falling back to the file extension.
func (l *Loader) readSheet(ctx context.Context, data []byte, name string) ([]market.InventoryItem, error) {
	if bytes.HasPrefix(data, ole2Magic) || strings.EqualFold(filepath.Ext(name), ".xls") {
		return l.ReadXLS(ctx, bytes.NewReader(data))
	}
	return l.Read(ctx, bytes.NewReader(data))
}

func (l *Loader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.WrapIO("download", url, err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, errors.NewConnectionError("GET", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WrapIO("download", url, fmt.Errorf("unexpected status %s", resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.WrapIO("download", url, err)
	}
	return data, nil
}

// readZip reads the first XLS entry of the archive, then the first CSV
// entry, then whatever file comes first.
func (l *Loader) readZip(ctx context.Context, data []byte, source string) ([]market.InventoryItem, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.WrapIO("unzip", source, err)
	}

	entry := pickEntry(archive.File)
	if entry == nil {
		return nil, errors.WrapIO("unzip", source, errors.New("archive is empty"))
	}

	rc, err := entry.Open()
	if err != nil {
		return nil, errors.WrapIO("unzip", entry.Name, err)
	}
	defer func() {
		_ = rc.Close()
	}()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.WrapIO("unzip", entry.Name, err)
	}

	logging.FromContext(ctx).Debug().Str("entry", entry.Name).Msg("Reading inventory archive entry")
	return l.readSheet(ctx, content, entry.Name)
}

func pickEntry(files []*zip.File) *zip.File {
	var csvEntry, first *zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".xls":
			return f
		case ".csv":
			if csvEntry == nil {
				csvEntry = f
			}
		}
		if first == nil {
			first = f
		}
	}
	if csvEntry != nil {
		return csvEntry
	}
	return first
}

// Read parses a CSV export.
func (l *Loader) Read(ctx context.Context, r io.Reader) ([]market.InventoryItem, error) {
	if l.encoding != nil {
		r = transform.NewReader(r, l.encoding.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.WrapIO("parse", "inventory csv", err)
	}
	return collect(ctx, rows)
}

// collect turns sheet rows into items. Rows above the header are ignored;
// the header is the first row naming the code, quantity and price columns.
// Rows without a code are dropped.
func collect(ctx context.Context, rows [][]string) ([]market.InventoryItem, error) {
	logger := logging.FromContext(ctx)

	header, cols, ok := locateHeader(rows)
	if !ok {
		return nil, errors.NewValidationError("header", nil, fmt.Sprintf("no row names the %s, %s and %s columns",
			constants.InventoryColumnCode, constants.InventoryColumnQuantity, constants.InventoryColumnPrice))
	}

	items := make([]market.InventoryItem, 0, len(rows)-header-1)
	dropped := 0
	for i, row := range rows[header+1:] {
		code := strings.TrimSpace(field(row, cols.code))
		if code == "" {
			dropped++
			logger.Trace().Int("row", header+i+2).Msg("Dropping inventory row without a code")
			continue
		}
		items = append(items, market.InventoryItem{
			Code:     code,
			Quantity: strings.TrimSpace(field(row, cols.quantity)),
			Price:    strings.TrimSpace(field(row, cols.price)),
		})
	}

	if dropped > 0 {
		logger.Warn().Int("dropped", dropped).Msg("Dropped inventory rows without a code")
	}
	logger.Info().Int("items", len(items)).Msg("Inventory loaded")
	return items, nil
}

type columns struct {
	code, quantity, price int
}

func locateHeader(rows [][]string) (int, columns, bool) {
	for i, row := range rows {
		cols := columns{code: -1, quantity: -1, price: -1}
		for j, cell := range row {
			switch strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff")) {
			case constants.InventoryColumnCode:
				cols.code = j
			case constants.InventoryColumnQuantity:
				cols.quantity = j
			case constants.InventoryColumnPrice:
				cols.price = j
			}
		}
		if cols.code >= 0 && cols.quantity >= 0 && cols.price >= 0 {
			return i, cols, true
		}
	}
	return 0, columns{}, false
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
