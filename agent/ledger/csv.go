package ledger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

const TimestampLayout = "2006-01-02 15:04:05"

var csvHeader = []string{
	"timestamp",
	"telefono",
	"mensaje_original",
	"cantidad_kg",
	"dia_entrega",
	"direccion",
	"distrito",
	"metodo_pago",
}

// CSVLedger appends one row per finalized order and writes the header when
// the file is new or empty.
type CSVLedger struct {
	path string
	mu   sync.Mutex
}

var _ contractx.Ledger = (*CSVLedger)(nil)

func NewCSVLedger(path string) (*CSVLedger, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("csv ledger path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}
	return &CSVLedger{path: path}, nil
}

func (l *CSVLedger) Path() string {
	return l.path
}

func (l *CSVLedger) Append(ctx context.Context, entry contractx.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrLedgerAppend, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", contractx.ErrLedgerAppend, l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", contractx.ErrLedgerAppend, l.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("%w: write header: %v", contractx.ErrLedgerAppend, err)
		}
	}
	if err := w.Write(csvRecord(entry)); err != nil {
		return fmt.Errorf("%w: write row: %v", contractx.ErrLedgerAppend, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush: %v", contractx.ErrLedgerAppend, err)
	}
	return nil
}

func csvRecord(entry contractx.LedgerEntry) []string {
	form := entry.Form
	quantity := ""
	if form.QuantityKg != nil {
		quantity = strconv.FormatFloat(*form.QuantityKg, 'f', -1, 64)
	}
	return []string{
		entry.RecordedAt.Local().Format(TimestampLayout),
		entry.CustomerID,
		entry.OriginalMessage,
		quantity,
		deref(form.DeliveryDay),
		deref(form.Address),
		deref(form.District),
		deref(form.PaymentMethod),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
