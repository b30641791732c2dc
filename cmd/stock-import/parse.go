package main

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/cashier/internal/domain/stock"
)

const bloomFPR = 0.001

// parsedFile is the content of one stock file. Codes repeated within a file
// are already summed.
type parsedFile struct {
	path     string
	products []stock.Product
	filter   *bloom.BloomFilter
}

// parseFiles parses every file concurrently, keeping the input order.
func parseFiles(ctx context.Context, files []string) ([]parsedFile, error) {
	out := make([]parsedFile, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			pf, err := parseFile(ctx, path)
			if err != nil {
				return errors.Wrapf(err, "file %s", path)
			}
			out[i] = pf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func parseFile(ctx context.Context, path string) (parsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return parsedFile{}, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return parsedFile{}, errors.Wrap(err, "create gzip reader")
	}
	defer func() { _ = gz.Close() }()

	products, err := readProducts(ctx, gz)
	if err != nil {
		return parsedFile{}, err
	}

	filter := bloom.NewWithEstimates(uint(max(len(products), 1)), bloomFPR)
	for _, p := range products {
		filter.AddString(p.Code)
	}

	slog.Info("parsed stock file", slog.String("path", path), slog.Int("products", len(products)))
	return parsedFile{path: path, products: products, filter: filter}, nil
}

// readProducts reads "code,description,price,quantity" records. A header
// line starting with "code" and blank lines are skipped.
func readProducts(ctx context.Context, r io.Reader) ([]stock.Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var (
		products []stock.Product
		index    = make(map[string]int)
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv")
		}
		line, _ := cr.FieldPos(0)
		if line == 1 && strings.EqualFold(rec[0], "code") {
			continue
		}

		p, err := parseRecord(rec)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if i, ok := index[p.Code]; ok {
			products[i].Available += p.Available
			continue
		}
		index[p.Code] = len(products)
		products = append(products, p)
	}
	return products, nil
}

func parseRecord(rec []string) (stock.Product, error) {
	code := strings.TrimSpace(rec[0])
	if code == "" {
		return stock.Product{}, errors.New("empty code")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
	if err != nil {
		return stock.Product{}, errors.Wrapf(err, "price of %s", code)
	}
	if price.IsNegative() {
		return stock.Product{}, errors.Errorf("negative price for %s", code)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(rec[3]))
	if err != nil {
		return stock.Product{}, errors.Wrapf(err, "quantity of %s", code)
	}
	if qty < 0 {
		return stock.Product{}, errors.Errorf("negative quantity for %s", code)
	}
	return stock.Product{
		Code:        code,
		Description: strings.TrimSpace(rec[1]),
		Price:       price,
		Available:   qty,
	}, nil
}

// merge folds the files into one catalogue ordered by code. A code already
// seen in an earlier file has its quantity added and takes the later
// description and price. It also returns how many cross-file duplicates
// were merged.
func merge(files []parsedFile) ([]stock.Product, int) {
	merged := make(map[string]stock.Product)
	dups := 0

	for i, pf := range files {
		for _, p := range pf.products {
			if seenBefore(files[:i], p.Code) {
				if prev, ok := merged[p.Code]; ok {
					p.Available += prev.Available
					dups++
				}
			}
			merged[p.Code] = p
		}
	}

	out := make([]stock.Product, 0, len(merged))
	for _, p := range merged {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b stock.Product) int {
		return strings.Compare(a.Code, b.Code)
	})
	return out, dups
}

// seenBefore is a bloom pre-check; false means code is in none of files.
func seenBefore(files []parsedFile, code string) bool {
	for _, pf := range files {
		if pf.filter.TestString(code) {
			return true
		}
	}
	return false
}
