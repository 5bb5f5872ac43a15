package stravastats

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Sink persists a dataset, replacing whatever a previous run wrote
type Sink interface {
	Write(ctx context.Context, records []*Record) error
}

// Sinks writes the dataset to every sink
type Sinks []Sink

func (s Sinks) Write(ctx context.Context, records []*Record) error {
	grp, ctx := errgroup.WithContext(ctx)
	for i := range s {
		sink := s[i]
		grp.Go(func() error {
			return sink.Write(ctx, records)
		})
	}
	return grp.Wait()
}

// Fetch collects all records and writes them to the sink. Nothing is written if collection fails.
func Fetch(ctx context.Context, collector *Collector, sink Sink) ([]*Record, error) {
	records, err := collector.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

// CSVSink writes records as UTF-8 CSV with a header row
type CSVSink struct {
	path string
}

func NewCSVSink(path string) *CSVSink {
	return &CSVSink{path: path}
}

// Write replaces the file at the sink's path with the records in order
func (s *CSVSink) Write(_ context.Context, records []*Record) error {
	fp, err := os.CreateTemp(filepath.Dir(s.path), ".stravastats-*.csv")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	tmp := fp.Name()
	defer os.Remove(tmp)
	if err = writeCSV(fp, records); err != nil {
		fp.Close()
		return fmt.Errorf("%w: writing %s: %w", ErrIO, s.path, err)
	}
	if err = fp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err = os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	log.Info().Str("file", s.path).Int("records", len(records)).Msg("csv")
	return nil
}

func writeCSV(w io.Writer, records []*Record) error {
	enc := csv.NewWriter(w)
	if err := enc.Write(Columns); err != nil {
		return err
	}
	for _, rec := range records {
		if err := enc.Write(row(rec)); err != nil {
			return err
		}
	}
	enc.Flush()
	return enc.Error()
}

func row(rec *Record) []string {
	var start string
	if rec.StartDateLocal != nil {
		start = rec.StartDateLocal.Format(time.RFC3339)
	}
	return []string{
		str(rec.Name),
		str(rec.Type),
		start,
		formatFloat(rec.DistanceKm),
		formatInt(rec.MovingTimeS),
		formatFloatPtr(rec.TotalElevationGainM),
		formatFloat(rec.AverageSpeedKmh),
		formatFloatPtr(rec.Calories),
		formatFloatPtr(rec.AverageHeartrate),
		formatFloatPtr(rec.MaxHeartrate),
	}
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatFloatPtr(p *float64) string {
	if p == nil {
		return ""
	}
	return formatFloat(*p)
}

func formatInt(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

// ReadCSV reads a dataset previously written by a CSVSink
func ReadCSV(path string) ([]*Record, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer fp.Close()
	dec := csv.NewReader(fp)
	rows, err := dec.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrIO, path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	index := make(map[string]int)
	for i, name := range rows[0] {
		index[name] = i
	}
	records := make([]*Record, 0, len(rows)-1)
	for n, r := range rows[1:] {
		rec, err := parseRow(index, r)
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %w", ErrIO, path, n+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(index map[string]int, r []string) (*Record, error) {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(r) {
			return ""
		}
		return r[i]
	}
	var err error
	rec := &Record{}
	if v := field("name"); v != "" {
		rec.Name = &v
	}
	if v := field("type"); v != "" {
		rec.Type = &v
	}
	if v := field("start_date_local"); v != "" {
		t, perr := time.Parse(time.RFC3339, v)
		if perr != nil {
			return nil, perr
		}
		rec.StartDateLocal = &t
	}
	if rec.DistanceKm, err = parseFloat(field("distance_km")); err != nil {
		return nil, err
	}
	if rec.AverageSpeedKmh, err = parseFloat(field("average_speed_kmh")); err != nil {
		return nil, err
	}
	if v := field("moving_time_s"); v != "" {
		n, perr := strconv.ParseInt(v, 10, 64)
		if perr != nil {
			return nil, perr
		}
		rec.MovingTimeS = &n
	}
	for name, dst := range map[string]**float64{
		"total_elevation_gain_m": &rec.TotalElevationGainM,
		"calories":               &rec.Calories,
		"average_heartrate":      &rec.AverageHeartrate,
		"max_heartrate":          &rec.MaxHeartrate,
	} {
		v := field(name)
		if v == "" {
			continue
		}
		f, perr := strconv.ParseFloat(v, 64)
		if perr != nil {
			return nil, perr
		}
		*dst = &f
	}
	return rec, nil
}

func parseFloat(v string) (float64, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
