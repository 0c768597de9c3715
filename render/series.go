package render

import (
	"fmt"
	"reflect"
	"sort"
)

// Point is one labelled value of a chart.
type Point struct {
	Label string
	Value float64
}

// Series is the chart input drawn from an aggregation result. It is a copy;
// building or sorting it never touches the result it came from.
type Series struct {
	Title  string
	Label  string
	Metric string
	Points []Point
}

// SeriesFrom reads labelField and metricField from every element of rows,
// a slice of structs or struct pointers, keeping the input order. Metric
// fields may be any integer or float kind, or a pointer to one; nil
// pointers are skipped.
func SeriesFrom(title string, rows any, labelField, metricField string) (*Series, error) {
	v := reflect.ValueOf(rows)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("render: rows must be a slice, got %T", rows)
	}

	s := &Series{Title: title, Label: labelField, Metric: metricField}
	for i := 0; i < v.Len(); i++ {
		elem := reflect.Indirect(v.Index(i))
		if elem.Kind() != reflect.Struct {
			return nil, fmt.Errorf("render: element %d is %s, not a struct", i, elem.Kind())
		}

		lf := elem.FieldByName(labelField)
		if !lf.IsValid() {
			return nil, fmt.Errorf("render: %s has no field %q", elem.Type(), labelField)
		}
		mf := elem.FieldByName(metricField)
		if !mf.IsValid() {
			return nil, fmt.Errorf("render: %s has no field %q", elem.Type(), metricField)
		}

		value, ok, err := number(mf)
		if err != nil {
			return nil, fmt.Errorf("render: field %q: %w", metricField, err)
		}
		if !ok {
			continue
		}
		s.Points = append(s.Points, Point{Label: fmt.Sprint(lf.Interface()), Value: value})
	}
	return s, nil
}

func number(v reflect.Value) (float64, bool, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return 0, false, nil
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true, nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), true, nil
	}
	return 0, false, fmt.Errorf("%s is not numeric", v.Type())
}

// Top returns a copy holding the n largest points, largest first. n < 1
// keeps every point.
func (s *Series) Top(n int) *Series {
	out := *s
	out.Points = append([]Point(nil), s.Points...)
	sort.SliceStable(out.Points, func(i, j int) bool { return out.Points[i].Value > out.Points[j].Value })
	if n > 0 && len(out.Points) > n {
		out.Points = out.Points[:n]
	}
	return &out
}

// Empty reports whether the series has nothing to draw.
func (s *Series) Empty() bool { return s == nil || len(s.Points) == 0 }
