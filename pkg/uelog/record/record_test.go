package record

import (
	"errors"
	"testing"
	"time"
)

func TestTime(t *testing.T) {
	jst := time.FixedZone("JST", 9*60*60)

	tests := []struct {
		name    string
		date    string
		loc     *time.Location
		want    time.Time
		wantErr bool
	}{
		{
			name: "full timestamp with milliseconds",
			date: "2020.12.13-02.11.01:195",
			loc:  jst,
			want: time.Date(2020, 12, 13, 2, 11, 1, 195*1e6, jst),
		},
		{
			name: "zero milliseconds",
			date: "2020.01.01-00.00.00:000",
			loc:  time.UTC,
			want: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "garbage",
			date:    "not a date",
			loc:     time.UTC,
			wantErr: true,
		},
		{
			name:    "non-numeric milliseconds",
			date:    "2020.01.01-00.00.00:abc",
			loc:     time.UTC,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Date: tt.date}
			got, err := r.Time(tt.loc)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Time(%q) = %v, want error", tt.date, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Time(%q) error: %v", tt.date, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Time(%q) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

func TestTimeNoDate(t *testing.T) {
	r := Record{}
	if _, err := r.Time(time.UTC); !errors.Is(err, ErrNoDate) {
		t.Errorf("Time() error = %v, want ErrNoDate", err)
	}
}

func TestTimeNilLocation(t *testing.T) {
	r := Record{Date: "2020.01.01-12.00.00:500"}
	got, err := r.Time(nil)
	if err != nil {
		t.Fatalf("Time() error: %v", err)
	}
	want := time.Date(2020, 1, 1, 12, 0, 0, 500*1e6, time.Local)
	if !got.Equal(want) {
		t.Errorf("Time() = %v, want %v (local)", got, want)
	}
}

func TestAppend(t *testing.T) {
	r := Record{
		Category: "LogTemp",
		Log:      "LogTemp: first line",
		LogBody:  "first line",
	}
	r.Append("second line")
	r.Append("third line")

	if r.Log != "LogTemp: first line\nsecond line\nthird line" {
		t.Errorf("Log = %q", r.Log)
	}
	if r.LogBody != "first line\nsecond line\nthird line" {
		t.Errorf("LogBody = %q", r.LogBody)
	}
}
