package future

import (
	"errors"
	"testing"
	"time"
)

func TestAwait(t *testing.T) {
	f := New(func() (int, error) {
		time.Sleep(5 * time.Millisecond)
		return 42, nil
	})
	v, err := f.Await()
	if err != nil || v != 42 {
		t.Errorf("expected 42, got %d (%v)", v, err)
	}
	select {
	case <-f.Done():
	default:
		t.Errorf("Done is not closed after Await returned")
	}
}

func TestAll(t *testing.T) {
	testCases := []struct {
		name    string
		futures []*Future[int]
		want    []int
		wantErr string
	}{
		{
			name:    "no futures",
			futures: nil,
			want:    []int{},
		},
		{
			name: "values keep argument order",
			futures: []*Future[int]{
				New(func() (int, error) { time.Sleep(10 * time.Millisecond); return 1, nil }),
				New(func() (int, error) { return 2, nil }),
				New(func() (int, error) { time.Sleep(5 * time.Millisecond); return 3, nil }),
			},
			want: []int{1, 2, 3},
		},
		{
			name: "earliest failure in order wins",
			futures: []*Future[int]{
				New(func() (int, error) { return 1, nil }),
				New(func() (int, error) { time.Sleep(10 * time.Millisecond); return 0, errors.New("second") }),
				New(func() (int, error) { return 0, errors.New("third") }),
			},
			wantErr: "second",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := All(tc.futures...)
			if tc.wantErr != "" {
				if err == nil || err.Error() != tc.wantErr {
					t.Errorf("expected error %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}
