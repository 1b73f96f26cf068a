package matching

import (
	"reflect"
	"testing"
)

func TestJaccard(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		a, b   []string
		expect float64
	}{
		{name: "identical", a: []string{"go", "sql"}, b: []string{"sql", "go"}, expect: 1},
		{name: "duplicates ignored", a: []string{"go", "go", "sql"}, b: []string{"go", "sql"}, expect: 1},
		{name: "partial", a: []string{"go", "sql", "aws"}, b: []string{"go", "k8s"}, expect: 0.25},
		{name: "disjoint", a: []string{"go"}, b: []string{"java"}, expect: 0},
		{name: "empty left", a: nil, b: []string{"go"}, expect: 0},
		{name: "both empty", a: []string{}, b: []string{}, expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Jaccard(tt.a, tt.b)
			if got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
			if got < 0 || got > 1 {
				t.Fatalf("jaccard out of bounds: %v", got)
			}
		})
	}
}

func TestSetHelpers(t *testing.T) {
	t.Parallel()

	a := []string{"python", "go", "sql"}
	b := []string{"sql", "python", "rust"}

	if got := Intersect(a, b); !reflect.DeepEqual(got, []string{"python", "sql"}) {
		t.Fatalf("unexpected intersection %v", got)
	}
	if got := Difference(b, a); !reflect.DeepEqual(got, []string{"rust"}) {
		t.Fatalf("unexpected difference %v", got)
	}
	if got := Union(a, b); !reflect.DeepEqual(got, []string{"go", "python", "rust", "sql"}) {
		t.Fatalf("unexpected union %v", got)
	}
	if got := Intersect(nil, b); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil intersection, got %v", got)
	}
}
