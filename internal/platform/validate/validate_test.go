package validate

import (
	"testing"

	"github.com/jCool10/LearnSmart-sub001/internal/platform/apierr"
)

var scoreSchema = Schema{
	"score":      {Min: Bound(0), Max: Bound(100)},
	"title":      {Required: true, Min: Bound(3), Max: Bound(200)},
	"difficulty": {Enum: []string{"beginner", "intermediate", "advanced"}},
	"slug":       {Pattern: `^[a-z0-9]+(?:-[a-z0-9]+)*$`},
}

func ptr[T any](v T) *T { return &v }

func TestEvaluateAcceptsValidInput(t *testing.T) {
	errs := Evaluate(scoreSchema, Fields{
		"score":      ptr(100.0),
		"title":      "Go basics",
		"difficulty": "advanced",
		"slug":       "go-basics",
	})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %#v", errs)
	}
}

func TestEvaluateSkipsAbsentOptionalFields(t *testing.T) {
	var missing *float64
	errs := Evaluate(scoreSchema, Fields{"score": missing, "title": "Go basics"})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %#v", errs)
	}
}

func TestEvaluateReportsEachFailingField(t *testing.T) {
	errs := Evaluate(scoreSchema, Fields{
		"score":      ptr(100.5),
		"title":      "",
		"difficulty": "expert",
		"slug":       "Not A Slug",
	})
	if len(errs) != 4 {
		t.Fatalf("expected 4 errors, got %#v", errs)
	}
	want := map[string]string{
		"difficulty": "must be one of [beginner, intermediate, advanced]",
		"score":      "must be at most 100",
		"slug":       "has an invalid format",
		"title":      "is required",
	}
	for _, fe := range errs {
		if want[fe.Field] != fe.Message {
			t.Fatalf("field %s: got %q want %q", fe.Field, fe.Message, want[fe.Field])
		}
	}
	if errs[0].Field != "difficulty" || errs[3].Field != "title" {
		t.Fatalf("errors not sorted: %#v", errs)
	}
}

func TestEvaluateNegativeScore(t *testing.T) {
	errs := Evaluate(Schema{"score": {Min: Bound(0), Max: Bound(100)}}, Fields{"score": -1.0})
	if len(errs) != 1 || errs[0].Message != "must be at least 0" {
		t.Fatalf("unexpected errors: %#v", errs)
	}
}

func TestEvaluateStringLength(t *testing.T) {
	errs := Evaluate(Schema{"title": {Required: true, Min: Bound(3)}}, Fields{"title": "Go"})
	if len(errs) != 1 || errs[0].Message != "must be at least 3 characters" {
		t.Fatalf("unexpected errors: %#v", errs)
	}
}

func TestCheckReturnsValidationError(t *testing.T) {
	err := Check(Schema{"progress": {Required: true}}, Fields{})
	if !apierr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	e, _ := apierr.As(err)
	if len(e.Fields) != 1 || e.Fields[0].Field != "progress" {
		t.Fatalf("unexpected fields: %#v", e.Fields)
	}
	if Check(Schema{"progress": {Required: true}}, Fields{"progress": 0}) != nil {
		t.Fatalf("zero is present and valid")
	}
}
