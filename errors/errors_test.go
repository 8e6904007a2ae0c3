package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_MissingField(t *testing.T) {
	err := MissingField("limit", "count")
	if err.Code != ErrCodeMissingField {
		t.Errorf("expected MISSING_FIELD, got %s", err.Code)
	}
	if err.Message != "Field count is required in stage limit" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Stage != "limit" || err.Field != "count" {
		t.Errorf("expected stage=limit field=count, got stage=%q field=%q", err.Stage, err.Field)
	}
}

func TestAppError_InvalidArgument(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := InvalidArgument("skip", "count", "must not be negative")
		if err.Code != ErrCodeInvalidArgument {
			t.Errorf("expected INVALID_ARGUMENT, got %s", err.Code)
		}
		if !strings.Contains(err.Message, "count") || !strings.Contains(err.Message, "skip") {
			t.Errorf("expected field and stage in message, got %q", err.Message)
		}
	})

	t.Run("without field", func(t *testing.T) {
		err := InvalidArgument("facet", "", "bad input")
		if err.Message != "Invalid argument in stage facet: bad input" {
			t.Errorf("unexpected message %q", err.Message)
		}
	})
}

func TestAppError_NotADocument(t *testing.T) {
	err := NotADocument("match", 42)
	if err.Message != "Parameter must be an object in stage match" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["type"] != "int" {
		t.Errorf("expected type=int detail, got %v", err.Details["type"])
	}
}

func TestAppError_ErrorString(t *testing.T) {
	err := Configuration("handle is not a valid aggregation-capable collection")
	if err.Error() != "CONFIGURATION_ERROR: handle is not a valid aggregation-capable collection" {
		t.Errorf("unexpected Error() %q", err.Error())
	}

	cause := fmt.Errorf("yaml: line 3")
	wrapped := InvalidDefinition("cats.yaml", cause)
	if !strings.Contains(wrapped.Error(), "cause: yaml: line 3") {
		t.Errorf("expected cause in Error(), got %q", wrapped.Error())
	}
	if !stderrors.Is(wrapped, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := New(ErrCodeInvalidArgument, "bad").WithDetail("index", 2)
	if err.Details["index"] != 2 {
		t.Errorf("expected index=2, got %v", err.Details["index"])
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		configuration bool
		validation    bool
	}{
		{"configuration", Configuration("x"), true, false},
		{"missing field", MissingField("match", "filter"), false, true},
		{"invalid argument", InvalidArgument("skip", "count", "negative"), false, true},
		{"invalid definition", InvalidDefinition("a.yaml", nil), false, true},
		{"wrapped", fmt.Errorf("build: %w", MissingField("lookup", "as")), false, true},
		{"joined", stderrors.Join(fmt.Errorf("plain"), Configuration("x")), true, false},
		{"plain", fmt.Errorf("driver failure"), false, false},
		{"nil", nil, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsConfiguration(tc.err); got != tc.configuration {
				t.Errorf("IsConfiguration = %v, want %v", got, tc.configuration)
			}
			if got := IsValidation(tc.err); got != tc.validation {
				t.Errorf("IsValidation = %v, want %v", got, tc.validation)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", MissingField("unwind", "path"))
	if !HasCode(err, ErrCodeMissingField) {
		t.Error("expected MISSING_FIELD code")
	}
	if HasCode(err, ErrCodeInvalidArgument) {
		t.Error("did not expect INVALID_ARGUMENT code")
	}
}

func TestToResponse(t *testing.T) {
	resp := MissingField("lookup", "from").ToResponse()
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	got := string(data)
	for _, want := range []string{`"code":"MISSING_FIELD"`, `"stage":"lookup"`, `"field":"from"`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %s in %s", want, got)
		}
	}
}
