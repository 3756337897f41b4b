package errors

import (
	stdlib "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestCause(t *testing.T) {
	std := stdlib.New("this is a stdlib error")

	cases := map[string]struct {
		err  error
		root error
	}{
		"Errors are self-causing": {
			err:  ErrNotFound,
			root: ErrNotFound,
		},
		"Wrap reveals root cause": {
			err:  Wrap(ErrNotFound, "foo"),
			root: ErrNotFound,
		},
		"Cause works for stderr as root": {
			err:  Wrap(std, "Some helpful text"),
			root: std,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := errors.Cause(tc.err); got != tc.root {
				t.Fatal("unexpected result")
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	cases := map[string]struct {
		a      *Error
		b      error
		wantIs bool
	}{
		"instance of the same error": {
			a:      ErrNotFound,
			b:      ErrNotFound,
			wantIs: true,
		},
		"two different coded errors": {
			a:      ErrNotFound,
			b:      ErrModel,
			wantIs: false,
		},
		"successful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      Wrap(ErrNotFound, "gone"),
			wantIs: true,
		},
		"unsuccessful comparison to a wrapped error": {
			a:      ErrNotFound,
			b:      Wrap(ErrOverflow, "too big"),
			wantIs: false,
		},
		"not equal to stdlib error": {
			a:      ErrNotFound,
			b:      fmt.Errorf("stdlib error"),
			wantIs: false,
		},
		"not equal to a wrapped stdlib error": {
			a:      ErrNotFound,
			b:      Wrap(fmt.Errorf("stdlib error"), "wrapped"),
			wantIs: false,
		},
		"nil is nil": {
			a:      nil,
			b:      nil,
			wantIs: true,
		},
		"nil is any error nil": {
			a:      nil,
			b:      (*customError)(nil),
			wantIs: true,
		},
		"nil is not not-nil": {
			a:      nil,
			b:      ErrNotFound,
			wantIs: false,
		},
		"not-nil is not nil": {
			a:      ErrNotFound,
			b:      nil,
			wantIs: false,
		},
		"multi error with the same error": {
			a:      ErrNotFound,
			b:      Append(ErrNotFound, ErrState),
			wantIs: true,
		},
		"multi error with random order": {
			a:      ErrNotFound,
			b:      Append(ErrState, ErrNotFound),
			wantIs: true,
		},
		"multi error with wrapped err": {
			a:      ErrNotFound,
			b:      Append(ErrState, Wrap(ErrNotFound, "test")),
			wantIs: true,
		},
		"multi error with different error": {
			a:      ErrNotFound,
			b:      Append(ErrState, ErrModel),
			wantIs: false,
		},
		"field error": {
			a:      ErrEmpty,
			b:      Field("Reason", ErrEmpty, "required"),
			wantIs: true,
		},
	}
	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if got := tc.a.Is(tc.b); got != tc.wantIs {
				t.Fatalf("unexpected result - got:%v want: %v", got, tc.wantIs)
			}
		})
	}
}

type customError struct {
}

func (customError) Error() string {
	return "custom error"
}

func TestWrapEmpty(t *testing.T) {
	if err := Wrap(nil, "wrapping <nil>"); err != nil {
		t.Fatal(err)
	}
}

func TestRegisterTwicePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	Register(ErrNotFound.Code(), "another not found")
}

func TestRecover(t *testing.T) {
	run := func() (err error) {
		defer Recover(&err)
		panic("boom")
	}
	err := run()
	if !ErrPanic.Is(err) {
		t.Fatalf("want panic error, got %+v", err)
	}
}

func TestResultInfo(t *testing.T) {
	cases := map[string]struct {
		err      error
		debug    bool
		wantCode uint32
		wantLog  string
	}{
		"nil error": {
			err:      nil,
			wantCode: SuccessCode,
			wantLog:  "",
		},
		"registered error": {
			err:      ErrUnauthorized,
			wantCode: ErrUnauthorized.Code(),
			wantLog:  "unauthorized",
		},
		"wrapped registered error": {
			err:      Wrap(ErrNotFound, "order"),
			wantCode: ErrNotFound.Code(),
			wantLog:  "order: not found",
		},
		"stdlib error is redacted": {
			err:      fmt.Errorf("disk on fire"),
			wantCode: internalCode,
			wantLog:  internalLog,
		},
		"multi error takes the first code": {
			err:      Append(fmt.Errorf("stdlib"), ErrState, ErrEmpty),
			wantCode: ErrState.Code(),
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			code, log := ResultInfo(tc.err, tc.debug)
			if code != tc.wantCode {
				t.Fatalf("want code %d, got %d", tc.wantCode, code)
			}
			if tc.wantLog != "" && log != tc.wantLog {
				t.Fatalf("want log %q, got %q", tc.wantLog, log)
			}
		})
	}
}

func TestRedact(t *testing.T) {
	if err := Redact(ErrPanic.New("secret path"), false); strings.Contains(err.Error(), "secret") {
		t.Fatalf("panic details not redacted: %s", err)
	}
	if err := Redact(ErrPanic.New("secret path"), true); !ErrPanic.Is(err) {
		t.Fatalf("debug mode must not redact: %s", err)
	}
	if err := Redact(ErrState.New("order"), false); !ErrState.Is(err) {
		t.Fatalf("registered errors are kept: %s", err)
	}
}

func TestFieldErrors(t *testing.T) {
	err := Append(
		Field("Price", ErrAmount, "must be positive"),
		Field("Metadata.Model", ErrEmpty, "required"),
		Field("Price", ErrCurrency, "unknown ticker"),
	)

	if got := FieldErrors(err, "Price"); len(got) != 2 {
		t.Fatalf("want 2 price errors, got %d", len(got))
	}
	if got := FieldErrors(err, "Metadata.Model"); len(got) != 1 || !ErrEmpty.Is(got[0]) {
		t.Fatalf("unexpected model errors: %v", got)
	}
	if got := FieldErrors(err, "Seller"); len(got) != 0 {
		t.Fatalf("unexpected seller errors: %v", got)
	}
	if Field("Price", nil, "ignored") != nil {
		t.Fatal("nil field error must be nil")
	}
}

func TestAppend(t *testing.T) {
	if Append(nil, nil) != nil {
		t.Fatal("append of nils must be nil")
	}
	if err := Append(nil, ErrState); err != ErrState {
		t.Fatalf("single error must be returned as is, got %v", err)
	}
	flat := Append(Append(ErrState, ErrEmpty), ErrModel)
	if n := len(flat.(multiErr)); n != 3 {
		t.Fatalf("want flattened error of 3, got %d", n)
	}
}
