package fritz

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestXPathLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`Wohnzimmer`, `'Wohnzimmer'`},
		{`"Bad" bearbeiten`, `'"Bad" bearbeiten'`},
		{`Kid's Room`, `"Kid's Room"`},
		{`"Kid's" bearbeiten`, `concat('"Kid', "'", 's" bearbeiten')`},
	}
	for _, tt := range tests {
		if got := xpathLiteral(tt.in); got != tt.want {
			t.Errorf("xpathLiteral(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSelectors(t *testing.T) {
	if got, want := byID(idSensorDisplay), `[id="uiNumDisplay:Roomtemp"]`; got != want {
		t.Errorf("byID() = %s, want %s", got, want)
	}

	want := `//button[contains(@aria-label,'"Bad" bearbeiten')]`
	if got := deviceButtonXPath(`"%s" bearbeiten`, "Bad"); got != want {
		t.Errorf("deviceButtonXPath() = %s, want %s", got, want)
	}

	want = `//span[contains(text(),'Bad')]/parent::div/parent::div`
	if got := controlRowXPath("Bad"); got != want {
		t.Errorf("controlRowXPath() = %s, want %s", got, want)
	}
}

func TestClassify(t *testing.T) {
	ctx := context.Background()

	if err := classify(ctx, nil, "x", ErrTimeout); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	err := classify(ctx, context.DeadlineExceeded, "up button", ErrControlDisabled)
	if !errors.Is(err, ErrControlDisabled) {
		t.Errorf("expected ErrControlDisabled, got %v", err)
	}

	err = classify(ctx, context.DeadlineExceeded, "login", ErrTimeout)
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got %v", err)
	}

	// ApplyOffset waits for the confirmation dialog on the bounded page
	err = classify(ctx, context.DeadlineExceeded, "confirmation dialog", ErrTimeout)
	if !errors.Is(err, ErrTimeout) || errors.Is(err, ErrControlDisabled) {
		t.Errorf("expected ErrTimeout for a missing dialog, got %v", err)
	}
	if !strings.Contains(err.Error(), "confirmation dialog") {
		t.Errorf("expected the dialog to be named, got %v", err)
	}

	other := errors.New("boom")
	if err := classify(ctx, other, "x", ErrTimeout); !errors.Is(err, other) || errors.Is(err, ErrTimeout) {
		t.Errorf("expected other error to be kept, got %v", err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := classify(canceled, context.DeadlineExceeded, "x", ErrTimeout); !errors.Is(err, context.Canceled) {
		t.Errorf("expected parent cancellation to win, got %v", err)
	}
}

func TestOpenValidatesOptions(t *testing.T) {
	_, err := Open(context.Background(), Options{URL: "http://fritz.box"})
	if !errors.Is(err, ErrNoPassword) {
		t.Errorf("expected ErrNoPassword, got %v", err)
	}

	if _, err := Open(context.Background(), Options{Password: "x"}); err == nil {
		t.Errorf("expected error for missing url")
	}
}

func TestCloseWithoutBrowser(t *testing.T) {
	// Open calls Close on sessions it could only partly set up.
	s := &Session{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on an empty session = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestDirectionString(t *testing.T) {
	if Up.String() != "up" || Down.String() != "down" {
		t.Errorf("unexpected direction names %s/%s", Up, Down)
	}
}
