package fritz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/recal/pkg/temperature"
)

// Direction selects which step button to press.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Options configure a console session.
type Options struct {
	// URL of the console, e.g. http://fritz.box
	URL      string
	Password string
	// Timeout bounds every single wait for an element.
	Timeout time.Duration
	// PollInterval is the pause between two reads of an empty display.
	PollInterval time.Duration
	// DeviceLabelFormat is the accessible label of a device's edit button,
	// with %s standing for the device name.
	DeviceLabelFormat string

	// ChromeBin overrides the Chrome binary. Empty means auto-detect
	// (downloading a browser if none is installed).
	ChromeBin string
	// ControlURL connects to an already running Chrome instead of launching one.
	ControlURL string
	Headless   bool
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 90 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 500 * time.Millisecond
	}
	if o.DeviceLabelFormat == "" {
		o.DeviceLabelFormat = `"%s" bearbeiten`
	}
}

// Session is one browser session against the console. It is not safe for
// concurrent use.
type Session struct {
	opts Options

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Open starts (or connects to) Chrome and opens an empty page. The returned
// session must be closed by the caller.
func Open(ctx context.Context, opts Options) (*Session, error) {
	opts.setDefaults()
	if opts.URL == "" {
		return nil, errors.New("no console url configured")
	}
	if opts.Password == "" {
		return nil, ErrNoPassword
	}

	s := &Session{opts: opts}

	controlURL := opts.ControlURL
	if controlURL == "" {
		l := launcher.New().
			Headless(opts.Headless).
			NoSandbox(true).
			Set("disable-gpu").
			Set("disable-dev-shm-usage").
			Set("window-size", "1920,1200")
		if opts.ChromeBin != "" {
			l = l.Bin(opts.ChromeBin)
		}

		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to launch chrome")
		}
		s.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		s.cleanupLauncher()
		return nil, pkgerrors.Wrap(err, "failed to connect to chrome")
	}
	s.browser = browser

	// A connected browser may be shared with others, so work in a
	// separate context that can be disposed of on Close.
	if s.launcher == nil {
		incognito, err := browser.Incognito()
		if err != nil {
			_ = s.Close()
			return nil, pkgerrors.Wrap(err, "failed to create browser context")
		}
		s.browser = incognito
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = s.Close()
		return nil, pkgerrors.Wrap(err, "failed to open page")
	}
	s.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1200,
		DeviceScaleFactor: 1,
	}); err != nil {
		logrus.WithError(err).Warn("failed to set viewport")
	}

	logrus.WithFields(logrus.Fields{
		"controlURL": controlURL,
		"launched":   s.launcher != nil,
	}).Debug("browser session opened")

	return s, nil
}

// Close closes the page and the browser. It is safe to call more than once.
func (s *Session) Close() error {
	var errs []error

	if s.page != nil {
		// Closing the page fails once the browser is gone; that is fine.
		_ = s.page.Close()
		s.page = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, pkgerrors.Wrap(err, "failed to close browser"))
		}
		s.browser = nil
	}
	s.cleanupLauncher()

	logrus.Debug("browser session closed")
	return errors.Join(errs...)
}

func (s *Session) cleanupLauncher() {
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.launcher = nil
	}
}

// bounded returns the session page bound to ctx and limited by the
// configured timeout. The returned func releases the timer.
func (s *Session) bounded(ctx context.Context) (*rod.Page, func()) {
	p := s.page.Context(ctx).Timeout(s.opts.Timeout)
	return p, func() { p.CancelTimeout() }
}

// waitClickable waits until the element is present, visible and enabled.
func waitClickable(p *rod.Page, selector string) (*rod.Element, error) {
	el, err := p.Element(selector)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	if err := el.WaitEnabled(); err != nil {
		return nil, err
	}
	return el, nil
}

func waitClickableX(p *rod.Page, xpath string) (*rod.Element, error) {
	el, err := p.ElementX(xpath)
	if err != nil {
		return nil, err
	}
	if err := el.WaitVisible(); err != nil {
		return nil, err
	}
	if err := el.WaitEnabled(); err != nil {
		return nil, err
	}
	return el, nil
}

func (s *Session) click(ctx context.Context, selector string) error {
	p, cancel := s.bounded(ctx)
	defer cancel()

	logrus.WithField("selector", selector).Trace("click")

	el, err := waitClickable(p, selector)
	if err != nil {
		return classify(ctx, err, selector, ErrTimeout)
	}
	return classify(ctx, el.Click(proto.InputMouseButtonLeft, 1), selector, ErrTimeout)
}

// pollDisplay re-queries an element until it shows a number. Each lookup is
// bounded by the timeout; an empty display is retried every PollInterval.
func (s *Session) pollDisplay(ctx context.Context, what string, find func(p *rod.Page) (*rod.Element, error)) (float64, error) {
	for {
		p, cancel := s.bounded(ctx)
		el, err := find(p)
		if err != nil {
			cancel()
			return 0, classify(ctx, err, what, ErrTimeout)
		}
		text, err := el.Text()
		cancel()
		if err != nil {
			return 0, classify(ctx, err, what, ErrTimeout)
		}

		v, err := temperature.ParseDisplay(text)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, temperature.ErrEmptyDisplay) {
			return 0, err
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(s.opts.PollInterval):
		}
	}
}

// Login opens the console and signs in with the configured password.
func (s *Session) Login(ctx context.Context) error {
	p, cancel := s.bounded(ctx)
	defer cancel()

	logrus.WithField("url", s.opts.URL).Debug("logging in")

	if err := p.Navigate(s.opts.URL); err != nil {
		return classify(ctx, err, "navigate to "+s.opts.URL, ErrTimeout)
	}
	if err := p.WaitLoad(); err != nil {
		return classify(ctx, err, "load "+s.opts.URL, ErrTimeout)
	}

	el, err := p.Element(byID(idPassword))
	if err != nil {
		return classify(ctx, err, "password field", ErrTimeout)
	}
	if err := el.Input(s.opts.Password); err != nil {
		return classify(ctx, err, "password field", ErrTimeout)
	}

	return s.click(ctx, byID(idLoginButton))
}

// OpenDevice navigates to the detail page of the named device.
func (s *Session) OpenDevice(ctx context.Context, name string) error {
	logrus.WithField("device", name).Debug("opening device details")

	if err := s.click(ctx, byID(idSmartHomeMenu)); err != nil {
		return err
	}
	if err := s.click(ctx, byID(idDevices)); err != nil {
		return err
	}

	p, cancel := s.bounded(ctx)
	defer cancel()

	xpath := deviceButtonXPath(s.opts.DeviceLabelFormat, name)
	el, err := waitClickableX(p, xpath)
	if err != nil {
		return classify(ctx, err, fmt.Sprintf("edit button of %q", name), ErrTimeout)
	}
	return classify(ctx, el.Click(proto.InputMouseButtonLeft, 1), xpath, ErrTimeout)
}

// SensorTemperature reads the sensor temperature shown on the device page.
// It includes the currently configured offset.
func (s *Session) SensorTemperature(ctx context.Context) (float64, error) {
	return s.pollDisplay(ctx, "sensor display", func(p *rod.Page) (*rod.Element, error) {
		return p.Element(byID(idSensorDisplay))
	})
}

// RevealOffsetControls scrolls the device page so the offset controls are
// in view.
func (s *Session) RevealOffsetControls(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(`() => window.scrollTo(0, document.body.scrollHeight)`)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to scroll")
	}
	return nil
}

// StepOffset presses the sensor offset up or down button once. The button
// is looked up again on every call since the console re-renders it.
func (s *Session) StepOffset(ctx context.Context, dir Direction) error {
	id := idSensorUp
	if dir == Down {
		id = idSensorDown
	}
	return s.clickOrDisabled(ctx, byID(id))
}

func (s *Session) clickOrDisabled(ctx context.Context, selector string) error {
	p, cancel := s.bounded(ctx)
	defer cancel()

	el, err := waitClickable(p, selector)
	if err != nil {
		return classify(ctx, err, selector, ErrControlDisabled)
	}
	return classify(ctx, el.Click(proto.InputMouseButtonLeft, 1), selector, ErrControlDisabled)
}

// ApplyOffset saves the device settings and accepts the confirmation dialog
// the console raises.
func (s *Session) ApplyOffset(ctx context.Context) error {
	p, cancel := s.bounded(ctx)
	defer cancel()

	selector := byID(idApply)
	el, err := waitClickable(p, selector)
	if err != nil {
		return classify(ctx, err, selector, ErrTimeout)
	}

	wait, handle := p.HandleDialog()

	// The click does not return while the dialog is open.
	clicked := make(chan error, 1)
	go func() {
		clicked <- el.Click(proto.InputMouseButtonLeft, 1)
	}()

	dialog := wait()
	if err := p.GetContext().Err(); err != nil {
		return classify(ctx, err, "confirmation dialog", ErrTimeout)
	}

	logrus.WithFields(logrus.Fields{
		"type":    dialog.Type,
		"message": dialog.Message,
	}).Debug("accepting dialog")

	if err := handle(&proto.PageHandleJavaScriptDialog{Accept: true}); err != nil {
		return pkgerrors.Wrap(err, "failed to accept confirmation dialog")
	}

	return classify(ctx, <-clicked, selector, ErrTimeout)
}

// OpenControl navigates to the control overview listing all devices.
func (s *Session) OpenControl(ctx context.Context) error {
	logrus.Debug("opening control overview")
	return s.click(ctx, byID(idControl))
}

func (s *Session) findRow(p *rod.Page, name string) (*rod.Element, error) {
	return p.ElementX(controlRowXPath(name))
}

// TargetTemperature reads the target temperature shown in the device's row
// on the control overview.
func (s *Session) TargetTemperature(ctx context.Context, name string) (float64, error) {
	return s.pollDisplay(ctx, fmt.Sprintf("target temperature of %q", name), func(p *rod.Page) (*rod.Element, error) {
		row, err := s.findRow(p, name)
		if err != nil {
			return nil, err
		}
		return row.ElementX(xpathRowDisplay)
	})
}

// StepTarget presses the down or up stepper of the device's row once. The
// stepper applies immediately, the caller is responsible for pacing.
func (s *Session) StepTarget(ctx context.Context, name string, dir Direction) error {
	p, cancel := s.bounded(ctx)
	defer cancel()

	row, err := s.findRow(p, name)
	if err != nil {
		return classify(ctx, err, fmt.Sprintf("row of %q", name), ErrTimeout)
	}

	buttons, err := row.ElementsX(xpathRowButtons)
	if err != nil {
		return classify(ctx, err, fmt.Sprintf("buttons of %q", name), ErrTimeout)
	}

	idx := rowButtonUp
	if dir == Down {
		idx = rowButtonDown
	}
	if len(buttons) <= idx {
		return fmt.Errorf("%w: %q has %d buttons", ErrRowNotFound, name, len(buttons))
	}

	return classify(ctx, buttons[idx].Click(proto.InputMouseButtonLeft, 1), fmt.Sprintf("%s button of %q", dir, name), ErrTimeout)
}

// Logout signs out through the user menu.
func (s *Session) Logout(ctx context.Context) error {
	logrus.Debug("logging out")

	if err := s.click(ctx, byID(idUserMenu)); err != nil {
		return err
	}
	return s.click(ctx, byID(idLogout))
}
