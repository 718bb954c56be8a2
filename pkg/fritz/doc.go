// Package fritz drives the FRITZ!Box web console through a headless Chrome
// controlled by go-rod. It exposes the few console interactions needed to
// change a thermostat's sensor offset and target temperature.
//
// Every wait is bounded by Options.Timeout. A timeout is reported as
// ErrTimeout, except for the offset step buttons: the console disables them
// once the offset limit of +/- 5 °C is reached, so waiting for them reports
// ErrControlDisabled instead.
package fritz
