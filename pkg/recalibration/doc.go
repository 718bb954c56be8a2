// Package recalibration implements the thermostat sensor recalibration run:
// read the thermostat and reference thermometer from the state provider,
// step the sensor offset in the router console until the displayed
// temperature matches the normalized reference, and put back the target
// temperature if the console reset it while saving the offset.
//
// It contains:
//
//   - Handler: executes one run at a time and keeps the latest Run
//   - Phase / OffsetState: the states of a run and of the offset sub-loop
//   - Console / StateProvider: the collaborators a run drives
package recalibration
