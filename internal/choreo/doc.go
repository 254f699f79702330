// Package choreo contains the choreography data model and the timed
// action sequencer.
//
// A choreography is a Script: an ordered list of steps, each pairing an
// offset in seconds from performance start with an Action (drive, set the
// light ring, or finish). The Sequencer walks the script against a clock
// and hands back every action whose offset has elapsed, exactly once per
// performance.
//
// # Design
//
//   - Script is immutable after construction; all validation happens in
//     NewScript (or LoadScript for YAML files) and never mid-performance.
//   - Action is a closed sum type over Move, SetLights and Finished.
//     Consumers switch exhaustively over the three variants.
//   - The Sequencer is pure logic with no I/O. It holds a cursor into the
//     script and the start time of the current performance. Restarting is
//     just calling Start again.
//
// # Usage
//
//	script, err := choreo.NewScript([]choreo.Step{
//	    {Offset: 0, Action: choreo.NewMove(0.15, 0)},
//	    {Offset: 2, Action: choreo.SolidLights(choreo.Blue)},
//	    {Offset: 4, Action: choreo.Finished{}},
//	})
//	seq := choreo.NewSequencer(script)
//	seq.Start(time.Now())
//	actions, err := seq.Advance(time.Now())
package choreo
