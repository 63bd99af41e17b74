// Package camera runs PTP transactions against a camera and implements the
// CHDK vendor extension on top of them.
//
// # Overview
//
// Engine performs the command / data / response exchange of a single PTP
// transaction over any ptp.Transport. CHDK embeds an Engine and adds:
//   - Lua script execution with status polling and script messages
//   - Chunked file upload and download
//   - Live view frame retrieval, decoded by package liveview
//
// # Basic Usage
//
//	t, err := usb.Open()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer t.Close()
//
//	cam := camera.NewCHDK(t)
//	run, err := cam.ExecuteLua(ctx, "return 6*7", true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range run.Returned() {
//	    fmt.Println(m)
//	}
//
// # Configuration Options
//
//	cam := camera.NewCHDK(t,
//	    camera.WithLogger(camera.NewZerologLogger(logger)),
//	    camera.WithTimeout(10*time.Second),
//	    camera.WithMaxTransferSize(1<<20),
//	    camera.WithScriptTimeout(time.Minute),
//	    camera.WithTable(table),
//	)
//
// Vendor opcodes and flag bits live in a Table. DefaultTable matches stock
// CHDK; LoadTable reads overrides from a TOML file.
//
// # Errors and Recovery
//
// Transport failures are returned as-is (ptp.ErrTimeout, ptp.ErrNotOpen).
// A container that does not fit the current phase yields *ptp.MismatchError.
// After a timeout or mismatch the engine refuses further transactions
// until Reopen succeeds, since host and camera may disagree on the
// protocol state. Non-OK response codes are *ptp.ResponseError.
//
// A script that fails on the camera is not a Go error: it is reported in
// ScriptExecution.Error, and ScriptExecution.Err converts it to a
// *ScriptError on request.
//
// # Concurrency
//
// Neither Engine nor CHDK is safe for concurrent use. Only one
// transaction may be in flight per engine; serialize access externally.
// The engine never closes the transport it was given.
package camera
