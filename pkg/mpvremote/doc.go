// Package mpvremote provides a client for the mpv remote HTTP server.
//
// # Overview
//
// The server keeps a single authoritative media player and exposes it
// through a handful of endpoints: a JSON status snapshot, a string based
// command channel, uploads, directory browsing and password
// authentication. This package wraps those endpoints with typed requests
// and typed errors. It performs no retries: every call is a single
// attempt, and every failure comes back as an *Error.
//
// # Quick Start
//
//	client, err := mpvremote.NewClient(mpvremote.Config{
//	    BaseURL: "http://192.168.1.20:8080/",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := client.Authenticate(ctx, "secret"); err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, err := client.Status(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(snap.Name, snap.Time, "/", snap.Duration)
//
// # Commands
//
// The command endpoint accepts a small space separated grammar. Use the
// constructors instead of formatting strings by hand:
//
//	client.Send(ctx, mpvremote.Pause(true))               // "pause 1"
//	client.Send(ctx, mpvremote.Move(-15))                 // "move -15"
//	client.Send(ctx, mpvremote.Seek(42))                  // "seek 42"
//	client.Send(ctx, mpvremote.Open("http://x/a.mp4"))    // open "http://x/a.mp4" --pause
//
// Open wraps the source in double quotes and nothing else. The server
// splits on spaces and groups quoted tokens, so a source that itself
// contains a double quote or a line break changes the meaning of the
// command. ValidateSource reports such sources; callers that accept
// untrusted input should run it before calling Open.
//
// # Sessions
//
// The server authenticates with a cookie. The default HTTP client keeps a
// cookie jar; Cookies exports the current cookies so they can be stored
// and handed back through Config.Cookies on the next run.
//
// # Errors
//
//	err := client.Send(ctx, mpvremote.Pause(false))
//	if errors.Is(err, mpvremote.ErrUnauthorized) {
//	    // log in again
//	}
//
//	var rerr *mpvremote.Error
//	if errors.As(err, &rerr) {
//	    fmt.Println(rerr.Op, rerr.StatusCode)
//	}
package mpvremote
