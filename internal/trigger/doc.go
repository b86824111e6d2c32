// Package trigger turns a form submission into an availability report.
//
// A Submission maps question titles to answers, the same shape a Google Forms
// submit event carries in namedValues. Pipeline.Handle reads the date, start
// time and end time answers, parses them into a window, checks every
// configured user and replaces the results sheet:
//
//	p := trigger.NewPipeline(checker, writer, cfg.Users,
//		trigger.WithLocation(loc),
//		trigger.WithSource(instrumentation.SourceHTTP),
//	)
//	out, err := p.Handle(ctx, sub)
//
// Missing answers fail with *InputError and unparseable ones with a wrapped
// *timeparse.ParseError. Neither queries a calendar or touches the sheet.
package trigger
