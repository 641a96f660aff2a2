/*
Package dsl provides a fluent Go builder for handler pipelines.

It is the programmatic alternative to listing handler specs in a configuration
file, and is convenient in tests and small programs.

Example usage:

	specs, err := dsl.New().
		Input(redis.KindSource).Set("key", "ch1").Set("stop_on_empty", true).
		Then(handlers.KindCopy).Set("from", "item").Set("to", "result").
		Then(redis.KindSink).Set("key", "ch1:out").Set("from", "result").
		Specs()

	n, err := dsl.New().Input(handlers.KindCounter).NTrode(ntrode.WithName("demo"))
*/
package dsl
