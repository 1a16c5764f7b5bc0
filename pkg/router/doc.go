// Package router consumes the message bus and hands every payload to the sink bound to
// its topic.
//
// The topic table is static: the raw topic feeds the time-series sink and the
// processed topic feeds the analytical sink. Failures are handled per message. A payload
// that cannot be decoded, a topic without a sink, a sink returning false or a sink that
// panics are logged and counted, and the next message is processed normally.
//
// Basic usage:
//
//	r := router.New(consumer, map[string]router.Sink{
//		"raw-data":       tsSink,
//		"processed-data": analyticalSink,
//	}, log)
//	if err := r.Start(ctx, r.Topics()); err != nil {
//		// ingestion disabled, the rest of the process keeps running
//	}
//	defer r.Stop(context.Background())
package router
