// Package kafka consumes bus messages from Kafka with segmentio/kafka-go.
//
// The consumer joins one consumer group for all subscribed topics (GroupTopics) and
// fans messages out to a fixed number of worker goroutines by partition, so messages of
// one partition are handled in order. Offsets are committed explicitly after the handler
// returns; a message whose processing failed is still committed and never redelivered.
//
//	c, err := kafka.NewConsumer(kafka.Config{Brokers: []string{"localhost:9092"}}, log)
//	err = c.Start(ctx, []string{"raw-data", "processed-data"}, handle)
//	defer c.Stop(context.Background())
package kafka
