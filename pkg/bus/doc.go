// Package bus defines the message consumer contract shared by the Kafka and RabbitMQ
// transports and selects one of them at startup.
package bus
