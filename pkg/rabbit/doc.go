// Package rabbit consumes bus messages from RabbitMQ with rabbitmq/amqp091-go.
//
// Topics map to routing keys on a durable topic exchange. The consumer binds one durable
// queue once per topic, limits unacknowledged deliveries with a prefetch count and
// acknowledges each delivery after the handler returns.
//
// When the broker drops the connection the consumer logs the close reason at error
// level, then dials again with exponential backoff and redeclares its topology.
// Deliveries that were unacknowledged at the time of the drop are redelivered by the
// broker.
package rabbit
